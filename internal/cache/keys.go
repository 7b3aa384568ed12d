package cache

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"bookkeeper/pkg/models"
)

// Keys have the shape
//
//	<kind>|co=,<company>,...|acct=,<type>:<id>,...|prod=,<product>,...|<param>=<value>|...
//
// Every ID is query-escaped so it cannot contain glob metacharacters, and
// list members are comma-fenced so one ID never matches a prefix of another.

// Scope is the set of companies, accounts and products a cached result
// depends on
type Scope struct {
	Companies []string
	Accounts  []models.AccountKey
	Products  []string
}

func (s Scope) encode() string {
	companies := escapedSet(s.Companies)
	products := escapedSet(s.Products)

	accounts := make([]string, 0, len(s.Accounts))
	for _, a := range s.Accounts {
		accounts = append(accounts, accountToken(a))
	}
	slices.Sort(accounts)
	accounts = slices.Compact(accounts)

	return "co=" + fence(companies) + "|acct=" + fence(accounts) + "|prod=" + fence(products)
}

func escapedSet(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, url.QueryEscape(id))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func fence(items []string) string {
	return "," + strings.Join(items, ",") + ","
}

func accountToken(a models.AccountKey) string {
	return url.QueryEscape(string(a.Type)) + ":" + url.QueryEscape(a.ID)
}

func timeParam(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// BalanceKey identifies a single balance resolution
func BalanceKey(scope Scope, currency string, asOf *time.Time) string {
	return "balance|" + scope.encode() + "|cur=" + url.QueryEscape(currency) + "|asof=" + timeParam(asOf)
}

// CashflowKey identifies a cashflow aggregation
func CashflowKey(scope Scope, currency string, from, to time.Time, groupBy string) string {
	return "cashflow|" + scope.encode() +
		"|cur=" + url.QueryEscape(currency) +
		"|from=" + timeParam(&from) +
		"|to=" + timeParam(&to) +
		"|group=" + url.QueryEscape(groupBy)
}

// COGSKey identifies the COGS of an invoice
func COGSKey(scope Scope, invoiceID string) string {
	return "cogs|" + scope.encode() + "|inv=" + url.QueryEscape(invoiceID)
}

// AccountPattern matches every key whose scope includes the account
func AccountPattern(a models.AccountKey) string {
	return "*|acct=*," + accountToken(a) + ",*"
}

// ProductPattern matches every key whose scope includes the product
func ProductPattern(productID string) string {
	return "*|prod=*," + url.QueryEscape(productID) + ",*"
}

// CompanyPattern matches every key whose scope includes the company
func CompanyPattern(companyID string) string {
	return "*|co=*," + url.QueryEscape(companyID) + ",*"
}
