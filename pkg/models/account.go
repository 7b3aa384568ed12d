package models

import (
	"fmt"
	"strings"
)

// AccountType distinguishes bank accounts from digital wallets
type AccountType string

const (
	AccountTypeBank   AccountType = "bank"
	AccountTypeWallet AccountType = "wallet"
)

// ParseAccountType accepts "bank" or "wallet" in any case
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(strings.ToLower(strings.TrimSpace(s))) {
	case AccountTypeBank:
		return AccountTypeBank, nil
	case AccountTypeWallet:
		return AccountTypeWallet, nil
	default:
		return "", fmt.Errorf("unknown account type %q (must be 'bank' or 'wallet')", s)
	}
}

// NormalizeCurrency trims and uppercases a currency code. Stores apply it to
// every currency they write and query so codes compare exactly.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AccountKey identifies an account. IDs are only unique within a type.
type AccountKey struct {
	ID   string
	Type AccountType
}

// String renders the key as "type:id"
func (k AccountKey) String() string {
	return string(k.Type) + ":" + k.ID
}

// Account is a bank account or wallet owned by exactly one company
type Account struct {
	ID        string
	Type      AccountType
	CompanyID string
	Name      string // Display name, used for ordering in reports
	Currency  string // Primary currency

	// Currencies is the raw comma-delimited list stored for multi-currency
	// wallets. Legacy single-currency wallets leave it empty. Only the
	// ledger expander parses it.
	Currencies string

	Active bool
}

// Key returns the account identity
func (a *Account) Key() AccountKey {
	return AccountKey{ID: a.ID, Type: a.Type}
}
