// Package store provides the ledger store backends: an in-memory store for
// tests and small tools, and a GORM store for sqlite and postgres.
//
// Both enforce the write discipline the engine relies on: transactions are
// append-only and only logically deleted, opening balances are upserted,
// and every committed write is announced to the configured ChangeNotifier.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

// Entity names carried by change events
const (
	EntityAccount          = "account"
	EntityOpeningBalance   = "opening_balance"
	EntityTransaction      = "ledger_transaction"
	EntityManualEntry      = "manual_cashflow_entry"
	EntityProduct          = "product"
	EntityInvoice          = "invoice"
	EntityBookkeepingEntry = "bookkeeping_entry"
)

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, services.ChangeEvent) {}

func notifierOrNoop(n services.ChangeNotifier) services.ChangeNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func newID() string {
	return uuid.NewString()
}

func accountEvent(entity string, key models.AccountKey, companyID string) services.ChangeEvent {
	ev := services.ChangeEvent{Entity: entity, Accounts: []models.AccountKey{key}}
	if companyID != "" {
		ev.CompanyIDs = []string{companyID}
	}
	return ev
}

func companyEvent(entity, companyID string) services.ChangeEvent {
	return services.ChangeEvent{Entity: entity, CompanyIDs: []string{companyID}}
}

func productEvent(entity string, p *models.Product) services.ChangeEvent {
	return services.ChangeEvent{Entity: entity, CompanyIDs: []string{p.CompanyID}, Products: []string{p.ID}}
}

func normalizeAccount(a *models.Account) {
	a.Currency = models.NormalizeCurrency(a.Currency)
}

func normalizeProduct(p *models.Product) {
	p.Currency = models.NormalizeCurrency(p.Currency)
	p.CostCurrency = models.NormalizeCurrency(p.CostCurrency)
}

// validateTransaction normalizes the currency in place before checking
func validateTransaction(tx *models.LedgerTransaction) error {
	tx.Currency = models.NormalizeCurrency(tx.Currency)
	if tx.AccountID == "" || tx.AccountType == "" {
		return fmt.Errorf("transaction account is required")
	}
	if tx.Currency == "" {
		return fmt.Errorf("transaction currency is required")
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("transaction date is required")
	}
	if tx.Incoming.IsNegative() || tx.Outgoing.IsNegative() {
		return fmt.Errorf("transaction amounts must not be negative")
	}
	return nil
}

func validateManualEntry(e *models.ManualCashflowEntry) error {
	e.Currency = models.NormalizeCurrency(e.Currency)
	if e.AccountID == "" || e.AccountType == "" {
		return fmt.Errorf("manual entry account is required")
	}
	if e.Currency == "" {
		return fmt.Errorf("manual entry currency is required")
	}
	if e.Period.IsZero() {
		return fmt.Errorf("manual entry period is required")
	}
	if e.Type != models.CashflowInflow && e.Type != models.CashflowOutflow {
		return fmt.Errorf("manual entry type must be inflow or outflow, got %q", e.Type)
	}
	if e.Amount.IsNegative() {
		return fmt.Errorf("manual entry amount must not be negative")
	}
	return nil
}

// prepareTransaction fills defaults on a new transaction before it is stored
func prepareTransaction(tx *models.LedgerTransaction, now time.Time) {
	if tx.ID == "" {
		tx.ID = newID()
	}
	if tx.Incoming.IsZero() {
		tx.Incoming = decimal.Zero
	}
	if tx.Outgoing.IsZero() {
		tx.Outgoing = decimal.Zero
	}
	tx.Date = tx.Date.UTC()
	tx.State = models.TxActive
	tx.CreatedAt = now
}
