package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpeningBalance is the balance of an (account, currency) pair before any
// recorded transaction. At most one exists per pair.
type OpeningBalance struct {
	AccountID   string
	AccountType AccountType
	Currency    string
	Amount      decimal.Decimal
	Notes       string
	UpdatedAt   time.Time
}

// TxState is the lifecycle state of a ledger transaction
type TxState string

const (
	TxActive  TxState = "active"
	TxDeleted TxState = "deleted"
)

// LedgerTransaction is a posted movement of funds. It is never edited and
// only ever logically deleted.
type LedgerTransaction struct {
	ID          string
	AccountID   string
	AccountType AccountType
	Currency    string
	Date        time.Time
	Incoming    decimal.Decimal
	Outgoing    decimal.Decimal
	Description string

	BookkeepingEntryID *string // Set when generated from a bookkeeping entry
	State              TxState
	CreatedAt          time.Time
}

// Net returns incoming minus outgoing
func (t *LedgerTransaction) Net() decimal.Decimal {
	return t.Incoming.Sub(t.Outgoing)
}

// AccountKey returns the owning account identity
func (t *LedgerTransaction) AccountKey() AccountKey {
	return AccountKey{ID: t.AccountID, Type: t.AccountType}
}

// IsDeleted reports whether the transaction was logically deleted
func (t *LedgerTransaction) IsDeleted() bool {
	return t.State == TxDeleted
}

// CashflowType is the direction of a manual cashflow entry
type CashflowType string

const (
	CashflowInflow  CashflowType = "inflow"
	CashflowOutflow CashflowType = "outflow"
)

// ManualCashflowEntry is a user-entered adjustment that is not backed by a
// ledger transaction
type ManualCashflowEntry struct {
	ID          string
	AccountID   string
	AccountType AccountType
	Currency    string
	Period      Month
	Type        CashflowType
	Amount      decimal.Decimal // Always non-negative, direction comes from Type
	Description string
	Notes       string
	CreatedAt   time.Time
}

// AccountKey returns the owning account identity
func (e *ManualCashflowEntry) AccountKey() AccountKey {
	return AccountKey{ID: e.AccountID, Type: e.AccountType}
}
