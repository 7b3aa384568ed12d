package services

import (
	"context"
	"errors"
	"time"

	"bookkeeper/pkg/models"
)

// ErrRecordNotFound is returned by stores when a looked-up record does not exist
var ErrRecordNotFound = errors.New("record not found")

// AccountFilter narrows ListAccounts. Zero values match everything.
type AccountFilter struct {
	CompanyID  string
	Type       models.AccountType
	ActiveOnly bool
}

// TransactionQuery narrows FindTransactions. Both date bounds are inclusive.
type TransactionQuery struct {
	Currency string // Empty means every currency
	From     *time.Time
	To       *time.Time
}

// ManualEntryQuery narrows FindManualEntries to an inclusive month range
type ManualEntryQuery struct {
	Currency string
	From     *models.Month
	To       *models.Month
}

// LedgerReader is the query side of the ledger store
type LedgerReader interface {
	FindAccount(ctx context.Context, key models.AccountKey) (*models.Account, error)
	ListAccounts(ctx context.Context, filter AccountFilter) ([]models.Account, error)

	// FindOpeningBalance returns nil, nil when no opening balance was recorded
	FindOpeningBalance(ctx context.Context, key models.AccountKey, currency string) (*models.OpeningBalance, error)

	// FindTransactions never returns logically deleted transactions
	FindTransactions(ctx context.Context, key models.AccountKey, q TransactionQuery) ([]models.LedgerTransaction, error)
	FindManualEntries(ctx context.Context, key models.AccountKey, q ManualEntryQuery) ([]models.ManualCashflowEntry, error)

	FindInvoice(ctx context.Context, id string) (*models.Invoice, error)

	// FindProductsByIDs silently omits IDs that do not exist
	FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	FindBookkeepingEntryByInvoice(ctx context.Context, invoiceID string) (*models.BookkeepingEntry, error)
}

// LedgerWriter is the mutation side of the ledger store. Transactions are
// append-only, opening balances upsert-only, deletes are logical.
type LedgerWriter interface {
	SaveAccount(ctx context.Context, account *models.Account) error
	UpsertOpeningBalance(ctx context.Context, ob *models.OpeningBalance) error
	PostTransaction(ctx context.Context, tx *models.LedgerTransaction) error
	DeleteTransaction(ctx context.Context, id string) error
	SaveManualEntry(ctx context.Context, entry *models.ManualCashflowEntry) error
	DeleteManualEntry(ctx context.Context, id string) error
	SaveProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SaveInvoice(ctx context.Context, invoice *models.Invoice) error
	SaveBookkeepingEntry(ctx context.Context, entry *models.BookkeepingEntry) error
}

// LedgerStore is the full store contract
type LedgerStore interface {
	LedgerReader
	LedgerWriter
}

// ChangeEvent describes a committed mutation and the scopes it touches
type ChangeEvent struct {
	Entity     string // e.g. "opening_balance", "ledger_transaction"
	Accounts   []models.AccountKey
	CompanyIDs []string
	Products   []string // Product IDs whose cost may have changed
}

// ChangeNotifier receives an event after every successful store write
type ChangeNotifier interface {
	Notify(ctx context.Context, event ChangeEvent)
}
