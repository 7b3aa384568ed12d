package store

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bookkeeper/pkg/models"
)

// Database rows. Money columns are numeric(20,4), read back through
// decimal.Decimal's Scanner.

type accountRecord struct {
	ID         string `gorm:"primaryKey;size:64"`
	Type       string `gorm:"primaryKey;size:16"`
	CompanyID  string `gorm:"index;size:64;not null"`
	Name       string `gorm:"size:255;not null"`
	Currency   string `gorm:"size:16;not null"`
	Currencies string `gorm:"size:255"` // comma-delimited, wallets only
	Active     bool   `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (accountRecord) TableName() string { return "accounts" }

type openingBalanceRecord struct {
	ID          uint            `gorm:"primaryKey"`
	AccountID   string          `gorm:"size:64;not null;uniqueIndex:idx_ob_account_currency,priority:1"`
	AccountType string          `gorm:"size:16;not null;uniqueIndex:idx_ob_account_currency,priority:2"`
	Currency    string          `gorm:"size:16;not null;uniqueIndex:idx_ob_account_currency,priority:3"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Notes       string          `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (openingBalanceRecord) TableName() string { return "opening_balances" }

type transactionRecord struct {
	ID                 string          `gorm:"primaryKey;size:64"`
	AccountID          string          `gorm:"size:64;not null;index:idx_tx_account_currency_date,priority:1"`
	AccountType        string          `gorm:"size:16;not null;index:idx_tx_account_currency_date,priority:2"`
	Currency           string          `gorm:"size:16;not null;index:idx_tx_account_currency_date,priority:3"`
	Date               time.Time       `gorm:"not null;index:idx_tx_account_currency_date,priority:4"`
	IncomingAmount     decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	OutgoingAmount     decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	NetAmount          decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Description        string          `gorm:"type:text"`
	BookkeepingEntryID *string         `gorm:"size:64;index"`
	CreatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (transactionRecord) TableName() string { return "ledger_transactions" }

type manualEntryRecord struct {
	ID          string          `gorm:"primaryKey;size:64"`
	AccountID   string          `gorm:"size:64;not null;index:idx_manual_account_period,priority:1"`
	AccountType string          `gorm:"size:16;not null;index:idx_manual_account_period,priority:2"`
	Currency    string          `gorm:"size:16;not null"`
	Period      string          `gorm:"size:7;not null;index:idx_manual_account_period,priority:3"` // YYYY-MM
	Type        string          `gorm:"size:16;not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Description string          `gorm:"type:text"`
	Notes       string          `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (manualEntryRecord) TableName() string { return "manual_cashflow_entries" }

type productRecord struct {
	ID           string          `gorm:"primaryKey;size:64"`
	CompanyID    string          `gorm:"index;size:64;not null"`
	Name         string          `gorm:"size:255;not null"`
	Price        decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Currency     string          `gorm:"size:16"`
	Cost         decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	CostCurrency string          `gorm:"size:16"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (productRecord) TableName() string { return "products" }

type invoiceRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	CompanyID string `gorm:"index;size:64;not null"`
	Number    string `gorm:"size:64;not null"`
	Customer  string `gorm:"size:255"`
	Currency  string `gorm:"size:16;not null"`
	IssueDate time.Time
	PaidAt    *time.Time
	Status    string              `gorm:"size:16;not null;default:draft"`
	Items     []invoiceItemRecord `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (invoiceRecord) TableName() string { return "invoices" }

type invoiceItemRecord struct {
	ID          string          `gorm:"primaryKey;size:64"`
	InvoiceID   string          `gorm:"size:64;not null;index"`
	Position    int             `gorm:"not null"`
	ProductID   *string         `gorm:"size:64;index"` // no FK, products may be deleted
	ProductName string          `gorm:"size:255"`
	Quantity    decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(20,4);not null"`
}

func (invoiceItemRecord) TableName() string { return "invoice_items" }

type bookkeepingEntryRecord struct {
	ID            string          `gorm:"primaryKey;size:64"`
	CompanyID     string          `gorm:"index;size:64;not null"`
	Type          string          `gorm:"size:16;not null"`
	Date          time.Time       `gorm:"not null"`
	Description   string          `gorm:"type:text"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Currency      string          `gorm:"size:16;not null"`
	COGS          decimal.Decimal `gorm:"column:cogs;type:numeric(20,4);not null;default:0"`
	COGSPaid      decimal.Decimal `gorm:"column:cogs_paid;type:numeric(20,4);not null;default:0"`
	IsFromInvoice bool            `gorm:"not null;default:false"`
	InvoiceID     *string         `gorm:"size:64;uniqueIndex"`
	CreatedAt     time.Time
}

func (bookkeepingEntryRecord) TableName() string { return "bookkeeping_entries" }

// allRecords lists every table for AutoMigrate
func allRecords() []interface{} {
	return []interface{}{
		&accountRecord{},
		&openingBalanceRecord{},
		&transactionRecord{},
		&manualEntryRecord{},
		&productRecord{},
		&invoiceRecord{},
		&invoiceItemRecord{},
		&bookkeepingEntryRecord{},
	}
}

func accountFromRecord(r *accountRecord) models.Account {
	return models.Account{
		ID:         r.ID,
		Type:       models.AccountType(r.Type),
		CompanyID:  r.CompanyID,
		Name:       r.Name,
		Currency:   r.Currency,
		Currencies: r.Currencies,
		Active:     r.Active,
	}
}

func accountToRecord(a *models.Account) accountRecord {
	return accountRecord{
		ID:         a.ID,
		Type:       string(a.Type),
		CompanyID:  a.CompanyID,
		Name:       a.Name,
		Currency:   a.Currency,
		Currencies: a.Currencies,
		Active:     a.Active,
	}
}

func openingFromRecord(r *openingBalanceRecord) models.OpeningBalance {
	return models.OpeningBalance{
		AccountID:   r.AccountID,
		AccountType: models.AccountType(r.AccountType),
		Currency:    r.Currency,
		Amount:      r.Amount,
		Notes:       r.Notes,
		UpdatedAt:   r.UpdatedAt,
	}
}

func transactionFromRecord(r *transactionRecord) models.LedgerTransaction {
	state := models.TxActive
	if r.DeletedAt.Valid {
		state = models.TxDeleted
	}
	return models.LedgerTransaction{
		ID:                 r.ID,
		AccountID:          r.AccountID,
		AccountType:        models.AccountType(r.AccountType),
		Currency:           r.Currency,
		Date:               r.Date.UTC(),
		Incoming:           r.IncomingAmount,
		Outgoing:           r.OutgoingAmount,
		Description:        r.Description,
		BookkeepingEntryID: r.BookkeepingEntryID,
		State:              state,
		CreatedAt:          r.CreatedAt,
	}
}

func transactionToRecord(tx *models.LedgerTransaction) transactionRecord {
	return transactionRecord{
		ID:                 tx.ID,
		AccountID:          tx.AccountID,
		AccountType:        string(tx.AccountType),
		Currency:           tx.Currency,
		Date:               tx.Date.UTC(),
		IncomingAmount:     tx.Incoming,
		OutgoingAmount:     tx.Outgoing,
		NetAmount:          tx.Net(),
		Description:        tx.Description,
		BookkeepingEntryID: tx.BookkeepingEntryID,
		CreatedAt:          tx.CreatedAt,
	}
}

func manualFromRecord(r *manualEntryRecord) (models.ManualCashflowEntry, error) {
	period, err := models.ParseMonth(r.Period)
	if err != nil {
		return models.ManualCashflowEntry{}, err
	}
	return models.ManualCashflowEntry{
		ID:          r.ID,
		AccountID:   r.AccountID,
		AccountType: models.AccountType(r.AccountType),
		Currency:    r.Currency,
		Period:      period,
		Type:        models.CashflowType(r.Type),
		Amount:      r.Amount,
		Description: r.Description,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
	}, nil
}

func manualToRecord(e *models.ManualCashflowEntry) manualEntryRecord {
	return manualEntryRecord{
		ID:          e.ID,
		AccountID:   e.AccountID,
		AccountType: string(e.AccountType),
		Currency:    e.Currency,
		Period:      e.Period.String(),
		Type:        string(e.Type),
		Amount:      e.Amount,
		Description: e.Description,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
	}
}

func productFromRecord(r *productRecord) models.Product {
	return models.Product{
		ID:           r.ID,
		CompanyID:    r.CompanyID,
		Name:         r.Name,
		Price:        r.Price,
		Currency:     r.Currency,
		Cost:         r.Cost,
		CostCurrency: r.CostCurrency,
	}
}

func productToRecord(p *models.Product) productRecord {
	return productRecord{
		ID:           p.ID,
		CompanyID:    p.CompanyID,
		Name:         p.Name,
		Price:        p.Price,
		Currency:     p.Currency,
		Cost:         p.Cost,
		CostCurrency: p.CostCurrency,
	}
}

func invoiceFromRecord(r *invoiceRecord) models.Invoice {
	inv := models.Invoice{
		ID:        r.ID,
		CompanyID: r.CompanyID,
		Number:    r.Number,
		Customer:  r.Customer,
		Currency:  r.Currency,
		IssueDate: r.IssueDate,
		PaidAt:    r.PaidAt,
		Status:    models.InvoiceStatus(r.Status),
		Items:     make([]models.InvoiceItem, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		inv.Items = append(inv.Items, models.InvoiceItem{
			ID:          it.ID,
			InvoiceID:   it.InvoiceID,
			Position:    it.Position,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return inv
}

func invoiceToRecord(inv *models.Invoice) invoiceRecord {
	r := invoiceRecord{
		ID:        inv.ID,
		CompanyID: inv.CompanyID,
		Number:    inv.Number,
		Customer:  inv.Customer,
		Currency:  inv.Currency,
		IssueDate: inv.IssueDate,
		PaidAt:    inv.PaidAt,
		Status:    string(inv.Status),
	}
	for _, it := range inv.Items {
		r.Items = append(r.Items, invoiceItemRecord{
			ID:          it.ID,
			InvoiceID:   inv.ID,
			Position:    it.Position,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return r
}

func entryFromRecord(r *bookkeepingEntryRecord) models.BookkeepingEntry {
	return models.BookkeepingEntry{
		ID:            r.ID,
		CompanyID:     r.CompanyID,
		Type:          models.EntryType(r.Type),
		Date:          r.Date,
		Description:   r.Description,
		Amount:        r.Amount,
		Currency:      r.Currency,
		COGS:          r.COGS,
		COGSPaid:      r.COGSPaid,
		IsFromInvoice: r.IsFromInvoice,
		InvoiceID:     r.InvoiceID,
		CreatedAt:     r.CreatedAt,
	}
}

func entryToRecord(e *models.BookkeepingEntry) bookkeepingEntryRecord {
	return bookkeepingEntryRecord{
		ID:            e.ID,
		CompanyID:     e.CompanyID,
		Type:          string(e.Type),
		Date:          e.Date,
		Description:   e.Description,
		Amount:        e.Amount,
		Currency:      e.Currency,
		COGS:          e.COGS,
		COGSPaid:      e.COGSPaid,
		IsFromInvoice: e.IsFromInvoice,
		InvoiceID:     e.InvoiceID,
		CreatedAt:     e.CreatedAt,
	}
}
