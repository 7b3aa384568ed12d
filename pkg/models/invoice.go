package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus tracks where an invoice is in its lifecycle
type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceSent  InvoiceStatus = "sent"
	InvoicePaid  InvoiceStatus = "paid"
)

type Invoice struct {
	// Core identifiers
	ID        string
	CompanyID string
	Number    string // Human-readable invoice number

	Customer string
	Currency string

	// Dates
	IssueDate time.Time
	PaidAt    *time.Time // nil until paid

	Status InvoiceStatus
	Items  []InvoiceItem // Ordered by Position
}

// Total is the sum of quantity * unit price over all items
func (inv *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Quantity.Mul(item.UnitPrice))
	}
	return total
}

// ProductIDs returns the distinct product references of the invoice items
func (inv *Invoice) ProductIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, item := range inv.Items {
		if item.ProductID == nil || *item.ProductID == "" {
			continue
		}
		if _, ok := seen[*item.ProductID]; ok {
			continue
		}
		seen[*item.ProductID] = struct{}{}
		ids = append(ids, *item.ProductID)
	}
	return ids
}

// InvoiceItem is a line of an invoice. ProductName and UnitPrice are a
// snapshot taken when the item was written and survive product deletion.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	Position    int
	ProductID   *string // Weak reference, may point at a deleted product
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Product carries a sale price and, separately, the unit cost used for COGS
type Product struct {
	ID           string
	CompanyID    string
	Name         string
	Price        decimal.Decimal
	Currency     string
	Cost         decimal.Decimal
	CostCurrency string
}

// EntryType classifies a bookkeeping entry
type EntryType string

const (
	EntryRevenue EntryType = "revenue"
	EntryExpense EntryType = "expense"
)

// BookkeepingEntry is a revenue or expense row. COGS is a snapshot frozen at
// creation and is never re-derived from current product costs.
type BookkeepingEntry struct {
	ID          string
	CompanyID   string
	Type        EntryType
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    string

	COGS     decimal.Decimal
	COGSPaid decimal.Decimal

	IsFromInvoice bool
	InvoiceID     *string
	CreatedAt     time.Time
}
