package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"bookkeeper/internal/ledger"
	"bookkeeper/internal/store"
	"bookkeeper/pkg/models"
)

func seedInvoice(t *testing.T, s *store.Memory) *models.Invoice {
	t.Helper()
	ctx := context.Background()

	a := &models.Product{ID: "p-a", CompanyID: "c1", Name: "A", Cost: decimal.RequireFromString("100"), CostCurrency: "EUR"}
	b := &models.Product{ID: "p-b", CompanyID: "c1", Name: "B", Cost: decimal.RequireFromString("250"), CostCurrency: "EUR"}
	assert.NoError(t, s.SaveProduct(ctx, a))
	assert.NoError(t, s.SaveProduct(ctx, b))

	pa, pb := a.ID, b.ID
	inv := &models.Invoice{
		CompanyID: "c1",
		Number:    "2024-001",
		Customer:  "ACME",
		Currency:  "eur",
		IssueDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Status:    models.InvoiceSent,
		Items: []models.InvoiceItem{
			{ProductID: &pa, Quantity: decimal.RequireFromString("2"), UnitPrice: decimal.RequireFromString("180")},
			{ProductID: &pb, Quantity: decimal.RequireFromString("1"), UnitPrice: decimal.RequireFromString("400")},
		},
	}
	assert.NoError(t, s.SaveInvoice(ctx, inv))
	return inv
}

func TestRecordInvoicePayment(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory(nil)
	inv := seedInvoice(t, s)
	paidAt := time.Date(2024, 4, 20, 15, 0, 0, 0, time.UTC)

	entry, created, err := NewRecorder(s).RecordInvoicePayment(ctx, inv.ID, paidAt)
	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.EntryRevenue, entry.Type)
	assert.Equal(t, "760", entry.Amount.String())
	assert.Equal(t, "450", entry.COGS.String())
	assert.True(t, entry.COGSPaid.IsZero())
	assert.True(t, entry.IsFromInvoice)
	assert.Equal(t, "EUR", entry.Currency)
	assert.Equal(t, inv.ID, *entry.InvoiceID)

	paid, err := s.FindInvoice(ctx, inv.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)
	assert.Equal(t, paidAt, *paid.PaidAt)
}

func TestRecordInvoicePaymentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory(nil)
	inv := seedInvoice(t, s)
	r := NewRecorder(s)

	first, created, err := r.RecordInvoicePayment(ctx, inv.ID, time.Now())
	assert.NoError(t, err)
	assert.True(t, created)

	second, created, err := r.RecordInvoicePayment(ctx, inv.ID, time.Now())
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestProductCostChangeDoesNotAlterEntry(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory(nil)
	inv := seedInvoice(t, s)
	r := NewRecorder(s)

	entry, _, err := r.RecordInvoicePayment(ctx, inv.ID, time.Now())
	assert.NoError(t, err)

	assert.NoError(t, s.SaveProduct(ctx, &models.Product{ID: "p-a", CompanyID: "c1", Name: "A", Cost: decimal.RequireFromString("999"), CostCurrency: "EUR"}))

	stored, err := s.FindBookkeepingEntryByInvoice(ctx, inv.ID)
	assert.NoError(t, err)
	assert.Equal(t, entry.COGS.String(), stored.COGS.String())
	assert.Equal(t, "450", stored.COGS.String())
}

func TestRecordInvoicePaymentErrors(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory(nil)
	r := NewRecorder(s)

	_, _, err := r.RecordInvoicePayment(ctx, "missing", time.Now())
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	_, _, err = r.RecordInvoicePayment(ctx, "missing", time.Time{})
	assert.True(t, errors.Is(err, ledger.ErrInvalidInput))
}

// invoiceSaveFailer fails the next n SaveInvoice calls
type invoiceSaveFailer struct {
	*store.Memory
	n int
}

func (s *invoiceSaveFailer) SaveInvoice(ctx context.Context, invoice *models.Invoice) error {
	if s.n > 0 {
		s.n--
		return errors.New("disk full")
	}
	return s.Memory.SaveInvoice(ctx, invoice)
}

func TestRecordInvoicePaymentRetryCompletesPayment(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)
	inv := seedInvoice(t, mem)
	s := &invoiceSaveFailer{Memory: mem, n: 1}
	r := NewRecorder(s)
	paidAt := time.Date(2024, 4, 20, 15, 0, 0, 0, time.UTC)

	_, _, err := r.RecordInvoicePayment(ctx, inv.ID, paidAt)
	assert.Error(t, err)

	entry, created, err := r.RecordInvoicePayment(ctx, inv.ID, paidAt.Add(24*time.Hour))
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "450", entry.COGS.String())

	paid, err := mem.FindInvoice(ctx, inv.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)
	assert.NotZero(t, paid.PaidAt)
	assert.Equal(t, paidAt, *paid.PaidAt)
}
