package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bookkeeper/internal/ledger"
	"bookkeeper/internal/logger"
	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

// Recorder implements BookingService on top of a ledger store
type Recorder struct {
	store services.LedgerStore
	log   zerolog.Logger
}

// NewRecorder creates a recorder writing to store
func NewRecorder(store services.LedgerStore) *Recorder {
	return &Recorder{
		store: store,
		log:   logger.WithComponent("booking"),
	}
}

var _ services.BookingService = (*Recorder)(nil)

// RecordInvoicePayment books the revenue of a paid invoice. The entry's COGS
// is computed from the product costs current at paidAt and never revisited.
func (r *Recorder) RecordInvoicePayment(ctx context.Context, invoiceID string, paidAt time.Time) (*models.BookkeepingEntry, bool, error) {
	const op = "RecordInvoicePayment"

	if paidAt.IsZero() {
		return nil, false, ledger.NewLedgerError(op,
			ledger.NewValidationError("paidAt", paidAt, "is required"), "invoice "+invoiceID)
	}

	invoice, err := r.store.FindInvoice(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			return nil, false, ledger.NewLedgerError(op, fmt.Errorf("%w: %w", ledger.ErrNotFound, err), "invoice "+invoiceID)
		}
		return nil, false, fmt.Errorf("%s: failed to load invoice: %w", op, err)
	}

	existing, err := r.store.FindBookkeepingEntryByInvoice(ctx, invoice.ID)
	switch {
	case err == nil:
		// A previous call may have booked the entry but failed to mark the
		// invoice paid
		if invoice.Status != models.InvoicePaid || invoice.PaidAt == nil {
			if err := r.markPaid(ctx, invoice, existing.Date); err != nil {
				return nil, false, fmt.Errorf("%s: %w", op, err)
			}
		}
		r.log.Info().
			Str("invoice_id", invoice.ID).
			Str("entry_id", existing.ID).
			Msg("Invoice already booked, returning existing entry")
		return existing, false, nil
	case !errors.Is(err, services.ErrRecordNotFound):
		return nil, false, fmt.Errorf("%s: failed to look up existing entry: %w", op, err)
	}

	products, err := r.store.FindProductsByIDs(ctx, invoice.ProductIDs())
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to load products: %w", op, err)
	}
	cogs, err := ledger.CalculateInvoiceCOGS(invoice, products)
	if err != nil {
		return nil, false, err
	}
	if cogs.MixedCurrencyWarning {
		r.log.Warn().
			Str("invoice_id", invoice.ID).
			Str("cogs", cogs.Total.String()).
			Msg("Invoice mixes product cost currencies, COGS summed without conversion")
	}

	paidAt = paidAt.UTC()
	id := invoice.ID
	entry := &models.BookkeepingEntry{
		CompanyID:     invoice.CompanyID,
		Type:          models.EntryRevenue,
		Date:          paidAt,
		Description:   describe(invoice),
		Amount:        invoice.Total(),
		Currency:      ledger.NormalizeCurrency(invoice.Currency),
		COGS:          cogs.Total,
		COGSPaid:      decimal.Zero,
		IsFromInvoice: true,
		InvoiceID:     &id,
	}
	if err := r.store.SaveBookkeepingEntry(ctx, entry); err != nil {
		return nil, false, fmt.Errorf("%s: failed to save bookkeeping entry: %w", op, err)
	}

	if err := r.markPaid(ctx, invoice, paidAt); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	r.log.Info().
		Str("invoice_id", invoice.ID).
		Str("entry_id", entry.ID).
		Str("amount", entry.Amount.String()).
		Str("cogs", entry.COGS.String()).
		Int("unmatched_items", cogs.UnmatchedItems).
		Msg("Invoice payment booked")

	return entry, true, nil
}

func (r *Recorder) markPaid(ctx context.Context, invoice *models.Invoice, paidAt time.Time) error {
	paidAt = paidAt.UTC()
	invoice.Status = models.InvoicePaid
	invoice.PaidAt = &paidAt
	if err := r.store.SaveInvoice(ctx, invoice); err != nil {
		return fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	return nil
}

func describe(invoice *models.Invoice) string {
	if invoice.Customer == "" {
		return "Invoice " + invoice.Number
	}
	return fmt.Sprintf("Invoice %s (%s)", invoice.Number, invoice.Customer)
}
