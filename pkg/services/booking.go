package services

import (
	"context"
	"time"

	"bookkeeper/pkg/models"
)

// BookingService turns paid invoices into bookkeeping entries
type BookingService interface {
	// RecordInvoicePayment marks the invoice paid and creates its revenue
	// entry with COGS frozen at this moment. Calling it again for an invoice
	// that already has an entry returns that entry with created == false.
	RecordInvoicePayment(ctx context.Context, invoiceID string, paidAt time.Time) (entry *models.BookkeepingEntry, created bool, err error)
}
