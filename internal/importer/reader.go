// Package importer loads ledger transactions and manual cashflow entries
// from spreadsheet ranges.
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bookkeeper/internal/ledger"
	"bookkeeper/internal/logger"
	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

// RangeReader reads a rectangular A1 range. sheets.Service implements it.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// Reader parses sheet rows into ledger records
type Reader struct {
	source RangeReader
	log    zerolog.Logger
}

// NewReader creates a reader over source
func NewReader(source RangeReader) *Reader {
	return &Reader{
		source: source,
		log:    logger.WithComponent("importer"),
	}
}

// ReadTransactions reads ledger transactions from sheetName.
// Expected columns: A=Date, B=AccountType, C=AccountID, D=Currency,
// E=Incoming, F=Outgoing, G=Description, H=Reference
func (r *Reader) ReadTransactions(ctx context.Context, sheetName string) ([]models.LedgerTransaction, error) {
	const op = "ReadTransactions"

	r.log.Info().Str("sheet", sheetName).Msg("Reading ledger transactions")

	values, err := r.source.ReadRange(ctx, sheetName+"!A:H")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, sheetName, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %s sheet is empty", op, sheetName)
	}

	var transactions []models.LedgerTransaction
	for i, row := range values[1:] {
		rowNum := i + 2 // header plus 1-based rows

		if len(row) < 5 {
			r.log.Warn().
				Int("row", rowNum).
				Int("columns", len(row)).
				Msg("Skipping transaction row with insufficient columns")
			continue
		}

		tx, err := parseTransactionRow(row, rowNum)
		if err != nil {
			r.log.Warn().
				Err(err).
				Int("row", rowNum).
				Msg("Failed to parse transaction, skipping")
			continue
		}
		transactions = append(transactions, tx)
	}

	r.log.Info().
		Int("total_rows", len(values)-1).
		Int("parsed_transactions", len(transactions)).
		Str("sheet", sheetName).
		Msg("Ledger transactions read successfully")

	return transactions, nil
}

// ReadManualEntries reads manual cashflow entries from sheetName.
// Expected columns: A=Month, B=AccountType, C=AccountID, D=Currency,
// E=Type, F=Amount, G=Description, H=Notes
func (r *Reader) ReadManualEntries(ctx context.Context, sheetName string) ([]models.ManualCashflowEntry, error) {
	const op = "ReadManualEntries"

	r.log.Info().Str("sheet", sheetName).Msg("Reading manual cashflow entries")

	values, err := r.source.ReadRange(ctx, sheetName+"!A:H")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, sheetName, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %s sheet is empty", op, sheetName)
	}

	var entries []models.ManualCashflowEntry
	for i, row := range values[1:] {
		rowNum := i + 2

		if len(row) < 6 {
			r.log.Warn().
				Int("row", rowNum).
				Int("columns", len(row)).
				Msg("Skipping manual entry row with insufficient columns")
			continue
		}

		entry, err := parseManualRow(row, rowNum)
		if err != nil {
			r.log.Warn().
				Err(err).
				Int("row", rowNum).
				Msg("Failed to parse manual entry, skipping")
			continue
		}
		entries = append(entries, entry)
	}

	r.log.Info().
		Int("total_rows", len(values)-1).
		Int("parsed_entries", len(entries)).
		Str("sheet", sheetName).
		Msg("Manual cashflow entries read successfully")

	return entries, nil
}

func parseAccount(row []interface{}, rowNum int) (models.AccountKey, string, error) {
	accountType, err := models.ParseAccountType(getString(row, 1))
	if err != nil {
		return models.AccountKey{}, "", fmt.Errorf("row %d: %w", rowNum, err)
	}
	accountID := getString(row, 2)
	if accountID == "" {
		return models.AccountKey{}, "", fmt.Errorf("row %d: missing account id", rowNum)
	}
	currency, err := ledger.ValidateCurrency(getString(row, 3))
	if err != nil {
		return models.AccountKey{}, "", fmt.Errorf("row %d: %w", rowNum, err)
	}
	return models.AccountKey{ID: accountID, Type: accountType}, currency, nil
}

func parseTransactionRow(row []interface{}, rowNum int) (models.LedgerTransaction, error) {
	const op = "parseTransactionRow"

	dateStr := getString(row, 0)
	date, err := parseDate(dateStr)
	if err != nil {
		return models.LedgerTransaction{}, fmt.Errorf("%s: invalid date '%s' in row %d: %w", op, dateStr, rowNum, err)
	}

	key, currency, err := parseAccount(row, rowNum)
	if err != nil {
		return models.LedgerTransaction{}, fmt.Errorf("%s: %w", op, err)
	}

	incoming, err := parseAmount(getString(row, 4))
	if err != nil {
		return models.LedgerTransaction{}, fmt.Errorf("%s: invalid incoming amount in row %d: %w", op, rowNum, err)
	}
	outgoing, err := parseAmount(getString(row, 5))
	if err != nil {
		return models.LedgerTransaction{}, fmt.Errorf("%s: invalid outgoing amount in row %d: %w", op, rowNum, err)
	}

	// a signed amount in one column is moved to the side it belongs to
	if incoming.IsNegative() {
		outgoing = outgoing.Add(incoming.Neg())
		incoming = decimal.Zero
	}
	if outgoing.IsNegative() {
		incoming = incoming.Add(outgoing.Neg())
		outgoing = decimal.Zero
	}
	if incoming.IsZero() && outgoing.IsZero() {
		return models.LedgerTransaction{}, fmt.Errorf("%s: row %d has no amount", op, rowNum)
	}

	description := getString(row, 6)
	if ref := getString(row, 7); ref != "" {
		if description == "" {
			description = ref
		} else {
			description += " (" + ref + ")"
		}
	}

	return models.LedgerTransaction{
		AccountID:   key.ID,
		AccountType: key.Type,
		Currency:    currency,
		Date:        date,
		Incoming:    incoming,
		Outgoing:    outgoing,
		Description: description,
	}, nil
}

func parseManualRow(row []interface{}, rowNum int) (models.ManualCashflowEntry, error) {
	const op = "parseManualRow"

	monthStr := getString(row, 0)
	period, err := parseMonth(monthStr)
	if err != nil {
		return models.ManualCashflowEntry{}, fmt.Errorf("%s: invalid month '%s' in row %d: %w", op, monthStr, rowNum, err)
	}

	key, currency, err := parseAccount(row, rowNum)
	if err != nil {
		return models.ManualCashflowEntry{}, fmt.Errorf("%s: %w", op, err)
	}

	var flowType models.CashflowType
	switch typ := getString(row, 4); models.CashflowType(strings.ToLower(typ)) {
	case models.CashflowInflow, "in":
		flowType = models.CashflowInflow
	case models.CashflowOutflow, "out":
		flowType = models.CashflowOutflow
	default:
		return models.ManualCashflowEntry{}, fmt.Errorf("%s: unknown type '%s' in row %d", op, typ, rowNum)
	}

	amount, err := parseAmount(getString(row, 5))
	if err != nil {
		return models.ManualCashflowEntry{}, fmt.Errorf("%s: invalid amount in row %d: %w", op, rowNum, err)
	}
	if amount.IsNegative() {
		return models.ManualCashflowEntry{}, fmt.Errorf("%s: negative amount in row %d, use the type column for direction", op, rowNum)
	}

	return models.ManualCashflowEntry{
		AccountID:   key.ID,
		AccountType: key.Type,
		Currency:    currency,
		Period:      period,
		Type:        flowType,
		Amount:      amount,
		Description: getString(row, 6),
		Notes:       getString(row, 7),
	}, nil
}

// Result counts what an import did
type Result struct {
	Transactions  int
	ManualEntries int
	Failed        int
}

// Options selects the sheets to import
type Options struct {
	TransactionsSheet string // Empty skips transactions
	ManualSheet       string // Empty skips manual entries
	DryRun            bool   // Parse only, write nothing
}

// Import reads the configured sheets and posts their rows to w. Rows the
// store rejects are counted as failed and do not stop the import.
func (r *Reader) Import(ctx context.Context, w services.LedgerWriter, opts Options) (Result, error) {
	const op = "Import"

	var result Result

	if opts.TransactionsSheet != "" {
		txs, err := r.ReadTransactions(ctx, opts.TransactionsSheet)
		if err != nil {
			return result, fmt.Errorf("%s: %w", op, err)
		}
		for i := range txs {
			if opts.DryRun {
				result.Transactions++
				continue
			}
			if err := w.PostTransaction(ctx, &txs[i]); err != nil {
				r.log.Error().Err(err).Str("account", txs[i].AccountKey().String()).Msg("Failed to post transaction")
				result.Failed++
				continue
			}
			result.Transactions++
		}
	}

	if opts.ManualSheet != "" {
		entries, err := r.ReadManualEntries(ctx, opts.ManualSheet)
		if err != nil {
			return result, fmt.Errorf("%s: %w", op, err)
		}
		for i := range entries {
			if opts.DryRun {
				result.ManualEntries++
				continue
			}
			if err := w.SaveManualEntry(ctx, &entries[i]); err != nil {
				r.log.Error().Err(err).Str("account", entries[i].AccountKey().String()).Msg("Failed to save manual entry")
				result.Failed++
				continue
			}
			result.ManualEntries++
		}
	}

	r.log.Info().
		Int("transactions", result.Transactions).
		Int("manual_entries", result.ManualEntries).
		Int("failed", result.Failed).
		Bool("dry_run", opts.DryRun).
		Msg("Import finished")

	return result, nil
}
