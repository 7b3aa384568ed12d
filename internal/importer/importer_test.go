package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"bookkeeper/internal/store"
	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

type fakeSheet map[string][][]interface{}

func (f fakeSheet) ReadRange(_ context.Context, rangeSpec string) ([][]interface{}, error) {
	rows, ok := f[rangeSpec]
	if !ok {
		return nil, errors.New("no such range")
	}
	return rows, nil
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"1.234,56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1234.56", "1234.56"},
		{"-12,50 €", "-12.5"},
		{"0,00012345", "0.00012345"},
		{"1.234.567", "1234567"},
		{"1,234,567", "1234567"},
	}
	for _, c := range cases {
		got, err := parseAmount(c.in)
		assert.NoError(t, err, c.in)
		assert.Equal(t, c.want, got.String(), c.in)
	}

	_, err := parseAmount("abc")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"05.03.2024", "5.3.2024", "2024-03-05", "05.03.24"} {
		got, err := parseDate(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseDate("March 5th")
	assert.Error(t, err)
}

func TestParseMonth(t *testing.T) {
	want := models.Month{Year: 2024, Month: time.February}
	for _, in := range []string{"2024-02", "02.2024", "02/2024", "15.02.2024"} {
		got, err := parseMonth(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestReadTransactions(t *testing.T) {
	sheet := fakeSheet{
		"Transactions!A:H": {
			{"Date", "AccountType", "AccountID", "Currency", "Incoming", "Outgoing", "Description", "Reference"},
			{"10.01.2024", "bank", "b1", "eur", "1.000,00", "", "Customer payment", "INV-1"},
			{"2024-01-12", "Wallet", "w1", "USDT", "-25", "", "Fee"},
			{"not a date", "bank", "b1", "EUR", "1"},
			{"11.01.2024", "cash", "b1", "EUR", "1"},
			{"11.01.2024", "bank", "b1", "EUR", "", ""},
			{"11.01.2024"},
		},
	}

	txs, err := NewReader(sheet).ReadTransactions(context.Background(), "Transactions")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(txs))

	assert.Equal(t, "EUR", txs[0].Currency)
	assert.Equal(t, "1000", txs[0].Incoming.String())
	assert.Equal(t, "Customer payment (INV-1)", txs[0].Description)

	assert.Equal(t, models.AccountTypeWallet, txs[1].AccountType)
	assert.True(t, txs[1].Incoming.IsZero())
	assert.Equal(t, "25", txs[1].Outgoing.String())
}

func TestReadManualEntries(t *testing.T) {
	sheet := fakeSheet{
		"Manual!A:H": {
			{"Month", "AccountType", "AccountID", "Currency", "Type", "Amount", "Description", "Notes"},
			{"2024-01", "bank", "b1", "EUR", "Inflow", "250", "Grant"},
			{"2024-02", "bank", "b1", "EUR", "out", "40,5", "Cash expense", "receipt lost"},
			{"2024-02", "bank", "b1", "EUR", "sideways", "1"},
			{"2024-02", "bank", "b1", "EUR", "inflow", "-1"},
		},
	}

	entries, err := NewReader(sheet).ReadManualEntries(context.Background(), "Manual")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, models.CashflowInflow, entries[0].Type)
	assert.Equal(t, models.CashflowOutflow, entries[1].Type)
	assert.Equal(t, "40.5", entries[1].Amount.String())
	assert.Equal(t, "receipt lost", entries[1].Notes)
}

func TestReadEmptySheet(t *testing.T) {
	_, err := NewReader(fakeSheet{"Transactions!A:H": {}}).ReadTransactions(context.Background(), "Transactions")
	assert.Error(t, err)

	_, err = NewReader(fakeSheet{}).ReadManualEntries(context.Background(), "Manual")
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	sheet := fakeSheet{
		"Transactions!A:H": {
			{"Date", "AccountType", "AccountID", "Currency", "Incoming", "Outgoing"},
			{"10.01.2024", "bank", "b1", "EUR", "100", ""},
			{"12.01.2024", "bank", "b1", "EUR", "", "30"},
		},
		"Manual!A:H": {
			{"Month", "AccountType", "AccountID", "Currency", "Type", "Amount"},
			{"2024-01", "bank", "b1", "EUR", "inflow", "5"},
		},
	}
	opts := Options{TransactionsSheet: "Transactions", ManualSheet: "Manual"}
	key := models.AccountKey{ID: "b1", Type: models.AccountTypeBank}

	dry := store.NewMemory(nil)
	dryOpts := opts
	dryOpts.DryRun = true
	result, err := NewReader(sheet).Import(ctx, dry, dryOpts)
	assert.NoError(t, err)
	assert.Equal(t, Result{Transactions: 2, ManualEntries: 1}, result)
	txs, err := dry.FindTransactions(ctx, key, services.TransactionQuery{})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(txs))

	s := store.NewMemory(nil)
	result, err = NewReader(sheet).Import(ctx, s, opts)
	assert.NoError(t, err)
	assert.Equal(t, Result{Transactions: 2, ManualEntries: 1}, result)

	txs, err = s.FindTransactions(ctx, key, services.TransactionQuery{})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(txs))
	entries, err := s.FindManualEntries(ctx, key, services.ManualEntryQuery{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
}
