package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"bookkeeper/internal/store"
	"bookkeeper/pkg/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func assertDecimal(t testing.TB, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

type fixture struct {
	t     testing.TB
	ctx   context.Context
	store *store.Memory
}

func newFixture(t testing.TB) *fixture {
	return &fixture{t: t, ctx: context.Background(), store: store.NewMemory(nil)}
}

func (f *fixture) account(a models.Account) models.AccountKey {
	f.t.Helper()
	a.Active = true
	assert.NoError(f.t, f.store.SaveAccount(f.ctx, &a))
	return a.Key()
}

func (f *fixture) opening(key models.AccountKey, currency, amount string) {
	f.t.Helper()
	assert.NoError(f.t, f.store.UpsertOpeningBalance(f.ctx, &models.OpeningBalance{
		AccountID:   key.ID,
		AccountType: key.Type,
		Currency:    currency,
		Amount:      d(amount),
	}))
}

func (f *fixture) tx(key models.AccountKey, currency string, on time.Time, in, out string) *models.LedgerTransaction {
	f.t.Helper()
	tx := &models.LedgerTransaction{
		AccountID:   key.ID,
		AccountType: key.Type,
		Currency:    currency,
		Date:        on,
		Incoming:    d(in),
		Outgoing:    d(out),
	}
	assert.NoError(f.t, f.store.PostTransaction(f.ctx, tx))
	return tx
}

func (f *fixture) manual(key models.AccountKey, currency string, period models.Month, typ models.CashflowType, amount string) {
	f.t.Helper()
	assert.NoError(f.t, f.store.SaveManualEntry(f.ctx, &models.ManualCashflowEntry{
		AccountID:   key.ID,
		AccountType: key.Type,
		Currency:    currency,
		Period:      period,
		Type:        typ,
		Amount:      d(amount),
	}))
}
