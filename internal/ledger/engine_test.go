package ledger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"bookkeeper/internal/cache"
	"bookkeeper/internal/store"
	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

// countingReader counts transaction queries so tests can tell cache hits
// from recomputation
type countingReader struct {
	services.LedgerReader
	txQueries atomic.Int64
	failOn    string // currency whose transactions fail to load
}

func (c *countingReader) FindTransactions(ctx context.Context, key models.AccountKey, q services.TransactionQuery) ([]models.LedgerTransaction, error) {
	c.txQueries.Add(1)
	if c.failOn != "" && q.Currency == c.failOn {
		return nil, errors.New("connection reset")
	}
	return c.LedgerReader.FindTransactions(ctx, key, q)
}

func newCachedFixture(t *testing.T) (*fixture, *countingReader, *Engine) {
	c := cache.NewMemory()
	f := newFixture(t)
	f.store = store.NewMemory(cache.NewInvalidator(c))
	reader := &countingReader{LedgerReader: f.store}
	return f, reader, NewEngine(reader, c, Options{CacheTTL: time.Minute, Workers: 4})
}

func TestEngineBalanceIsCachedAndInvalidated(t *testing.T) {
	f, reader, engine := newCachedFixture(t)
	b := f.account(models.Account{ID: "b1", Type: models.AccountTypeBank, Currency: "EUR"})
	f.opening(b, "EUR", "10")

	first, err := engine.Balance(f.ctx, b, "EUR", nil)
	assert.NoError(t, err)
	assertDecimal(t, "10", first.Amount)

	second, err := engine.Balance(f.ctx, b, "eur", nil)
	assert.NoError(t, err)
	assertDecimal(t, "10", second.Amount)
	assert.Equal(t, int64(1), reader.txQueries.Load())

	f.tx(b, "EUR", date(2025, 1, 1), "5", "0")
	third, err := engine.Balance(f.ctx, b, "EUR", nil)
	assert.NoError(t, err)
	assertDecimal(t, "15", third.Amount)
	assert.Equal(t, int64(2), reader.txQueries.Load())

	f.opening(b, "EUR", "0")
	fourth, err := engine.Balance(f.ctx, b, "EUR", nil)
	assert.NoError(t, err)
	assertDecimal(t, "5", fourth.Amount)
}

func TestEngineCashflowCacheKeysAreScoped(t *testing.T) {
	f, reader, engine := newCachedFixture(t)
	b := f.account(models.Account{ID: "b1", Type: models.AccountTypeBank, Currency: "EUR"})
	f.tx(b, "EUR", date(2025, 1, 10), "4", "0")
	f.tx(b, "EUR", date(2025, 2, 10), "8", "0")

	jan, err := engine.Cashflow(f.ctx, CashflowQuery{Accounts: []models.AccountKey{b}, Range: januaryRange()})
	assert.NoError(t, err)
	janFeb, err := engine.Cashflow(f.ctx, CashflowQuery{Accounts: []models.AccountKey{b}, Range: DayRange(date(2025, 1, 1), date(2025, 2, 28))})
	assert.NoError(t, err)
	assertDecimal(t, "4", jan.TotalFor("EUR").Combined.Net)
	assertDecimal(t, "12", janFeb.TotalFor("EUR").Combined.Net)

	again, err := engine.Cashflow(f.ctx, CashflowQuery{Accounts: []models.AccountKey{b}, Range: januaryRange()})
	assert.NoError(t, err)
	assertDecimal(t, "4", again.TotalFor("EUR").Combined.Net)
	assert.Equal(t, int64(2), reader.txQueries.Load())

	f.manual(b, "EUR", jan2025, models.CashflowOutflow, "1")
	after, err := engine.Cashflow(f.ctx, CashflowQuery{Accounts: []models.AccountKey{b}, Range: januaryRange()})
	assert.NoError(t, err)
	assertDecimal(t, "3", after.TotalFor("EUR").Combined.Net)
}

func TestEngineWithoutCache(t *testing.T) {
	f := newFixture(t)
	reader := &countingReader{LedgerReader: f.store}
	engine := NewEngine(reader, nil, Options{})
	b := f.account(models.Account{ID: "b1", Type: models.AccountTypeBank, Currency: "EUR"})

	for i := 0; i < 3; i++ {
		_, err := engine.Balance(f.ctx, b, "EUR", nil)
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(3), reader.txQueries.Load())
}

func TestEngineInvoiceCOGS(t *testing.T) {
	f, _, engine := newCachedFixture(t)
	p := &models.Product{ID: "p1", CompanyID: "c1", Cost: d("40"), CostCurrency: "EUR"}
	assert.NoError(t, f.store.SaveProduct(f.ctx, p))
	inv := &models.Invoice{ID: "inv-1", CompanyID: "c1", Currency: "EUR", Items: []models.InvoiceItem{
		{ProductID: ptr("p1"), Quantity: d("3")},
		{ProductID: ptr("gone"), Quantity: d("1")},
	}}
	assert.NoError(t, f.store.SaveInvoice(f.ctx, inv))

	result, err := engine.InvoiceCOGS(f.ctx, "inv-1")
	assert.NoError(t, err)
	assertDecimal(t, "120", result.Total)
	assert.Equal(t, 1, result.UnmatchedItems)

	p.Cost = d("50")
	assert.NoError(t, f.store.SaveProduct(f.ctx, p))
	result, err = engine.InvoiceCOGS(f.ctx, "inv-1")
	assert.NoError(t, err)
	assertDecimal(t, "150", result.Total)

	_, err = engine.InvoiceCOGS(f.ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEngineInvoiceCOGSFollowsProductsOfOtherCompanies(t *testing.T) {
	f, _, engine := newCachedFixture(t)
	shared := &models.Product{ID: "shared", Cost: d("10"), CostCurrency: "EUR"}
	foreign := &models.Product{ID: "foreign", CompanyID: "c2", Cost: d("5"), CostCurrency: "EUR"}
	assert.NoError(t, f.store.SaveProduct(f.ctx, shared))
	assert.NoError(t, f.store.SaveProduct(f.ctx, foreign))
	inv := &models.Invoice{ID: "inv-2", CompanyID: "c1", Currency: "EUR", Items: []models.InvoiceItem{
		{ProductID: ptr("shared"), Quantity: d("2")},
		{ProductID: ptr("foreign"), Quantity: d("1")},
	}}
	assert.NoError(t, f.store.SaveInvoice(f.ctx, inv))

	result, err := engine.InvoiceCOGS(f.ctx, "inv-2")
	assert.NoError(t, err)
	assertDecimal(t, "25", result.Total)

	shared.Cost = d("12")
	assert.NoError(t, f.store.SaveProduct(f.ctx, shared))
	result, err = engine.InvoiceCOGS(f.ctx, "inv-2")
	assert.NoError(t, err)
	assertDecimal(t, "29", result.Total)

	assert.NoError(t, f.store.DeleteProduct(f.ctx, "foreign"))
	result, err = engine.InvoiceCOGS(f.ctx, "inv-2")
	assert.NoError(t, err)
	assertDecimal(t, "24", result.Total)
	assert.Equal(t, 1, result.UnmatchedItems)
}

func TestBalanceReportMarksFailuresUnavailable(t *testing.T) {
	f := newFixture(t)
	reader := &countingReader{LedgerReader: f.store, failOn: "BTC"}
	engine := NewEngine(reader, nil, Options{Workers: 3})

	b := f.account(models.Account{ID: "b1", Type: models.AccountTypeBank, Name: "Main", CompanyID: "c1", Currency: "EUR"})
	w := f.account(models.Account{ID: "w1", Type: models.AccountTypeWallet, Name: "Exchange", CompanyID: "c1", Currency: "USDT", Currencies: "USDT,BTC"})
	f.opening(b, "EUR", "100")
	f.tx(w, "USDT", date(2025, 1, 1), "7", "0")

	accounts, err := f.store.ListAccounts(f.ctx, services.AccountFilter{CompanyID: "c1"})
	assert.NoError(t, err)

	lines := engine.BalanceReport(f.ctx, accounts, nil)
	assert.Equal(t, 3, len(lines))

	assert.Equal(t, "EUR", lines[0].Currency)
	assertDecimal(t, "100", lines[0].Balance.Amount)
	assert.False(t, lines[0].Uninitialized)

	assert.Equal(t, "BTC", lines[1].Currency)
	assert.True(t, lines[1].Unavailable)
	assert.Zero(t, lines[1].Balance)
	assert.NotEqual(t, "", lines[1].Error)

	assert.Equal(t, "USDT", lines[2].Currency)
	assertDecimal(t, "7", lines[2].Balance.Amount)
	assert.True(t, lines[2].Uninitialized)
}

// openingFailer fails opening balance lookups for one account
type openingFailer struct {
	services.LedgerReader
	account models.AccountKey
}

func (o openingFailer) FindOpeningBalance(ctx context.Context, key models.AccountKey, currency string) (*models.OpeningBalance, error) {
	if key == o.account {
		return nil, errors.New("connection reset")
	}
	return o.LedgerReader.FindOpeningBalance(ctx, key, currency)
}

func TestBalanceReportKeepsGoingWhenExpansionFails(t *testing.T) {
	f := newFixture(t)
	b := f.account(models.Account{ID: "b1", Type: models.AccountTypeBank, Name: "Main", CompanyID: "c1", Currency: "EUR"})
	w := f.account(models.Account{ID: "w1", Type: models.AccountTypeWallet, Name: "Exchange", CompanyID: "c1", Currency: "usdt"})
	f.opening(b, "EUR", "100")
	engine := NewEngine(openingFailer{LedgerReader: f.store, account: w}, nil, Options{Workers: 2})

	accounts, err := f.store.ListAccounts(f.ctx, services.AccountFilter{CompanyID: "c1"})
	assert.NoError(t, err)

	lines := engine.BalanceReport(f.ctx, accounts, nil)
	assert.Equal(t, 2, len(lines))
	assertDecimal(t, "100", lines[0].Balance.Amount)
	assert.True(t, lines[1].Unavailable)
	assert.Equal(t, "USDT", lines[1].Currency)
	assert.Contains(t, lines[1].Error, "connection reset")
}
