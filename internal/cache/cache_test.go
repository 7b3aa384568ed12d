package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestMemoryTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory().WithClock(clock.Now)

	c.Set("k", []byte("v"), time.Minute)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", string(got))

	clock.now = clock.now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 0, c.Len())

	c.Set("zero", []byte("v"), 0)
	_, ok = c.Get("zero")
	assert.False(t, ok)
}

func TestMemoryReturnsCopies(t *testing.T) {
	c := NewMemory()
	value := []byte("abc")
	c.Set("k", value, time.Minute)
	value[0] = 'x'

	got, _ := c.Get("k")
	assert.Equal(t, "abc", string(got))
	got[1] = 'y'

	again, _ := c.Get("k")
	assert.Equal(t, "abc", string(again))
}

func TestKeysEncodeEveryParameter(t *testing.T) {
	b1 := models.AccountKey{ID: "b1", Type: models.AccountTypeBank}
	w1 := models.AccountKey{ID: "b1", Type: models.AccountTypeWallet}
	jan := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	keys := []string{
		BalanceKey(Scope{Accounts: []models.AccountKey{b1}}, "EUR", nil),
		BalanceKey(Scope{Accounts: []models.AccountKey{b1}}, "EUR", &jan),
		BalanceKey(Scope{Accounts: []models.AccountKey{b1}}, "USD", &jan),
		BalanceKey(Scope{Accounts: []models.AccountKey{w1}}, "EUR", &jan),
		CashflowKey(Scope{Accounts: []models.AccountKey{b1}}, "", from, jan, "none"),
		CashflowKey(Scope{Accounts: []models.AccountKey{b1}}, "", from, feb, "none"),
		CashflowKey(Scope{Accounts: []models.AccountKey{b1}}, "", from, jan, "account"),
		CashflowKey(Scope{Accounts: []models.AccountKey{b1, w1}}, "", from, jan, "none"),
		COGSKey(Scope{Companies: []string{"c1"}}, "inv-1"),
	}
	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], k)
		seen[k] = true
	}

	// account order does not matter
	assert.Equal(t,
		CashflowKey(Scope{Accounts: []models.AccountKey{b1, w1}}, "", from, jan, "none"),
		CashflowKey(Scope{Accounts: []models.AccountKey{w1, b1, w1}}, "", from, jan, "none"))
}

func TestInvalidatePatternIsScoped(t *testing.T) {
	c := NewMemory()
	b1 := models.AccountKey{ID: "b1", Type: models.AccountTypeBank}
	b10 := models.AccountKey{ID: "b10", Type: models.AccountTypeBank}
	odd := models.AccountKey{ID: "a*[b]?", Type: models.AccountTypeWallet}

	k1 := BalanceKey(Scope{Accounts: []models.AccountKey{b1}}, "EUR", nil)
	k10 := BalanceKey(Scope{Accounts: []models.AccountKey{b10}}, "EUR", nil)
	kBoth := CashflowKey(Scope{Accounts: []models.AccountKey{b1, b10}}, "", time.Now(), time.Now(), "none")
	kOdd := BalanceKey(Scope{Accounts: []models.AccountKey{odd}}, "BTC", nil)
	kCogs := COGSKey(Scope{Companies: []string{"c1"}}, "inv-1")
	for _, k := range []string{k1, k10, kBoth, kOdd, kCogs} {
		c.Set(k, []byte("x"), time.Minute)
	}

	assert.Equal(t, 2, c.InvalidatePattern(AccountPattern(b1)))
	_, ok := c.Get(k10)
	assert.True(t, ok)
	_, ok = c.Get(kBoth)
	assert.False(t, ok)

	assert.Equal(t, 1, c.InvalidatePattern(AccountPattern(odd)))
	assert.Equal(t, 0, c.InvalidatePattern(CompanyPattern("c")))
	assert.Equal(t, 1, c.InvalidatePattern(CompanyPattern("c1")))
	assert.Equal(t, 1, c.Len())
}

func TestInvalidatorNotify(t *testing.T) {
	c := NewMemory()
	b1 := models.AccountKey{ID: "b1", Type: models.AccountTypeBank}
	balance := BalanceKey(Scope{Accounts: []models.AccountKey{b1}}, "EUR", nil)
	cogs := COGSKey(Scope{Companies: []string{"c1"}}, "inv-1")
	c.Set(balance, []byte("x"), time.Minute)
	c.Set(cogs, []byte("x"), time.Minute)

	inv := NewInvalidator(c)
	inv.Notify(context.Background(), services.ChangeEvent{Entity: "ledger_transaction", Accounts: []models.AccountKey{b1}})
	_, ok := c.Get(balance)
	assert.False(t, ok)
	_, ok = c.Get(cogs)
	assert.True(t, ok)

	inv.Notify(context.Background(), services.ChangeEvent{Entity: "product", CompanyIDs: []string{"c1"}})
	_, ok = c.Get(cogs)
	assert.False(t, ok)
}

func TestProductScopedInvalidation(t *testing.T) {
	c := NewMemory()
	k := COGSKey(Scope{Companies: []string{"c1"}, Products: []string{"p1", "p10"}}, "inv-1")
	other := COGSKey(Scope{Companies: []string{"c1"}, Products: []string{"p100"}}, "inv-2")
	c.Set(k, []byte("x"), time.Minute)
	c.Set(other, []byte("x"), time.Minute)

	inv := NewInvalidator(c)
	inv.Notify(context.Background(), services.ChangeEvent{Entity: "product", CompanyIDs: []string{""}, Products: []string{"p1"}})
	_, ok := c.Get(k)
	assert.False(t, ok)
	_, ok = c.Get(other)
	assert.True(t, ok)

	assert.Equal(t, 0, c.InvalidatePattern(ProductPattern("p10")))
	assert.Equal(t, 1, c.InvalidatePattern(ProductPattern("p100")))
}

func TestJanitorPurges(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := NewMemory().WithClock(clock.Now)
	c.Set("k", []byte("v"), time.Second)
	clock.now = clock.now.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartJanitor(ctx, time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, c.Len())
}
