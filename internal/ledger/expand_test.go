package ledger

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"bookkeeper/pkg/models"
)

func TestDeclaredCurrencies(t *testing.T) {
	cases := []struct {
		name    string
		account models.Account
		want    []string
	}{
		{"bank", models.Account{Type: models.AccountTypeBank, Currency: "eur"}, []string{"EUR"}},
		{"bank ignores list", models.Account{Type: models.AccountTypeBank, Currency: "EUR", Currencies: "USD"}, []string{"EUR"}},
		{"legacy wallet", models.Account{Type: models.AccountTypeWallet, Currency: "USDT"}, []string{"USDT"}},
		{"wallet list", models.Account{Type: models.AccountTypeWallet, Currency: "USDT", Currencies: " btc, ETH ,,usdt,BTC"}, []string{"USDT", "BTC", "ETH"}},
		{"wallet without primary", models.Account{Type: models.AccountTypeWallet, Currencies: "BTC,ETH"}, []string{"BTC", "ETH"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, DeclaredCurrencies(&c.account))
		})
	}
}

func TestExpandFlagsUninitialized(t *testing.T) {
	f := newFixture(t)
	key := f.account(models.Account{ID: "w1", Type: models.AccountTypeWallet, Name: "Exchange", Currency: "USDT", Currencies: "USDT,BTC"})
	f.opening(key, "USDT", "10")

	account, err := f.store.FindAccount(f.ctx, key)
	assert.NoError(t, err)

	subs, err := NewExpander(f.store).Expand(f.ctx, account)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(subs))

	assert.Equal(t, "USDT", subs[0].Currency)
	assert.True(t, subs[0].Primary)
	assert.False(t, subs[0].Uninitialized)

	assert.Equal(t, "BTC", subs[1].Currency)
	assert.False(t, subs[1].Primary)
	assert.True(t, subs[1].Uninitialized)
	assert.Equal(t, key, subs[1].Key())

	// nothing is written for the missing pair
	ob, err := f.store.FindOpeningBalance(f.ctx, key, "BTC")
	assert.NoError(t, err)
	assert.Zero(t, ob)
}
