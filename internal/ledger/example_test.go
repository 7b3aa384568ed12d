package ledger_test

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bookkeeper/internal/cache"
	"bookkeeper/internal/ledger"
	"bookkeeper/internal/store"
	"bookkeeper/pkg/models"
)

func ExampleEngine_Balance() {
	ctx := context.Background()
	c := cache.NewMemory()
	s := store.NewMemory(cache.NewInvalidator(c))
	engine := ledger.NewEngine(s, c, ledger.Options{CacheTTL: time.Minute, Workers: 2})

	wallet := &models.Account{ID: "W1", Type: models.AccountTypeWallet, Name: "Treasury", Currency: "USD", Active: true}
	_ = s.SaveAccount(ctx, wallet)
	_ = s.UpsertOpeningBalance(ctx, &models.OpeningBalance{AccountID: "W1", AccountType: models.AccountTypeWallet, Currency: "USD", Amount: decimal.NewFromInt(100)})
	_ = s.PostTransaction(ctx, &models.LedgerTransaction{AccountID: "W1", AccountType: models.AccountTypeWallet, Currency: "USD", Date: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), Incoming: decimal.NewFromInt(50)})
	_ = s.PostTransaction(ctx, &models.LedgerTransaction{AccountID: "W1", AccountType: models.AccountTypeWallet, Currency: "USD", Date: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), Outgoing: decimal.NewFromInt(30)})

	for _, day := range []int{10, 31} {
		asOf := ledger.EndOfDay(time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC))
		balance, err := engine.Balance(ctx, wallet.Key(), "USD", &asOf)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("2025-01-%02d: %s %s\n", day, balance.Amount.StringFixed(2), balance.Currency)
	}

	// Output:
	// 2025-01-10: 150.00 USD
	// 2025-01-31: 120.00 USD
}

func ExampleCalculateInvoiceCOGS() {
	p1, p2, p3 := "p1", "p2", "p3"
	invoice := &models.Invoice{ID: "inv-1", Items: []models.InvoiceItem{
		{ID: "1", ProductID: &p1, Quantity: decimal.NewFromInt(1)},
		{ID: "2", ProductID: &p2, Quantity: decimal.NewFromInt(3)},
		{ID: "3", ProductID: &p3, Quantity: decimal.NewFromInt(2)},
	}}
	products := []models.Product{
		{ID: "p1", Cost: decimal.NewFromInt(200), CostCurrency: "EUR"},
		{ID: "p2", Cost: decimal.NewFromInt(120), CostCurrency: "EUR"},
		{ID: "p3", Cost: decimal.NewFromInt(75), CostCurrency: "EUR"},
	}

	result, _ := ledger.CalculateInvoiceCOGS(invoice, products)
	fmt.Println(result.Total.String(), result.Currency, result.MixedCurrencyWarning)

	// Output:
	// 710 EUR false
}
