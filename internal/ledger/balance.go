package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bookkeeper/internal/logger"
	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

// Balance is the resolved balance of one (account, currency) pair
type Balance struct {
	Account  models.AccountKey
	Currency string
	AsOf     *time.Time // nil means all recorded history

	Opening          decimal.Decimal
	Movements        decimal.Decimal // Sum of net amounts up to AsOf
	Amount           decimal.Decimal // Opening + Movements
	TransactionCount int

	Uninitialized bool // No opening balance recorded, Opening defaulted to zero
}

// Resolver computes point-in-time balances
type Resolver struct {
	store services.LedgerReader
	log   zerolog.Logger
}

// NewResolver creates a resolver over store
func NewResolver(store services.LedgerReader) *Resolver {
	return &Resolver{
		store: store,
		log:   logger.WithComponent("ledger-balance"),
	}
}

// ResolveOnDate resolves the balance at the end of the given calendar day
func (r *Resolver) ResolveOnDate(ctx context.Context, key models.AccountKey, currency string, day time.Time) (*Balance, error) {
	asOf := EndOfDay(day)
	return r.Resolve(ctx, key, currency, &asOf)
}

// Resolve returns opening balance plus the net of every non-deleted
// transaction in currency dated at or before asOf. A nil asOf includes the
// whole history. Missing data resolves to zero; only a missing account is an
// error.
func (r *Resolver) Resolve(ctx context.Context, key models.AccountKey, currency string, asOf *time.Time) (*Balance, error) {
	const op = "Resolve"

	currency, err := ValidateCurrency(currency)
	if err != nil {
		return nil, NewLedgerError(op, err, "")
	}

	account, err := r.store.FindAccount(ctx, key)
	if err != nil {
		return nil, storeError(op, err, "find account "+key.String())
	}

	ob, err := r.store.FindOpeningBalance(ctx, key, currency)
	if err != nil {
		return nil, storeError(op, err, "find opening balance")
	}

	txs, err := r.store.FindTransactions(ctx, key, services.TransactionQuery{
		Currency: currency,
		To:       asOf,
	})
	if err != nil {
		return nil, storeError(op, err, "find transactions")
	}

	balance := &Balance{
		Account:          key,
		Currency:         currency,
		AsOf:             asOf,
		Opening:          decimal.Zero,
		Movements:        decimal.Zero,
		TransactionCount: len(txs),
		Uninitialized:    ob == nil,
	}
	if ob != nil {
		balance.Opening = ob.Amount
	}
	for i := range txs {
		balance.Movements = balance.Movements.Add(txs[i].Net())
	}
	balance.Amount = balance.Opening.Add(balance.Movements)

	if len(txs) > 0 && !declares(account, currency) {
		log := logger.WithAccount(r.log, key)
		log.Warn().
			Err(ErrDataInconsistency).
			Str("currency", currency).
			Int("transactions", len(txs)).
			Msg("Transactions use a currency the account never declared, including them")
	}

	return balance, nil
}
