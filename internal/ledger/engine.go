package ledger

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bookkeeper/internal/cache"
	"bookkeeper/internal/logger"
	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

// Options tunes an Engine
type Options struct {
	CacheTTL time.Duration // Zero disables caching
	Workers  int           // Parallelism of reports and aggregation loads
}

// Engine is the entry point used by the application. It wires the resolver,
// expander, aggregator and COGS calculator over one store and memoizes their
// results in the injected cache.
type Engine struct {
	store      services.LedgerReader
	cache      cache.Cache
	ttl        time.Duration
	workers    int
	resolver   *Resolver
	expander   *Expander
	aggregator *Aggregator
	log        zerolog.Logger
}

// NewEngine creates an engine. A nil cache disables memoization.
func NewEngine(store services.LedgerReader, c cache.Cache, opts Options) *Engine {
	if c == nil {
		c = cache.Noop{}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	expander := NewExpander(store)
	return &Engine{
		store:      store,
		cache:      c,
		ttl:        opts.CacheTTL,
		workers:    opts.Workers,
		resolver:   NewResolver(store),
		expander:   expander,
		aggregator: NewAggregator(store, expander, opts.Workers),
		log:        logger.WithComponent("ledger-engine"),
	}
}

// Expander exposes the engine's expander
func (e *Engine) Expander() *Expander {
	return e.expander
}

func cached[T any](e *Engine, key string, load func() (T, error)) (T, error) {
	if raw, ok := e.cache.Get(key); ok {
		var v T
		err := json.Unmarshal(raw, &v)
		if err == nil {
			e.log.Trace().Str("key", key).Msg("Cache hit")
			return v, nil
		}
		e.log.Warn().Err(err).Str("key", key).Msg("Dropping undecodable cache entry")
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if e.ttl > 0 {
		if raw, err := json.Marshal(v); err == nil {
			e.cache.Set(key, raw, e.ttl)
		} else {
			e.log.Warn().Err(err).Str("key", key).Msg("Result not cacheable")
		}
	}
	return v, nil
}

// Balance resolves one (account, currency) balance, see Resolver.Resolve
func (e *Engine) Balance(ctx context.Context, key models.AccountKey, currency string, asOf *time.Time) (*Balance, error) {
	normalized, err := ValidateCurrency(currency)
	if err != nil {
		return nil, NewLedgerError("Balance", err, "")
	}
	cacheKey := cache.BalanceKey(cache.Scope{Accounts: []models.AccountKey{key}}, normalized, asOf)
	return cached(e, cacheKey, func() (*Balance, error) {
		return e.resolver.Resolve(ctx, key, normalized, asOf)
	})
}

// Cashflow aggregates cashflow, see Aggregator.Aggregate
func (e *Engine) Cashflow(ctx context.Context, q CashflowQuery) (*CashflowSummary, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, NewLedgerError("Cashflow", err, "")
	}
	e.log.Debug().Str("query", q.String()).Msg("Cashflow requested")

	cacheKey := cache.CashflowKey(cache.Scope{Accounts: q.Accounts}, q.Currency, q.Range.From, q.Range.To, string(q.GroupBy))
	return cached(e, cacheKey, func() (*CashflowSummary, error) {
		return e.aggregator.Aggregate(ctx, q)
	})
}

// InvoiceCOGS loads an invoice and its products and computes its COGS
func (e *Engine) InvoiceCOGS(ctx context.Context, invoiceID string) (*COGSResult, error) {
	const op = "InvoiceCOGS"

	invoice, err := e.store.FindInvoice(ctx, invoiceID)
	if err != nil {
		return nil, storeError(op, err, "find invoice "+invoiceID)
	}

	cacheKey := cache.COGSKey(cache.Scope{
		Companies: []string{invoice.CompanyID},
		Products:  invoice.ProductIDs(),
	}, invoice.ID)
	return cached(e, cacheKey, func() (*COGSResult, error) {
		products, err := e.store.FindProductsByIDs(ctx, invoice.ProductIDs())
		if err != nil {
			return nil, storeError(op, err, "find products")
		}
		result, err := CalculateInvoiceCOGS(invoice, products)
		if err != nil {
			return nil, err
		}
		if result.MixedCurrencyWarning {
			e.log.Warn().
				Str("invoice_id", invoice.ID).
				Msg("Invoice mixes product cost currencies, COGS summed without conversion")
		}
		return &result, nil
	})
}

// BalanceLine is one row of a balance report
type BalanceLine struct {
	Account   models.AccountKey
	Name      string
	CompanyID string
	Currency  string

	Balance       *Balance // nil when Unavailable
	Uninitialized bool
	Unavailable   bool
	Error         string
}

type balanceJob struct {
	index int
	sub   SubAccount
}

// BalanceReport expands every account and resolves all of its currencies
// using a pool of workers. A failing pair is reported as unavailable and does
// not abort the report.
func (e *Engine) BalanceReport(ctx context.Context, accounts []models.Account, asOf *time.Time) []BalanceLine {
	var lines []BalanceLine
	var jobs []balanceJob
	for i := range accounts {
		account := &accounts[i]
		subs, err := e.expander.Expand(ctx, account)
		if err != nil {
			log := logger.WithAccount(e.log, account.Key())
			log.Error().Err(err).Msg("Account expansion failed")
			lines = append(lines, BalanceLine{
				Account:     account.Key(),
				Name:        account.Name,
				CompanyID:   account.CompanyID,
				Currency:    NormalizeCurrency(account.Currency),
				Unavailable: true,
				Error:       err.Error(),
			})
			continue
		}
		for _, sub := range subs {
			jobs = append(jobs, balanceJob{index: len(lines), sub: sub})
			lines = append(lines, BalanceLine{
				Account:       account.Key(),
				Name:          account.Name,
				CompanyID:     account.CompanyID,
				Currency:      sub.Currency,
				Uninitialized: sub.Uninitialized,
			})
		}
	}

	queue := make(chan balanceJob, len(jobs))
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range queue {
				e.log.Trace().
					Int("worker", workerID).
					Str("account", job.sub.Key().String()).
					Str("currency", job.sub.Currency).
					Msg("Resolving balance")

				balance, err := e.Balance(ctx, job.sub.Key(), job.sub.Currency, asOf)
				line := &lines[job.index]
				if err != nil {
					line.Unavailable = true
					line.Error = err.Error()
					continue
				}
				line.Balance = balance
			}
		}(w)
	}
	for _, job := range jobs {
		queue <- job
	}
	close(queue)
	wg.Wait()

	slices.SortStableFunc(lines, func(x, y BalanceLine) int {
		return cmp.Or(
			cmp.Compare(x.Account.Type, y.Account.Type),
			cmp.Compare(x.Name, y.Name),
			cmp.Compare(x.Account.ID, y.Account.ID),
			cmp.Compare(x.Currency, y.Currency),
		)
	})

	unavailable := 0
	for _, l := range lines {
		if l.Unavailable {
			unavailable++
		}
	}
	e.log.Info().
		Int("accounts", len(accounts)).
		Int("lines", len(lines)).
		Int("unavailable", unavailable).
		Msg("Balance report completed")

	return lines
}
