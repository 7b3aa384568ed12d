package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bookkeeper/internal/logger"
	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

// GroupBy selects how cashflow lines are grouped in a summary
type GroupBy string

const (
	GroupNone    GroupBy = "none"
	GroupAccount GroupBy = "account"
	GroupCompany GroupBy = "company"
)

// ParseGroupBy accepts none, account or company. Empty means none.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", GroupNone:
		return GroupNone, nil
	case GroupAccount:
		return GroupAccount, nil
	case GroupCompany:
		return GroupCompany, nil
	default:
		return "", NewValidationError("group_by", s, "must be none, account or company")
	}
}

// Flow is an inflow/outflow pair with its net
type Flow struct {
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
	Net     decimal.Decimal
}

// NewFlow builds a flow and derives its net
func NewFlow(in, out decimal.Decimal) Flow {
	return Flow{Inflow: in, Outflow: out, Net: in.Sub(out)}
}

// Add returns the element-wise sum of two flows
func (f Flow) Add(o Flow) Flow {
	return NewFlow(f.Inflow.Add(o.Inflow), f.Outflow.Add(o.Outflow))
}

func zeroFlow() Flow {
	return NewFlow(decimal.Zero, decimal.Zero)
}

// PeriodFlow is the breakdown of a line for one calendar month
type PeriodFlow struct {
	Period    models.Month
	Automatic Flow
	Manual    Flow
	Combined  Flow
}

// CashflowLine holds the flows of one (account, currency) pair. Automatic
// comes from ledger transactions, Manual from manual entries, Combined is
// their sum.
type CashflowLine struct {
	Account   models.AccountKey
	CompanyID string
	Name      string
	Currency  string

	Automatic Flow
	Manual    Flow
	Combined  Flow
	Periods   []PeriodFlow

	TransactionCount int
	ManualEntryCount int

	Uninitialized bool // No opening balance for the pair
	Undeclared    bool // Records exist in a currency the account does not declare
}

// CurrencyTotal sums lines of a single currency. Different currencies are
// never added together.
type CurrencyTotal struct {
	Currency  string
	Automatic Flow
	Manual    Flow
	Combined  Flow
}

// CashflowGroup is a set of lines sharing a grouping key
type CashflowGroup struct {
	Key    string
	Label  string
	Lines  []CashflowLine
	Totals []CurrencyTotal
}

// CashflowSummary is the result of an aggregation
type CashflowSummary struct {
	Range    DateRange
	GroupBy  GroupBy
	Currency string // Empty when all currencies were aggregated
	Groups   []CashflowGroup
	Totals   []CurrencyTotal
}

// Lines returns every line of every group
func (s *CashflowSummary) Lines() []CashflowLine {
	var out []CashflowLine
	for _, g := range s.Groups {
		out = append(out, g.Lines...)
	}
	return out
}

// CashflowQuery scopes an aggregation
type CashflowQuery struct {
	Accounts []models.AccountKey
	Range    DateRange
	GroupBy  GroupBy
	Currency string // Optional filter
}

// Aggregator merges transaction-derived and manual cashflow per account,
// currency and month
type Aggregator struct {
	store       services.LedgerReader
	expander    *Expander
	concurrency int
	log         zerolog.Logger
}

// NewAggregator creates an aggregator loading up to concurrency accounts at once
func NewAggregator(store services.LedgerReader, expander *Expander, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Aggregator{
		store:       store,
		expander:    expander,
		concurrency: concurrency,
		log:         logger.WithComponent("ledger-cashflow"),
	}
}

// Aggregate computes cashflow for every account in q over q.Range. Every
// declared (account, currency) pair appears, with zero flows if nothing
// matched. An unknown account fails the whole call.
func (a *Aggregator) Aggregate(ctx context.Context, q CashflowQuery) (*CashflowSummary, error) {
	const op = "Aggregate"

	q, err := normalizeQuery(q)
	if err != nil {
		return nil, NewLedgerError(op, err, "")
	}

	a.log.Debug().
		Int("accounts", len(q.Accounts)).
		Time("from", q.Range.From).
		Time("to", q.Range.To).
		Str("group_by", string(q.GroupBy)).
		Str("currency", q.Currency).
		Msg("Aggregating cashflow")

	perAccount := make([][]CashflowLine, len(q.Accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, key := range q.Accounts {
		g.Go(func() error {
			lines, err := a.accountLines(gctx, key, q)
			if err != nil {
				return err
			}
			perAccount[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var lines []CashflowLine
	for _, l := range perAccount {
		lines = append(lines, l...)
	}

	return &CashflowSummary{
		Range:    q.Range,
		GroupBy:  q.GroupBy,
		Currency: q.Currency,
		Groups:   GroupLines(lines, q.GroupBy),
		Totals:   totalsOf(lines),
	}, nil
}

func normalizeQuery(q CashflowQuery) (CashflowQuery, error) {
	if err := q.Range.validate(); err != nil {
		return q, err
	}
	groupBy, err := ParseGroupBy(string(q.GroupBy))
	if err != nil {
		return q, err
	}
	q.GroupBy = groupBy
	if q.Currency != "" {
		if q.Currency, err = ValidateCurrency(q.Currency); err != nil {
			return q, err
		}
	}

	seen := make(map[models.AccountKey]struct{}, len(q.Accounts))
	accounts := make([]models.AccountKey, 0, len(q.Accounts))
	for _, key := range q.Accounts {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		accounts = append(accounts, key)
	}
	q.Accounts = accounts
	return q, nil
}

// lineBuilder accumulates one line and its monthly buckets
type lineBuilder struct {
	line    CashflowLine
	periods map[models.Month]*PeriodFlow
}

func (b *lineBuilder) period(m models.Month) *PeriodFlow {
	p, ok := b.periods[m]
	if !ok {
		p = &PeriodFlow{Period: m, Automatic: zeroFlow(), Manual: zeroFlow(), Combined: zeroFlow()}
		b.periods[m] = p
	}
	return p
}

func (b *lineBuilder) finish() CashflowLine {
	line := b.line
	line.Combined = line.Automatic.Add(line.Manual)
	line.Periods = make([]PeriodFlow, 0, len(b.periods))
	for _, p := range b.periods {
		p.Combined = p.Automatic.Add(p.Manual)
		line.Periods = append(line.Periods, *p)
	}
	slices.SortFunc(line.Periods, func(x, y PeriodFlow) int {
		switch {
		case x.Period.Before(y.Period):
			return -1
		case y.Period.Before(x.Period):
			return 1
		}
		return 0
	})
	return line
}

func (a *Aggregator) accountLines(ctx context.Context, key models.AccountKey, q CashflowQuery) ([]CashflowLine, error) {
	const op = "Aggregate"
	log := logger.WithAccount(a.log, key)

	account, err := a.store.FindAccount(ctx, key)
	if err != nil {
		return nil, storeError(op, err, "find account "+key.String())
	}

	subs, err := a.expander.Expand(ctx, account)
	if err != nil {
		return nil, err
	}

	from, to := q.Range.From, q.Range.To
	txs, err := a.store.FindTransactions(ctx, key, services.TransactionQuery{
		Currency: q.Currency,
		From:     &from,
		To:       &to,
	})
	if err != nil {
		return nil, storeError(op, err, "find transactions for "+key.String())
	}

	fromMonth, toMonth := models.MonthOf(from), models.MonthOf(to)
	entries, err := a.store.FindManualEntries(ctx, key, services.ManualEntryQuery{
		Currency: q.Currency,
		From:     &fromMonth,
		To:       &toMonth,
	})
	if err != nil {
		return nil, storeError(op, err, "find manual entries for "+key.String())
	}

	builders := make(map[string]*lineBuilder)
	var order []string
	newBuilder := func(currency string, uninitialized, undeclared bool) *lineBuilder {
		b := &lineBuilder{
			line: CashflowLine{
				Account:       key,
				CompanyID:     account.CompanyID,
				Name:          account.Name,
				Currency:      currency,
				Automatic:     zeroFlow(),
				Manual:        zeroFlow(),
				Uninitialized: uninitialized,
				Undeclared:    undeclared,
			},
			periods: make(map[models.Month]*PeriodFlow),
		}
		builders[currency] = b
		order = append(order, currency)
		return b
	}
	for _, sub := range subs {
		if q.Currency != "" && sub.Currency != q.Currency {
			continue
		}
		newBuilder(sub.Currency, sub.Uninitialized, false)
	}
	builderFor := func(currency string) (*lineBuilder, error) {
		currency = NormalizeCurrency(currency)
		if b, ok := builders[currency]; ok {
			return b, nil
		}
		log.Warn().
			Err(ErrDataInconsistency).
			Str("currency", currency).
			Msg("Cashflow records use a currency the account never declared, including them")
		ob, err := a.store.FindOpeningBalance(ctx, key, currency)
		if err != nil {
			return nil, storeError(op, err, "find opening balance for "+key.String())
		}
		return newBuilder(currency, ob == nil, true), nil
	}

	for i := range txs {
		tx := &txs[i]
		if !q.Range.Contains(tx.Date) {
			continue
		}
		b, err := builderFor(tx.Currency)
		if err != nil {
			return nil, err
		}
		flow := NewFlow(tx.Incoming, tx.Outgoing)
		b.line.Automatic = b.line.Automatic.Add(flow)
		b.line.TransactionCount++
		p := b.period(models.MonthOf(tx.Date))
		p.Automatic = p.Automatic.Add(flow)
	}

	for i := range entries {
		entry := &entries[i]
		if entry.Period.Before(fromMonth) || toMonth.Before(entry.Period) {
			continue
		}
		var flow Flow
		switch entry.Type {
		case models.CashflowInflow:
			flow = NewFlow(entry.Amount, decimal.Zero)
		case models.CashflowOutflow:
			flow = NewFlow(decimal.Zero, entry.Amount)
		default:
			log.Warn().
				Err(ErrDataInconsistency).
				Str("entry_id", entry.ID).
				Str("type", string(entry.Type)).
				Msg("Manual cashflow entry has an unknown type, skipping")
			continue
		}
		b, err := builderFor(entry.Currency)
		if err != nil {
			return nil, err
		}
		b.line.Manual = b.line.Manual.Add(flow)
		b.line.ManualEntryCount++
		p := b.period(entry.Period)
		p.Manual = p.Manual.Add(flow)
	}

	lines := make([]CashflowLine, 0, len(order))
	for _, currency := range order {
		lines = append(lines, builders[currency].finish())
	}
	return lines, nil
}

// GroupLines reshapes lines into groups. It never changes any figure, so
// totals are identical for every grouping mode.
func GroupLines(lines []CashflowLine, by GroupBy) []CashflowGroup {
	keyOf := func(l CashflowLine) (string, string) {
		switch by {
		case GroupAccount:
			return l.Account.String(), l.Name
		case GroupCompany:
			return l.CompanyID, l.CompanyID
		default:
			return "all", "All accounts"
		}
	}

	index := make(map[string]int)
	var groups []CashflowGroup
	for _, l := range lines {
		key, label := keyOf(l)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, CashflowGroup{Key: key, Label: label})
		}
		groups[i].Lines = append(groups[i].Lines, l)
	}
	if len(groups) == 0 && (by == GroupNone || by == "") {
		groups = append(groups, CashflowGroup{Key: "all", Label: "All accounts"})
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Lines, compareLines)
		groups[i].Totals = totalsOf(groups[i].Lines)
	}
	slices.SortFunc(groups, func(x, y CashflowGroup) int {
		return cmp.Compare(x.Key, y.Key)
	})
	return groups
}

// compareLines orders by account type, display name, id, then currency
func compareLines(x, y CashflowLine) int {
	return cmp.Or(
		cmp.Compare(x.Account.Type, y.Account.Type),
		cmp.Compare(x.Name, y.Name),
		cmp.Compare(x.Account.ID, y.Account.ID),
		cmp.Compare(x.Currency, y.Currency),
	)
}

func totalsOf(lines []CashflowLine) []CurrencyTotal {
	byCurrency := make(map[string]*CurrencyTotal)
	for _, l := range lines {
		t, ok := byCurrency[l.Currency]
		if !ok {
			t = &CurrencyTotal{Currency: l.Currency, Automatic: zeroFlow(), Manual: zeroFlow(), Combined: zeroFlow()}
			byCurrency[l.Currency] = t
		}
		t.Automatic = t.Automatic.Add(l.Automatic)
		t.Manual = t.Manual.Add(l.Manual)
		t.Combined = t.Combined.Add(l.Combined)
	}

	totals := make([]CurrencyTotal, 0, len(byCurrency))
	for _, t := range byCurrency {
		totals = append(totals, *t)
	}
	slices.SortFunc(totals, func(x, y CurrencyTotal) int {
		return cmp.Compare(x.Currency, y.Currency)
	})
	return totals
}

// TotalFor returns the total for currency, or a zero total if absent
func (s *CashflowSummary) TotalFor(currency string) CurrencyTotal {
	for _, t := range s.Totals {
		if t.Currency == currency {
			return t
		}
	}
	return CurrencyTotal{Currency: currency, Automatic: zeroFlow(), Manual: zeroFlow(), Combined: zeroFlow()}
}

func (q CashflowQuery) String() string {
	return fmt.Sprintf("%d accounts %s..%s by %s", len(q.Accounts), q.Range.From.Format("2006-01-02"), q.Range.To.Format("2006-01-02"), q.GroupBy)
}
