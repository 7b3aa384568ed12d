package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

type obKey struct {
	account  models.AccountKey
	currency string
}

// Memory is an in-memory ledger store
type Memory struct {
	mu           sync.RWMutex
	accounts     map[models.AccountKey]models.Account
	openings     map[obKey]models.OpeningBalance
	transactions []models.LedgerTransaction
	manual       []models.ManualCashflowEntry
	products     map[string]models.Product
	invoices     map[string]models.Invoice
	entries      map[string]models.BookkeepingEntry

	notifier services.ChangeNotifier
	now      func() time.Time
}

// NewMemory creates an empty store. notifier may be nil.
func NewMemory(notifier services.ChangeNotifier) *Memory {
	return &Memory{
		accounts: make(map[models.AccountKey]models.Account),
		openings: make(map[obKey]models.OpeningBalance),
		products: make(map[string]models.Product),
		invoices: make(map[string]models.Invoice),
		entries:  make(map[string]models.BookkeepingEntry),
		notifier: notifierOrNoop(notifier),
		now:      time.Now,
	}
}

func (m *Memory) FindAccount(ctx context.Context, key models.AccountKey) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[key]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", key, services.ErrRecordNotFound)
	}
	return &a, nil
}

func (m *Memory) ListAccounts(ctx context.Context, filter services.AccountFilter) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Account
	for _, a := range m.accounts {
		if filter.CompanyID != "" && a.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && !a.Active {
			continue
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(x, y models.Account) int {
		return strings.Compare(x.Key().String(), y.Key().String())
	})
	return out, nil
}

func (m *Memory) FindOpeningBalance(ctx context.Context, key models.AccountKey, currency string) (*models.OpeningBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ob, ok := m.openings[obKey{account: key, currency: models.NormalizeCurrency(currency)}]
	if !ok {
		return nil, nil
	}
	return &ob, nil
}

func (m *Memory) FindTransactions(ctx context.Context, key models.AccountKey, q services.TransactionQuery) ([]models.LedgerTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	currency := models.NormalizeCurrency(q.Currency)
	var out []models.LedgerTransaction
	for _, tx := range m.transactions {
		if tx.IsDeleted() || tx.AccountKey() != key {
			continue
		}
		if currency != "" && tx.Currency != currency {
			continue
		}
		if q.From != nil && tx.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && tx.Date.After(*q.To) {
			continue
		}
		out = append(out, tx)
	}
	slices.SortStableFunc(out, func(x, y models.LedgerTransaction) int {
		return x.Date.Compare(y.Date)
	})
	return out, nil
}

func (m *Memory) FindManualEntries(ctx context.Context, key models.AccountKey, q services.ManualEntryQuery) ([]models.ManualCashflowEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	currency := models.NormalizeCurrency(q.Currency)
	var out []models.ManualCashflowEntry
	for _, e := range m.manual {
		if e.AccountKey() != key {
			continue
		}
		if currency != "" && e.Currency != currency {
			continue
		}
		if q.From != nil && e.Period.Before(*q.From) {
			continue
		}
		if q.To != nil && q.To.Before(e.Period) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *Memory) FindInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", id, services.ErrRecordNotFound)
	}
	inv.Items = slices.Clone(inv.Items)
	return &inv, nil
}

func (m *Memory) FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) FindBookkeepingEntryByInvoice(ctx context.Context, invoiceID string) (*models.BookkeepingEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.InvoiceID != nil && *e.InvoiceID == invoiceID {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("bookkeeping entry for invoice %s: %w", invoiceID, services.ErrRecordNotFound)
}

func (m *Memory) SaveAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = newID()
	}
	normalizeAccount(account)
	m.mu.Lock()
	m.accounts[account.Key()] = *account
	m.mu.Unlock()

	m.notifier.Notify(ctx, accountEvent(EntityAccount, account.Key(), account.CompanyID))
	return nil
}

func (m *Memory) UpsertOpeningBalance(ctx context.Context, ob *models.OpeningBalance) error {
	key := models.AccountKey{ID: ob.AccountID, Type: ob.AccountType}
	ob.Currency = models.NormalizeCurrency(ob.Currency)
	ob.UpdatedAt = m.now()

	m.mu.Lock()
	m.openings[obKey{account: key, currency: ob.Currency}] = *ob
	m.mu.Unlock()

	m.notifier.Notify(ctx, accountEvent(EntityOpeningBalance, key, ""))
	return nil
}

func (m *Memory) PostTransaction(ctx context.Context, tx *models.LedgerTransaction) error {
	if err := validateTransaction(tx); err != nil {
		return err
	}
	prepareTransaction(tx, m.now())

	m.mu.Lock()
	m.transactions = append(m.transactions, *tx)
	m.mu.Unlock()

	m.notifier.Notify(ctx, accountEvent(EntityTransaction, tx.AccountKey(), ""))
	return nil
}

func (m *Memory) DeleteTransaction(ctx context.Context, id string) error {
	m.mu.Lock()
	var key models.AccountKey
	found := false
	for i := range m.transactions {
		if m.transactions[i].ID == id && !m.transactions[i].IsDeleted() {
			m.transactions[i].State = models.TxDeleted
			key = m.transactions[i].AccountKey()
			found = true
			break
		}
	}
	m.mu.Unlock()

	if !found {
		return fmt.Errorf("transaction %s: %w", id, services.ErrRecordNotFound)
	}
	m.notifier.Notify(ctx, accountEvent(EntityTransaction, key, ""))
	return nil
}

func (m *Memory) SaveManualEntry(ctx context.Context, entry *models.ManualCashflowEntry) error {
	if err := validateManualEntry(entry); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now()
	}

	m.mu.Lock()
	replaced := false
	for i := range m.manual {
		if m.manual[i].ID == entry.ID {
			m.manual[i] = *entry
			replaced = true
			break
		}
	}
	if !replaced {
		m.manual = append(m.manual, *entry)
	}
	m.mu.Unlock()

	m.notifier.Notify(ctx, accountEvent(EntityManualEntry, entry.AccountKey(), ""))
	return nil
}

func (m *Memory) DeleteManualEntry(ctx context.Context, id string) error {
	m.mu.Lock()
	idx := slices.IndexFunc(m.manual, func(e models.ManualCashflowEntry) bool { return e.ID == id })
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("manual entry %s: %w", id, services.ErrRecordNotFound)
	}
	key := m.manual[idx].AccountKey()
	m.manual = slices.Delete(m.manual, idx, idx+1)
	m.mu.Unlock()

	m.notifier.Notify(ctx, accountEvent(EntityManualEntry, key, ""))
	return nil
}

func (m *Memory) SaveProduct(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = newID()
	}
	normalizeProduct(product)
	m.mu.Lock()
	m.products[product.ID] = *product
	m.mu.Unlock()

	m.notifier.Notify(ctx, productEvent(EntityProduct, product))
	return nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	p, ok := m.products[id]
	delete(m.products, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("product %s: %w", id, services.ErrRecordNotFound)
	}
	m.notifier.Notify(ctx, productEvent(EntityProduct, &p))
	return nil
}

func (m *Memory) SaveInvoice(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = newID()
	}
	for i := range invoice.Items {
		item := &invoice.Items[i]
		if item.ID == "" {
			item.ID = newID()
		}
		item.InvoiceID = invoice.ID
		if item.Position == 0 {
			item.Position = i + 1
		}
	}

	stored := *invoice
	stored.Items = slices.Clone(invoice.Items)
	m.mu.Lock()
	m.invoices[invoice.ID] = stored
	m.mu.Unlock()

	m.notifier.Notify(ctx, companyEvent(EntityInvoice, invoice.CompanyID))
	return nil
}

func (m *Memory) SaveBookkeepingEntry(ctx context.Context, entry *models.BookkeepingEntry) error {
	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now()
	}

	m.mu.Lock()
	if entry.InvoiceID != nil {
		for id, existing := range m.entries {
			if id != entry.ID && existing.InvoiceID != nil && *existing.InvoiceID == *entry.InvoiceID {
				m.mu.Unlock()
				return fmt.Errorf("invoice %s already has bookkeeping entry %s", *entry.InvoiceID, id)
			}
		}
	}
	m.entries[entry.ID] = *entry
	m.mu.Unlock()

	m.notifier.Notify(ctx, companyEvent(EntityBookkeepingEntry, entry.CompanyID))
	return nil
}

var _ services.LedgerStore = (*Memory)(nil)
