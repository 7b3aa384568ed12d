package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookkeeper/internal/logger"
	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

// Gorm is a ledger store backed by a SQL database
type Gorm struct {
	db       *gorm.DB
	notifier services.ChangeNotifier
	log      zerolog.Logger
}

// NewGorm wraps db. notifier may be nil.
func NewGorm(db *gorm.DB, notifier services.ChangeNotifier) *Gorm {
	return &Gorm{
		db:       db,
		notifier: notifierOrNoop(notifier),
		log:      logger.WithComponent("store-gorm"),
	}
}

var _ services.LedgerStore = (*Gorm)(nil)

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, services.ErrRecordNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (s *Gorm) FindAccount(ctx context.Context, key models.AccountKey) (*models.Account, error) {
	var r accountRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND type = ?", key.ID, string(key.Type)).
		First(&r).Error
	if err != nil {
		return nil, notFound(err, "account "+key.String())
	}
	a := accountFromRecord(&r)
	return &a, nil
}

func (s *Gorm) ListAccounts(ctx context.Context, filter services.AccountFilter) ([]models.Account, error) {
	q := s.db.WithContext(ctx).Model(&accountRecord{})
	if filter.CompanyID != "" {
		q = q.Where("company_id = ?", filter.CompanyID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}

	var rows []accountRecord
	if err := q.Order("type").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]models.Account, 0, len(rows))
	for i := range rows {
		out = append(out, accountFromRecord(&rows[i]))
	}
	return out, nil
}

func (s *Gorm) FindOpeningBalance(ctx context.Context, key models.AccountKey, currency string) (*models.OpeningBalance, error) {
	var rows []openingBalanceRecord
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND account_type = ? AND currency = ?", key.ID, string(key.Type), models.NormalizeCurrency(currency)).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find opening balance: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ob := openingFromRecord(&rows[0])
	return &ob, nil
}

// FindTransactions relies on GORM's soft-delete scope to drop deleted rows
func (s *Gorm) FindTransactions(ctx context.Context, key models.AccountKey, q services.TransactionQuery) ([]models.LedgerTransaction, error) {
	tx := s.db.WithContext(ctx).
		Where("account_id = ? AND account_type = ?", key.ID, string(key.Type))
	if q.Currency != "" {
		tx = tx.Where("currency = ?", models.NormalizeCurrency(q.Currency))
	}
	if q.From != nil {
		tx = tx.Where("date >= ?", q.From.UTC())
	}
	if q.To != nil {
		tx = tx.Where("date <= ?", q.To.UTC())
	}

	var rows []transactionRecord
	if err := tx.Order("date").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	out := make([]models.LedgerTransaction, 0, len(rows))
	for i := range rows {
		out = append(out, transactionFromRecord(&rows[i]))
	}
	return out, nil
}

func (s *Gorm) FindManualEntries(ctx context.Context, key models.AccountKey, q services.ManualEntryQuery) ([]models.ManualCashflowEntry, error) {
	tx := s.db.WithContext(ctx).
		Where("account_id = ? AND account_type = ?", key.ID, string(key.Type))
	if q.Currency != "" {
		tx = tx.Where("currency = ?", models.NormalizeCurrency(q.Currency))
	}
	// YYYY-MM sorts lexically in calendar order
	if q.From != nil {
		tx = tx.Where("period >= ?", q.From.String())
	}
	if q.To != nil {
		tx = tx.Where("period <= ?", q.To.String())
	}

	var rows []manualEntryRecord
	if err := tx.Order("period").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find manual entries: %w", err)
	}
	out := make([]models.ManualCashflowEntry, 0, len(rows))
	for i := range rows {
		e, err := manualFromRecord(&rows[i])
		if err != nil {
			s.log.Warn().Err(err).Str("entry_id", rows[i].ID).Msg("Skipping manual entry with unreadable period")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Gorm) FindInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var r invoiceRecord
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, notFound(err, "invoice "+id)
	}
	inv := invoiceFromRecord(&r)
	return &inv, nil
}

func (s *Gorm) FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []productRecord
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	out := make([]models.Product, 0, len(rows))
	for i := range rows {
		out = append(out, productFromRecord(&rows[i]))
	}
	return out, nil
}

func (s *Gorm) FindBookkeepingEntryByInvoice(ctx context.Context, invoiceID string) (*models.BookkeepingEntry, error) {
	var r bookkeepingEntryRecord
	if err := s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).First(&r).Error; err != nil {
		return nil, notFound(err, "bookkeeping entry for invoice "+invoiceID)
	}
	e := entryFromRecord(&r)
	return &e, nil
}

func (s *Gorm) SaveAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = newID()
	}
	normalizeAccount(account)
	r := accountToRecord(account)
	if err := s.db.WithContext(ctx).Save(&r).Error; err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	s.notifier.Notify(ctx, accountEvent(EntityAccount, account.Key(), account.CompanyID))
	return nil
}

func (s *Gorm) UpsertOpeningBalance(ctx context.Context, ob *models.OpeningBalance) error {
	ob.Currency = models.NormalizeCurrency(ob.Currency)
	r := openingBalanceRecord{
		AccountID:   ob.AccountID,
		AccountType: string(ob.AccountType),
		Currency:    ob.Currency,
		Amount:      ob.Amount,
		Notes:       ob.Notes,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "account_type"}, {Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "notes", "updated_at"}),
	}).Create(&r).Error
	if err != nil {
		return fmt.Errorf("upsert opening balance: %w", err)
	}
	ob.UpdatedAt = r.UpdatedAt

	key := models.AccountKey{ID: ob.AccountID, Type: ob.AccountType}
	s.notifier.Notify(ctx, accountEvent(EntityOpeningBalance, key, ""))
	return nil
}

func (s *Gorm) PostTransaction(ctx context.Context, tx *models.LedgerTransaction) error {
	if err := validateTransaction(tx); err != nil {
		return err
	}
	prepareTransaction(tx, time.Now().UTC())

	r := transactionToRecord(tx)
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return fmt.Errorf("post transaction: %w", err)
	}
	s.notifier.Notify(ctx, accountEvent(EntityTransaction, tx.AccountKey(), ""))
	return nil
}

// DeleteTransaction sets deleted_at; the row stays for audit
func (s *Gorm) DeleteTransaction(ctx context.Context, id string) error {
	var r transactionRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return notFound(err, "transaction "+id)
	}
	if err := s.db.WithContext(ctx).Delete(&r).Error; err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	key := models.AccountKey{ID: r.AccountID, Type: models.AccountType(r.AccountType)}
	s.notifier.Notify(ctx, accountEvent(EntityTransaction, key, ""))
	return nil
}

func (s *Gorm) SaveManualEntry(ctx context.Context, entry *models.ManualCashflowEntry) error {
	if err := validateManualEntry(entry); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = newID()
	}
	r := manualToRecord(entry)
	if err := s.db.WithContext(ctx).Save(&r).Error; err != nil {
		return fmt.Errorf("save manual entry: %w", err)
	}
	entry.CreatedAt = r.CreatedAt
	s.notifier.Notify(ctx, accountEvent(EntityManualEntry, entry.AccountKey(), ""))
	return nil
}

func (s *Gorm) DeleteManualEntry(ctx context.Context, id string) error {
	var r manualEntryRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return notFound(err, "manual entry "+id)
	}
	if err := s.db.WithContext(ctx).Delete(&r).Error; err != nil {
		return fmt.Errorf("delete manual entry: %w", err)
	}
	key := models.AccountKey{ID: r.AccountID, Type: models.AccountType(r.AccountType)}
	s.notifier.Notify(ctx, accountEvent(EntityManualEntry, key, ""))
	return nil
}

func (s *Gorm) SaveProduct(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = newID()
	}
	normalizeProduct(product)
	r := productToRecord(product)
	if err := s.db.WithContext(ctx).Save(&r).Error; err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	s.notifier.Notify(ctx, productEvent(EntityProduct, product))
	return nil
}

// DeleteProduct removes the product row. Invoice items keep their snapshot
// and simply stop matching.
func (s *Gorm) DeleteProduct(ctx context.Context, id string) error {
	var r productRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return notFound(err, "product "+id)
	}
	if err := s.db.WithContext(ctx).Delete(&r).Error; err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	p := productFromRecord(&r)
	s.notifier.Notify(ctx, productEvent(EntityProduct, &p))
	return nil
}

// SaveInvoice writes the invoice and replaces its items in one transaction
func (s *Gorm) SaveInvoice(ctx context.Context, invoice *models.Invoice) error {
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

	r := invoiceToRecord(invoice)
	items := r.Items
	r.Items = nil
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&r).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", r.ID).Delete(&invoiceItemRecord{}).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			return tx.Create(&items).Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save invoice: %w", err)
	}
	s.notifier.Notify(ctx, companyEvent(EntityInvoice, invoice.CompanyID))
	return nil
}

func (s *Gorm) SaveBookkeepingEntry(ctx context.Context, entry *models.BookkeepingEntry) error {
	if entry.ID == "" {
		entry.ID = newID()
	}
	r := entryToRecord(entry)
	if err := s.db.WithContext(ctx).Save(&r).Error; err != nil {
		return fmt.Errorf("save bookkeeping entry: %w", err)
	}
	entry.CreatedAt = r.CreatedAt
	s.notifier.Notify(ctx, companyEvent(EntityBookkeepingEntry, entry.CompanyID))
	return nil
}
