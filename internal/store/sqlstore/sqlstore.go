// Package sqlstore is the durable gorm implementation of store.Store.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/internal/store"
)

// Store persists invoices in a SQL database (PostgreSQL in production, sqlite in tests).
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open connection. Tables must already exist (see Models).
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Durable() bool { return true }

func (s *Store) LoadInvoices(ctx context.Context, account string) ([]models.Invoice, error) {
	var recs []invoiceRecord
	err := s.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("account_id = ?", account).
		Order("created_at DESC").Order("number DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	out := make([]models.Invoice, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

func (s *Store) LoadInvoice(ctx context.Context, account, id string) (models.Invoice, error) {
	rec, err := findInvoice(s.db.WithContext(ctx).Preload("Items", orderItems), account, id)
	if err != nil {
		return models.Invoice{}, err
	}
	return rec.toModel(), nil
}

func (s *Store) LoadNextNumber(ctx context.Context, account string) (int, error) {
	db := s.db.WithContext(ctx)
	var counter counterRecord
	err := db.Where("account_id = ?", account).First(&counter).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("load counter: %w", err)
	}
	if counter.Next == 0 {
		counter.Next = 1
	}
	numbers, err := issuedNumbers(db, account)
	if err != nil {
		return 0, err
	}
	return models.ReconcileCounter(counter.Next, numbers), nil
}

func (s *Store) LoadCompanyInfo(ctx context.Context, account string) (models.CompanyInfo, error) {
	var rec companyRecord
	err := s.db.WithContext(ctx).Where("account_id = ?", account).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultCompanyInfo(), nil
	}
	if err != nil {
		return models.CompanyInfo{}, fmt.Errorf("load company info: %w", err)
	}
	return rec.toModel(), nil
}

// CreateInvoice locks the account counter row, picks the next number and
// inserts the invoice in one transaction. The unique (account_id, number)
// index backs the lock on databases without row locking.
func (s *Store) CreateInvoice(ctx context.Context, account string, inv models.Invoice) (models.Invoice, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter counterRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account_id = ?", account).
			First(&counter).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			counter = counterRecord{AccountID: account, Next: 1}
			if err := tx.Create(&counter).Error; err != nil {
				return fmt.Errorf("create counter: %w", err)
			}
		case err != nil:
			return fmt.Errorf("lock counter: %w", err)
		}

		numbers, err := issuedNumbers(tx, account)
		if err != nil {
			return err
		}
		inv.Number = models.ReconcileCounter(counter.Next, numbers)
		inv.ID = uuid.NewString()

		rec := toRecord(account, inv)
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		return tx.Model(&counterRecord{}).
			Where("account_id = ?", account).
			Update("next", inv.Number+1).Error
	})
	if err != nil {
		return models.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// SaveInvoice rewrites an invoice and its lines. Number and CreatedAt keep
// their stored values.
func (s *Store) SaveInvoice(ctx context.Context, account string, inv models.Invoice) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findInvoice(tx, account, inv.ID)
		if err != nil {
			return err
		}
		inv.Number = existing.Number
		inv.CreatedAt = existing.CreatedAt

		rec := toRecord(account, inv)
		items := rec.Items
		rec.Items = nil
		if err := tx.Omit(clause.Associations).Save(&rec).Error; err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&itemRecord{}).Error; err != nil {
			return fmt.Errorf("clear items: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteInvoice(ctx context.Context, account, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findInvoice(tx, account, id); err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&itemRecord{}).Error; err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := tx.Where("id = ? AND account_id = ?", id, account).Delete(&invoiceRecord{}).Error; err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		return nil
	})
}

func (s *Store) SaveNextNumber(ctx context.Context, account string, next int) error {
	counter := counterRecord{AccountID: account, Next: next}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"next", "updated_at"}),
	}).Create(&counter).Error
	if err != nil {
		return fmt.Errorf("save counter: %w", err)
	}
	return nil
}

func (s *Store) SaveCompanyInfo(ctx context.Context, account string, info models.CompanyInfo) error {
	rec := companyToRecord(account, info)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		UpdateAll: true,
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save company info: %w", err)
	}
	return nil
}

func findInvoice(db *gorm.DB, account, id string) (invoiceRecord, error) {
	var rec invoiceRecord
	err := db.Where("id = ? AND account_id = ?", id, account).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, store.ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("find invoice: %w", err)
	}
	return rec, nil
}

func issuedNumbers(db *gorm.DB, account string) ([]int, error) {
	var numbers []int
	if err := db.Model(&invoiceRecord{}).Where("account_id = ?", account).Pluck("number", &numbers).Error; err != nil {
		return nil, fmt.Errorf("list numbers: %w", err)
	}
	return numbers, nil
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}
