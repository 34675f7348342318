// Package store defines the persistence contract for invoices, the numbering
// counter and company settings. Implementations live in sub-packages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/go-factures/internal/models"
)

var (
	// ErrNotFound is returned when an invoice does not exist for the account.
	ErrNotFound = errors.New("store: not found")
	// ErrNotPersisted is returned by best-effort stores when the write was
	// lost. The returned invoice still carries its assigned number.
	ErrNotPersisted = errors.New("store: not persisted")
)

// Store persists invoices for one account at a time. Every call is scoped by
// an account id.
type Store interface {
	// LoadInvoices returns the account invoices, most recent first.
	LoadInvoices(ctx context.Context, account string) ([]models.Invoice, error)
	LoadInvoice(ctx context.Context, account, id string) (models.Invoice, error)
	// LoadNextNumber returns the number the next created invoice will receive.
	LoadNextNumber(ctx context.Context, account string) (int, error)
	// LoadCompanyInfo returns the saved settings, or defaults on first use.
	LoadCompanyInfo(ctx context.Context, account string) (models.CompanyInfo, error)

	// CreateInvoice assigns the next number and stores inv atomically.
	CreateInvoice(ctx context.Context, account string, inv models.Invoice) (models.Invoice, error)
	// SaveInvoice overwrites an existing invoice. The number is not changed.
	SaveInvoice(ctx context.Context, account string, inv models.Invoice) error
	DeleteInvoice(ctx context.Context, account, id string) error
	SaveNextNumber(ctx context.Context, account string, next int) error
	SaveCompanyInfo(ctx context.Context, account string, info models.CompanyInfo) error

	// Durable reports whether a successful write is confirmed durable.
	Durable() bool
}

// Resetter is implemented by stores able to drop all data of an account.
type Resetter interface {
	Reset(ctx context.Context, account string) error
}

// Stamp sets CreatedAt on first save and refreshes UpdatedAt.
func Stamp(inv *models.Invoice, now time.Time) {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now
}
