// Package services holds the invoicing workflows shared by the HTTP handlers
// and the command line tools: validate a draft, persist it, render its PDF.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/internal/pdf"
	"github.com/diewo77/go-factures/internal/store"
)

// ErrResetUnsupported is returned by Reset when the store cannot drop an account.
var ErrResetUnsupported = errors.New("reset_unsupported")

// Renderer turns an invoice into a printable document.
type Renderer func(inv models.Invoice, company models.CompanyInfo) ([]byte, error)

// Document is an invoice together with its rendered PDF.
type Document struct {
	Invoice  models.Invoice
	FileName string
	PDF      []byte
	// Persisted is false when a best-effort store lost the write.
	Persisted bool
}

// Listing is what the invoice history screen shows.
type Listing struct {
	Invoices   []models.Invoice `json:"items"`
	NextNumber int              `json:"nextNumber"`
}

type InvoiceService struct {
	store  store.Store
	render Renderer
	log    *zap.Logger
	now    func() time.Time
}

type Option func(*InvoiceService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *InvoiceService) { s.now = now }
}

// WithRenderer replaces pdf.Generate.
func WithRenderer(r Renderer) Option {
	return func(s *InvoiceService) { s.render = r }
}

func NewInvoiceService(st store.Store, log *zap.Logger, opts ...Option) *InvoiceService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &InvoiceService{store: st, render: pdf.Generate, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDraft returns the blank invoice form.
func (s *InvoiceService) NewDraft() models.Draft {
	return models.NewDraft(s.now())
}

// Issue validates the draft, assigns the next number, stores the invoice and
// renders it. With a durable store a failed write aborts; with a best-effort
// store the document is still produced once a number was assigned.
func (s *InvoiceService) Issue(ctx context.Context, account string, d models.Draft) (Document, error) {
	if err := ValidateDraft(d); err != nil {
		return Document{}, err
	}
	now := s.now()
	if d.Date == (civil.Date{}) {
		d.Date = civil.DateOf(now)
	}
	var inv models.Invoice
	d.ApplyTo(&inv)
	store.Stamp(&inv, now)

	log := s.log.With(zap.String("account", account))
	created, err := s.store.CreateInvoice(ctx, account, inv)
	persisted := true
	if err != nil {
		if !s.bestEffort(err) || created.Number == 0 {
			log.Error("create invoice failed", zap.Error(err))
			return Document{}, fmt.Errorf("issue invoice: %w", err)
		}
		log.Warn("invoice not persisted, rendering anyway", zap.Int("number", created.Number), zap.Error(err))
		persisted = false
	}
	log.Info("invoice issued", zap.String("id", created.ID), zap.Int("number", created.Number), zap.String("ttc", models.FormatAmount(created.TotalTTC)))
	return s.document(ctx, account, created, persisted)
}

// Update re-saves an existing invoice. Number and creation time are kept.
func (s *InvoiceService) Update(ctx context.Context, account, id string, d models.Draft) (Document, error) {
	if err := ValidateDraft(d); err != nil {
		return Document{}, err
	}
	inv, err := s.store.LoadInvoice(ctx, account, id)
	if err != nil {
		return Document{}, fmt.Errorf("update invoice: %w", err)
	}
	if d.Date == (civil.Date{}) {
		d.Date = inv.Date
	}
	d.ApplyTo(&inv)
	store.Stamp(&inv, s.now())

	persisted := true
	if err := s.store.SaveInvoice(ctx, account, inv); err != nil {
		if !s.bestEffort(err) {
			s.log.Error("save invoice failed", zap.String("account", account), zap.String("id", id), zap.Error(err))
			return Document{}, fmt.Errorf("update invoice: %w", err)
		}
		s.log.Warn("invoice update not persisted", zap.String("account", account), zap.String("id", id), zap.Error(err))
		persisted = false
	}
	return s.document(ctx, account, inv, persisted)
}

func (s *InvoiceService) Delete(ctx context.Context, account, id string) error {
	if err := s.store.DeleteInvoice(ctx, account, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	s.log.Info("invoice deleted", zap.String("account", account), zap.String("id", id))
	return nil
}

func (s *InvoiceService) Get(ctx context.Context, account, id string) (models.Invoice, error) {
	inv, err := s.store.LoadInvoice(ctx, account, id)
	if err != nil {
		return models.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// List returns the invoices, most recent first, and the upcoming number.
func (s *InvoiceService) List(ctx context.Context, account string) (Listing, error) {
	invoices, err := s.store.LoadInvoices(ctx, account)
	if err != nil {
		return Listing{}, fmt.Errorf("list invoices: %w", err)
	}
	next, err := s.store.LoadNextNumber(ctx, account)
	if err != nil {
		return Listing{}, fmt.Errorf("list invoices: %w", err)
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	return Listing{Invoices: invoices, NextNumber: next}, nil
}

// Download renders a stored invoice again.
func (s *InvoiceService) Download(ctx context.Context, account, id string) (Document, error) {
	inv, err := s.Get(ctx, account, id)
	if err != nil {
		return Document{}, err
	}
	return s.document(ctx, account, inv, true)
}

// Reset drops every invoice, the counter and the company settings.
func (s *InvoiceService) Reset(ctx context.Context, account string) error {
	r, ok := s.store.(store.Resetter)
	if !ok {
		return ErrResetUnsupported
	}
	if err := r.Reset(ctx, account); err != nil {
		return err
	}
	s.log.Info("account data reset", zap.String("account", account))
	return nil
}

func (s *InvoiceService) bestEffort(err error) bool {
	return !s.store.Durable() && errors.Is(err, store.ErrNotPersisted)
}

func (s *InvoiceService) document(ctx context.Context, account string, inv models.Invoice, persisted bool) (Document, error) {
	company, err := s.store.LoadCompanyInfo(ctx, account)
	if err != nil {
		if s.store.Durable() {
			return Document{}, fmt.Errorf("load company info: %w", err)
		}
		s.log.Warn("company info unavailable, using defaults", zap.String("account", account), zap.Error(err))
		company = models.DefaultCompanyInfo()
	}
	body, err := s.render(inv, company)
	if err != nil {
		return Document{}, fmt.Errorf("render invoice %d: %w", inv.Number, err)
	}
	return Document{Invoice: inv, FileName: pdf.FileName(inv), PDF: body, Persisted: persisted}, nil
}
