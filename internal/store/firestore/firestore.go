// Package firestore is the durable Cloud Firestore implementation of store.Store.
package firestore

import (
	"context"
	"fmt"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/internal/store"
)

const (
	usersCollection    = "users"
	invoicesCollection = "invoices"

	fieldCounter = "currentInvoiceNumber"
	fieldCompany = "companyInfo"
)

// Store keeps each account under users/{account}.
type Store struct {
	client *gfs.Client
}

var _ store.Store = (*Store)(nil)

// New wraps an existing client.
func New(client *gfs.Client) *Store {
	return &Store{client: client}
}

// Open connects to the project. FIRESTORE_EMULATOR_HOST is honoured by the client library.
func Open(ctx context.Context, projectID string) (*Store, error) {
	client, err := gfs.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return New(client), nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Durable() bool { return true }

func (s *Store) user(account string) *gfs.DocumentRef {
	return s.client.Collection(usersCollection).Doc(account)
}

func (s *Store) invoices(account string) *gfs.CollectionRef {
	return s.user(account).Collection(invoicesCollection)
}

func (s *Store) LoadInvoices(ctx context.Context, account string) ([]models.Invoice, error) {
	snaps, err := s.invoices(account).OrderBy("createdAt", gfs.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	out := make([]models.Invoice, 0, len(snaps))
	for _, snap := range snaps {
		var doc invoiceDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode invoice %s: %w", snap.Ref.ID, err)
		}
		out = append(out, doc.toModel(snap.Ref.ID))
	}
	return out, nil
}

func (s *Store) LoadInvoice(ctx context.Context, account, id string) (models.Invoice, error) {
	snap, err := s.invoices(account).Doc(id).Get(ctx)
	if isNotFound(err) {
		return models.Invoice{}, store.ErrNotFound
	}
	if err != nil {
		return models.Invoice{}, fmt.Errorf("load invoice: %w", err)
	}
	var doc invoiceDoc
	if err := snap.DataTo(&doc); err != nil {
		return models.Invoice{}, fmt.Errorf("decode invoice %s: %w", id, err)
	}
	return doc.toModel(id), nil
}

func (s *Store) loadUser(ctx context.Context, account string) (userDoc, error) {
	var u userDoc
	snap, err := s.user(account).Get(ctx)
	if isNotFound(err) {
		return u, nil
	}
	if err != nil {
		return u, fmt.Errorf("load account: %w", err)
	}
	if err := snap.DataTo(&u); err != nil {
		return u, fmt.Errorf("decode account: %w", err)
	}
	return u, nil
}

func (s *Store) LoadNextNumber(ctx context.Context, account string) (int, error) {
	u, err := s.loadUser(ctx, account)
	if err != nil {
		return 0, err
	}
	highest, err := highestNumber(s.invoices(account).OrderBy("number", gfs.Desc).Limit(1).Documents(ctx))
	if err != nil {
		return 0, err
	}
	return models.ReconcileCounter(u.CurrentInvoiceNumber, []int{highest}), nil
}

func (s *Store) LoadCompanyInfo(ctx context.Context, account string) (models.CompanyInfo, error) {
	u, err := s.loadUser(ctx, account)
	if err != nil {
		return models.CompanyInfo{}, err
	}
	if u.CompanyInfo == nil {
		return models.DefaultCompanyInfo(), nil
	}
	return u.CompanyInfo.toModel(), nil
}

// CreateInvoice reads the counter and the highest issued number, then writes
// the invoice and the bumped counter in one transaction.
func (s *Store) CreateInvoice(ctx context.Context, account string, inv models.Invoice) (models.Invoice, error) {
	userRef := s.user(account)
	col := s.invoices(account)
	ref := col.NewDoc()

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		var u userDoc
		snap, err := tx.Get(userRef)
		switch {
		case isNotFound(err):
		case err != nil:
			return err
		default:
			if err := snap.DataTo(&u); err != nil {
				return err
			}
		}
		highest, err := highestNumber(tx.Documents(col.OrderBy("number", gfs.Desc).Limit(1)))
		if err != nil {
			return err
		}

		inv.Number = models.ReconcileCounter(u.CurrentInvoiceNumber, []int{highest})
		if err := tx.Create(ref, toInvoiceDoc(inv)); err != nil {
			return err
		}
		return tx.Set(userRef, map[string]any{fieldCounter: inv.Number + 1}, gfs.MergeAll)
	})
	if err != nil {
		return models.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	inv.ID = ref.ID
	return inv, nil
}

// SaveInvoice overwrites the invoice document, keeping number and createdAt.
func (s *Store) SaveInvoice(ctx context.Context, account string, inv models.Invoice) error {
	ref := s.invoices(account).Doc(inv.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var existing invoiceDoc
		if err := snap.DataTo(&existing); err != nil {
			return err
		}
		doc := toInvoiceDoc(inv)
		doc.Number = existing.Number
		doc.CreatedAt = existing.CreatedAt
		return tx.Set(ref, doc)
	})
	if isNotFound(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("save invoice: %w", err)
	}
	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, account, id string) error {
	_, err := s.invoices(account).Doc(id).Delete(ctx, gfs.Exists)
	if isNotFound(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}

func (s *Store) SaveNextNumber(ctx context.Context, account string, next int) error {
	_, err := s.user(account).Set(ctx, map[string]any{fieldCounter: next}, gfs.MergeAll)
	if err != nil {
		return fmt.Errorf("save counter: %w", err)
	}
	return nil
}

// SaveCompanyInfo replaces the whole companyInfo field.
func (s *Store) SaveCompanyInfo(ctx context.Context, account string, info models.CompanyInfo) error {
	_, err := s.user(account).Set(ctx,
		map[string]any{fieldCompany: toCompanyDoc(info)},
		gfs.Merge(gfs.FieldPath{fieldCompany}),
	)
	if err != nil {
		return fmt.Errorf("save company info: %w", err)
	}
	return nil
}

func highestNumber(it *gfs.DocumentIterator) (int, error) {
	snaps, err := it.GetAll()
	if err != nil {
		return 0, fmt.Errorf("highest number: %w", err)
	}
	if len(snaps) == 0 {
		return 0, nil
	}
	var doc invoiceDoc
	if err := snaps[0].DataTo(&doc); err != nil {
		return 0, err
	}
	return doc.Number, nil
}

func isNotFound(err error) bool {
	return err != nil && status.Code(err) == codes.NotFound
}
