// Package kvstore is the best-effort "local" store on Redis.
//
// An account owns three keys holding JSON values:
//
//	<prefix>:<account>:invoice-number  next number to assign
//	<prefix>:<account>:invoices-list   every invoice, most recent first
//	<prefix>:<account>:company-info    company settings
//
// Writes that fail after a number was picked return store.ErrNotPersisted
// together with the populated invoice.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/internal/store"
)

// maxRetries bounds optimistic transaction retries under contention.
const maxRetries = 20

// Store keeps invoices in Redis.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

var (
	_ store.Store    = (*Store)(nil)
	_ store.Resetter = (*Store)(nil)
)

// New returns a store writing keys under prefix.
func New(rdb redis.UniversalClient, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) Durable() bool { return false }

type keys struct {
	number, list, company string
}

func (s *Store) keys(account string) keys {
	base := s.prefix + ":" + account + ":"
	return keys{
		number:  base + "invoice-number",
		list:    base + "invoices-list",
		company: base + "company-info",
	}
}

func (s *Store) LoadInvoices(ctx context.Context, account string) ([]models.Invoice, error) {
	list, err := readList(ctx, s.rdb, s.keys(account).list)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (s *Store) LoadInvoice(ctx context.Context, account, id string) (models.Invoice, error) {
	list, err := readList(ctx, s.rdb, s.keys(account).list)
	if err != nil {
		return models.Invoice{}, err
	}
	if i := indexOf(list, id); i >= 0 {
		return list[i], nil
	}
	return models.Invoice{}, store.ErrNotFound
}

func (s *Store) LoadNextNumber(ctx context.Context, account string) (int, error) {
	k := s.keys(account)
	cached, err := readCounter(ctx, s.rdb, k.number)
	if err != nil {
		return 0, err
	}
	list, err := readList(ctx, s.rdb, k.list)
	if err != nil {
		return 0, err
	}
	return models.ReconcileCounter(cached, numbers(list)), nil
}

func (s *Store) LoadCompanyInfo(ctx context.Context, account string) (models.CompanyInfo, error) {
	raw, err := s.rdb.Get(ctx, s.keys(account).company).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.DefaultCompanyInfo(), nil
	}
	if err != nil {
		return models.CompanyInfo{}, fmt.Errorf("load company info: %w", err)
	}
	var info models.CompanyInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return models.CompanyInfo{}, fmt.Errorf("decode company info: %w", err)
	}
	return info, nil
}

// CreateInvoice watches the counter and the list, picks the next number and
// writes both in one MULTI/EXEC, retrying when another writer got there first.
func (s *Store) CreateInvoice(ctx context.Context, account string, inv models.Invoice) (models.Invoice, error) {
	k := s.keys(account)
	assigned := false

	txf := func(tx *redis.Tx) error {
		assigned = false
		cached, err := readCounter(ctx, tx, k.number)
		if err != nil {
			return err
		}
		list, err := readList(ctx, tx, k.list)
		if err != nil {
			return err
		}

		inv.Number = models.ReconcileCounter(cached, numbers(list))
		inv.ID = uuid.NewString()
		assigned = true

		payload, err := json.Marshal(append([]models.Invoice{inv}, list...))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k.list, payload, 0)
			pipe.Set(ctx, k.number, inv.Number+1, 0)
			return nil
		})
		return err
	}

	err := s.watch(ctx, txf, k.list, k.number)
	switch {
	case err == nil:
		return inv, nil
	case errors.Is(err, redis.TxFailedErr):
		return inv, fmt.Errorf("create invoice: %w", err)
	case assigned:
		return inv, fmt.Errorf("create invoice: %w: %v", store.ErrNotPersisted, err)
	default:
		return models.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
}

// SaveInvoice replaces the invoice with the same id, keeping its number and
// creation time.
func (s *Store) SaveInvoice(ctx context.Context, account string, inv models.Invoice) error {
	k := s.keys(account)
	err := s.watch(ctx, func(tx *redis.Tx) error {
		list, err := readList(ctx, tx, k.list)
		if err != nil {
			return err
		}
		i := indexOf(list, inv.ID)
		if i < 0 {
			return store.ErrNotFound
		}
		inv.Number = list[i].Number
		inv.CreatedAt = list[i].CreatedAt
		list[i] = inv
		return writeList(ctx, tx, k.list, list)
	}, k.list)
	return persistErr("save invoice", err)
}

func (s *Store) DeleteInvoice(ctx context.Context, account, id string) error {
	k := s.keys(account)
	err := s.watch(ctx, func(tx *redis.Tx) error {
		list, err := readList(ctx, tx, k.list)
		if err != nil {
			return err
		}
		i := indexOf(list, id)
		if i < 0 {
			return store.ErrNotFound
		}
		return writeList(ctx, tx, k.list, append(list[:i], list[i+1:]...))
	}, k.list)
	return persistErr("delete invoice", err)
}

func (s *Store) SaveNextNumber(ctx context.Context, account string, next int) error {
	err := s.rdb.Set(ctx, s.keys(account).number, next, 0).Err()
	return persistErr("save counter", err)
}

func (s *Store) SaveCompanyInfo(ctx context.Context, account string, info models.CompanyInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode company info: %w", err)
	}
	err = s.rdb.Set(ctx, s.keys(account).company, payload, 0).Err()
	return persistErr("save company info", err)
}

// Reset drops the counter, the invoices and the company settings of an account.
func (s *Store) Reset(ctx context.Context, account string) error {
	k := s.keys(account)
	if err := s.rdb.Del(ctx, k.number, k.list, k.company).Err(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

func (s *Store) watch(ctx context.Context, fn func(*redis.Tx) error, watched ...string) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = s.rdb.Watch(ctx, fn, watched...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func persistErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return err
	default:
		return fmt.Errorf("%s: %w: %v", op, store.ErrNotPersisted, err)
	}
}

func readCounter(ctx context.Context, c redis.Cmdable, key string) (int, error) {
	raw, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("decode counter %q: %w", raw, err)
	}
	return n, nil
}

func readList(ctx context.Context, c redis.Cmdable, key string) ([]models.Invoice, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read invoices: %w", err)
	}
	var list []models.Invoice
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	return list, nil
}

func writeList(ctx context.Context, tx *redis.Tx, key string, list []models.Invoice) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return err
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, 0)
		return nil
	})
	return err
}

func indexOf(list []models.Invoice, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func numbers(list []models.Invoice) []int {
	out := make([]int, len(list))
	for i, inv := range list {
		out[i] = inv.Number
	}
	return out
}
