package kvstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/internal/store"
)

func setup(t *testing.T) (*Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "test"), mr, rdb
}

func newInvoice(client string, created time.Time) models.Invoice {
	inv := models.Invoice{
		Date:       civil.DateOf(created),
		ClientName: client,
		Items:      []models.LineItem{{Designation: "Fer", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("2.125")}},
		TVARate:    decimal.NewFromInt(19),
	}
	inv.ApplyTotals()
	store.Stamp(&inv, created)
	return inv
}

func TestCreateInvoiceNumbering(t *testing.T) {
	s, mr, _ := setup(t)
	ctx := context.Background()
	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	a, err := s.CreateInvoice(ctx, "u1", newInvoice("A", now))
	require.NoError(t, err)
	b, err := s.CreateInvoice(ctx, "u1", newInvoice("B", now.Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Number)
	assert.Equal(t, 2, b.Number)
	assert.NotEqual(t, a.ID, b.ID)

	counter, err := mr.Get("test:u1:invoice-number")
	require.NoError(t, err)
	assert.Equal(t, "3", counter)
	assert.True(t, mr.Exists("test:u1:invoices-list"))

	next, err := s.LoadNextNumber(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}

func TestLoadNextNumberReconciles(t *testing.T) {
	s, mr, _ := setup(t)
	ctx := context.Background()

	next, err := s.LoadNextNumber(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	for i := 0; i < 3; i++ {
		_, err := s.CreateInvoice(ctx, "u1", newInvoice("A", time.Now()))
		require.NoError(t, err)
	}
	require.NoError(t, mr.Set("test:u1:invoice-number", "2"))

	next, err = s.LoadNextNumber(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, next)

	inv, err := s.CreateInvoice(ctx, "u1", newInvoice("B", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 4, inv.Number)
}

func TestNumbersNotReusedAfterDelete(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	_, err := s.CreateInvoice(ctx, "u1", newInvoice("A", time.Now()))
	require.NoError(t, err)
	b, err := s.CreateInvoice(ctx, "u1", newInvoice("B", time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.DeleteInvoice(ctx, "u1", b.ID))

	c, err := s.CreateInvoice(ctx, "u1", newInvoice("C", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Number)

	assert.ErrorIs(t, s.DeleteInvoice(ctx, "u1", b.ID), store.ErrNotFound)
}

func TestConcurrentCreatesGetUniqueNumbers(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	const writers = 8

	var wg sync.WaitGroup
	got := make([]int, writers)
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv, err := s.CreateInvoice(ctx, "u1", newInvoice("C", time.Now()))
			got[i], errs[i] = inv.Number, err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Ints(got)
	for i, n := range got {
		assert.Equal(t, i+1, n)
	}
	list, err := s.LoadInvoices(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, writers)
}

func TestLoadInvoicesMostRecentFirst(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.CreateInvoice(ctx, "u1", newInvoice("mid", base.Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = s.CreateInvoice(ctx, "u1", newInvoice("old", base))
	require.NoError(t, err)
	_, err = s.CreateInvoice(ctx, "u1", newInvoice("new", base.Add(48*time.Hour)))
	require.NoError(t, err)

	list, err := s.LoadInvoices(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{list[0].ClientName, list[1].ClientName, list[2].ClientName})
}

func TestSaveInvoiceKeepsNumberAndCreatedAt(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	created := time.Date(2024, 4, 4, 4, 0, 0, 0, time.UTC)

	inv, err := s.CreateInvoice(ctx, "u1", newInvoice("A", created))
	require.NoError(t, err)

	edited := inv
	edited.Number = 50
	edited.CreatedAt = time.Time{}
	edited.ClientName = "A bis"
	require.NoError(t, s.SaveInvoice(ctx, "u1", edited))

	got, err := s.LoadInvoice(ctx, "u1", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Number, got.Number)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, "A bis", got.ClientName)
	assert.True(t, got.Totals.Equal(inv.Totals))

	assert.ErrorIs(t, s.SaveInvoice(ctx, "u1", models.Invoice{ID: "missing"}), store.ErrNotFound)
	_, err = s.LoadInvoice(ctx, "u1", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompanyInfo(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	info, err := s.LoadCompanyInfo(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCompanyInfo(), info)

	want := models.CompanyInfo{Name: "Ste Walk", Phone: "21 413 434", CodeTVA: "1943182Z/A/M/000"}
	require.NoError(t, s.SaveCompanyInfo(ctx, "u1", want))
	info, err = s.LoadCompanyInfo(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want, info)
}

func TestReset(t *testing.T) {
	s, mr, _ := setup(t)
	ctx := context.Background()

	_, err := s.CreateInvoice(ctx, "u1", newInvoice("A", time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.SaveCompanyInfo(ctx, "u1", models.CompanyInfo{Name: "X"}))
	_, err = s.CreateInvoice(ctx, "u2", newInvoice("B", time.Now()))
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx, "u1"))

	assert.False(t, mr.Exists("test:u1:invoice-number"))
	assert.False(t, mr.Exists("test:u1:invoices-list"))
	assert.False(t, mr.Exists("test:u1:company-info"))
	assert.True(t, mr.Exists("test:u2:invoices-list"))

	next, err := s.LoadNextNumber(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}

func TestNotDurable(t *testing.T) {
	s, _, _ := setup(t)
	assert.False(t, s.Durable())
}

// failExec lets reads through and fails every MULTI/EXEC pipeline.
type failExec struct{}

func (failExec) DialHook(next redis.DialHook) redis.DialHook { return next }

func (failExec) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (failExec) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return errors.New("connection reset by peer")
	}
}

func TestCreateInvoiceLostWriteKeepsNumber(t *testing.T) {
	s, mr, rdb := setup(t)
	ctx := context.Background()

	_, err := s.CreateInvoice(ctx, "u1", newInvoice("A", time.Now()))
	require.NoError(t, err)

	rdb.AddHook(failExec{})
	inv, err := s.CreateInvoice(ctx, "u1", newInvoice("B", time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotPersisted)
	assert.Equal(t, 2, inv.Number)
	assert.NotEmpty(t, inv.ID)

	counter, _ := mr.Get("test:u1:invoice-number")
	assert.Equal(t, "2", counter)
}

func TestCreateInvoiceUnreachable(t *testing.T) {
	s, mr, _ := setup(t)
	mr.Close()

	inv, err := s.CreateInvoice(context.Background(), "u1", newInvoice("A", time.Now()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotPersisted)
	assert.Zero(t, inv.Number)
}
