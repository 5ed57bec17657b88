package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rskenterprises/billing_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a memory store with sequential ids and a clock that
// advances one second per call.
func newTestStore() *MemoryStore {
	n := 0
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	return NewMemoryStore(
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
	)
}

func TestMemoryStore_InsertGetStampsMeta(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	c := s.Collection("customers")

	id, err := c.Insert(ctx, Record{"id": "ignored", "phone": "9876543210", "qty": 2})
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	rec, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, rec.ID())
	assert.Equal(t, "9876543210", rec.String("phone"))
	assert.Equal(t, float64(2), rec["qty"])
	assert.NotEmpty(t, rec.String(FieldCreatedAt))
	assert.Equal(t, rec.String(FieldCreatedAt), rec.String(FieldUpdatedAt))

	_, ok, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := newTestStore().Collection("invoices")
	id, err := c.Insert(ctx, Record{"lineItems": []any{map[string]any{"description": "Cotton"}}})
	require.NoError(t, err)

	rec, _, _ := c.Get(ctx, id)
	rec["lineItems"].([]any)[0].(map[string]any)["description"] = "changed"

	again, _, _ := c.Get(ctx, id)
	assert.Equal(t, "Cotton", again["lineItems"].([]any)[0].(map[string]any)["description"])
}

func TestMemoryStore_QueryFiltersOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	c := newTestStore().Collection("invoices")
	for _, n := range []string{"003/24", "001/24", "002/24", "001/25"} {
		_, err := c.Insert(ctx, Record{"invoiceNumber": n})
		require.NoError(t, err)
	}

	recs, err := c.Query(ctx, Query{
		Filters: []Filter{Gte("invoiceNumber", "001/24"), Lte("invoiceNumber", "999/24")},
		OrderBy: "invoiceNumber",
		Desc:    true,
	})
	require.NoError(t, err)
	// String ranges are lexical, so 001/25 falls inside 001/24..999/24.
	got := make([]string, 0, len(recs))
	for _, r := range recs {
		got = append(got, r.String("invoiceNumber"))
	}
	assert.Equal(t, []string{"003/24", "002/24", "001/25", "001/24"}, got)

	recs, err = c.Query(ctx, Query{OrderBy: FieldCreatedAt, Desc: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "001/25", recs[0].String("invoiceNumber"))
	assert.Equal(t, "002/24", recs[1].String("invoiceNumber"))

	recs, err = c.Query(ctx, Query{Filters: []Filter{Eq("invoiceNumber", "nope")}})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestMemoryStore_QueryTiesFollowInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithClock(func() time.Time { return time.Unix(0, 0) }))
	c := s.Collection("customers")
	for _, name := range []string{"a", "b", "c"} {
		_, err := c.Insert(ctx, Record{"name": name})
		require.NoError(t, err)
	}

	recs, err := c.Query(ctx, Query{OrderBy: FieldCreatedAt, Desc: true})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{recs[0].String("name"), recs[1].String("name"), recs[2].String("name")})
}

func TestMemoryStore_NumericFilters(t *testing.T) {
	ctx := context.Background()
	c := newTestStore().Collection("products")
	for _, rate := range []float64{10, 150.5, 99} {
		_, err := c.Insert(ctx, Record{"rate": rate})
		require.NoError(t, err)
	}
	recs, err := c.Query(ctx, Query{Filters: []Filter{Gte("rate", 99)}, OrderBy: "rate"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, float64(99), recs[0]["rate"])
	assert.Equal(t, 150.5, recs[1]["rate"])
}

func TestMemoryStore_UpdateSetDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestStore().Collection("customers")
	id, err := c.Insert(ctx, Record{"name": "Old", "phone": "9876543210"})
	require.NoError(t, err)
	before, _, _ := c.Get(ctx, id)

	require.NoError(t, c.Update(ctx, id, Record{"name": "New", FieldCreatedAt: "bogus"}))
	after, _, _ := c.Get(ctx, id)
	assert.Equal(t, "New", after.String("name"))
	assert.Equal(t, "9876543210", after.String("phone"))
	assert.Equal(t, before.String(FieldCreatedAt), after.String(FieldCreatedAt))
	assert.NotEqual(t, before.String(FieldUpdatedAt), after.String(FieldUpdatedAt))

	err = c.Update(ctx, "missing", Record{"name": "x"})
	assert.True(t, errors.Is(err, utils.ErrPersistence))

	settings := newTestStore().Collection("settings")
	require.NoError(t, settings.Set(ctx, "appSettings", Record{"companyName": "A", "email": "a@b.c"}))
	first, _, _ := settings.Get(ctx, "appSettings")
	require.NoError(t, settings.Set(ctx, "appSettings", Record{"companyName": "B"}))
	second, ok, _ := settings.Get(ctx, "appSettings")
	require.True(t, ok)
	assert.Equal(t, "B", second.String("companyName"))
	assert.NotContains(t, second, "email")
	assert.Equal(t, first.String(FieldCreatedAt), second.String(FieldCreatedAt))

	require.NoError(t, c.Delete(ctx, id))
	require.NoError(t, c.Delete(ctx, id))
	_, ok, _ = c.Get(ctx, id)
	assert.False(t, ok)
}

func TestMemoryStore_TransactionCommitsOrRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	err := s.RunInTransaction(ctx, func(tx Store) error {
		_, err := tx.Collection("recycleBin").Insert(ctx, Record{"originalId": "x"})
		return err
	})
	require.NoError(t, err)
	recs, _ := s.Collection("recycleBin").Query(ctx, Query{})
	assert.Len(t, recs, 1)

	boom := errors.New("boom")
	err = s.RunInTransaction(ctx, func(tx Store) error {
		if _, err := tx.Collection("recycleBin").Insert(ctx, Record{"originalId": "y"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	recs, _ = s.Collection("recycleBin").Query(ctx, Query{})
	assert.Len(t, recs, 1)
}

func TestRunInTransaction_FallsBackWithoutTransactions(t *testing.T) {
	ctx := context.Background()
	plain := struct{ Store }{newTestStore()}
	called := false
	err := RunInTransaction(ctx, plain, func(tx Store) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestStore().Collection("customers").Insert(ctx, Record{"name": "x"})
	assert.ErrorIs(t, err, utils.ErrPersistence)
}

func TestTimestampSortsLexically(t *testing.T) {
	a := Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	b := Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 500, time.UTC))
	c := Timestamp(time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC))
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}
