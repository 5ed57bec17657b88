package models

import (
	"context"
	"errors"
	"testing"

	"github.com/rskenterprises/billing_backend/store"
	"github.com/rskenterprises/billing_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityType(t *testing.T) {
	for in, want := range map[string]EntityType{
		"customer": EntityCustomer,
		"invoice":  EntityInvoice,
		"shortcut": EntityShortcut,
		"product":  EntityShortcut,
	} {
		got, err := ParseEntityType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseEntityType("vendor")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrValidation))
	assert.Equal(t, "Unknown item type: vendor", err.Error())
}

func TestRecycleBin_SoftDeleteAndRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	events := &recordedEvents{}
	svc := newTestServices(t, func(d *Deps) { d.Events = events })

	c, err := svc.Customers.Save(ctx, NewCustomer{Phone: "9876543210", Name: "Ravi", Address: "Tirupur", GSTIN: "33AAAAA0000A1Z5"}, false)
	require.NoError(t, err)

	entry, err := svc.Customers.Delete(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, c.ID, entry.OriginalID)
	assert.Equal(t, EntityCustomer, entry.Type)
	assert.Equal(t, store.Timestamp(testNow), entry.DeletedAt)
	assert.Equal(t, "Ravi", entry.Data["name"])
	assert.NotContains(t, entry.Data, store.FieldID)

	_, err = svc.Customers.GetByPhone(ctx, "9876543210")
	assert.True(t, utils.IsNotFound(err))

	entries, err := svc.RecycleBin.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	newID, err := svc.RecycleBin.Restore(ctx, c.ID, "")
	require.NoError(t, err)
	assert.NotEqual(t, c.ID, newID)

	restored, err := svc.Customers.GetByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, newID, restored.ID)
	assert.Equal(t, c.Name, restored.Name)
	assert.Equal(t, c.Address, restored.Address)
	assert.Equal(t, c.GSTIN, restored.GSTIN)

	entries, err = svc.RecycleBin.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Equal(t, []string{"customer:soft_delete", "customer:restore"}, events.actions())
	assert.Equal(t, newID, events.msgs[1].NewId)
}

func TestRecycleBin_SoftDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	svc := NewServices(newTestDeps(st))

	sc, err := svc.Shortcuts.Save(ctx, NewShortcut{Shortcut: "cy", Description: "Cotton Yarn"}, "")
	require.NoError(t, err)

	// A copy already quarantined while the live record survived a failed delete.
	_, err = st.Collection(CollectionRecycleBin).Insert(ctx, store.Record{
		fieldOriginalID: sc.ID,
		fieldType:       string(EntityShortcut),
		fieldDeletedAt:  store.Timestamp(testNow),
		"shortcut":      "cy",
		"description":   "Cotton Yarn",
	})
	require.NoError(t, err)

	first, err := svc.RecycleBin.SoftDelete(ctx, EntityShortcut, sc.ID)
	require.NoError(t, err)
	second, err := svc.RecycleBin.SoftDelete(ctx, EntityShortcut, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	entries, err := svc.RecycleBin.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.Shortcuts.Get(ctx, sc.ID)
	assert.True(t, utils.IsNotFound(err))
}

func TestRecycleBin_SoftDeleteMissingEntity(t *testing.T) {
	svc := newTestServices(t)
	_, err := svc.RecycleBin.SoftDelete(context.Background(), EntityInvoice, "nope")
	assert.True(t, utils.IsNotFound(err))

	_, err = svc.RecycleBin.SoftDelete(context.Background(), EntityType("vendor"), "nope")
	assert.True(t, errors.Is(err, utils.ErrValidation))
}

func TestRecycleBin_RestoreLegacyProductEntry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	svc := NewServices(newTestDeps(st))

	_, err := st.Collection(CollectionRecycleBin).Insert(ctx, store.Record{
		fieldOriginalID: "old-product",
		fieldType:       "product",
		fieldDeletedAt:  store.Timestamp(testNow),
		"shortcut":      "pc",
		"description":   "Polyester Cotton",
	})
	require.NoError(t, err)

	newID, err := svc.RecycleBin.Restore(ctx, "old-product", "")
	require.NoError(t, err)

	sc, err := svc.Shortcuts.Get(ctx, newID)
	require.NoError(t, err)
	assert.Equal(t, "pc", sc.Shortcut)
	assert.Equal(t, "Polyester Cotton", sc.Description)
}

func TestRecycleBin_MissingEntryMessages(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	_, err := svc.RecycleBin.Restore(ctx, "nope", "")
	var nf *utils.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Item not found in recycle bin", err.Error())

	err = svc.RecycleBin.Purge(ctx, "nope")
	assert.Equal(t, "Item not found in recycle bin", err.Error())
}

func TestRecycleBin_RestoreUnknownType(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	svc := NewServices(newTestDeps(st))

	_, err := st.Collection(CollectionRecycleBin).Insert(ctx, store.Record{fieldOriginalID: "x", fieldType: "vendor"})
	require.NoError(t, err)

	_, err = svc.RecycleBin.Restore(ctx, "x", "")
	require.Error(t, err)
	assert.Equal(t, "Unknown item type: vendor", err.Error())

	entries, err := svc.RecycleBin.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed restore must keep the entry")
}

func TestRecycleBin_PurgeAndEmpty(t *testing.T) {
	ctx := utils.SetCorrelationIdInContext(utils.SetUserNameInContext(context.Background(), "counter"), "req-1")
	events := &recordedEvents{}
	svc := newTestServices(t, func(d *Deps) { d.Events = events })

	a := mustCustomer(t, svc, "9000000001", "A")
	mustCustomer(t, svc, "9000000002", "B")
	mustCustomer(t, svc, "9000000003", "C")
	for _, phone := range []string{"9000000001", "9000000002", "9000000003"} {
		_, err := svc.Customers.Delete(ctx, phone)
		require.NoError(t, err)
	}

	require.NoError(t, svc.RecycleBin.Purge(ctx, a.ID))
	entries, err := svc.RecycleBin.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	n, err := svc.RecycleBin.Empty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.RecycleBin.Empty(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.RecycleBin.Restore(ctx, a.ID, "")
	assert.True(t, utils.IsNotFound(err))

	assert.Len(t, events.actions(), 6)
	assert.Equal(t, "customer:purge", events.actions()[3])
	assert.Equal(t, "counter", events.msgs[0].Actor)
	assert.Equal(t, "req-1", events.msgs[0].CorrelationId)
	assert.Equal(t, testNow, events.msgs[0].At)
}

// failingDeleteStore has no transactions and fails the next failDeletes deletes.
type failingDeleteStore struct {
	mem         *store.MemoryStore
	failDeletes int
}

func (s *failingDeleteStore) Collection(name string) store.Collection {
	return &failingDeleteCollection{Collection: s.mem.Collection(name), store: s}
}

type failingDeleteCollection struct {
	store.Collection
	store *failingDeleteStore
}

func (c *failingDeleteCollection) Delete(ctx context.Context, id string) error {
	if c.store.failDeletes > 0 {
		c.store.failDeletes--
		return errors.New("disk full")
	}
	return c.Collection.Delete(ctx, id)
}

func countRecords(t *testing.T, st store.Store, collection string) int {
	t.Helper()
	recs, err := st.Collection(collection).Query(context.Background(), store.Query{})
	require.NoError(t, err)
	return len(recs)
}

func TestRecycleBin_RetryAfterFailedDeleteWithoutTransactions(t *testing.T) {
	ctx := context.Background()
	mem := newTestStore()
	st := &failingDeleteStore{mem: mem}
	_, transactional := any(st).(store.Transactional)
	require.False(t, transactional)

	svc := NewServices(newTestDeps(st))
	c := mustCustomer(t, svc, "9876543210", "Ravi")

	st.failDeletes = 1
	_, err := svc.RecycleBin.SoftDelete(ctx, EntityCustomer, c.ID)
	require.Error(t, err)
	assert.Equal(t, 1, countRecords(t, mem, CollectionCustomers), "live copy kept")
	assert.Equal(t, 1, countRecords(t, mem, CollectionRecycleBin), "quarantine written first")

	_, err = svc.RecycleBin.SoftDelete(ctx, EntityCustomer, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, countRecords(t, mem, CollectionCustomers))
	assert.Equal(t, 1, countRecords(t, mem, CollectionRecycleBin))

	st.failDeletes = 1
	_, err = svc.RecycleBin.Restore(ctx, c.ID, "")
	require.Error(t, err)
	assert.Equal(t, 1, countRecords(t, mem, CollectionCustomers), "live copy written first")
	assert.Equal(t, 1, countRecords(t, mem, CollectionRecycleBin))

	newID, err := svc.RecycleBin.Restore(ctx, c.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, countRecords(t, mem, CollectionCustomers), "retry must not write a second live copy")
	assert.Equal(t, 0, countRecords(t, mem, CollectionRecycleBin))

	restored, err := svc.Customers.GetByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, newID, restored.ID)
	assert.Equal(t, "Ravi", restored.Name)
}

func TestRecycleBin_RestoreCustomerPhoneTaken(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	old := mustCustomer(t, svc, "9876543210", "Ravi")
	_, err := svc.Customers.Delete(ctx, "9876543210")
	require.NoError(t, err)
	mustCustomer(t, svc, "9876543210", "Ravi Textiles")

	_, err = svc.RecycleBin.Restore(ctx, old.ID, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrDuplicate))
	assert.Equal(t, "Customer with this phone number already exists.", err.Error())

	entries, err := svc.RecycleBin.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].RestoredID)

	live, err := svc.Customers.GetByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "Ravi Textiles", live.Name)
}

func TestRecycleBin_RestoreTypeOverridesEntry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	svc := NewServices(newTestDeps(st))

	_, err := st.Collection(CollectionRecycleBin).Insert(ctx, store.Record{
		fieldOriginalID: "old-item",
		fieldType:       "vendor",
		fieldDeletedAt:  store.Timestamp(testNow),
		"shortcut":      "ps",
		"description":   "Polyester Silk",
	})
	require.NoError(t, err)

	newID, err := svc.RecycleBin.Restore(ctx, "old-item", EntityShortcut)
	require.NoError(t, err)

	sc, err := svc.Shortcuts.Get(ctx, newID)
	require.NoError(t, err)
	assert.Equal(t, "Polyester Silk", sc.Description)
}
