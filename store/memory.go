package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rskenterprises/billing_backend/utils"
)

type memEntry struct {
	rec Record
	seq int64
}

type memData struct {
	collections map[string]map[string]memEntry
	seq         int64
}

func (d *memData) clone() *memData {
	out := &memData{collections: make(map[string]map[string]memEntry, len(d.collections)), seq: d.seq}
	for name, coll := range d.collections {
		c := make(map[string]memEntry, len(coll))
		for id, e := range coll {
			c[id] = memEntry{rec: deepCopy(e.rec).(Record), seq: e.seq}
		}
		out.collections[name] = c
	}
	return out
}

// MemoryStore keeps every collection in process. It backs tests and the
// STORE_DRIVER=memory mode.
type MemoryStore struct {
	mu    sync.Mutex
	data  *memData
	clock func() time.Time
	newID func() string
}

type MemoryOption func(*MemoryStore)

func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.clock = clock }
}

func WithIDGenerator(gen func() string) MemoryOption {
	return func(s *MemoryStore) { s.newID = gen }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		data:  &memData{collections: map[string]map[string]memEntry{}},
		clock: time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Collection(name string) Collection {
	return &memCollection{store: s, name: name}
}

// RunInTransaction runs fn against a private copy and swaps it in on success.
// Other calls on s block until fn returns; fn must only use tx.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	child := &MemoryStore{data: s.data.clone(), clock: s.clock, newID: s.newID}
	if err := fn(child); err != nil {
		return err
	}
	child.mu.Lock()
	s.data = child.data
	child.mu.Unlock()
	return nil
}

type memCollection struct {
	store *MemoryStore
	name  string
}

func (c *memCollection) records() map[string]memEntry {
	coll, ok := c.store.data.collections[c.name]
	if !ok {
		coll = map[string]memEntry{}
		c.store.data.collections[c.name] = coll
	}
	return coll
}

func (c *memCollection) Insert(ctx context.Context, rec Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", utils.NewPersistenceError("insert", c.name, err)
	}
	clean, err := normalize(stripMeta(rec))
	if err != nil {
		return "", utils.NewPersistenceError("insert", c.name, err)
	}

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	now := Timestamp(s.clock())
	clean[FieldID] = id
	clean[FieldCreatedAt] = now
	clean[FieldUpdatedAt] = now
	s.data.seq++
	c.records()[id] = memEntry{rec: clean, seq: s.data.seq}
	return id, nil
}

func (c *memCollection) Get(ctx context.Context, id string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, utils.NewPersistenceError("get", c.name, err)
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := c.records()[id]
	if !ok {
		return nil, false, nil
	}
	return deepCopy(e.rec).(Record), true, nil
}

func (c *memCollection) Query(ctx context.Context, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewPersistenceError("query", c.name, err)
	}
	s := c.store
	s.mu.Lock()
	entries := make([]memEntry, 0, len(c.records()))
	for _, e := range c.records() {
		if matchesAll(e.rec, q.Filters) {
			entries = append(entries, memEntry{rec: deepCopy(e.rec).(Record), seq: e.seq})
		}
	}
	s.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if q.OrderBy != "" {
			if cmp, ok := compareValues(a.rec[q.OrderBy], b.rec[q.OrderBy]); ok && cmp != 0 {
				if q.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		// Ties follow insertion order in the requested direction.
		if q.Desc {
			return a.seq > b.seq
		}
		return a.seq < b.seq
	})

	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}
	out := make([]Record, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out, nil
}

func (c *memCollection) Update(ctx context.Context, id string, partial Record) error {
	if err := ctx.Err(); err != nil {
		return utils.NewPersistenceError("update", c.name, err)
	}
	clean, err := normalize(stripMeta(partial))
	if err != nil {
		return utils.NewPersistenceError("update", c.name, err)
	}

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := c.records()[id]
	if !ok {
		return utils.NewPersistenceError("update", c.name, fmt.Errorf("no document with id %q", id))
	}
	for k, v := range clean {
		e.rec[k] = v
	}
	e.rec[FieldUpdatedAt] = Timestamp(s.clock())
	c.records()[id] = e
	return nil
}

func (c *memCollection) Set(ctx context.Context, id string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return utils.NewPersistenceError("set", c.name, err)
	}
	clean, err := normalize(stripMeta(rec))
	if err != nil {
		return utils.NewPersistenceError("set", c.name, err)
	}

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := Timestamp(s.clock())
	clean[FieldID] = id
	clean[FieldUpdatedAt] = now
	if prev, ok := c.records()[id]; ok {
		clean[FieldCreatedAt] = prev.rec[FieldCreatedAt]
		c.records()[id] = memEntry{rec: clean, seq: prev.seq}
		return nil
	}
	clean[FieldCreatedAt] = now
	s.data.seq++
	c.records()[id] = memEntry{rec: clean, seq: s.data.seq}
	return nil
}

func (c *memCollection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return utils.NewPersistenceError("delete", c.name, err)
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(c.records(), id)
	return nil
}
