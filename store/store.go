// Package store is the document collection abstraction the billing services
// persist through: named collections of JSON-like records addressed by id.
package store

import (
	"context"
	"time"
)

const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Record is one document. Values are JSON-compatible.
type Record map[string]any

// ID returns the record id, or "" when absent.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Clone is a shallow copy; nested values are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type Op string

const (
	OpEq  Op = "=="
	OpGte Op = ">="
	OpLte Op = "<="
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, value any) Filter  { return Filter{Field: field, Op: OpEq, Value: value} }
func Gte(field string, value any) Filter { return Filter{Field: field, Op: OpGte, Value: value} }
func Lte(field string, value any) Filter { return Filter{Field: field, Op: OpLte, Value: value} }

// Query selects records matching every filter. Range filters compare strings
// lexically and numbers numerically. Limit <= 0 means no limit.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

type Collection interface {
	// Insert stores rec under a fresh id, stamps createdAt/updatedAt and returns the id.
	Insert(ctx context.Context, rec Record) (string, error)
	Get(ctx context.Context, id string) (Record, bool, error)
	Query(ctx context.Context, q Query) ([]Record, error)
	// Update merges partial into an existing record. A missing id is an error.
	Update(ctx context.Context, id string, partial Record) error
	// Set creates or replaces the record stored under id.
	Set(ctx context.Context, id string, rec Record) error
	Delete(ctx context.Context, id string) error
}

type Store interface {
	Collection(name string) Collection
}

// Transactional stores run fn against a view whose writes commit together.
// If fn returns an error nothing fn wrote is kept.
type Transactional interface {
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error
}

// RunInTransaction uses s's transaction when it has one, otherwise runs fn
// directly against s.
func RunInTransaction(ctx context.Context, s Store, fn func(tx Store) error) error {
	if t, ok := s.(Transactional); ok {
		return t.RunInTransaction(ctx, fn)
	}
	return fn(s)
}

// TimeLayout is fixed width so stored timestamps sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp is the canonical stored time format.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func stripMeta(rec Record) Record {
	out := rec.Clone()
	delete(out, FieldID)
	delete(out, FieldCreatedAt)
	delete(out, FieldUpdatedAt)
	return out
}
