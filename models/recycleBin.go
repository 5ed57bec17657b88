package models

import (
	"context"
	"fmt"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/metrics"
	"github.com/rskenterprises/billing_backend/store"
	"github.com/rskenterprises/billing_backend/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type EntityType string

const (
	EntityCustomer EntityType = "customer"
	EntityInvoice  EntityType = "invoice"
	EntityShortcut EntityType = "shortcut"

	// entityProductLegacy is how shortcuts were tagged before they got their own collection.
	entityProductLegacy EntityType = "product"
)

const (
	ActionSoftDelete = "soft_delete"
	ActionRestore    = "restore"
	ActionPurge      = "purge"

	ConfirmDelete  = "DELETE"
	ConfirmRestore = "RESTORE"

	msgNotInRecycleBin = "Item not found in recycle bin"
)

const (
	fieldOriginalID = "originalId"
	fieldType       = "type"
	fieldDeletedAt  = "deletedAt"
	fieldRestoredID = "restoredId"
)

func ParseEntityType(s string) (EntityType, error) {
	switch t := EntityType(s); t {
	case EntityCustomer, EntityInvoice, EntityShortcut:
		return t, nil
	case entityProductLegacy:
		return EntityShortcut, nil
	}
	return "", utils.NewValidationError("type", "Unknown item type: "+s)
}

func (t EntityType) Collection() string {
	switch t {
	case EntityCustomer:
		return CollectionCustomers
	case EntityInvoice:
		return CollectionInvoices
	default:
		return CollectionShortcuts
	}
}

// RecycleBinEntry is a quarantined copy of a deleted entity.
type RecycleBinEntry struct {
	ID         string       `json:"id"`
	OriginalID string       `json:"originalId"`
	Type       EntityType   `json:"type"`
	DeletedAt  string       `json:"deletedAt"`
	RestoredID string       `json:"restoredId,omitempty"`
	Data       store.Record `json:"data"`
}

func entryFromRecord(rec store.Record) RecycleBinEntry {
	data := rec.Clone()
	for _, k := range []string{store.FieldID, store.FieldCreatedAt, store.FieldUpdatedAt, fieldOriginalID, fieldType, fieldDeletedAt, fieldRestoredID} {
		delete(data, k)
	}
	return RecycleBinEntry{
		ID:         rec.ID(),
		OriginalID: rec.String(fieldOriginalID),
		Type:       EntityType(rec.String(fieldType)),
		DeletedAt:  rec.String(fieldDeletedAt),
		RestoredID: rec.String(fieldRestoredID),
		Data:       data,
	}
}

// RecycleBin moves entities between their live collection and quarantine.
//
//	live --SoftDelete--> quarantined --Restore--> live (new id)
//	                     quarantined --Purge----> gone
//
// Each transition writes before it deletes, so a store without transactions
// can at worst leave a duplicate, never lose the entity.
type RecycleBin struct {
	deps *Deps
}

func (rb *RecycleBin) findEntry(ctx context.Context, st store.Store, originalID string) (*RecycleBinEntry, error) {
	recs, err := st.Collection(CollectionRecycleBin).Query(ctx, store.Query{
		Filters: []store.Filter{store.Eq(fieldOriginalID, originalID)},
		Limit:   1,
	})
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	e := entryFromRecord(recs[0])
	return &e, nil
}

func (rb *RecycleBin) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "RecycleBin."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SoftDelete quarantines the live entity id of type t. Repeating it after a
// partial failure finishes the move without writing a second copy.
func (rb *RecycleBin) SoftDelete(ctx context.Context, t EntityType, id string) (entry *RecycleBinEntry, err error) {
	ctx, span := rb.startSpan(ctx, "SoftDelete", attribute.String("entity", string(t)), attribute.String("id", id))
	defer func() { endSpan(span, err) }()

	if t, err = ParseEntityType(string(t)); err != nil {
		return nil, err
	}

	err = rb.deps.withLock(ctx, "recycle:"+id, func() error {
		return store.RunInTransaction(ctx, rb.deps.Store, func(tx store.Store) error {
			live := tx.Collection(t.Collection())
			rec, found, err := live.Get(ctx, id)
			if err != nil {
				return err
			}
			existing, err := rb.findEntry(ctx, tx, id)
			if err != nil {
				return err
			}
			if !found {
				if existing != nil {
					entry = existing
					return nil
				}
				return utils.NewNotFoundError(string(t), id)
			}

			if existing == nil {
				q := rec.Clone()
				delete(q, store.FieldID)
				q[fieldOriginalID] = id
				q[fieldType] = string(t)
				q[fieldDeletedAt] = store.Timestamp(rb.deps.now())
				qid, err := tx.Collection(CollectionRecycleBin).Insert(ctx, q)
				if err != nil {
					return err
				}
				q[store.FieldID] = qid
				e := entryFromRecord(q)
				entry = &e
			} else {
				entry = existing
			}
			return live.Delete(ctx, id)
		})
	})
	if err != nil {
		config.LogError(rb.deps.Logger, "RecycleBin", "SoftDelete", fmt.Sprintf("soft delete %s", t), id, err)
		return nil, err
	}

	metrics.RecycleBinTransitions.WithLabelValues(string(t), ActionSoftDelete).Inc()
	rb.deps.publish(ctx, config.PubSubMessage{Entity: string(t), Action: ActionSoftDelete, OriginalId: id})
	return entry, nil
}

// Restore puts the quarantined entity back under a new id and returns that id.
// A non-empty t overrides the type stored on the entry. The new id is recorded
// on the entry before the live write, so a retry after a failed quarantine
// delete reuses it instead of writing a second live copy.
func (rb *RecycleBin) Restore(ctx context.Context, originalID string, t EntityType) (newID string, err error) {
	ctx, span := rb.startSpan(ctx, "Restore", attribute.String("original_id", originalID))
	defer func() { endSpan(span, err) }()

	err = rb.deps.withLock(ctx, "recycle:"+originalID, func() error {
		return store.RunInTransaction(ctx, rb.deps.Store, func(tx store.Store) error {
			entry, err := rb.findEntry(ctx, tx, originalID)
			if err != nil {
				return err
			}
			if entry == nil {
				return &utils.NotFoundError{Entity: "recycle bin entry", Key: originalID, Message: msgNotInRecycleBin}
			}
			if t == "" {
				t = entry.Type
			}
			if t, err = ParseEntityType(string(t)); err != nil {
				return err
			}
			live := tx.Collection(t.Collection())
			bin := tx.Collection(CollectionRecycleBin)

			newID = entry.RestoredID
			if newID != "" {
				_, found, err := live.Get(ctx, newID)
				if err != nil {
					return err
				}
				if found {
					return bin.Delete(ctx, entry.ID)
				}
			}

			if t == EntityCustomer {
				if err := rb.checkPhoneFree(ctx, live, entry.Data.String("phone")); err != nil {
					return err
				}
			}
			if newID == "" {
				newID = rb.deps.newID()
				if err := bin.Update(ctx, entry.ID, store.Record{fieldRestoredID: newID}); err != nil {
					return err
				}
			}
			if err := live.Set(ctx, newID, entry.Data); err != nil {
				return err
			}
			return bin.Delete(ctx, entry.ID)
		})
	})
	if err != nil {
		config.LogError(rb.deps.Logger, "RecycleBin", "Restore", "restore entry", originalID, err)
		return "", err
	}

	metrics.RecycleBinTransitions.WithLabelValues(string(t), ActionRestore).Inc()
	rb.deps.publish(ctx, config.PubSubMessage{Entity: string(t), Action: ActionRestore, OriginalId: originalID, NewId: newID})
	return newID, nil
}

// checkPhoneFree keeps restored customers unique by phone.
func (rb *RecycleBin) checkPhoneFree(ctx context.Context, live store.Collection, phone string) error {
	if phone == "" {
		return nil
	}
	recs, err := live.Query(ctx, store.Query{Filters: []store.Filter{store.Eq("phone", phone)}, Limit: 1})
	if err != nil {
		return err
	}
	if len(recs) > 0 {
		return &utils.DuplicateError{Entity: "customer", Key: phone, Message: msgDuplicateCustomer}
	}
	return nil
}

// Purge permanently drops the quarantined copy of originalID.
func (rb *RecycleBin) Purge(ctx context.Context, originalID string) (err error) {
	ctx, span := rb.startSpan(ctx, "Purge", attribute.String("original_id", originalID))
	defer func() { endSpan(span, err) }()

	var t EntityType
	err = rb.deps.withLock(ctx, "recycle:"+originalID, func() error {
		entry, err := rb.findEntry(ctx, rb.deps.Store, originalID)
		if err != nil {
			return err
		}
		if entry == nil {
			return &utils.NotFoundError{Entity: "recycle bin entry", Key: originalID, Message: msgNotInRecycleBin}
		}
		t = entry.Type
		return rb.deps.collection(CollectionRecycleBin).Delete(ctx, entry.ID)
	})
	if err != nil {
		config.LogError(rb.deps.Logger, "RecycleBin", "Purge", "purge entry", originalID, err)
		return err
	}

	metrics.RecycleBinTransitions.WithLabelValues(string(t), ActionPurge).Inc()
	rb.deps.publish(ctx, config.PubSubMessage{Entity: string(t), Action: ActionPurge, OriginalId: originalID})
	return nil
}

// List returns quarantined entries, most recently deleted first.
func (rb *RecycleBin) List(ctx context.Context) ([]RecycleBinEntry, error) {
	recs, err := rb.deps.collection(CollectionRecycleBin).Query(ctx, store.Query{OrderBy: fieldDeletedAt, Desc: true})
	if err != nil {
		config.LogError(rb.deps.Logger, "RecycleBin", "List", "query recycle bin", nil, err)
		return nil, err
	}
	out := make([]RecycleBinEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, entryFromRecord(rec))
	}
	return out, nil
}

// Empty purges every entry and returns how many were removed.
func (rb *RecycleBin) Empty(ctx context.Context) (int, error) {
	entries, err := rb.List(ctx)
	if err != nil {
		return 0, err
	}
	err = store.RunInTransaction(ctx, rb.deps.Store, func(tx store.Store) error {
		bin := tx.Collection(CollectionRecycleBin)
		for _, e := range entries {
			if err := bin.Delete(ctx, e.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(rb.deps.Logger, "RecycleBin", "Empty", "empty recycle bin", len(entries), err)
		return 0, err
	}
	for _, e := range entries {
		metrics.RecycleBinTransitions.WithLabelValues(string(e.Type), ActionPurge).Inc()
		rb.deps.publish(ctx, config.PubSubMessage{Entity: string(e.Type), Action: ActionPurge, OriginalId: e.OriginalID})
	}
	return len(entries), nil
}
