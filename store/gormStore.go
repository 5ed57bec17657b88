package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rskenterprises/billing_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is one stored record. The record body lives in Data as JSON;
// filters and ordering reach into it with JSON_EXTRACT.
type Document struct {
	Seq        uint64    `gorm:"primaryKey;autoIncrement"`
	ID         string    `gorm:"size:36;not null;uniqueIndex"`
	Collection string    `gorm:"size:64;not null;index"`
	Data       string    `gorm:"type:json;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (Document) TableName() string { return "documents" }

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MySQL error numbers for access denied.
var permissionErrors = map[uint16]bool{1044: true, 1045: true, 1142: true}

// GormStore keeps every collection in one MySQL table.
type GormStore struct {
	db    *gorm.DB
	clock func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, clock: time.Now}
}

func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Document{}); err != nil {
		return wrapDBError("migrate", "documents", err)
	}
	return nil
}

func (s *GormStore) Collection(name string) Collection {
	return &gormCollection{store: s, name: name}
}

func (s *GormStore) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, clock: s.clock})
	})
}

func wrapDBError(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var pe *utils.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && permissionErrors[mysqlErr.Number] {
		return utils.NewPersistenceError(op, collection, fmt.Errorf("permission denied: %w", err))
	}
	return utils.NewPersistenceError(op, collection, err)
}

type gormCollection struct {
	store *GormStore
	name  string
}

func (c *gormCollection) scoped(ctx context.Context) *gorm.DB {
	return c.store.db.WithContext(ctx).Model(&Document{}).Where("collection = ?", c.name)
}

func decodeDocument(doc Document) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(doc.Data), &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = Record{}
	}
	rec[FieldID] = doc.ID
	return rec, nil
}

func encodeRecord(rec Record) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *gormCollection) Insert(ctx context.Context, rec Record) (string, error) {
	now := c.store.clock().UTC()
	body := stripMeta(rec)
	body[FieldCreatedAt] = Timestamp(now)
	body[FieldUpdatedAt] = Timestamp(now)
	data, err := encodeRecord(body)
	if err != nil {
		return "", utils.NewPersistenceError("insert", c.name, err)
	}
	doc := Document{
		ID:         uuid.NewString(),
		Collection: c.name,
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := c.store.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return "", wrapDBError("insert", c.name, err)
	}
	return doc.ID, nil
}

func (c *gormCollection) Get(ctx context.Context, id string) (Record, bool, error) {
	var doc Document
	err := c.scoped(ctx).Where("id = ?", id).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapDBError("get", c.name, err)
	}
	rec, err := decodeDocument(doc)
	if err != nil {
		return nil, false, utils.NewPersistenceError("get", c.name, err)
	}
	return rec, true, nil
}

func (c *gormCollection) Query(ctx context.Context, q Query) ([]Record, error) {
	tx := c.scoped(ctx)
	for _, f := range q.Filters {
		cond, args, err := filterSQL(f)
		if err != nil {
			return nil, utils.NewPersistenceError("query", c.name, err)
		}
		tx = tx.Where(cond, args...)
	}
	if q.OrderBy != "" {
		if !fieldNamePattern.MatchString(q.OrderBy) {
			return nil, utils.NewPersistenceError("query", c.name, fmt.Errorf("invalid order field %q", q.OrderBy))
		}
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		tx = tx.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "JSON_UNQUOTE(JSON_EXTRACT(data, ?)) " + dir + ", seq " + dir,
			Vars:               []any{"$." + q.OrderBy},
			WithoutParentheses: true,
		}})
	} else if q.Desc {
		tx = tx.Order("seq DESC")
	} else {
		tx = tx.Order("seq ASC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var docs []Document
	if err := tx.Find(&docs).Error; err != nil {
		return nil, wrapDBError("query", c.name, err)
	}
	out := make([]Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := decodeDocument(doc)
		if err != nil {
			return nil, utils.NewPersistenceError("query", c.name, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func filterSQL(f Filter) (string, []any, error) {
	if !fieldNamePattern.MatchString(f.Field) {
		return "", nil, fmt.Errorf("invalid filter field %q", f.Field)
	}
	var op string
	switch f.Op {
	case OpEq:
		op = "="
	case OpGte:
		op = ">="
	case OpLte:
		op = "<="
	default:
		return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
	}
	path := "$." + f.Field
	if n, ok := toFloat(f.Value); ok {
		return "CAST(JSON_EXTRACT(data, ?) AS DECIMAL(30,10)) " + op + " ?", []any{path, n}, nil
	}
	if b, ok := f.Value.(bool); ok {
		return "JSON_UNQUOTE(JSON_EXTRACT(data, ?)) " + op + " ?", []any{path, fmt.Sprint(b)}, nil
	}
	// Binary collation keeps string comparisons byte-wise, like the memory store.
	return "CAST(JSON_UNQUOTE(JSON_EXTRACT(data, ?)) AS BINARY) " + op + " CAST(? AS BINARY)", []any{path, fmt.Sprint(f.Value)}, nil
}

func (c *gormCollection) Update(ctx context.Context, id string, partial Record) error {
	err := c.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc Document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND id = ?", c.name, id).Take(&doc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewPersistenceError("update", c.name, fmt.Errorf("no document with id %q", id))
		}
		if err != nil {
			return err
		}
		rec, err := decodeDocument(doc)
		if err != nil {
			return err
		}
		for k, v := range stripMeta(partial) {
			rec[k] = v
		}
		now := c.store.clock().UTC()
		rec[FieldUpdatedAt] = Timestamp(now)
		delete(rec, FieldID)
		data, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		return tx.Model(&Document{}).Where("seq = ?", doc.Seq).
			Updates(map[string]any{"data": data, "updated_at": now}).Error
	})
	return wrapDBError("update", c.name, err)
}

func (c *gormCollection) Set(ctx context.Context, id string, rec Record) error {
	err := c.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := c.store.clock().UTC()
		body := stripMeta(rec)
		body[FieldUpdatedAt] = Timestamp(now)

		var existing Document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND id = ?", c.name, id).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			body[FieldCreatedAt] = Timestamp(now)
			data, err := encodeRecord(body)
			if err != nil {
				return err
			}
			return tx.Create(&Document{ID: id, Collection: c.name, Data: data, CreatedAt: now, UpdatedAt: now}).Error
		case err != nil:
			return err
		}

		prev, err := decodeDocument(existing)
		if err != nil {
			return err
		}
		body[FieldCreatedAt] = prev[FieldCreatedAt]
		data, err := encodeRecord(body)
		if err != nil {
			return err
		}
		return tx.Model(&Document{}).Where("seq = ?", existing.Seq).
			Updates(map[string]any{"data": data, "updated_at": now}).Error
	})
	return wrapDBError("set", c.name, err)
}

func (c *gormCollection) Delete(ctx context.Context, id string) error {
	err := c.store.db.WithContext(ctx).
		Where("collection = ? AND id = ?", c.name, id).
		Delete(&Document{}).Error
	return wrapDBError("delete", c.name, err)
}
