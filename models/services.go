package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/store"
	"github.com/rskenterprises/billing_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const (
	CollectionCustomers  = "customers"
	CollectionInvoices   = "invoices"
	CollectionShortcuts  = "shortcuts"
	CollectionProducts   = "products"
	CollectionRecycleBin = "recycleBin"
	CollectionSettings   = "settings"
)

var tracer = otel.Tracer("github.com/rskenterprises/billing_backend/models")

// EventPublisher receives an audit event for every recycle-bin transition.
type EventPublisher interface {
	Publish(ctx context.Context, msg config.PubSubMessage) (string, error)
}

// Uploader stores backup and report blobs.
type Uploader interface {
	Upload(ctx context.Context, objectName string, data []byte) (string, error)
}

// Deps is everything a service may need. Store and Logger are required;
// the rest are optional and skipped when nil.
type Deps struct {
	Store  store.Store
	Logger *logrus.Logger
	Clock  func() time.Time
	NewID  func() string

	Cache         utils.Cache
	CacheLifespan time.Duration
	Locker        utils.Locker
	Events        EventPublisher
	Uploader      Uploader

	CompanyProfile       *config.CompanyProfile
	StrictInvoiceNumbers bool
}

func (d *Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock()
}

func (d *Deps) newID() string {
	if d.NewID == nil {
		return uuid.NewString()
	}
	return d.NewID()
}

func (d *Deps) collection(name string) store.Collection {
	return d.Store.Collection(name)
}

func (d *Deps) withLock(ctx context.Context, key string, fn func() error) error {
	return utils.WithLock(ctx, d.Locker, d.Logger, key, fn)
}

// publish is best-effort: a failed publish is logged and swallowed.
func (d *Deps) publish(ctx context.Context, msg config.PubSubMessage) {
	if d.Events == nil {
		return
	}
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		msg.CorrelationId = cid
	}
	if user, ok := utils.GetUserNameFromContext(ctx); ok {
		msg.Actor = user
	}
	if msg.At.IsZero() {
		msg.At = d.now()
	}
	if _, err := d.Events.Publish(ctx, msg); err != nil {
		config.LogWarn(d.Logger, "models", "publish", "event publish failed", msg, err)
	}
}

// Services is the composition root's handle on every operation.
type Services struct {
	Customers  *CustomerService
	Shortcuts  *ShortcutService
	Catalog    *CatalogService
	Invoices   *InvoiceService
	Settings   *SettingsService
	RecycleBin *RecycleBin
	Backup     *BackupService
}

func NewServices(deps Deps) *Services {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.CacheLifespan <= 0 {
		deps.CacheLifespan = time.Hour
	}
	d := &deps

	bin := &RecycleBin{deps: d}
	customers := &CustomerService{deps: d, bin: bin}
	shortcuts := &ShortcutService{deps: d, bin: bin}
	catalog := &CatalogService{deps: d}
	settings := &SettingsService{deps: d}
	invoices := &InvoiceService{deps: d, bin: bin, customers: customers, catalog: catalog, settings: settings}

	return &Services{
		Customers:  customers,
		Shortcuts:  shortcuts,
		Catalog:    catalog,
		Invoices:   invoices,
		Settings:   settings,
		RecycleBin: bin,
		Backup:     &BackupService{deps: d, settings: settings},
	}
}

func toRecord(v any) (store.Record, error) {
	return utils.ConvertJSON[store.Record](v)
}

func fromRecord[T any](rec store.Record) (T, error) {
	return utils.ConvertJSON[T](rec)
}

func fromRecords[T any](recs []store.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := fromRecord[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
