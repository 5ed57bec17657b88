package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/store"
	"golang.org/x/sync/errgroup"
)

// Backup is a full export of every collection except the recycle bin.
type Backup struct {
	Customers  []store.Record `json:"customers"`
	Invoices   []store.Record `json:"invoices"`
	Shortcuts  []store.Record `json:"shortcuts"`
	Products   []store.Record `json:"products"`
	Settings   *Settings      `json:"settings,omitempty"`
	ExportDate string         `json:"exportDate"`
}

type ImportResult struct {
	Customers int  `json:"customers"`
	Shortcuts int  `json:"shortcuts"`
	Products  int  `json:"products"`
	Invoices  int  `json:"invoices"`
	Settings  bool `json:"settings"`
}

type BackupService struct {
	deps     *Deps
	settings *SettingsService
}

func (s *BackupService) all(ctx context.Context, collection string) ([]store.Record, error) {
	return s.deps.collection(collection).Query(ctx, store.Query{OrderBy: store.FieldCreatedAt, Desc: true})
}

// Export reads every collection concurrently.
func (s *BackupService) Export(ctx context.Context) (*Backup, error) {
	b := &Backup{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		b.Customers, err = s.all(gctx, CollectionCustomers)
		return err
	})
	g.Go(func() (err error) {
		b.Invoices, err = s.all(gctx, CollectionInvoices)
		return err
	})
	g.Go(func() (err error) {
		b.Shortcuts, err = s.all(gctx, CollectionShortcuts)
		return err
	})
	g.Go(func() (err error) {
		b.Products, err = s.all(gctx, CollectionProducts)
		return err
	})
	g.Go(func() error {
		settings, err := s.settings.Get(gctx)
		if err != nil {
			return err
		}
		b.Settings = &settings
		return nil
	})
	if err := g.Wait(); err != nil {
		config.LogError(s.deps.Logger, "BackupService", "Export", "export collections", nil, err)
		return nil, err
	}
	b.ExportDate = store.Timestamp(s.deps.now())
	return b, nil
}

// Import inserts a backup in dependency order: customers, shortcuts and
// products, invoices, then settings. Records get new ids and timestamps.
// Each list is newest first, as Export writes it, so it is inserted from the
// end to keep the newest record newest. It stops at the first failure and
// reports what was written so far.
func (s *BackupService) Import(ctx context.Context, b *Backup) (ImportResult, error) {
	var res ImportResult
	steps := []struct {
		collection string
		records    []store.Record
		count      *int
	}{
		{CollectionCustomers, b.Customers, &res.Customers},
		{CollectionShortcuts, b.Shortcuts, &res.Shortcuts},
		{CollectionProducts, b.Products, &res.Products},
		{CollectionInvoices, b.Invoices, &res.Invoices},
	}
	for _, step := range steps {
		coll := s.deps.collection(step.collection)
		for i := len(step.records) - 1; i >= 0; i-- {
			if _, err := coll.Insert(ctx, step.records[i]); err != nil {
				config.LogError(s.deps.Logger, "BackupService", "Import", "insert "+step.collection, *step.count, err)
				return res, err
			}
			*step.count++
		}
	}
	if b.Settings != nil {
		if _, err := s.settings.Save(ctx, *b.Settings); err != nil {
			return res, err
		}
		res.Settings = true
	}
	return res, nil
}

// Upload writes the backup as JSON through the configured uploader and
// returns its location.
func (s *BackupService) Upload(ctx context.Context, b *Backup) (string, error) {
	if s.deps.Uploader == nil {
		return "", fmt.Errorf("backup upload is not configured (GCS_BUCKET)")
	}
	raw, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("backups/billing-%s.json", s.deps.now().UTC().Format("2006-01-02T150405"))
	loc, err := s.deps.Uploader.Upload(ctx, name, raw)
	if err != nil {
		config.LogError(s.deps.Logger, "BackupService", "Upload", "upload backup", name, err)
		return "", err
	}
	return loc, nil
}
