package models

import (
	"context"
	"strings"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/store"
	"github.com/rskenterprises/billing_backend/utils"
	"github.com/shopspring/decimal"
)

// CatalogItem is a line item seen on a saved invoice, remembered so its HSN
// code and last rate can be offered again.
type CatalogItem struct {
	ID          string          `json:"id,omitempty"`
	Description string          `json:"description"`
	HSNCode     string          `json:"hsnCode"`
	Rate        decimal.Decimal `json:"rate"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
}

type CatalogService struct {
	deps *Deps
}

func (s *CatalogService) products() store.Collection {
	return s.deps.collection(CollectionProducts)
}

func (s *CatalogService) find(ctx context.Context, description string) (*CatalogItem, error) {
	recs, err := s.products().Query(ctx, store.Query{
		Filters: []store.Filter{store.Eq("description", description)},
		Limit:   1,
	})
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	item, err := fromRecord[CatalogItem](recs[0])
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RememberLineItems upserts one catalog entry per distinct description.
// A blank HSN code never overwrites a known one.
func (s *CatalogService) RememberLineItems(ctx context.Context, items []LineItem) error {
	seen := map[string]bool{}
	for _, li := range items {
		desc := strings.TrimSpace(li.Description)
		if desc == "" || seen[desc] {
			continue
		}
		seen[desc] = true

		existing, err := s.find(ctx, desc)
		if err != nil {
			return err
		}
		rec := store.Record{"description": desc, "rate": li.Rate.String()}
		if li.HSNCode != "" {
			rec["hsnCode"] = li.HSNCode
		}
		if existing != nil {
			if err := s.products().Update(ctx, existing.ID, rec); err != nil {
				return err
			}
			continue
		}
		if _, ok := rec["hsnCode"]; !ok {
			rec["hsnCode"] = ""
		}
		if _, err := s.products().Insert(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *CatalogService) Lookup(ctx context.Context, description string) (*CatalogItem, error) {
	item, err := s.find(ctx, strings.TrimSpace(description))
	if err != nil {
		config.LogError(s.deps.Logger, "CatalogService", "Lookup", "query products", description, err)
		return nil, err
	}
	if item == nil {
		return nil, utils.NewNotFoundError("product", description)
	}
	return item, nil
}

func (s *CatalogService) List(ctx context.Context) ([]CatalogItem, error) {
	recs, err := s.products().Query(ctx, store.Query{OrderBy: "description"})
	if err != nil {
		config.LogError(s.deps.Logger, "CatalogService", "List", "query products", nil, err)
		return nil, err
	}
	return fromRecords[CatalogItem](recs)
}
