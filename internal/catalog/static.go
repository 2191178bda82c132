// Package catalog adapts material master data sources to the pricing engine.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
)

// StaticCatalog serves entries held in memory, loaded from a JSON file or set directly.
// Entries without a material id are category defaults for items that carry none.
type StaticCatalog struct {
	mu         sync.RWMutex
	byMaterial map[string]pricing.CatalogEntry
	byCategory map[domain.MaterialCategory]pricing.CatalogEntry
}

func NewStaticCatalog(entries ...pricing.CatalogEntry) *StaticCatalog {
	c := &StaticCatalog{
		byMaterial: make(map[string]pricing.CatalogEntry),
		byCategory: make(map[domain.MaterialCategory]pricing.CatalogEntry),
	}
	for _, e := range entries {
		c.Put(e)
	}
	return c
}

// LoadStaticCatalog reads a JSON array of catalog entries
func LoadStaticCatalog(path string) (*StaticCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var entries []pricing.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	for i, e := range entries {
		if !e.Category.IsValid() {
			return nil, fmt.Errorf("catalog entry %d: invalid category %q", i, e.Category)
		}
	}
	return NewStaticCatalog(entries...), nil
}

// Put adds or replaces an entry
func (c *StaticCatalog) Put(entry pricing.CatalogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry.MaterialID == "" {
		c.byCategory[entry.Category] = entry
		return
	}
	c.byMaterial[entry.MaterialID] = entry
}

func (c *StaticCatalog) Lookup(_ context.Context, _ uuid.UUID, query pricing.CatalogQuery) (*pricing.CatalogEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if query.MaterialID != nil {
		entry, ok := c.byMaterial[*query.MaterialID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown material %s", domain.ErrCatalogLookupFailure, *query.MaterialID)
		}
		if entry.Category != query.Category {
			return nil, fmt.Errorf("%w: material %s is %s, not %s", domain.ErrCatalogLookupFailure, entry.MaterialID, entry.Category, query.Category)
		}
		return &entry, nil
	}

	entry, ok := c.byCategory[query.Category]
	if !ok {
		return nil, fmt.Errorf("%w: no default entry for category %s", domain.ErrCatalogLookupFailure, query.Category)
	}
	return &entry, nil
}
