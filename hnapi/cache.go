package hnapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SirZenith/hnfeed/database/data_model"
	"github.com/SirZenith/hnfeed/hn"
	"gorm.io/gorm"
)

var errCacheMiss = errors.New("cache miss")

// Cache is a read-through cache of API responses stored in database. A nil
// *Cache is valid and never hits.
type Cache struct {
	db      *gorm.DB
	itemTTL time.Duration
	feedTTL time.Duration
	now     func() time.Time
}

func NewCache(db *gorm.DB, itemTTL, feedTTL time.Duration) *Cache {
	return &Cache{
		db:      db,
		itemTTL: itemTTL,
		feedTTL: feedTTL,
		now:     time.Now,
	}
}

func (c *Cache) cutoff(ttl time.Duration) time.Time {
	return c.now().Add(-ttl).UTC()
}

// LoadItem returns cached item younger than item TTL. ErrNotFound is returned
// for items the API answered null for.
func (c *Cache) LoadItem(id hn.ItemID) (*hn.Item, error) {
	if c == nil || c.db == nil {
		return nil, errCacheMiss
	}

	entry := data_model.ItemEntry{}
	err := c.db.Where("id = ? AND fetched_at >= ?", int(id), c.cutoff(c.itemTTL)).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("failed to read cached item %d: %w", id, err)
	}

	if entry.Missing {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}

	item := &hn.Item{}
	if err := json.Unmarshal(entry.Payload, item); err != nil {
		return nil, fmt.Errorf("broken cache entry of item %d: %w", id, err)
	}

	return item, nil
}

// StoreItem saves raw item JSON, nil payload marks the item as missing.
func (c *Cache) StoreItem(id hn.ItemID, payload []byte) error {
	if c == nil || c.db == nil {
		return nil
	}

	entry := data_model.ItemEntry{
		ID:        int(id),
		Payload:   payload,
		Missing:   payload == nil,
		FetchedAt: c.now().UTC(),
	}

	if err := entry.Upsert(c.db); err != nil {
		return fmt.Errorf("failed to cache item %d: %w", id, err)
	}

	return nil
}

// LoadPageIDs returns cached story ID list of a page younger than feed TTL.
func (c *Cache) LoadPageIDs(page hn.Page) ([]hn.ItemID, error) {
	if c == nil || c.db == nil {
		return nil, errCacheMiss
	}

	entry := data_model.FeedEntry{}
	err := c.db.Where("page = ? AND fetched_at >= ?", page.Endpoint(), c.cutoff(c.feedTTL)).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("failed to read cached %s: %w", page.Endpoint(), err)
	}

	ids := []hn.ItemID{}
	if err := json.Unmarshal(entry.IDs, &ids); err != nil {
		return nil, fmt.Errorf("broken cache entry of %s: %w", page.Endpoint(), err)
	}

	return ids, nil
}

func (c *Cache) StorePageIDs(page hn.Page, ids []hn.ItemID) error {
	if c == nil || c.db == nil {
		return nil
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode ID list of %s: %w", page.Endpoint(), err)
	}

	entry := data_model.FeedEntry{
		Page:      page.Endpoint(),
		IDs:       data,
		FetchedAt: c.now().UTC(),
	}

	if err := entry.Upsert(c.db); err != nil {
		return fmt.Errorf("failed to cache %s: %w", page.Endpoint(), err)
	}

	return nil
}
