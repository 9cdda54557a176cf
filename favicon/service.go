package favicon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/SirZenith/hnfeed/database/data_model"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type cacheEntry struct {
	icon      *Icon // nil when lookup failed
	fetchedAt time.Time
}

// Service looks up favicons with a memory cache and an optional database
// cache. Failed lookups are cached as well, so that unreachable sites are not
// requested again until TTL expires.
type Service struct {
	fetcher Fetcher
	db      *gorm.DB
	ttl     time.Duration
	now     func() time.Time

	lock   sync.Mutex
	memory map[string]cacheEntry
	group  singleflight.Group
}

func NewService(fetcher Fetcher, db *gorm.DB, ttl time.Duration) *Service {
	return &Service{
		fetcher: fetcher,
		db:      db,
		ttl:     ttl,
		now:     time.Now,
		memory:  map[string]cacheEntry{},
	}
}

// SiteKey returns cache key of a story link: scheme and host for web links,
// the link itself otherwise.
func SiteKey(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return siteURL
	}

	return u.Scheme + "://" + u.Host
}

// Lookup returns favicon of the site given link belongs to. ErrNoFavicon is
// returned, possibly from cache, when site has no usable icon.
func (s *Service) Lookup(ctx context.Context, siteURL string) (*Icon, error) {
	key := SiteKey(siteURL)

	if entry, ok := s.loadMemory(key); ok {
		return entryResult(entry, key)
	}

	if entry, ok := s.loadDB(key); ok {
		s.storeMemory(key, entry)
		return entryResult(entry, key)
	}

	value, err, _ := s.group.Do(key, func() (any, error) {
		icon, err := Lookup(ctx, s.fetcher, key)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if err != nil {
			log.Debugf("favicon lookup failed for %s: %s", key, err)
		}

		entry := cacheEntry{icon: icon, fetchedAt: s.now()}
		s.storeMemory(key, entry)
		s.storeDB(key, entry)

		return entry, nil
	})
	if err != nil {
		return nil, err
	}

	return entryResult(value.(cacheEntry), key)
}

func entryResult(entry cacheEntry, key string) (*Icon, error) {
	if entry.icon == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoFavicon, key)
	}
	return entry.icon, nil
}

func (s *Service) fresh(entry cacheEntry) bool {
	return s.ttl <= 0 || s.now().Sub(entry.fetchedAt) < s.ttl
}

func (s *Service) loadMemory(key string) (cacheEntry, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, ok := s.memory[key]
	if !ok || !s.fresh(entry) {
		return cacheEntry{}, false
	}

	return entry, true
}

func (s *Service) storeMemory(key string, entry cacheEntry) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.memory[key] = entry
}

func (s *Service) loadDB(key string) (cacheEntry, bool) {
	if s.db == nil {
		return cacheEntry{}, false
	}

	record := data_model.FaviconEntry{}
	err := s.db.Where("site_url = ?", key).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cacheEntry{}, false
	} else if err != nil {
		log.Warnf("failed to read favicon cache of %s: %s", key, err)
		return cacheEntry{}, false
	}

	entry := cacheEntry{fetchedAt: record.FetchedAt}
	if !record.Failed {
		entry.icon = &Icon{
			SiteURL:     record.SiteURL,
			URL:         record.IconURL,
			ContentType: record.ContentType,
			Data:        record.Data,
		}
	}

	if !s.fresh(entry) {
		return cacheEntry{}, false
	}

	return entry, true
}

func (s *Service) storeDB(key string, entry cacheEntry) {
	if s.db == nil {
		return
	}

	record := data_model.FaviconEntry{
		SiteURL:   key,
		Failed:    entry.icon == nil,
		FetchedAt: entry.fetchedAt.UTC(),
	}
	if icon := entry.icon; icon != nil {
		record.IconURL = icon.URL
		record.ContentType = icon.ContentType
		record.Data = icon.Data
	}

	if err := record.Upsert(s.db); err != nil {
		log.Warnf("failed to save favicon cache of %s: %s", key, err)
	}
}
