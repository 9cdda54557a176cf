package hnapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SirZenith/hnfeed/hn"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL     = "https://hacker-news.firebaseio.com/v0"
	DefaultParallelism = 8
)

// ErrNotFound is returned when API answers null for an item.
var ErrNotFound = errors.New("item not found")

// JSONFetcher is the part of network.Fetcher used by Client.
type JSONFetcher interface {
	GetJSON(ctx context.Context, url string, v any) error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithCache(cache *Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func WithParallelism(parallelism int) Option {
	return func(c *Client) {
		if parallelism > 0 {
			c.parallelism = parallelism
		}
	}
}

// Client talks to Hacker News Firebase API.
type Client struct {
	fetcher     JSONFetcher
	baseURL     string
	cache       *Cache
	parallelism int

	group singleflight.Group
}

func NewClient(fetcher JSONFetcher, opts ...Option) *Client {
	c := &Client{
		fetcher:     fetcher,
		baseURL:     DefaultBaseURL,
		parallelism: DefaultParallelism,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) pageURL(page hn.Page) string {
	return fmt.Sprintf("%s/%s.json", c.baseURL, page.Endpoint())
}

func (c *Client) itemURL(id hn.ItemID) string {
	return fmt.Sprintf("%s/item/%d.json", c.baseURL, id)
}

// ItemWebURL returns discussion page of an item on the Hacker News website.
func ItemWebURL(id hn.ItemID) string {
	return "https://news.ycombinator.com/item?id=" + strconv.Itoa(int(id))
}

// FetchPageIDs returns story IDs of given page, cached list is used when it
// is still fresh.
func (c *Client) FetchPageIDs(ctx context.Context, page hn.Page) ([]hn.ItemID, error) {
	return c.fetchPageIDs(ctx, page, false)
}

// FetchPageIDsFresh is FetchPageIDs that always requests the API.
func (c *Client) FetchPageIDsFresh(ctx context.Context, page hn.Page) ([]hn.ItemID, error) {
	return c.fetchPageIDs(ctx, page, true)
}

func (c *Client) fetchPageIDs(ctx context.Context, page hn.Page, fresh bool) ([]hn.ItemID, error) {
	if !page.Valid() {
		return nil, fmt.Errorf("invalid page %d", int(page))
	}

	if !fresh {
		ids, err := c.cache.LoadPageIDs(page)
		if err == nil {
			return ids, nil
		} else if !errors.Is(err, errCacheMiss) {
			log.Warnf("%s", err)
		}
	}

	key := "page:" + page.Endpoint()
	if fresh {
		key += ":fresh"
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		ids := []hn.ItemID{}
		if err := c.fetcher.GetJSON(ctx, c.pageURL(page), &ids); err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", page.Endpoint(), err)
		}

		if err := c.cache.StorePageIDs(page, ids); err != nil {
			log.Warnf("%s", err)
		}

		return ids, nil
	})
	if err != nil {
		return nil, err
	}

	ids := value.([]hn.ItemID)
	return append([]hn.ItemID(nil), ids...), nil
}

// FetchItem returns item with given ID. Concurrent calls for the same ID share
// one request.
func (c *Client) FetchItem(ctx context.Context, id hn.ItemID) (*hn.Item, error) {
	return c.fetchItem(ctx, id, false)
}

// FetchItemFresh is FetchItem that always requests the API.
func (c *Client) FetchItemFresh(ctx context.Context, id hn.ItemID) (*hn.Item, error) {
	return c.fetchItem(ctx, id, true)
}

func (c *Client) fetchItem(ctx context.Context, id hn.ItemID, fresh bool) (*hn.Item, error) {
	if !fresh {
		item, err := c.cache.LoadItem(id)
		if err == nil || errors.Is(err, ErrNotFound) {
			return item, err
		} else if !errors.Is(err, errCacheMiss) {
			log.Warnf("%s", err)
		}
	}

	key := "item:" + strconv.Itoa(int(id))
	if fresh {
		key += ":fresh"
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		raw := json.RawMessage{}
		if err := c.fetcher.GetJSON(ctx, c.itemURL(id), &raw); err != nil {
			return nil, fmt.Errorf("failed to fetch item %d: %w", id, err)
		}

		if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if err := c.cache.StoreItem(id, nil); err != nil {
				log.Warnf("%s", err)
			}
			return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
		}

		item := &hn.Item{}
		if err := json.Unmarshal(raw, item); err != nil {
			return nil, fmt.Errorf("could not deserialize item %d: %w", id, err)
		}

		if err := c.cache.StoreItem(id, raw); err != nil {
			log.Warnf("%s", err)
		}

		return item, nil
	})
	if err != nil {
		return nil, err
	}

	return value.(*hn.Item), nil
}

// FetchItems fetches items concurrently and returns them in order of `ids`.
// The batch fails as a whole on first error.
func (c *Client) FetchItems(ctx context.Context, ids []hn.ItemID) ([]*hn.Item, error) {
	return c.fetchItems(ctx, ids, false)
}

func (c *Client) FetchItemsFresh(ctx context.Context, ids []hn.ItemID) ([]*hn.Item, error) {
	return c.fetchItems(ctx, ids, true)
}

func (c *Client) fetchItems(ctx context.Context, ids []hn.ItemID, fresh bool) ([]*hn.Item, error) {
	items := make([]*hn.Item, len(ids))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.parallelism)

	for i, id := range ids {
		group.Go(func() error {
			item, err := c.fetchItem(groupCtx, id, fresh)
			if err != nil {
				return err
			}

			items[i] = item

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return items, nil
}
