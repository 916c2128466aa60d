package pressfront

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/eringen/pressfront/logger"
	"github.com/eringen/pressfront/wordpress"
)

// Source is the set of content reads the site needs. *wordpress.Client and
// *ContentCache both implement it.
type Source interface {
	ListPosts(ctx context.Context, pageSize, page int) ([]wordpress.Post, error)
	ListRecentPosts(ctx context.Context, count int) ([]wordpress.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (wordpress.Post, bool, error)
	ListAllSlugs(ctx context.Context) ([]string, error)
}

const maxCacheEntries = 1024

type cacheEntry struct {
	value   any
	fetched time.Time
	ttl     time.Duration
}

func (e cacheEntry) fresh(now time.Time) bool {
	return now.Sub(e.fetched) < e.ttl
}

// slugLookup is the cached result of GetPostBySlug, including misses.
type slugLookup struct {
	Post  wordpress.Post `json:"post"`
	Found bool           `json:"found"`
}

// snapshotWorthy reports whether a fetched value should be persisted.
// Slug misses stay in memory only so junk URLs cannot grow the store.
func snapshotWorthy(v any) bool {
	if l, ok := v.(slugLookup); ok {
		return l.Found
	}
	return true
}

// ContentCache is a read-through cache in front of a Source. Each read is
// fresh for its TTL; concurrent misses on one key share a single upstream
// call; an upstream failure falls back to the last value seen, from memory
// or from the snapshot store.
type ContentCache struct {
	src        Source
	listingTTL time.Duration
	slugsTTL   time.Duration
	snapshots  *SnapshotStore
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewContentCache wraps src. snapshots may be nil.
func NewContentCache(src Source, listingTTL, slugsTTL time.Duration, snapshots *SnapshotStore) *ContentCache {
	return &ContentCache{
		src:        src,
		listingTTL: listingTTL,
		slugsTTL:   slugsTTL,
		snapshots:  snapshots,
		now:        time.Now,
		entries:    make(map[string]cacheEntry),
	}
}

// Invalidate clears the cache so the next read triggers a fresh load.
// Snapshots are kept.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// ListPosts returns one page of posts.
func (c *ContentCache) ListPosts(ctx context.Context, pageSize, page int) ([]wordpress.Post, error) {
	key := fmt.Sprintf("posts:%d:%d", pageSize, page)
	return cached(ctx, c, key, c.listingTTL, func(ctx context.Context) ([]wordpress.Post, error) {
		return c.src.ListPosts(ctx, pageSize, page)
	})
}

// ListRecentPosts returns the count newest posts.
func (c *ContentCache) ListRecentPosts(ctx context.Context, count int) ([]wordpress.Post, error) {
	key := fmt.Sprintf("recent:%d", count)
	return cached(ctx, c, key, c.listingTTL, func(ctx context.Context) ([]wordpress.Post, error) {
		return c.src.ListRecentPosts(ctx, count)
	})
}

// GetPostBySlug returns the post with the given slug. Misses are cached too.
func (c *ContentCache) GetPostBySlug(ctx context.Context, slug string) (wordpress.Post, bool, error) {
	res, err := cached(ctx, c, "slug:"+slug, c.listingTTL, func(ctx context.Context) (slugLookup, error) {
		post, ok, err := c.src.GetPostBySlug(ctx, slug)
		return slugLookup{Post: post, Found: ok}, err
	})
	if err != nil {
		return wordpress.Post{}, false, err
	}
	return res.Post, res.Found, nil
}

// ListAllSlugs returns the slug enumeration.
func (c *ContentCache) ListAllSlugs(ctx context.Context) ([]string, error) {
	return cached(ctx, c, "slugs", c.slugsTTL, func(ctx context.Context) ([]string, error) {
		return c.src.ListAllSlugs(ctx)
	})
}

func (c *ContentCache) lookup(key string) (cacheEntry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return e, ok
}

func (c *ContentCache) store(key string, value any, fetched time.Time, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= maxCacheEntries {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{value: value, fetched: fetched, ttl: ttl}
}

// evictLocked drops expired entries, then arbitrary ones until there is room.
func (c *ContentCache) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if !e.fresh(now) {
			delete(c.entries, k)
		}
	}
	for k := range c.entries {
		if len(c.entries) < maxCacheEntries {
			break
		}
		delete(c.entries, k)
	}
}

// cached serves key from memory while fresh, otherwise loads it through
// fetch. The load runs detached from the caller's cancellation so one
// abandoned request does not fail the others waiting on it.
func cached[T any](ctx context.Context, c *ContentCache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if e, ok := c.lookup(key); ok && e.fresh(c.now()) {
		return e.value.(T), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if e, ok := c.lookup(key); ok && e.fresh(c.now()) {
			return e.value, nil
		}

		loadCtx := context.WithoutCancel(ctx)
		val, err := fetch(loadCtx)
		if err == nil {
			now := c.now()
			c.store(key, val, now, ttl)
			if c.snapshots != nil && snapshotWorthy(val) {
				if serr := c.snapshots.Save(loadCtx, key, val, now); serr != nil {
					logger.WarnWithFields("snapshot save failed", logger.Fields{"key": key, "error": serr.Error()})
				}
			}
			return val, nil
		}

		if e, ok := c.lookup(key); ok {
			logger.WarnWithFields("serving stale content", logger.Fields{
				"key":   key,
				"age":   c.now().Sub(e.fetched).String(),
				"error": err.Error(),
			})
			return e.value, nil
		}

		if c.snapshots != nil {
			var snap T
			fetchedAt, ok, serr := c.snapshots.Load(loadCtx, key, &snap)
			if serr != nil {
				logger.WarnWithFields("snapshot load failed", logger.Fields{"key": key, "error": serr.Error()})
			}
			if ok {
				logger.WarnWithFields("serving snapshot", logger.Fields{
					"key":   key,
					"age":   c.now().Sub(fetchedAt).String(),
					"error": err.Error(),
				})
				c.store(key, snap, fetchedAt, ttl)
				return snap, nil
			}
		}
		return nil, err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
