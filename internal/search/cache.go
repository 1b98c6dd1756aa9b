package search

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/m3rciful/pixabot/core/logger"
)

const defaultCacheTTL = 10 * time.Minute

// Cache memoizes successful provider responses for a short TTL.
// Errors are never cached.
type Cache struct {
	inner Provider
	store *gocache.Cache
}

// NewCache wraps inner. ttl <= 0 selects the default of ten minutes.
func NewCache(inner Provider, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{inner: inner, store: gocache.New(ttl, 2*ttl)}
}

// Search returns a cached response when one exists for the same request.
func (c *Cache) Search(ctx context.Context, req Request) (Response, error) {
	key := cacheKey(req)
	if v, ok := c.store.Get(key); ok {
		logger.Debug(ctx, component, "search.cache_hit",
			slog.String("endpoint", string(req.Endpoint)),
			slog.String("cache", "hit"),
		)
		return v.(Response), nil
	}
	resp, err := c.inner.Search(ctx, req)
	if err != nil {
		return Response{}, err
	}
	c.store.SetDefault(key, resp)
	return resp, nil
}

// Len reports the number of cached entries, expired ones included.
func (c *Cache) Len() int { return c.store.ItemCount() }

func cacheKey(req Request) string {
	return strings.Join([]string{
		string(req.Endpoint),
		req.Category,
		req.Lang,
		strconv.Itoa(req.PerPage),
		strings.ToLower(strings.TrimSpace(req.Query)),
	}, "|")
}
