package mediaurl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"cineref/internal/logging"
	"cineref/internal/services"
)

// Entry is a cached durable URL for one media handle.
type Entry struct {
	Handle    string
	URL       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry must not be served without a refresh.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Fetcher converts a media handle into a directly fetchable URL via the
// platform's file-info API.
type Fetcher interface {
	FetchURL(ctx context.Context, handle string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, handle string) (string, error)

func (f FetcherFunc) FetchURL(ctx context.Context, handle string) (string, error) {
	return f(ctx, handle)
}

// Cache maps media handles to time-limited durable URLs. Entries live in
// memory only; a restart simply forces re-resolution. Concurrent resolves of
// the same handle collapse into one platform call, while distinct handles
// resolve independently.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *slog.Logger
	clock   func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry
	group   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewCache constructs a Cache with the given TTL. The TTL should stay below
// the platform's actual URL lifetime; it is configuration, not a constant.
func NewCache(fetcher Fetcher, ttl time.Duration, logger *slog.Logger, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	cache := &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logging.NewComponentLogger(logger, "mediaurl"),
		clock:   time.Now,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

// Resolve returns the cached URL for handle when present and unexpired,
// otherwise performs one platform call shared by all concurrent callers.
func (c *Cache) Resolve(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", services.Wrap(services.ErrInvalidReference, "mediaurl", "resolve", "empty handle", nil)
	}

	if entry, ok := c.lookup(handle); ok {
		return entry.URL, nil
	}

	result, err, shared := c.group.Do(handle, func() (any, error) {
		// Re-check under the flight: another caller may have refreshed the
		// entry between the miss and this callback running.
		if entry, ok := c.lookup(handle); ok {
			return entry, nil
		}
		return c.fetch(ctx, handle)
	})
	if err != nil {
		return "", err
	}
	entry := result.(Entry)
	if shared {
		c.logger.Debug("resolve collapsed into in-flight call", logging.String("handle", handle))
	}
	return entry.URL, nil
}

// Refresh unconditionally re-resolves the handle and overwrites the cache
// entry, expired or not. The platform may invalidate URLs before their
// advertised lifetime, so callers use this on playback failure.
func (c *Cache) Refresh(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", services.Wrap(services.ErrInvalidReference, "mediaurl", "refresh", "empty handle", nil)
	}
	entry, err := c.fetch(ctx, handle)
	if err != nil {
		return "", err
	}
	return entry.URL, nil
}

// Entries returns a snapshot of the cache contents sorted by nothing in
// particular; callers sort for display.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		out = append(out, entry)
	}
	return out
}

func (c *Cache) lookup(handle string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[handle]
	if !ok || entry.Expired(c.clock()) {
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) fetch(ctx context.Context, handle string) (Entry, error) {
	url, err := c.fetcher.FetchURL(ctx, handle)
	if err != nil {
		return Entry{}, err
	}
	now := c.clock()
	entry := Entry{
		Handle:    handle,
		URL:       url,
		IssuedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.mu.Lock()
	c.entries[handle] = entry
	c.mu.Unlock()

	c.logger.Debug("durable url stored",
		logging.String("handle", handle),
		logging.Duration("ttl", c.ttl),
	)
	return entry, nil
}
