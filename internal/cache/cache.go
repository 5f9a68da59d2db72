package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Dir returns the cache directory path.
func Dir() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, "sola")
}

// Key identifies one cached query result: the operation name, the locale,
// and the canonical encoding of the query parameters.
type Key struct {
	Operation string
	Locale    string
	Params    string
}

func (k Key) String() string {
	return k.Operation + "|" + k.Locale + "|" + k.Params
}

// Store is a byte-level key/value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes all keys starting with prefix and returns how many.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Len(ctx context.Context) (int, error)
}

// Options selects and configures a Store.
type Options struct {
	Backend   string        // "memory", "file" or "redis"
	Retention time.Duration // zero keeps entries forever
	Dir       string        // file backend; default Dir()
	RedisURL  string        // redis backend
	Prefix    string        // redis key prefix
}

// Open creates the Store described by opts.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(opts.Retention), nil
	case "file":
		dir := opts.Dir
		if dir == "" {
			dir = Dir()
		}
		return NewFileStore(dir, opts.Retention)
	case "redis":
		return NewRedisStore(RedisOptions{URL: opts.RedisURL, Prefix: opts.Prefix, Retention: opts.Retention})
	default:
		return nil, fmt.Errorf("unknown cache backend %q (use memory, file, or redis)", opts.Backend)
	}
}

// Stats holds cache counters.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// Cache is the query cache handed to every data-fetching unit. Values are
// stored JSON-encoded; only successful results are stored.
type Cache struct {
	store  Store
	logger *slog.Logger
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// New wraps store. A nil logger discards store errors silently.
func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{store: store, logger: logger}
}

// Fetch returns the cached value for key, or calls fn, stores its result
// and returns it. Concurrent misses for the same key share one call to fn,
// which runs detached from any single caller's cancellation; each caller
// still returns early when its own ctx is done. A nil cache always calls fn.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fn(ctx)
	}

	id := key.String()
	if data, ok, err := c.store.Get(ctx, id); err != nil {
		c.logger.Warn("cache read failed", "key", id, "error", err)
	} else if ok {
		var value T
		if err := json.Unmarshal(data, &value); err == nil {
			c.hits.Add(1)
			return value, nil
		}
		c.logger.Warn("cache entry undecodable, refetching", "key", id)
	}

	c.misses.Add(1)
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		value, err := fn(shared)
		if err != nil {
			return value, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			c.logger.Warn("cache encode failed", "key", id, "error", err)
			return value, nil
		}
		if err := c.store.Set(shared, id, data); err != nil {
			c.logger.Warn("cache write failed", "key", id, "error", err)
		}
		return value, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(T)
		return value, nil
	}
}

// Invalidate removes one entry.
func (c *Cache) Invalidate(ctx context.Context, key Key) error {
	return c.store.Delete(ctx, key.String())
}

// InvalidateOperation removes every entry of one operation, across locales
// and parameters.
func (c *Cache) InvalidateOperation(ctx context.Context, operation string) (int, error) {
	return c.store.DeletePrefix(ctx, operation+"|")
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	return c.store.DeletePrefix(ctx, "")
}

// Stats returns the entry count and hit/miss counters.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	entries, err := c.store.Len(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Entries: entries, Hits: c.hits.Load(), Misses: c.misses.Load()}, nil
}

// Store returns the underlying store.
func (c *Cache) Store() Store {
	return c.store
}

func sanitize(s string) string {
	r := strings.NewReplacer("/", "_", ":", "_", "@", "_", "|", "_")
	return r.Replace(s)
}
