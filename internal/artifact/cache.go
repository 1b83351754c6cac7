// Package artifact caches values derived from the committed transcript:
// the summary and per-language translations.
//
// Every entry belongs to a generation. Invalidate starts a new generation and
// drops all entries; a computation that began under an older generation has
// its result discarded instead of stored.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Kind names a derived artifact.
type Kind string

const (
	Summary     Kind = "summary"
	Translation Kind = "translation"
)

// Key identifies a cache slot. Language is empty for summaries.
type Key struct {
	Kind     Kind
	Language string
}

// SummaryKey returns the key of the summary slot.
func SummaryKey() Key { return Key{Kind: Summary} }

// TranslationKey returns the key of the translation slot for lang.
func TranslationKey(lang string) Key { return Key{Kind: Translation, Language: lang} }

func (k Key) String() string {
	if k.Language == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.Language
}

// ComputeFunc produces an artifact, typically by calling an external service.
type ComputeFunc func(ctx context.Context) (string, error)

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	gen     uint64
	values  map[Key]string
	flights singleflight.Group
	logger  *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for cache events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		values: make(map[Key]string),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(key Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the populated keys in a stable order.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Len returns the number of populated entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// Generation returns the current generation number.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Invalidate drops every entry and starts a new generation. Computations
// still in flight will not store their results.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if len(c.values) > 0 {
		c.values = make(map[Key]string)
	}
	c.logger.Debug("artifact cache invalidated", "generation", c.gen)
}

// GetOrCompute returns the cached value for key, or runs fn to produce it
// under the current generation. See GetOrComputeAt.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, fn ComputeFunc) (string, error) {
	return c.GetOrComputeAt(ctx, c.Generation(), key, fn)
}

// GetOrComputeAt is GetOrCompute for a caller that read its input while the
// cache was at generation gen. If the cache has moved past gen, ErrStale is
// returned without running fn.
//
// Concurrent misses for the same key within one generation share a single
// call to fn. If the cache is invalidated before fn returns, the result is
// dropped and ErrStale is returned. A failing fn returns an error wrapping
// ErrComputeFailed and leaves the slot empty.
func (c *Cache) GetOrComputeAt(ctx context.Context, gen uint64, key Key, fn ComputeFunc) (string, error) {
	v, ok, err := c.lookup(gen, key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	if ok {
		return v, nil
	}
	return c.compute(ctx, gen, key, fn)
}

// compute runs fn for key in a flight shared by concurrent callers of the
// same generation.
func (c *Cache) compute(ctx context.Context, gen uint64, key Key, fn ComputeFunc) (string, error) {
	flight := fmt.Sprintf("%d/%s", gen, key)
	out, err, shared := c.flights.Do(flight, func() (any, error) {
		// an earlier flight for this key may have finished since the miss
		if v, ok, err := c.lookup(gen, key); err != nil || ok {
			return v, err
		}
		out, err := fn(ctx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			return "", ErrStale
		}
		c.values[key] = out
		return out, nil
	})
	if err != nil {
		if errors.Is(err, ErrStale) {
			c.logger.Debug("artifact discarded", "key", key.String(), "generation", gen)
			return "", fmt.Errorf("%s: %w", key, ErrStale)
		}
		c.logger.Warn("artifact compute failed", "key", key.String(), "error", err)
		return "", fmt.Errorf("%w: %s: %w", ErrComputeFailed, key, err)
	}
	c.logger.Debug("artifact computed", "key", key.String(), "shared", shared)
	return out.(string), nil
}

// lookup returns the value stored for key in generation gen.
func (c *Cache) lookup(gen uint64, key Key) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return "", false, ErrStale
	}
	v, ok := c.values[key]
	return v, ok, nil
}
