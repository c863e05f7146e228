package blobcache

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/waterfall/pkg/observability"
	"github.com/matzehuels/waterfall/pkg/photo"
)

// Cache is the best-effort client over a Store. Storage failures never
// reach the caller: reads degrade to a miss and writes to a no-op, and both
// are logged and reported to the cache hooks.
//
// A Cache is created once at startup and passed to the components that need
// it. It is safe for concurrent use.
type Cache struct {
	store  Store
	logger *log.Logger
}

// New wraps store. A nil store behaves as a [NullStore]; a nil logger uses
// the default logger.
func New(store Store, logger *log.Logger) *Cache {
	if store == nil {
		store = NewNullStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{store: store, logger: logger}
}

// Store returns the wrapped store.
func (c *Cache) Store() Store { return c.store }

// Get returns the cached payload for (id, tier), or false on a miss or any
// storage failure.
func (c *Cache) Get(ctx context.Context, id string, tier photo.Tier) ([]byte, bool) {
	data, ok, err := c.store.Get(ctx, id, tier)
	if err != nil {
		c.fail(ctx, "get", err, "id", id, "tier", tier)
		return nil, false
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, tier.String())
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, tier.String())
	return data, true
}

// Put stores data under (id, tier), preserving the photo's other tiers. It
// reports whether the write succeeded.
func (c *Cache) Put(ctx context.Context, id string, tier photo.Tier, data []byte) bool {
	if err := c.store.Put(ctx, id, tier, data); err != nil {
		c.fail(ctx, "put", err, "id", id, "tier", tier)
		return false
	}
	observability.Cache().OnCacheSet(ctx, tier.String(), len(data))
	return true
}

// Record returns everything cached for id, or false on a miss or failure.
func (c *Cache) Record(ctx context.Context, id string) (*Record, bool) {
	rec, ok, err := c.store.Record(ctx, id)
	if err != nil {
		c.fail(ctx, "record", err, "id", id)
		return nil, false
	}
	return rec, ok
}

// Clear removes every record. Unlike the other operations it returns the
// storage error, since a reset is an explicit user action.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		c.fail(ctx, "clear", err)
		return err
	}
	c.logger.Debug("blob cache cleared")
	return nil
}

// Stats summarizes the store's content.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	return c.store.Stats(ctx)
}

// Close closes the wrapped store.
func (c *Cache) Close() error { return c.store.Close() }

func (c *Cache) fail(ctx context.Context, op string, err error, kv ...any) {
	observability.Cache().OnCacheError(ctx, op, err)
	if errors.Is(err, context.Canceled) {
		return
	}
	c.logger.Warn("blob cache "+op+" failed", append(kv, "err", err)...)
}
