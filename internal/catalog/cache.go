package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"MicroShop/internal/kv"
	"MicroShop/pkg/kit"
)

// Cache is a read-through cache over the product store. Misses hit the
// relational store and populate the cache for the catalog TTL; negative
// results are never cached. Mutating callers must invalidate after commit,
// before reporting success.
type Cache struct {
	kv      kv.Store
	store   Store
	log     *zap.Logger
	metrics *kit.LookupMetrics
}

func NewCache(store kv.Store, src Store, log *zap.Logger, metrics *kit.LookupMetrics) *Cache {
	return &Cache{kv: store, store: src, log: log, metrics: metrics}
}

func (c *Cache) GetProduct(ctx context.Context, id int64) (Product, bool, error) {
	key := kv.KeyProduct(id)

	cached, err := c.kv.Get(ctx, key)
	if err == nil {
		var p Product
		if uerr := json.Unmarshal(cached, &p); uerr == nil {
			c.metrics.Observe("product", kit.ResultHit)
			return p, true, nil
		}
		// Unreadable entry: drop it and fall through to the store.
		_ = c.kv.Del(ctx, key)
	} else if !errors.Is(err, kv.ErrNotFound) {
		// A failing cache must not take reads down with it.
		c.metrics.Observe("product", kit.ResultError)
		c.log.Error("product cache read failed", zap.Error(err), zap.Int64("id", id))
	} else {
		c.metrics.Observe("product", kit.ResultMiss)
	}

	p, found, err := c.store.Get(ctx, id)
	if err != nil || !found {
		return Product{}, false, err
	}

	c.fill(ctx, key, p)
	return p, true, nil
}

func (c *Cache) ListProducts(ctx context.Context) ([]Product, error) {
	cached, err := c.kv.Get(ctx, kv.KeyProducts)
	if err == nil {
		var list []Product
		if uerr := json.Unmarshal(cached, &list); uerr == nil {
			c.metrics.Observe("products", kit.ResultHit)
			return list, nil
		}
		_ = c.kv.Del(ctx, kv.KeyProducts)
	} else if !errors.Is(err, kv.ErrNotFound) {
		c.metrics.Observe("products", kit.ResultError)
		c.log.Error("product list cache read failed", zap.Error(err))
	} else {
		c.metrics.Observe("products", kit.ResultMiss)
	}

	list, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}

	c.fill(ctx, kv.KeyProducts, list)
	return list, nil
}

// fill is best-effort: a failed population only widens the staleness
// window, it never fails the read.
func (c *Cache) fill(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Error("cache encode failed", zap.Error(err), zap.String("key", key))
		return
	}
	if err := c.kv.Set(ctx, key, b, kv.TTLCatalog); err != nil {
		c.log.Warn("cache fill failed", zap.Error(err), zap.String("key", key))
	}
}

// Invalidate deletes both the per-product entry and the aggregate list.
// An error here means a mutation must not be reported as successful.
func (c *Cache) Invalidate(ctx context.Context, id int64) error {
	if err := c.kv.Del(ctx, kv.KeyProduct(id), kv.KeyProducts); err != nil {
		return fmt.Errorf("catalog cache invalidate: %w", err)
	}
	return nil
}

// InvalidateList deletes only the aggregate list key; used on create,
// where no per-product entry can exist yet.
func (c *Cache) InvalidateList(ctx context.Context) error {
	if err := c.kv.Del(ctx, kv.KeyProducts); err != nil {
		return fmt.Errorf("catalog cache invalidate: %w", err)
	}
	return nil
}
