package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/pkg/cache"
	"github.com/farmchain/farmchain/pkg/logger"
	"github.com/farmchain/farmchain/pkg/metrics"
	"github.com/farmchain/farmchain/pkg/orm"
	"github.com/shopspring/decimal"
)

// CachedProductRepository serves single-product reads from a cache and
// invalidates on every write that can change a product row.
type CachedProductRepository struct {
	ProductRepository
	store cache.Store
	ttl   time.Duration
}

func NewCachedProductRepository(inner ProductRepository, store cache.Store, ttl time.Duration) *CachedProductRepository {
	return &CachedProductRepository{ProductRepository: inner, store: store, ttl: ttl}
}

func productKey(id uint) string { return fmt.Sprintf("product:%d", id) }

func (c *CachedProductRepository) Find(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if c.store.Get(ctx, productKey(id), &p) {
		metrics.CacheHits.WithLabelValues("product").Inc()
		return &p, nil
	}
	metrics.CacheMisses.WithLabelValues("product").Inc()

	found, err := c.ProductRepository.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, productKey(id), found, c.ttl); err != nil {
		logger.WithCtx(ctx).Warn("product cache set failed", "product_id", id, "error", err)
	}
	return found, nil
}

func (c *CachedProductRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Product, error) {
	p, err := c.ProductRepository.Update(ctx, id, fields)
	c.Invalidate(ctx, id)
	return p, err
}

func (c *CachedProductRepository) Delete(ctx context.Context, id uint) error {
	err := c.ProductRepository.Delete(ctx, id)
	if err == nil || errors.Is(err, ErrNotFound) {
		c.Invalidate(ctx, id)
	}
	return err
}

func (c *CachedProductRepository) DecrementStock(ctx context.Context, id uint, qty decimal.Decimal) (bool, error) {
	ok, err := c.ProductRepository.DecrementStock(ctx, id, qty)
	c.Invalidate(ctx, id)
	return ok, err
}

func (c *CachedProductRepository) RestoreStock(ctx context.Context, id uint, qty decimal.Decimal) error {
	err := c.ProductRepository.RestoreStock(ctx, id, qty)
	c.Invalidate(ctx, id)
	return err
}

func (c *CachedProductRepository) ReconcileStock(ctx context.Context) ([]uint, error) {
	ids, err := c.ProductRepository.ReconcileStock(ctx)
	c.Invalidate(ctx, ids...)
	return ids, err
}

// WithTx bypasses the cache entirely; callers invalidate after commit.
func (c *CachedProductRepository) WithTx(tx *orm.Query) ProductRepository {
	return c.ProductRepository.WithTx(tx)
}

func (c *CachedProductRepository) Invalidate(ctx context.Context, ids ...uint) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		logger.WithCtx(ctx).Warn("product cache invalidate failed", "ids", ids, "error", err)
	}
}
