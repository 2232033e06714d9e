package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/prudhivi99/storefront/internal/models"
)

// Cache is the subset of the Redis cache the catalog needs.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// ProductStore is implemented by ProductRepository and its cached wrapper.
type ProductStore interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) error
}

type CachedProductRepository struct {
	repo   ProductStore
	cache  Cache
	group  singleflight.Group
	logger *zap.Logger
}

func NewCachedProductRepository(repo ProductStore, cache Cache, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Cache key helpers
func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func allProductsKey() string {
	return "products:all"
}

func (r *CachedProductRepository) logCacheError(err error) {
	if !errors.Is(err, redis.Nil) {
		r.logger.Warn("⚠️ Cache error", zap.Error(err))
	}
}

// GetAll returns all products (with caching). Concurrent misses share one
// database query.
func (r *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	cacheKey := allProductsKey()

	var products []models.Product
	err := r.cache.Get(ctx, cacheKey, &products)
	if err == nil {
		r.logger.Debug("📦 Cache HIT", zap.String("key", cacheKey))
		return products, nil
	}
	r.logCacheError(err)

	r.logger.Debug("💾 Cache MISS - fetching from DB", zap.String("key", cacheKey))
	v, err, _ := r.group.Do(cacheKey, func() (interface{}, error) {
		products, err := r.repo.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Set(ctx, cacheKey, products); err != nil {
			r.logger.Warn("⚠️ Failed to cache products", zap.Error(err))
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]models.Product), nil
}

// GetByID returns a single product (with caching)
func (r *CachedProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	cacheKey := productKey(id)

	var product models.Product
	err := r.cache.Get(ctx, cacheKey, &product)
	if err == nil {
		r.logger.Debug("📦 Cache HIT", zap.String("key", cacheKey))
		return &product, nil
	}
	r.logCacheError(err)

	r.logger.Debug("💾 Cache MISS - fetching from DB", zap.String("key", cacheKey))
	v, err, _ := r.group.Do(cacheKey, func() (interface{}, error) {
		p, err := r.repo.GetByID(ctx, id)
		if err != nil || p == nil {
			return p, err
		}
		if err := r.cache.Set(ctx, cacheKey, p); err != nil {
			r.logger.Warn("⚠️ Failed to cache product", zap.String("id", id), zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.Product), nil
}

// Create inserts a new product and invalidates cache
func (r *CachedProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	product, err := r.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, allProductsKey())
	return product, nil
}

// Delete removes a product and invalidates cache
func (r *CachedProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.invalidate(ctx, productKey(id), allProductsKey())
	return nil
}

// AdjustStock changes stock and invalidates cache
func (r *CachedProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	if err := r.repo.AdjustStock(ctx, id, delta); err != nil {
		return err
	}

	r.invalidate(ctx, productKey(id), allProductsKey())
	return nil
}

func (r *CachedProductRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("⚠️ Failed to invalidate cache", zap.Strings("keys", keys), zap.Error(err))
		return
	}
	r.logger.Debug("🗑️ Cache invalidated", zap.Strings("keys", keys))
}
