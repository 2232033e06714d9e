package db

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/models"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type countingStore struct {
	products  map[string]models.Product
	getAll    atomic.Int32
	getByID   atomic.Int32
	delay     time.Duration
	adjusted  map[string]int
	deleteErr error
}

func newCountingStore(products ...models.Product) *countingStore {
	s := &countingStore{products: make(map[string]models.Product), adjusted: make(map[string]int)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *countingStore) GetAll(context.Context) ([]models.Product, error) {
	s.getAll.Add(1)
	time.Sleep(s.delay)
	var out []models.Product
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *countingStore) GetByID(_ context.Context, id string) (*models.Product, error) {
	s.getByID.Add(1)
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *countingStore) Create(_ context.Context, req models.CreateProductRequest) (*models.Product, error) {
	p := models.Product{ID: "new", Name: req.Name, Price: req.Price, Stock: req.Stock}
	s.products[p.ID] = p
	return &p, nil
}

func (s *countingStore) Delete(_ context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.products, id)
	return nil
}

func (s *countingStore) AdjustStock(_ context.Context, id string, delta int) error {
	s.adjusted[id] += delta
	return nil
}

func bike() models.Product {
	return models.Product{ID: "p1", Name: "Volt X1", Price: decimal.NewFromInt(1200), Stock: 4}
}

func TestCachedProductRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore(bike())
	cache := newMemoryCache()
	repo := NewCachedProductRepository(store, cache, zap.NewNop())

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Volt X1", p.Name)

	p, err = repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, int32(1), store.getByID.Load(), "second read should hit the cache")
}

func TestCachedProductRepository_GetByIDMissing(t *testing.T) {
	repo := NewCachedProductRepository(newCountingStore(), newMemoryCache(), zap.NewNop())

	p, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCachedProductRepository_GetAllCollapsesConcurrentMisses(t *testing.T) {
	store := newCountingStore(bike())
	store.delay = 100 * time.Millisecond
	repo := NewCachedProductRepository(store, newMemoryCache(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := repo.GetAll(context.Background())
			assert.NoError(t, err)
			assert.Len(t, products, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), store.getAll.Load())
}

func TestCachedProductRepository_MutationsInvalidate(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore(bike())
	cache := newMemoryCache()
	repo := NewCachedProductRepository(store, cache, zap.NewNop())

	_, err := repo.GetAll(ctx)
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.True(t, cache.has(allProductsKey()))
	require.True(t, cache.has(productKey("p1")))

	require.NoError(t, repo.AdjustStock(ctx, "p1", -2))
	assert.False(t, cache.has(allProductsKey()))
	assert.False(t, cache.has(productKey("p1")))
	assert.Equal(t, -2, store.adjusted["p1"])

	_, err = repo.GetAll(ctx)
	require.NoError(t, err)
	_, err = repo.Create(ctx, models.CreateProductRequest{Name: "Trail 2", Price: decimal.NewFromInt(900)})
	require.NoError(t, err)
	assert.False(t, cache.has(allProductsKey()))
}

func TestCachedProductRepository_DeleteErrorKeepsCache(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore(bike())
	store.deleteErr = errors.New("boom")
	cache := newMemoryCache()
	repo := NewCachedProductRepository(store, cache, zap.NewNop())

	_, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)

	err = repo.Delete(ctx, "p1")
	assert.EqualError(t, err, "boom")
	assert.True(t, cache.has(productKey("p1")))
}
