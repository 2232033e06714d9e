package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhivi99/storefront/internal/models"
)

// openTestDB connects to STOREFRONT_TEST_DSN. The tests are skipped when it
// is unset.
func openTestDB(t *testing.T) *PostgresDB {
	t.Helper()

	dsn := os.Getenv("STOREFRONT_TEST_DSN")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DSN not set")
	}

	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	database := &PostgresDB{Conn: conn}
	require.NoError(t, Migrate(context.Background(), database))
	return database
}

func TestCartRepository_Integration(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	products := NewProductRepository(database)
	cart := NewCartRepository(database)

	product, err := products.Create(ctx, models.CreateProductRequest{
		Name:  "Integration " + uuid.NewString(),
		Price: decimal.RequireFromString("19.99"),
		Stock: 3,
	})
	require.NoError(t, err)
	t.Cleanup(func() { products.Delete(context.Background(), product.ID) })

	first, err := cart.Add(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)

	second, err := cart.Add(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)
	assert.True(t, second.Price.Equal(decimal.RequireFromString("19.99")))

	require.NoError(t, cart.UpdateQuantity(ctx, first.ID, 5))

	err = cart.DeleteExactly(ctx, []string{first.ID, "missing"})
	assert.True(t, errors.Is(err, ErrNotFound))

	items, err := cart.GetAll(ctx)
	require.NoError(t, err)
	var found bool
	for _, item := range items {
		if item.ID == first.ID {
			found = true
			assert.Equal(t, 5, item.Quantity)
		}
	}
	assert.True(t, found, "strict delete must not remove anything when an id is missing")

	require.NoError(t, cart.DeleteExactly(ctx, []string{first.ID}))

	_, err = cart.Add(ctx, "no-such-product")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOrderRepository_Integration(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	orders := NewOrderRepository(database)

	order := &models.Order{
		Reference:    uuid.NewString(),
		DeliveryDate: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		TotalAmount:  decimal.RequireFromString("40.00"),
		Status:       models.OrderStatusPending,
		Items: []models.OrderItem{
			{ProductID: "p1", ProductName: "Volt X1", Quantity: 2, Price: decimal.NewFromInt(20)},
		},
	}
	require.NoError(t, orders.Create(ctx, order))
	assert.NotZero(t, order.ID)

	loaded, err := orders.GetByReference(ctx, order.Reference)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, order.ID, loaded.ID)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)

	require.NoError(t, orders.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled))
	err = orders.UpdateStatus(ctx, -1, models.OrderStatusCancelled)
	assert.True(t, errors.Is(err, ErrNotFound))

	missing, err := orders.GetByID(ctx, -1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
