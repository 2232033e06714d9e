package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/prudhivi99/storefront/internal/models"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(database *PostgresDB) *CartRepository {
	return &CartRepository{db: database.Conn}
}

const cartItemQuery = `
	SELECT c.id, c.product_id, p.name, p.picture_url, p.price, c.quantity, c.created_at
	FROM cart_items c
	JOIN products p ON p.id = c.product_id`

func scanCartItem(row interface{ Scan(...any) error }, item *models.CartItem) error {
	return row.Scan(&item.ID, &item.ProductID, &item.Name, &item.PictureURL, &item.Price, &item.Quantity, &item.CreatedAt)
}

// GetAll returns the cart lines in the order they were added
func (r *CartRepository) GetAll(ctx context.Context) ([]models.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, cartItemQuery+" ORDER BY c.created_at, c.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := scanCartItem(rows, &item); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// Add puts one unit of a product in the cart. A product already in the
// cart gets its quantity incremented instead.
func (r *CartRepository) Add(ctx context.Context, productID string) (*models.CartItem, error) {
	query := `
		INSERT INTO cart_items (id, product_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (product_id) DO UPDATE SET quantity = cart_items.quantity + 1
		RETURNING id
	`

	var id string
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), productID).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	var item models.CartItem
	if err := scanCartItem(r.db.QueryRowContext(ctx, cartItemQuery+" WHERE c.id = $1", id), &item); err != nil {
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}

	return &item, nil
}

// UpdateQuantity sets the quantity of a cart line
func (r *CartRepository) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	result, err := r.db.ExecContext(ctx, "UPDATE cart_items SET quantity = $1 WHERE id = $2", quantity, id)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("cart item %s: %w", id, ErrNotFound)
	}

	return nil
}

// Delete removes the given cart lines. Unknown ids are ignored.
func (r *CartRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete cart items: %w", err)
	}

	return result.RowsAffected()
}

// DeleteExactly removes the given cart lines in one transaction, or none of
// them if any id is missing.
func (r *CartRepository) DeleteExactly(ctx context.Context, ids []string) error {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected != int64(len(unique)) {
		return fmt.Errorf("deleted %d of %d cart items: %w", rowsAffected, len(unique), ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
