package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/prudhivi99/storefront/internal/models"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(database *PostgresDB) *ProductRepository {
	return &ProductRepository{db: database.Conn}
}

const productColumns = "id, name, picture_url, price, stock, created_at"

func scanProduct(row interface{ Scan(...any) error }, p *models.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.PictureURL, &p.Price, &p.Stock, &p.CreatedAt)
}

// GetAll returns all products
func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products ORDER BY name, id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// GetByID returns a single product, or nil when it does not exist.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	var p models.Product
	err := scanProduct(r.db.QueryRowContext(ctx, query, id), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	query := `
		INSERT INTO products (id, name, picture_url, price, stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns

	var p models.Product
	err := scanProduct(r.db.QueryRowContext(ctx, query, uuid.NewString(), req.Name, req.PictureURL, req.Price, req.Stock), &p)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &p, nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	return nil
}

// AdjustStock adds delta to the stock of a product. Stock never drops
// below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	query := "UPDATE products SET stock = GREATEST(stock + $1, 0) WHERE id = $2"

	result, err := r.db.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	return nil
}
