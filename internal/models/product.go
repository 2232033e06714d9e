package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is the quantity on hand.
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PictureURL string          `json:"picture_url"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	CreatedAt  time.Time       `json:"created_at"`
}

type CreateProductRequest struct {
	Name       string          `json:"name" binding:"required"`
	PictureURL string          `json:"picture_url"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
}
