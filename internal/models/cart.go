package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the shopping cart, joined with its product.
type CartItem struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	PictureURL string          `json:"picture_url"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Subtotal is price × quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type DeleteItemsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}
