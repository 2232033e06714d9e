package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// DateLayout is the wire format of delivery dates.
const DateLayout = "2006-01-02"

type Order struct {
	ID           int             `json:"id"`
	Reference    string          `json:"reference"`
	DeliveryDate time.Time       `json:"delivery_date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	Items        []OrderItem     `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
}

type OrderItem struct {
	ID          int             `json:"id"`
	OrderID     int             `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	PictureURL  string          `json:"picture_url"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderLine is what the storefront submits for each ordered cart item.
type OrderLine struct {
	ProductID  string          `json:"product_id" binding:"required"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity" binding:"required,gt=0"`
	PictureURL string          `json:"picture_url"`
}

type CreateOrderRequest struct {
	Reference    string      `json:"reference" binding:"required"`
	DeliveryDate string      `json:"delivery_date" binding:"required"`
	Items        []OrderLine `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ValidOrderStatus reports whether status is a known order status.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
