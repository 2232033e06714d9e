package models

import "github.com/shopspring/decimal"

// OrderCreatedEvent is published when a new order is created
type OrderCreatedEvent struct {
	OrderID     int              `json:"order_id"`
	Reference   string           `json:"reference"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Items       []OrderItemEvent `json:"items"`
}

// OrderCancelledEvent is published when an order moves to cancelled, so
// reserved stock can be returned.
type OrderCancelledEvent struct {
	OrderID   int              `json:"order_id"`
	Reference string           `json:"reference"`
	Items     []OrderItemEvent `json:"items"`
}

type OrderItemEvent struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
