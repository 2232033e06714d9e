package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prudhivi99/storefront/internal/models"
)

const (
	OrderCreatedQueue   = "order.created"
	OrderCancelledQueue = "order.cancelled"
)

// Broker is the part of messaging.RabbitMQ the publisher uses.
type Broker interface {
	DeclareQueue(name string) error
	Publish(ctx context.Context, queue string, message []byte) error
}

type OrderPublisher struct {
	mq Broker
}

func NewOrderPublisher(mq Broker) (*OrderPublisher, error) {
	for _, queue := range []string{OrderCreatedQueue, OrderCancelledQueue} {
		if err := mq.DeclareQueue(queue); err != nil {
			return nil, err
		}
	}

	return &OrderPublisher{mq: mq}, nil
}

// PublishOrderCreated publishes an order.created event
func (p *OrderPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	event := models.OrderCreatedEvent{
		OrderID:     order.ID,
		Reference:   order.Reference,
		TotalAmount: order.TotalAmount,
		Items:       itemEvents(order),
	}

	return p.publish(ctx, OrderCreatedQueue, event)
}

// PublishOrderCancelled publishes an order.cancelled event
func (p *OrderPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order) error {
	event := models.OrderCancelledEvent{
		OrderID:   order.ID,
		Reference: order.Reference,
		Items:     itemEvents(order),
	}

	return p.publish(ctx, OrderCancelledQueue, event)
}

func itemEvents(order *models.Order) []models.OrderItemEvent {
	events := make([]models.OrderItemEvent, 0, len(order.Items))
	for _, item := range order.Items {
		events = append(events, models.OrderItemEvent{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return events
}

func (p *OrderPublisher) publish(ctx context.Context, queue string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(ctx, queue, data)
}
