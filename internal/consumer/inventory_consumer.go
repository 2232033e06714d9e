package consumer

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/models"
)

// StockAdjuster changes the stock of one product by delta.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, productID string, delta int) error
}

type InventoryConsumer struct {
	repo   StockAdjuster
	logger *zap.Logger
}

func NewInventoryConsumer(repo StockAdjuster, logger *zap.Logger) *InventoryConsumer {
	return &InventoryConsumer{repo: repo, logger: logger}
}

// orderItemsEvent covers both order.created and order.cancelled payloads.
type orderItemsEvent struct {
	OrderID int                     `json:"order_id"`
	Items   []models.OrderItemEvent `json:"items"`
}

// ProcessOrderCreated reduces stock for every order.created event until
// messages is closed or ctx is done.
func (c *InventoryConsumer) ProcessOrderCreated(ctx context.Context, messages <-chan amqp.Delivery) {
	c.process(ctx, messages, "order.created", -1)
}

// ProcessOrderCancelled returns stock for every order.cancelled event.
func (c *InventoryConsumer) ProcessOrderCancelled(ctx context.Context, messages <-chan amqp.Delivery) {
	c.process(ctx, messages, "order.cancelled", 1)
}

func (c *InventoryConsumer) process(ctx context.Context, messages <-chan amqp.Delivery, queue string, sign int) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.handle(ctx, msg, queue, sign)
		}
	}
}

func (c *InventoryConsumer) handle(ctx context.Context, msg amqp.Delivery, queue string, sign int) {
	log := c.logger.With(zap.String("queue", queue))
	log.Debug("📥 Received event")

	var event orderItemsEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Error("❌ Failed to parse event", zap.Error(err))
		msg.Nack(false, false) // Don't requeue bad messages
		return
	}

	log = log.With(zap.Int("order_id", event.OrderID))

	// Apply every item or none: already applied items are reverted before
	// the message is requeued, so a retry does not double count.
	var applied []models.OrderItemEvent
	for _, item := range event.Items {
		if err := c.repo.AdjustStock(ctx, item.ProductID, sign*item.Quantity); err != nil {
			log.Error("❌ Failed to update inventory", zap.String("product_id", item.ProductID), zap.Error(err))
			c.revert(ctx, log, applied, sign)
			msg.Nack(false, true)
			log.Warn("⚠️ Order partially failed, requeued")
			return
		}
		applied = append(applied, item)
	}

	msg.Ack(false)
	log.Info("✅ Inventory updated", zap.Int("items", len(applied)))
}

func (c *InventoryConsumer) revert(ctx context.Context, log *zap.Logger, applied []models.OrderItemEvent, sign int) {
	for _, item := range applied {
		if err := c.repo.AdjustStock(ctx, item.ProductID, -sign*item.Quantity); err != nil {
			log.Error("❌ Failed to revert inventory", zap.String("product_id", item.ProductID), zap.Error(err))
		}
	}
}
