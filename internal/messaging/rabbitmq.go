package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeadLetterSuffix names the queue that collects rejected order events.
const DeadLetterSuffix = ".dead"

type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	// Prefetch caps unacknowledged deliveries per consumer. Zero means 10.
	Prefetch int
}

// URL escapes the credentials so passwords may contain '@' or '/'.
func (o Options) URL() string {
	return amqp.URI{
		Scheme:   "amqp",
		Host:     o.Host,
		Port:     o.Port,
		Username: o.User,
		Password: o.Password,
		Vhost:    "/",
	}.String()
}

// RabbitMQ carries order events between the order and cart services.
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	prefetch int
	logger   *zap.Logger
}

func NewRabbitMQ(opts Options, logger *zap.Logger) (*RabbitMQ, error) {
	if opts.Prefetch <= 0 {
		opts.Prefetch = 10
	}

	conn, err := amqp.Dial(opts.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	logger.Info("✅ Connected to RabbitMQ", zap.String("host", opts.Host), zap.Int("port", opts.Port))

	return &RabbitMQ{
		conn:     conn,
		channel:  channel,
		prefetch: opts.Prefetch,
		logger:   logger,
	}, nil
}

// queueArgs routes rejected messages on name to its dead-letter queue.
func queueArgs(name string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": name + DeadLetterSuffix,
	}
}

// DeclareQueue declares a durable event queue and its dead-letter queue.
func (r *RabbitMQ) DeclareQueue(name string) error {
	if _, err := r.channel.QueueDeclare(name+DeadLetterSuffix, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead-letter queue for %s: %w", name, err)
	}
	if _, err := r.channel.QueueDeclare(name, true, false, false, false, queueArgs(name)); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}

	r.logger.Info("✅ Queue declared", zap.String("queue", name))
	return nil
}

func eventPublishing(message []byte, now time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now.UTC(),
		Body:         message,
	}
}

// Publish sends a persistent JSON event straight to queue.
func (r *RabbitMQ) Publish(ctx context.Context, queue string, message []byte) error {
	msg := eventPublishing(message, time.Now())
	if err := r.channel.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}

	r.logger.Debug("📤 Event published", zap.String("queue", queue), zap.String("message_id", msg.MessageId))
	return nil
}

// Consume delivers events from queue; the caller acks or nacks each one.
func (r *RabbitMQ) Consume(queue string) (<-chan amqp.Delivery, error) {
	if err := r.channel.Qos(r.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	messages, err := r.channel.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to consume %s: %w", queue, err)
	}

	r.logger.Info("👂 Listening on queue", zap.String("queue", queue), zap.Int("prefetch", r.prefetch))
	return messages, nil
}

func (r *RabbitMQ) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
