package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/cache"
	"github.com/prudhivi99/storefront/internal/config"
	"github.com/prudhivi99/storefront/internal/consumer"
	"github.com/prudhivi99/storefront/internal/db"
	"github.com/prudhivi99/storefront/internal/discovery"
	"github.com/prudhivi99/storefront/internal/handlers"
	"github.com/prudhivi99/storefront/internal/logging"
	"github.com/prudhivi99/storefront/internal/messaging"
	"github.com/prudhivi99/storefront/internal/publisher"
)

const (
	serviceName = "cart-service"
	serviceID   = "cart-service-1"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(ctx, cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	// Connect to Redis
	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisHost, cfg.RedisPort, cfg.CacheTTL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	// Entries from a previous run may describe rows that no longer exist.
	if err := redisCache.DeleteByPattern(ctx, "product*"); err != nil {
		logger.Warn("⚠️ Failed to clear catalog cache", zap.Error(err))
	}

	// Connect to RabbitMQ
	rabbitMQ, err := messaging.NewRabbitMQ(messaging.Options{
		Host:     cfg.RabbitMQHost,
		Port:     cfg.RabbitMQPort,
		User:     cfg.RabbitMQUser,
		Password: cfg.RabbitMQPassword,
		Prefetch: cfg.RabbitMQPrefetch,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitMQ.Close()

	// Consul is optional; the gateway falls back to static URLs.
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort, logger)
	if err != nil {
		logger.Warn("⚠️ Consul unavailable, not registering", zap.Error(err))
	} else {
		err = consul.Register(discovery.ServiceConfig{
			Name:    serviceName,
			ID:      serviceID,
			Address: cfg.AdvertiseAddress,
			Port:    cfg.CartServicePort,
			Tags:    []string{"api", "products", "cart"},
		})
		if err != nil {
			logger.Fatal("Failed to register service", zap.Error(err))
		}
		defer consul.Deregister(serviceID)
	}

	productRepo := db.NewProductRepository(database)
	cachedRepo := db.NewCachedProductRepository(productRepo, redisCache, logger)
	cartRepo := db.NewCartRepository(database)

	if err := startInventoryConsumers(ctx, rabbitMQ, cachedRepo, logger); err != nil {
		logger.Fatal("Failed to start inventory consumer", zap.Error(err))
	}

	router := handlers.NewEngine(cfg.Env, logger)
	handlers.RegisterProductRoutes(router, handlers.NewProductHandler(cachedRepo, logger))
	handlers.RegisterCartRoutes(router, handlers.NewCartHandler(cartRepo, logger))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.CartServicePort),
		Handler: router,
	}

	go func() {
		logger.Info("🚀 Service starting", zap.String("service", serviceName), zap.Int("port", cfg.CartServicePort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// startInventoryConsumers keeps stock in line with order.created and
// order.cancelled events.
func startInventoryConsumers(ctx context.Context, mq *messaging.RabbitMQ, repo consumer.StockAdjuster, logger *zap.Logger) error {
	inventory := consumer.NewInventoryConsumer(repo, logger)

	for queue, process := range map[string]func(context.Context, <-chan amqp.Delivery){
		publisher.OrderCreatedQueue:   inventory.ProcessOrderCreated,
		publisher.OrderCancelledQueue: inventory.ProcessOrderCancelled,
	} {
		if err := mq.DeclareQueue(queue); err != nil {
			return fmt.Errorf("declare %s: %w", queue, err)
		}
		messages, err := mq.Consume(queue)
		if err != nil {
			return fmt.Errorf("consume %s: %w", queue, err)
		}
		go process(ctx, messages)
	}
	return nil
}
