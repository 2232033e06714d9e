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

	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/client"
	"github.com/prudhivi99/storefront/internal/config"
	"github.com/prudhivi99/storefront/internal/db"
	"github.com/prudhivi99/storefront/internal/discovery"
	"github.com/prudhivi99/storefront/internal/handlers"
	"github.com/prudhivi99/storefront/internal/logging"
	"github.com/prudhivi99/storefront/internal/messaging"
	"github.com/prudhivi99/storefront/internal/publisher"
)

const (
	serviceName = "order-service"
	serviceID   = "order-service-1"
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

	orderPublisher, err := publisher.NewOrderPublisher(rabbitMQ)
	if err != nil {
		logger.Fatal("Failed to create publisher", zap.Error(err))
	}

	// Find cart-service through Consul when it is there
	cartURL := cfg.CartServiceURL
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort, logger)
	if err != nil {
		logger.Warn("⚠️ Consul unavailable, using static cart-service URL", zap.String("url", cartURL), zap.Error(err))
	} else {
		if found, err := consul.GetServiceURL("cart-service"); err == nil {
			cartURL = found
		}
		err = consul.Register(discovery.ServiceConfig{
			Name:    serviceName,
			ID:      serviceID,
			Address: cfg.AdvertiseAddress,
			Port:    cfg.OrderServicePort,
			Tags:    []string{"api", "orders"},
		})
		if err != nil {
			logger.Fatal("Failed to register service", zap.Error(err))
		}
		defer consul.Deregister(serviceID)
	}

	productClient := client.NewProductClient(cartURL)
	orderRepo := db.NewOrderRepository(database)

	router := handlers.NewEngine(cfg.Env, logger)
	handlers.RegisterOrderRoutes(router, handlers.NewOrderHandler(orderRepo, productClient, orderPublisher, logger))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.OrderServicePort),
		Handler: router,
	}

	go func() {
		logger.Info("🚀 Service starting", zap.String("service", serviceName),
			zap.Int("port", cfg.OrderServicePort), zap.String("cart_service", cartURL))
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
