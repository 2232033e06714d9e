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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/config"
	"github.com/prudhivi99/storefront/internal/discovery"
	"github.com/prudhivi99/storefront/internal/gateway"
	"github.com/prudhivi99/storefront/internal/handlers"
	"github.com/prudhivi99/storefront/internal/logging"
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

	var discoverer gateway.Discoverer
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort, logger)
	if err != nil {
		logger.Warn("⚠️ Failed to connect to Consul, using static URLs", zap.Error(err))
	} else {
		discoverer = consul
	}

	gw := gateway.New(discoverer, map[string]string{
		gateway.CartService:  cfg.CartServiceURL,
		gateway.OrderService: cfg.OrderServiceURL,
	}, logger)
	go gw.Watch(ctx, 10*time.Second)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gateway.NewRouter(gw, cfg.CORSOrigins, handlers.RequestLogger(logger))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.GatewayPort),
		Handler: router,
	}

	go func() {
		logger.Info("🚀 API Gateway starting", zap.Int("port", cfg.GatewayPort))
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
