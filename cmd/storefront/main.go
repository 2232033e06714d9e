package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/bus"
	"github.com/prudhivi99/storefront/internal/client"
	"github.com/prudhivi99/storefront/internal/config"
	"github.com/prudhivi99/storefront/internal/logging"
	"github.com/prudhivi99/storefront/internal/storefront"
)

func main() {
	cfg := config.Load()

	gatewayURL := flag.String("gateway", cfg.GatewayURL, "api-gateway base URL")
	flag.Parse()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	remote := client.NewStorefrontClient(*gatewayURL, cfg.RequestTimeout)
	p := newPage(remote, cfg, logger, &terminalNotifier{out: os.Stdout})

	logger.Info("🛒 Storefront connected", zap.String("gateway", *gatewayURL))
	if err := p.run(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Fatal("Storefront stopped", zap.Error(err))
	}
}

// page is one storefront screen: its bus, store and components.
type page struct {
	bus   *bus.Bus
	store *storefront.Store
	card  *storefront.ProductCard
	cart  *storefront.ShoppingCart
	order *storefront.Order
}

func newPage(remote storefront.Remote, cfg *config.Config, logger *zap.Logger, notifier storefront.Notifier) *page {
	b := bus.New(logger)
	store := storefront.NewStore()
	finalizer := storefront.NewFinalizer(remote, storefront.DefaultFinalizePolicy(), logger, cfg.RequestTimeout)

	return &page{
		bus:   b,
		store: store,
		card:  storefront.NewProductCard(remote, b, notifier, logger, cfg.RequestTimeout),
		cart: storefront.NewShoppingCart(remote, b, store, notifier, logger, storefront.CartOptions{
			QuantityDebounce: cfg.QuantityDebounce,
			RequestTimeout:   cfg.RequestTimeout,
			Policies:         storefront.DefaultPolicies(),
		}),
		order: storefront.NewOrder(b, store, finalizer, notifier, logger),
	}
}
