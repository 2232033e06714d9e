package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/bus"
	"github.com/prudhivi99/storefront/internal/models"
)

var ErrNoProductSelected = errors.New("no product selected")

// ProductCard shows the selected product and adds it to the cart.
type ProductCard struct {
	remote   Remote
	bus      *bus.Bus
	notifier Notifier
	logger   *zap.Logger
	timeout  time.Duration

	mu        sync.Mutex
	productID string
	product   *models.Product
	sub       *bus.Subscription
}

func NewProductCard(remote Remote, b *bus.Bus, notifier Notifier, logger *zap.Logger, timeout time.Duration) *ProductCard {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProductCard{remote: remote, bus: b, notifier: notifier, logger: logger, timeout: timeout}
}

func (p *ProductCard) Attach(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub != nil {
		return
	}
	p.sub = bus.On(p.bus, func(ctx context.Context, msg bus.ProductSelected) {
		_ = p.Select(ctx, msg.ProductID)
	})
}

func (p *ProductCard) Detach() {
	p.mu.Lock()
	sub := p.sub
	p.sub = nil
	p.mu.Unlock()
	sub.Unsubscribe()
}

// Select makes productID the card's product and loads it for display.
func (p *ProductCard) Select(ctx context.Context, productID string) error {
	p.mu.Lock()
	p.productID = productID
	p.product = nil
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	product, err := p.remote.GetProduct(ctx, productID)
	if err != nil {
		p.logger.Error("❌ Failed to load product", zap.String("product_id", productID), zap.Error(err))
		notifyError(p.notifier, "Error loading product", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// A later selection wins.
	if p.productID == productID {
		p.product = product
	}
	return nil
}

func (p *ProductCard) ProductID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.productID
}

// Product returns the loaded product, or nil.
func (p *ProductCard) Product() *models.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.product == nil {
		return nil
	}
	cp := *p.product
	return &cp
}

// FormattedMSRP is the price in whole dollars.
func (p *ProductCard) FormattedMSRP() string {
	product := p.Product()
	if product == nil {
		return ""
	}
	return FormatPrice(product.Price, 0)
}

// AddToCart adds one unit of the product and, once the server accepts it,
// tells the cart to refresh.
func (p *ProductCard) AddToCart(ctx context.Context) error {
	productID := p.ProductID()
	if productID == "" {
		return ErrNoProductSelected
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.remote.AddToCart(callCtx, productID)
	cancel()
	if err != nil {
		p.logger.Error("❌ Failed to add to cart", zap.String("product_id", productID), zap.Error(err))
		notifyError(p.notifier, "Error adding product to cart", err)
		return err
	}

	p.logger.Info("✅ Added to cart", zap.String("product_id", productID))
	notifySuccess(p.notifier, "Success", "Product added to cart")
	p.bus.Publish(ctx, bus.CartUpdated{})
	return nil
}
