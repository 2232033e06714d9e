package storefront

import (
	"context"

	"github.com/prudhivi99/storefront/internal/models"
)

// Remote is the service boundary the view-models call. Every method fails
// with an error whose message is fit to show to the user.
type Remote interface {
	FetchProducts(ctx context.Context) ([]models.CartItem, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	AddToCart(ctx context.Context, productID string) error
	UpdateQuantity(ctx context.Context, item models.CartItem) error
	DeleteProducts(ctx context.Context, ids []string) error
	DeleteSelectedProducts(ctx context.Context, ids []string) error
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID int) error
}
