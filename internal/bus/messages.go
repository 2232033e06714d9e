package bus

import "github.com/prudhivi99/storefront/internal/models"

// Channel names a page-scoped topic.
type Channel string

const (
	ChannelCartUpdate      Channel = "cart-update"
	ChannelCheckout        Channel = "checkout"
	ChannelProductSelected Channel = "product-selected"
)

// Message is one of the typed variants below.
type Message interface {
	Channel() Channel
}

// CartUpdated asks cart views to re-read the cart.
type CartUpdated struct{}

func (CartUpdated) Channel() Channel { return ChannelCartUpdate }

// CheckoutRequested carries the frozen selection to finalize.
type CheckoutRequested struct {
	SelectedProducts []models.CartItem
}

func (CheckoutRequested) Channel() Channel { return ChannelCheckout }

// ProductSelected tells product cards which product to show.
type ProductSelected struct {
	ProductID string
}

func (ProductSelected) Channel() Channel { return ChannelProductSelected }

// cloneMessage gives each subscriber its own copy of slice payloads.
func cloneMessage(msg Message) Message {
	if m, ok := msg.(CheckoutRequested); ok {
		m.SelectedProducts = append([]models.CartItem(nil), m.SelectedProducts...)
		return m
	}
	return msg
}
