package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/bus"
	"github.com/prudhivi99/storefront/internal/models"
)

func attachedPage(t *testing.T, policies Policies, items ...models.CartItem) *page {
	t.Helper()
	p := newPage(newFakeRemote(items...), policies)
	require.NoError(t, p.attach(context.Background()))
	return p
}

func TestCartAttachLoadsItems(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2), cartItem("b", "5.25", 1))

	v := p.cart.View()
	require.Len(t, v.Items, 2)
	assert.False(t, v.Empty)
	assert.Equal(t, "$10.00", v.Items[0].FormattedPrice)
	assert.Equal(t, Unchecked, v.SelectAll)
	assert.True(t, v.Total.Equal(decimal.Zero))
	assert.Equal(t, 1, p.bus.SubscriberCount(bus.ChannelCartUpdate))
}

func TestCartRefreshFailureKeepsState(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2))
	p.remote.fetchErr = &userError{msg: "database down"}

	err := p.cart.Refresh(context.Background())

	require.Error(t, err)
	assert.Len(t, p.cart.View().Items, 1)
	assert.Equal(t, Notification{Title: "Error Fetching Products", Message: "database down", Variant: VariantError}, p.notifier.last())
}

func TestCartEmpty(t *testing.T) {
	p := attachedPage(t, DefaultPolicies())

	v := p.cart.View()
	assert.True(t, v.Empty)
	assert.Equal(t, Unchecked, v.SelectAll)
}

func TestCartTriStateCheckbox(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2), cartItem("b", "5.25", 1))

	require.NoError(t, p.cart.ToggleOne("a"))
	v := p.cart.View()
	assert.Equal(t, Indeterminate, v.SelectAll)
	assert.Equal(t, rowClassSelected, v.Items[0].RowClass)
	assert.Equal(t, rowClassBase, v.Items[1].RowClass)
	assert.Equal(t, "20", v.Total.String())

	require.NoError(t, p.cart.ToggleOne("b"))
	v = p.cart.View()
	assert.Equal(t, Checked, v.SelectAll)
	assert.Equal(t, "25.25", v.Total.String())

	p.cart.SelectAll(false)
	v = p.cart.View()
	assert.Equal(t, Unchecked, v.SelectAll)
	assert.Empty(t, v.Selected)
	assert.True(t, v.Total.IsZero())

	p.cart.SelectAll(true)
	assert.Equal(t, Checked, p.cart.View().SelectAll)
}

func TestCartToggleUnknownItem(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2))

	assert.ErrorIs(t, p.cart.ToggleOne("nope"), ErrUnknownItem)
}

func TestCartTotalRoundsToCents(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "0.335", 3), cartItem("b", "0.10", 1))

	p.cart.SelectAll(true)

	// 1.005 + 0.10
	assert.Equal(t, "1.11", p.cart.View().Total.StringFixed(2))
}

func TestCartDeleteSelectedConfirmed(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2), cartItem("b", "5.25", 1), cartItem("c", "1.00", 1))
	require.NoError(t, p.cart.ToggleOne("a"))
	require.NoError(t, p.cart.ToggleOne("c"))

	require.NoError(t, p.cart.DeleteSelected(context.Background()))

	v := p.cart.View()
	require.Len(t, v.Items, 1)
	assert.Equal(t, "b", v.Items[0].ID)
	assert.Empty(t, v.Selected)
	assert.True(t, v.Total.IsZero())
	assert.Equal(t, [][]string{{"a", "c"}}, p.remote.deleted)
	assert.Equal(t, "Selected products have been deleted.", p.notifier.last().Message)
}

func TestCartDeleteSelectedFailureConfirmed(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2), cartItem("b", "5.25", 1))
	require.NoError(t, p.cart.ToggleOne("a"))
	p.remote.deleteErr = &userError{msg: "cannot delete"}

	var versions []uint64
	p.store.Subscribe(func(v uint64, _ []Item) { versions = append(versions, v) })

	require.Error(t, p.cart.DeleteSelected(context.Background()))

	v := p.cart.View()
	assert.Len(t, v.Items, 2)
	assert.Equal(t, "20", v.Total.String())
	assert.Empty(t, versions, "confirmed delete must not touch the store on failure")
	assert.Equal(t, Notification{Title: "Error Deleting Products", Message: "cannot delete", Variant: VariantError}, p.notifier.last())
}

func TestCartDeleteSelectedFailureOptimisticRestores(t *testing.T) {
	p := attachedPage(t, Policies{Quantity: Optimistic, Delete: Optimistic}, cartItem("a", "10.00", 2), cartItem("b", "5.25", 1))
	require.NoError(t, p.cart.ToggleOne("a"))
	p.remote.deleteErr = &userError{msg: "cannot delete"}

	var sizes []int
	p.store.Subscribe(func(_ uint64, items []Item) { sizes = append(sizes, len(items)) })

	require.Error(t, p.cart.DeleteSelected(context.Background()))

	assert.Equal(t, []int{1, 2}, sizes)
	v := p.cart.View()
	assert.Len(t, v.Items, 2)
	assert.Equal(t, Indeterminate, v.SelectAll)
}

func TestCartDeleteNothingSelected(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2))

	require.NoError(t, p.cart.DeleteSelected(context.Background()))
	assert.Empty(t, p.remote.deleted)
}

func TestCartChangeQuantityOptimistic(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2), cartItem("b", "5.25", 1))
	p.cart.SelectAll(true)

	require.NoError(t, p.cart.ChangeQuantity("a", 3))
	require.NoError(t, p.cart.ChangeQuantity("a", 4))

	v := p.cart.View()
	assert.Equal(t, 4, v.Items[0].Quantity)
	assert.Equal(t, "45.25", v.Total.String())
	assert.Empty(t, p.remote.updates, "update waits for the debounce")

	p.cart.FlushQuantity()

	require.Len(t, p.remote.updates, 1)
	assert.Equal(t, 4, p.remote.updates[0].Quantity)
	assert.Equal(t, "Quantity updated successfully.", p.notifier.last().Message)
}

func TestCartChangeQuantityOtherItemFlushesPending(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2), cartItem("b", "5.25", 1))

	require.NoError(t, p.cart.ChangeQuantity("a", 5))
	require.NoError(t, p.cart.ChangeQuantity("b", 7))

	require.Len(t, p.remote.updates, 1)
	assert.Equal(t, "a", p.remote.updates[0].ID)

	p.cart.Detach()

	require.Len(t, p.remote.updates, 2)
	assert.Equal(t, "b", p.remote.updates[1].ID)
	assert.Equal(t, 7, p.remote.updates[1].Quantity)
}

func TestCartChangeQuantityConfirmed(t *testing.T) {
	p := attachedPage(t, Policies{Quantity: Confirmed, Delete: Confirmed}, cartItem("a", "10.00", 2))

	require.NoError(t, p.cart.ChangeQuantity("a", 6))
	assert.Equal(t, 2, p.cart.View().Items[0].Quantity)

	p.cart.FlushQuantity()
	assert.Equal(t, 6, p.cart.View().Items[0].Quantity)

	p.remote.updateErr = &userError{msg: "out of stock"}
	require.NoError(t, p.cart.ChangeQuantity("a", 9))
	p.cart.FlushQuantity()

	assert.Equal(t, 6, p.cart.View().Items[0].Quantity)
	assert.Equal(t, Notification{Title: "Error Updating Quantity", Message: "out of stock", Variant: VariantError}, p.notifier.last())
}

func TestCartChangeQuantityValidation(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2))

	assert.ErrorIs(t, p.cart.ChangeQuantity("a", -1), ErrInvalidQuantity)
	assert.ErrorIs(t, p.cart.ChangeQuantity("zzz", 1), ErrUnknownItem)
	assert.NoError(t, p.cart.ChangeQuantity("a", 0))
}

func TestCartDebounceFiresAfterDelay(t *testing.T) {
	remote := newFakeRemote(cartItem("a", "10.00", 2))
	logger := zap.NewNop()
	cart := NewShoppingCart(remote, bus.New(logger), NewStore(), &recordingNotifier{}, logger, CartOptions{
		QuantityDebounce: 20 * time.Millisecond,
		Policies:         DefaultPolicies(),
	})
	require.NoError(t, cart.Refresh(context.Background()))

	require.NoError(t, cart.ChangeQuantity("a", 3))

	assert.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return len(remote.updates) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCartUpdateMessageRefreshes(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2))
	p.remote.cart = append(p.remote.cart, cartItem("b", "1.00", 1))

	p.bus.Publish(context.Background(), bus.CartUpdated{})

	assert.Len(t, p.cart.View().Items, 2)

	p.cart.Detach()
	assert.Equal(t, 0, p.bus.SubscriberCount(bus.ChannelCartUpdate))
}

func TestCartCheckoutPublishesSnapshot(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2), cartItem("b", "5.25", 1))
	require.NoError(t, p.cart.ToggleOne("b"))

	p.cart.Checkout(context.Background())

	got := p.order.Selected()
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	// Later cart edits do not reach the wizard's copy.
	require.NoError(t, p.cart.ChangeQuantity("b", 9))
	assert.Equal(t, 1, p.order.Selected()[0].Quantity)
}

func TestCartCheckoutEmptySelectionIsPublished(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2))

	var received int
	bus.On(p.bus, func(_ context.Context, msg bus.CheckoutRequested) {
		received++
		assert.Empty(t, msg.SelectedProducts)
	})

	p.cart.Checkout(context.Background())
	assert.Equal(t, 1, received)
}

func TestCartSeesOrderRemovals(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2), cartItem("b", "5.25", 1))
	p.cart.SelectAll(true)

	p.store.Remove([]string{"a"})

	v := p.cart.View()
	assert.Len(t, v.Items, 1)
	assert.Equal(t, "5.25", v.Total.String())
	assert.Equal(t, Checked, v.SelectAll)
}

func TestCartDetachStopsFollowingStore(t *testing.T) {
	p := attachedPage(t, DefaultPolicies(), cartItem("a", "10.00", 2), cartItem("b", "5.25", 1))
	p.cart.Detach()

	p.store.Replace([]Item{newItem(cartItem("c", "3.00", 1))})
	v := p.cart.View()
	require.Len(t, v.Items, 2)
	assert.Equal(t, "a", v.Items[0].ID)

	// Reattaching follows the store again and reloads from the server.
	require.NoError(t, p.cart.Attach(context.Background()))
	assert.Len(t, p.cart.View().Items, 2)
	p.store.Remove([]string{"a"})
	v = p.cart.View()
	require.Len(t, v.Items, 1)
	assert.Equal(t, "b", v.Items[0].ID)
}
