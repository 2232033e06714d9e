package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/bus"
	"github.com/prudhivi99/storefront/internal/debounce"
	"github.com/prudhivi99/storefront/internal/models"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be zero or more")
	ErrUnknownItem     = errors.New("no such cart item")
)

// CheckboxState is the select-all checkbox.
type CheckboxState int

const (
	Unchecked CheckboxState = iota
	Indeterminate
	Checked
)

func (s CheckboxState) String() string {
	switch s {
	case Indeterminate:
		return "indeterminate"
	case Checked:
		return "checked"
	default:
		return "unchecked"
	}
}

func checkboxFor(selected, total int) CheckboxState {
	switch {
	case selected == 0:
		return Unchecked
	case selected < total:
		return Indeterminate
	default:
		return Checked
	}
}

// CartView is what the cart renders.
type CartView struct {
	Items     []Item
	Selected  []Item
	Total     decimal.Decimal
	SelectAll CheckboxState
	Empty     bool
}

func buildView(items []Item) CartView {
	v := CartView{Items: items, Total: decimal.Zero, Empty: len(items) == 0}
	for _, it := range items {
		if it.Selected {
			v.Selected = append(v.Selected, it)
			v.Total = v.Total.Add(it.Subtotal())
		}
	}
	v.Total = v.Total.Round(2)
	v.SelectAll = checkboxFor(len(v.Selected), len(items))
	return v
}

type CartOptions struct {
	QuantityDebounce time.Duration
	RequestTimeout   time.Duration
	Policies         Policies
}

// ShoppingCart manages the cart rows, the selection and its total.
type ShoppingCart struct {
	remote   Remote
	bus      *bus.Bus
	store    *Store
	notifier Notifier
	logger   *zap.Logger
	opts     CartOptions

	debouncer *debounce.Debouncer

	mu          sync.Mutex
	view        CartView
	viewVersion uint64
	sub         *bus.Subscription
	cancelStore func()
}

func NewShoppingCart(remote Remote, b *bus.Bus, store *Store, notifier Notifier, logger *zap.Logger, opts CartOptions) *ShoppingCart {
	if opts.QuantityDebounce <= 0 {
		opts.QuantityDebounce = 800 * time.Millisecond
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	c := &ShoppingCart{
		remote:    remote,
		bus:       b,
		store:     store,
		notifier:  notifier,
		logger:    logger,
		opts:      opts,
		debouncer: debounce.New(opts.QuantityDebounce),
	}

	c.follow()
	return c
}

// follow keeps the view in step with the store until Detach.
func (c *ShoppingCart) follow() {
	c.mu.Lock()
	if c.cancelStore == nil {
		c.cancelStore = c.store.Subscribe(c.apply)
	}
	c.mu.Unlock()

	version, items := c.store.Snapshot()
	c.apply(version, items)
}

// apply recomputes the view from a store snapshot, ignoring stale ones.
func (c *ShoppingCart) apply(version uint64, items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version < c.viewVersion {
		return
	}
	c.viewVersion = version
	c.view = buildView(items)
}

// View returns the current derived state.
func (c *ShoppingCart) View() CartView {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view
	v.Items = append([]Item(nil), v.Items...)
	v.Selected = append([]Item(nil), v.Selected...)
	return v
}

// Attach listens for cart-update and loads the cart once.
func (c *ShoppingCart) Attach(ctx context.Context) error {
	c.follow()

	c.mu.Lock()
	if c.sub == nil {
		c.sub = bus.On(c.bus, func(ctx context.Context, _ bus.CartUpdated) {
			_ = c.Refresh(ctx)
		})
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Detach sends any pending quantity update, then stops listening to the
// bus and the store.
func (c *ShoppingCart) Detach() {
	c.debouncer.Flush()

	c.mu.Lock()
	sub, cancelStore := c.sub, c.cancelStore
	c.sub, c.cancelStore = nil, nil
	c.mu.Unlock()

	sub.Unsubscribe()
	if cancelStore != nil {
		cancelStore()
	}
}

// Refresh reloads the cart. Selection is reset.
func (c *ShoppingCart) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	products, err := c.remote.FetchProducts(ctx)
	if err != nil {
		c.logger.Error("❌ Failed to fetch cart", zap.Error(err))
		notifyError(c.notifier, "Error Fetching Products", err)
		return err
	}

	items := make([]Item, 0, len(products))
	for _, p := range products {
		items = append(items, newItem(p))
	}
	c.store.Replace(items)
	c.logger.Debug("cart refreshed", zap.Int("items", len(items)))
	return nil
}

func (c *ShoppingCart) SelectAll(flag bool) {
	c.store.Update(func(items []Item) []Item {
		for i := range items {
			items[i].setSelected(flag)
		}
		return items
	})
}

func (c *ShoppingCart) ToggleOne(id string) error {
	found := false
	c.store.Update(func(items []Item) []Item {
		for i := range items {
			if items[i].ID == id {
				items[i].setSelected(!items[i].Selected)
				found = true
				break
			}
		}
		return items
	})
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	return nil
}

// DeleteSelected removes the selected rows remotely and locally. With
// nothing selected it does nothing.
func (c *ShoppingCart) DeleteSelected(ctx context.Context) error {
	prev := c.store.Items()
	var ids []string
	for _, it := range prev {
		if it.Selected {
			ids = append(ids, it.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	removeAndClear := func(items []Item) []Item {
		drop := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			drop[id] = struct{}{}
		}
		kept := items[:0]
		for _, it := range items {
			if _, ok := drop[it.ID]; ok {
				continue
			}
			it.setSelected(false)
			kept = append(kept, it)
		}
		return kept
	}

	optimistic := c.opts.Policies.Delete == Optimistic
	if optimistic {
		c.store.Update(removeAndClear)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	if err := c.remote.DeleteProducts(ctx, ids); err != nil {
		c.logger.Error("❌ Failed to delete cart items", zap.Strings("ids", ids), zap.Error(err))
		if optimistic {
			c.store.Replace(prev)
		}
		notifyError(c.notifier, "Error Deleting Products", err)
		return err
	}

	if !optimistic {
		c.store.Update(removeAndClear)
	}
	c.logger.Info("✅ Cart items deleted", zap.Int("count", len(ids)))
	notifySuccess(c.notifier, "Success", "Selected products have been deleted.")
	return nil
}

// ChangeQuantity edits one row's quantity. The remote update is debounced.
func (c *ShoppingCart) ChangeQuantity(id string, value int) error {
	if value < 0 {
		return ErrInvalidQuantity
	}

	var item models.CartItem
	found := false
	for _, it := range c.store.Items() {
		if it.ID == id {
			item = it.CartItem
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	item.Quantity = value

	if c.opts.Policies.Quantity == Optimistic {
		c.setQuantity(id, value)
		c.debouncer.Trigger(id, func() {
			_ = c.pushQuantity(item)
		})
		return nil
	}

	c.debouncer.Trigger(id, func() {
		if err := c.pushQuantity(item); err == nil {
			c.setQuantity(id, value)
		}
	})
	return nil
}

// FlushQuantity sends a pending quantity update now.
func (c *ShoppingCart) FlushQuantity() {
	c.debouncer.Flush()
}

func (c *ShoppingCart) setQuantity(id string, value int) {
	c.store.Update(func(items []Item) []Item {
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity = value
				break
			}
		}
		return items
	})
}

func (c *ShoppingCart) pushQuantity(item models.CartItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.RequestTimeout)
	defer cancel()

	if err := c.remote.UpdateQuantity(ctx, item); err != nil {
		c.logger.Error("❌ Failed to update quantity", zap.String("id", item.ID), zap.Error(err))
		notifyError(c.notifier, "Error Updating Quantity", err)
		return err
	}
	notifySuccess(c.notifier, "Success", "Quantity updated successfully.")
	return nil
}

// Checkout hands the current selection to the order wizard.
func (c *ShoppingCart) Checkout(ctx context.Context) {
	view := c.View()
	selected := make([]models.CartItem, 0, len(view.Selected))
	for _, it := range view.Selected {
		selected = append(selected, it.CartItem)
	}
	c.bus.Publish(ctx, bus.CheckoutRequested{SelectedProducts: selected})
}
