package storefront

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/bus"
	"github.com/prudhivi99/storefront/internal/models"
)

// userError mimics a server error carrying a display message.
type userError struct{ msg string }

func (e *userError) Error() string       { return "remote: " + e.msg }
func (e *userError) UserMessage() string { return e.msg }

// fakeRemote is an in-memory cart and order service.
type fakeRemote struct {
	mu sync.Mutex

	cart     []models.CartItem
	products map[string]*models.Product
	orders   map[string]*models.Order
	nextID   int

	fetchErr       error
	addErr         error
	updateErr      error
	deleteErr      error
	deleteSelErrs  []error // consumed one per call
	createErrs     []error
	cancelErr      error
	getErr         error
	createCalls    int
	deleteSelCalls int
	cancelled      []int
	updates        []models.CartItem
	deleted        [][]string
	added          []string
	createRequests []models.CreateOrderRequest
}

func newFakeRemote(items ...models.CartItem) *fakeRemote {
	return &fakeRemote{
		cart:     items,
		products: map[string]*models.Product{},
		orders:   map[string]*models.Order{},
	}
}

func (f *fakeRemote) FetchProducts(ctx context.Context) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return slices.Clone(f.cart), nil
}

func (f *fakeRemote) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.products[productID]
	if !ok {
		return nil, &userError{msg: "Product not found"}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRemote) AddToCart(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, productID)
	p := f.products[productID]
	for i := range f.cart {
		if f.cart[i].ProductID == productID {
			f.cart[i].Quantity++
			return nil
		}
	}
	item := models.CartItem{ID: "item-" + productID, ProductID: productID, Quantity: 1}
	if p != nil {
		item.Name, item.Price, item.PictureURL = p.Name, p.Price, p.PictureURL
	}
	f.cart = append(f.cart, item)
	return nil
}

func (f *fakeRemote) UpdateQuantity(ctx context.Context, item models.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, item)
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.cart {
		if f.cart[i].ID == item.ID {
			f.cart[i].Quantity = item.Quantity
		}
	}
	return nil
}

func (f *fakeRemote) DeleteProducts(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, slices.Clone(ids))
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.removeLocked(ids)
	return nil
}

func (f *fakeRemote) DeleteSelectedProducts(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteSelCalls++
	if len(f.deleteSelErrs) > 0 {
		err := f.deleteSelErrs[0]
		f.deleteSelErrs = f.deleteSelErrs[1:]
		if err != nil {
			return err
		}
	}
	f.removeLocked(ids)
	return nil
}

func (f *fakeRemote) removeLocked(ids []string) {
	f.cart = slices.DeleteFunc(f.cart, func(it models.CartItem) bool {
		return slices.Contains(ids, it.ID)
	})
}

func (f *fakeRemote) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.createRequests = append(f.createRequests, req)

	// The order is stored before a scripted failure so a retry has to
	// rely on the reference to avoid a duplicate.
	order, ok := f.orders[req.Reference]
	if !ok {
		f.nextID++
		total := decimal.Zero
		for _, l := range req.Items {
			total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		date, _ := time.Parse(models.DateLayout, req.DeliveryDate)
		order = &models.Order{
			ID:           f.nextID,
			Reference:    req.Reference,
			DeliveryDate: date,
			TotalAmount:  total.Round(2),
			Status:       models.OrderStatusPending,
		}
		f.orders[req.Reference] = order
	}

	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	cp := *order
	return &cp, nil
}

func (f *fakeRemote) CancelOrder(ctx context.Context, orderID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	for _, o := range f.orders {
		if o.ID == orderID {
			o.Status = models.OrderStatusCancelled
			f.cancelled = append(f.cancelled, orderID)
			return nil
		}
	}
	return errors.New("order not found")
}

func (f *fakeRemote) cartIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.cart))
	for _, it := range f.cart {
		ids = append(ids, it.ID)
	}
	return ids
}

// recordingNotifier keeps every notification.
type recordingNotifier struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recordingNotifier) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return Notification{}
	}
	return r.got[len(r.got)-1]
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func cartItem(id string, price string, qty int) models.CartItem {
	return models.CartItem{
		ID:        id,
		ProductID: "prod-" + id,
		Name:      "Product " + id,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

// page wires the view-models the way the storefront command does.
type page struct {
	remote   *fakeRemote
	bus      *bus.Bus
	store    *Store
	notifier *recordingNotifier
	cart     *ShoppingCart
	card     *ProductCard
	order    *Order
}

func newPage(remote *fakeRemote, policies Policies) *page {
	logger := zap.NewNop()
	b := bus.New(logger)
	store := NewStore()
	n := &recordingNotifier{}
	fin := NewFinalizer(remote, FinalizePolicy{Retries: 2, Backoff: time.Millisecond, Compensate: true}, logger, time.Second)

	return &page{
		remote:   remote,
		bus:      b,
		store:    store,
		notifier: n,
		cart: NewShoppingCart(remote, b, store, n, logger, CartOptions{
			QuantityDebounce: time.Hour,
			RequestTimeout:   time.Second,
			Policies:         policies,
		}),
		card:  NewProductCard(remote, b, n, logger, time.Second),
		order: NewOrder(b, store, fin, n, logger),
	}
}

func (p *page) attach(ctx context.Context) error {
	p.card.Attach(ctx)
	p.order.Attach(ctx)
	return p.cart.Attach(ctx)
}
