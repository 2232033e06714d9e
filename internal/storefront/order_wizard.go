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

var (
	ErrDateRequired     = errors.New("choose a delivery date first")
	ErrFirstStep        = errors.New("already at the first step")
	ErrNothingToOrder   = errors.New("no products selected for the order")
	ErrNotAtConfirm     = errors.New("order can only be submitted from the confirm step")
	ErrSubmitInProgress = errors.New("order submission already in progress")
)

// Step is a checkout wizard step.
type Step int

const (
	StepReview Step = iota + 1
	StepSchedule
	StepConfirm
)

func (s Step) String() string {
	switch s {
	case StepReview:
		return "review"
	case StepSchedule:
		return "schedule"
	case StepConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// Order is the three step checkout wizard. It finalizes the selection it
// last received on the checkout channel.
type Order struct {
	bus       *bus.Bus
	store     *Store
	notifier  Notifier
	finalizer *Finalizer
	logger    *zap.Logger

	mu         sync.Mutex
	step       Step
	date       time.Time
	selected   []models.CartItem
	reference  string
	submitting bool
	sub        *bus.Subscription
}

func NewOrder(b *bus.Bus, store *Store, finalizer *Finalizer, notifier Notifier, logger *zap.Logger) *Order {
	return &Order{
		bus:       b,
		store:     store,
		notifier:  notifier,
		finalizer: finalizer,
		logger:    logger,
		step:      StepReview,
	}
}

// Attach starts a fresh checkout and listens for selections.
func (o *Order) Attach(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.resetLocked()
	if o.sub == nil {
		o.sub = bus.On(o.bus, o.handleCheckout)
	}
}

func (o *Order) Detach() {
	o.mu.Lock()
	sub := o.sub
	o.sub = nil
	o.mu.Unlock()
	sub.Unsubscribe()
}

func (o *Order) handleCheckout(_ context.Context, msg bus.CheckoutRequested) {
	o.mu.Lock()
	defer o.mu.Unlock()
	// The same selection checked out again may already have an order on
	// the server, so it keeps its reference.
	if !sameSelection(o.selected, msg.SelectedProducts) {
		o.reference = ""
	}
	o.selected = msg.SelectedProducts
	o.logger.Debug("checkout selection received", zap.Int("items", len(msg.SelectedProducts)))
}

func (o *Order) resetLocked() {
	o.step = StepReview
	o.date = time.Time{}
	o.selected = nil
	o.reference = ""
}

func sameSelection(a, b []models.CartItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Quantity != b[i].Quantity {
			return false
		}
	}
	return true
}

func (o *Order) Step() Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

// Date returns the delivery date and whether one is set.
func (o *Order) Date() (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.date, !o.date.IsZero()
}

// Selected returns a copy of the selection being ordered.
func (o *Order) Selected() []models.CartItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.CartItem(nil), o.selected...)
}

// SetDate sets the delivery date. A zero time clears it.
func (o *Order) SetDate(t time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if t.IsZero() {
		o.date = time.Time{}
		return
	}
	o.date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (o *Order) ClearDate() {
	o.SetDate(time.Time{})
}

// Next advances the wizard. At the confirm step it submits the order.
func (o *Order) Next(ctx context.Context) error {
	o.mu.Lock()
	switch o.step {
	case StepReview:
		o.step = StepSchedule
	case StepSchedule:
		if o.date.IsZero() {
			o.mu.Unlock()
			return ErrDateRequired
		}
		o.step = StepConfirm
	case StepConfirm:
		o.mu.Unlock()
		return o.Submit(ctx)
	}
	o.mu.Unlock()
	return nil
}

func (o *Order) Previous() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step <= StepReview {
		return ErrFirstStep
	}
	o.step--
	return nil
}

// Submit finalizes the selection. On success the ordered rows leave the
// shared store and the wizard starts over; on failure nothing changes and
// a later submit reuses the same order reference.
func (o *Order) Submit(ctx context.Context) error {
	o.mu.Lock()
	if o.step != StepConfirm {
		o.mu.Unlock()
		return ErrNotAtConfirm
	}
	if o.submitting {
		o.mu.Unlock()
		return ErrSubmitInProgress
	}
	if len(o.selected) == 0 {
		o.mu.Unlock()
		notifyError(o.notifier, "Error creating order", ErrNothingToOrder)
		return ErrNothingToOrder
	}
	if o.date.IsZero() {
		o.mu.Unlock()
		return ErrDateRequired
	}
	if o.reference == "" {
		o.reference = o.finalizer.NewReference()
	}
	items := append([]models.CartItem(nil), o.selected...)
	date := o.date
	reference := o.reference
	o.submitting = true
	o.mu.Unlock()

	order, err := o.finalizer.Finalize(ctx, reference, items, date)

	o.mu.Lock()
	o.submitting = false
	if err != nil {
		// A cancelled order is final; the next submit starts a new one.
		var ferr *FinalizeError
		if errors.As(err, &ferr) && ferr.Compensated && o.reference == reference {
			o.reference = ""
		}
		o.mu.Unlock()
		notifyError(o.notifier, "Error creating order", err)
		return err
	}
	o.resetLocked()
	o.mu.Unlock()

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	o.store.Remove(ids)

	o.logger.Info("✅ Order submitted", zap.Int("order_id", order.ID), zap.String("reference", order.Reference))
	notifySuccess(o.notifier, "Success", "Order created successfully")
	return nil
}
