package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/models"
)

// FinalizeStep names the saga step that failed.
type FinalizeStep string

const (
	StepCreateOrder FinalizeStep = "create order"
	StepClearCart   FinalizeStep = "clear cart"
)

// FinalizeError reports a failed finalization. When the cart could not be
// cleared OrderID is set and Compensated says whether the order was
// cancelled again.
type FinalizeError struct {
	Step            FinalizeStep
	OrderID         int
	Compensated     bool
	CompensationErr error
	Err             error
}

func (e *FinalizeError) Error() string {
	if e.Step == StepCreateOrder {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	switch {
	case e.Compensated:
		return fmt.Sprintf("%s: %v (order %d cancelled)", e.Step, e.Err, e.OrderID)
	case e.CompensationErr != nil:
		return fmt.Sprintf("%s: %v (cancel order %d: %v)", e.Step, e.Err, e.OrderID, e.CompensationErr)
	default:
		return fmt.Sprintf("%s: %v (order %d kept)", e.Step, e.Err, e.OrderID)
	}
}

func (e *FinalizeError) Unwrap() error { return e.Err }

// UserMessage is the text shown in the error notification.
func (e *FinalizeError) UserMessage() string {
	msg := errorMessage(e.Err)
	if e.Step == StepCreateOrder {
		return msg
	}
	switch {
	case e.Compensated:
		return fmt.Sprintf("Could not clear the cart, so order %d was cancelled: %s", e.OrderID, msg)
	case e.CompensationErr != nil:
		return fmt.Sprintf("Order %d was created but the cart could not be cleared and the order could not be cancelled: %s", e.OrderID, msg)
	default:
		return fmt.Sprintf("Order %d was created but the cart could not be cleared: %s", e.OrderID, msg)
	}
}

// Finalizer turns a cart selection into an order and clears those rows
// from the cart.
type Finalizer struct {
	remote       Remote
	policy       FinalizePolicy
	logger       *zap.Logger
	timeout      time.Duration
	newReference func() string
}

func NewFinalizer(remote Remote, policy FinalizePolicy, logger *zap.Logger, timeout time.Duration) *Finalizer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Finalizer{
		remote:       remote,
		policy:       policy,
		logger:       logger,
		timeout:      timeout,
		newReference: uuid.NewString,
	}
}

// NewReference returns a fresh order reference.
func (f *Finalizer) NewReference() string {
	return f.newReference()
}

// Finalize creates the order for items under reference, then deletes items
// from the cart. Calls that share a reference create at most one order, so
// the caller keeps it until the order has gone through.
func (f *Finalizer) Finalize(ctx context.Context, reference string, items []models.CartItem, deliveryDate time.Time) (*models.Order, error) {
	req := models.CreateOrderRequest{
		Reference:    reference,
		DeliveryDate: deliveryDate.Format(models.DateLayout),
		Items:        make([]models.OrderLine, 0, len(items)),
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		req.Items = append(req.Items, models.OrderLine{
			ProductID:  it.ProductID,
			Name:       it.Name,
			Price:      it.Price,
			Quantity:   it.Quantity,
			PictureURL: it.PictureURL,
		})
		ids = append(ids, it.ID)
	}

	log := f.logger.With(zap.String("reference", req.Reference))

	order, err := retryWithBackoff(ctx, f.policy, func(ctx context.Context) (*models.Order, error) {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		return f.remote.CreateOrder(ctx, req)
	})
	if err != nil {
		log.Error("❌ Order create failed", zap.Error(err))
		return nil, &FinalizeError{Step: StepCreateOrder, Err: err}
	}
	log.Info("✅ Order created", zap.Int("order_id", order.ID))

	_, err = retryWithBackoff(ctx, f.policy, func(ctx context.Context) (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		return struct{}{}, f.remote.DeleteSelectedProducts(ctx, ids)
	})
	if err == nil {
		return order, nil
	}

	log.Error("❌ Clearing ordered items failed", zap.Int("order_id", order.ID), zap.Error(err))
	ferr := &FinalizeError{Step: StepClearCart, OrderID: order.ID, Err: err}
	if !f.policy.Compensate {
		return nil, ferr
	}

	_, cerr := retryWithBackoff(ctx, f.policy, func(ctx context.Context) (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		return struct{}{}, f.remote.CancelOrder(ctx, order.ID)
	})
	if cerr != nil {
		log.Error("❌ Compensating cancel failed", zap.Int("order_id", order.ID), zap.Error(cerr))
		ferr.CompensationErr = cerr
	} else {
		log.Warn("↩️ Order cancelled after cart clear failure", zap.Int("order_id", order.ID))
		ferr.Compensated = true
	}
	return nil, ferr
}

func retryWithBackoff[T any](ctx context.Context, policy FinalizePolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	backoff := policy.Backoff
	for attempt := 0; attempt <= policy.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
	}
	return result, err
}
