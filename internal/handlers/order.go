package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/models"
)

// OrderStore is implemented by db.OrderRepository.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id int) (*models.Order, error)
	GetByReference(ctx context.Context, reference string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id int, status string) error
}

// ProductLookup resolves authoritative product data.
type ProductLookup interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

// OrderEvents is implemented by publisher.OrderPublisher.
type OrderEvents interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderCancelled(ctx context.Context, order *models.Order) error
}

type OrderHandler struct {
	repo      OrderStore
	products  ProductLookup
	publisher OrderEvents
	logger    *zap.Logger
}

func NewOrderHandler(repo OrderStore, products ProductLookup, pub OrderEvents, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		repo:      repo,
		products:  products,
		publisher: pub,
		logger:    logger,
	}
}

// HealthCheck returns server status
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-service"})
}

// ListOrders returns all orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder returns a single order with items
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CreateOrder creates a new order. Name, picture and price come from the
// catalog, not from the submitted lines. A repeated reference returns the
// order created the first time.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deliveryDate, err := time.Parse(models.DateLayout, req.DeliveryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delivery_date must be YYYY-MM-DD"})
		return
	}

	if existing, err := h.repo.GetByReference(ctx, req.Reference); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	} else if existing != nil {
		h.logger.Info("↩️ Order already exists for reference", zap.String("reference", req.Reference), zap.Int("order_id", existing.ID))
		c.JSON(http.StatusOK, existing)
		return
	}

	order := models.Order{
		Reference:    req.Reference,
		DeliveryDate: deliveryDate,
		Status:       models.OrderStatusPending,
	}

	totalAmount := decimal.Zero
	for _, line := range req.Items {
		h.logger.Debug("📞 Fetching product from cart-service", zap.String("product_id", line.ProductID))
		product, err := h.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item := models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			PictureURL:  product.PictureURL,
			Quantity:    line.Quantity,
			Price:       product.Price,
		}

		totalAmount = totalAmount.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		order.Items = append(order.Items, item)
	}
	order.TotalAmount = totalAmount.Round(2)

	if err := h.repo.Create(ctx, &order); err != nil {
		// A concurrent submit with the same reference may have won the race.
		if existing, lookupErr := h.repo.GetByReference(ctx, req.Reference); lookupErr == nil && existing != nil {
			c.JSON(http.StatusOK, existing)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	if err := h.publisher.PublishOrderCreated(ctx, &order); err != nil {
		// The order is stored; inventory catches up on the next publish.
		h.logger.Warn("⚠️ Failed to publish order.created", zap.Int("order_id", order.ID), zap.Error(err))
	}

	h.logger.Info("✅ Order created", zap.Int("order_id", order.ID), zap.String("total", order.TotalAmount.StringFixed(2)))
	c.JSON(http.StatusCreated, order)
}

// UpdateOrderStatus updates the order status. Moving to cancelled publishes
// order.cancelled once.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	order, err := h.repo.GetByID(ctx, id)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if order.Status == req.Status {
		c.JSON(http.StatusOK, gin.H{"message": "order status updated"})
		return
	}
	if order.Status == models.OrderStatusCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "order is cancelled"})
		return
	}

	if err := h.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	if req.Status == models.OrderStatusCancelled {
		if err := h.publisher.PublishOrderCancelled(ctx, order); err != nil {
			h.logger.Warn("⚠️ Failed to publish order.cancelled", zap.Int("order_id", id), zap.Error(err))
		}
	}

	h.logger.Info("🔄 Order status updated", zap.Int("order_id", id), zap.String("status", req.Status))
	c.JSON(http.StatusOK, gin.H{"message": "order status updated"})
}

// RegisterOrderRoutes mounts the order endpoints on r.
func RegisterOrderRoutes(r gin.IRouter, h *OrderHandler) {
	r.GET("/health", h.HealthCheck)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/orders", h.CreateOrder)
	r.PATCH("/orders/:id/status", h.UpdateOrderStatus)
}
