package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/models"
)

// CartStore is implemented by db.CartRepository.
type CartStore interface {
	GetAll(ctx context.Context) ([]models.CartItem, error)
	Add(ctx context.Context, productID string) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, ids []string) (int64, error)
	DeleteExactly(ctx context.Context, ids []string) error
}

type CartHandler struct {
	repo   CartStore
	logger *zap.Logger
}

func NewCartHandler(repo CartStore, logger *zap.Logger) *CartHandler {
	return &CartHandler{repo: repo, logger: logger}
}

// ListItems returns every cart line with its product details
func (h *CartHandler) ListItems(c *gin.Context) {
	items, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// AddItem puts a product in the cart
func (h *CartHandler) AddItem(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.repo.Add(c.Request.Context(), req.ProductID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("🛒 Product added to cart", zap.String("product_id", req.ProductID), zap.Int("quantity", item.Quantity))
	c.JSON(http.StatusCreated, item)
}

// UpdateQuantity sets the quantity of one cart line
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity cannot be negative"})
		return
	}

	id := c.Param("id")
	if err := h.repo.UpdateQuantity(c.Request.Context(), id, *req.Quantity); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "quantity updated"})
}

// DeleteItems removes cart lines; unknown ids are ignored
func (h *CartHandler) DeleteItems(c *gin.Context) {
	var req models.DeleteItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := h.repo.Delete(c.Request.Context(), req.IDs)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("🗑️ Cart items deleted", zap.Int64("deleted", deleted))
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// DeleteSelectedItems removes exactly the given cart lines, or none
func (h *CartHandler) DeleteSelectedItems(c *gin.Context) {
	var req models.DeleteItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.DeleteExactly(c.Request.Context(), req.IDs); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("🗑️ Ordered cart items cleared", zap.Int("count", len(req.IDs)))
	c.JSON(http.StatusOK, gin.H{"deleted": len(req.IDs)})
}

// RegisterCartRoutes mounts the cart endpoints on r.
func RegisterCartRoutes(r gin.IRouter, h *CartHandler) {
	cart := r.Group("/cart/items")
	cart.GET("", h.ListItems)
	cart.POST("", h.AddItem)
	cart.PATCH("/:id", h.UpdateQuantity)
	cart.DELETE("", h.DeleteItems)
	cart.DELETE("/selected", h.DeleteSelectedItems)
}

// RegisterProductRoutes mounts the catalog endpoints on r.
func RegisterProductRoutes(r gin.IRouter, h *ProductHandler) {
	r.GET("/health", h.HealthCheck)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.POST("/products", h.CreateProduct)
	r.DELETE("/products/:id", h.DeleteProduct)
}
