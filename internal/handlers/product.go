package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prudhivi99/storefront/internal/db"
	"github.com/prudhivi99/storefront/internal/models"
)

type ProductHandler struct {
	repo   db.ProductStore
	logger *zap.Logger
}

func NewProductHandler(repo db.ProductStore, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{repo: repo, logger: logger}
}

// HealthCheck returns server status
func (h *ProductHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "cart-service"})
}

// ListProducts returns the catalog
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct adds a product to the catalog
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
		return
	}
	if req.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stock cannot be negative"})
		return
	}

	product, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("✅ Product created", zap.String("id", product.ID), zap.String("name", product.Name))
	c.JSON(http.StatusCreated, product)
}

// DeleteProduct removes a product from the catalog
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}
