package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/storefront/internal/db"
)

// abortWithError answers {"error": "..."}; repository not-found errors map
// to 404, everything else to the given fallback status.
func abortWithError(c *gin.Context, fallback int, err error) {
	status := fallback
	if errors.Is(err, db.ErrNotFound) {
		status = http.StatusNotFound
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
