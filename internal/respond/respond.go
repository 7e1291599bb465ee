// Package respond maps store errors to JSON responses and parses path ids.
package respond

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/pagination"
	"github.com/jimdaga/pomodo/internal/store"
)

// Error writes the JSON error for err: 404 for missing rows, 400 for bad
// input, 409 for conflicts and 500 for anything else.
func Error(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found."})
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, pagination.ErrInvalidPage):
		c.JSON(http.StatusNotFound, gin.H{"message": pagination.ErrInvalidPage.Error()})
	default:
		slog.ErrorContext(c.Request.Context(), "Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}

// BadRequest answers 400 with message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

// ID parses the named path parameter as a positive id. On failure it writes
// a 404 and returns false.
func ID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found."})
		return 0, false
	}
	return uint(id), true
}
