package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// respondError maps domain errors onto HTTP statuses. Unexpected failures are
// logged with their cause and surface as a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrOverCapacity):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrStoreUnavailable):
		logger.Error("quantity store unavailable", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quantity store unavailable"})
	default:
		logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	logger.Debug("invalid request payload", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
}
