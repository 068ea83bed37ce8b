package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/models"
	"realtime-service/internal/signaling"
)

// Loop runs a read against engine state on the single event loop so REST
// never observes a half-applied transition.
type Loop interface {
	Do(ctx context.Context, name string, fn signaling.Handler) error
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrBadPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
