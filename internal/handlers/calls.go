package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/call"
)

// CallReader exposes the call coordinator's read side.
type CallReader interface {
	ActiveCalls(ctx context.Context) []call.View
	Snapshot(ctx context.Context, callID string) (call.View, error)
}

// CallHandler serves live call snapshots.
type CallHandler struct {
	loop  Loop
	calls CallReader
}

func NewCallHandler(loop Loop, calls CallReader) *CallHandler {
	return &CallHandler{loop: loop, calls: calls}
}

// ListCalls returns every call that has not ended.
func (h *CallHandler) ListCalls(c *gin.Context) {
	var views []call.View
	err := h.loop.Do(c.Request.Context(), "rest.calls.list", func(ctx context.Context) error {
		views = h.calls.ActiveCalls(ctx)
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": views})
}

func (h *CallHandler) GetCall(c *gin.Context) {
	callID := c.Param("call_id")
	if callID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid call_id"})
		return
	}

	var view call.View
	err := h.loop.Do(c.Request.Context(), "rest.calls.get", func(ctx context.Context) error {
		var err error
		view, err = h.calls.Snapshot(ctx, callID)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
