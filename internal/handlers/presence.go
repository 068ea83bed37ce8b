package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/models"
)

// PresenceReader exposes the presence tracker's read side.
type PresenceReader interface {
	Get(ctx context.Context, userID int) (models.Presence, error)
	Roster(ctx context.Context) ([]models.Presence, error)
}

type presenceView struct {
	models.Presence
	Status string `json:"status"`
}

func newPresenceView(p models.Presence) presenceView {
	return presenceView{Presence: p, Status: p.Status()}
}

// PresenceHandler serves presence lookups.
type PresenceHandler struct {
	loop    Loop
	tracker PresenceReader
}

// NewPresenceHandler constructs a PresenceHandler.
func NewPresenceHandler(loop Loop, tracker PresenceReader) *PresenceHandler {
	return &PresenceHandler{loop: loop, tracker: tracker}
}

// ListPresence returns the status of every known user.
func (h *PresenceHandler) ListPresence(c *gin.Context) {
	var roster []models.Presence
	err := h.loop.Do(c.Request.Context(), "rest.presence.list", func(ctx context.Context) error {
		var err error
		roster, err = h.tracker.Roster(ctx)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	users := make([]presenceView, 0, len(roster))
	for _, p := range roster {
		users = append(users, newPresenceView(p))
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetPresence returns the status of one user.
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	var p models.Presence
	err = h.loop.Do(c.Request.Context(), "rest.presence.get", func(ctx context.Context) error {
		var err error
		p, err = h.tracker.Get(ctx, userID)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPresenceView(p))
}
