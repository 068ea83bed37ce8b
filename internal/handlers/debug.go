package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/telemetry"
)

// GroupInspector lists the connections subscribed to a fan-out group.
type GroupInspector interface {
	Members(group string) []string
}

// DebugHandler serves operator-only endpoints.
type DebugHandler struct {
	emitter *telemetry.AuditEmitter
	groups  GroupInspector
}

func NewDebugHandler(emitter *telemetry.AuditEmitter, groups GroupInspector) *DebugHandler {
	return &DebugHandler{emitter: emitter, groups: groups}
}

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, h *DebugHandler, enabled bool) {
	if !enabled || h == nil {
		return
	}
	router.GET("/debug/audit-test", h.AuditTest)
	router.GET("/debug/groups/:group", h.GroupMembers)
}

// AuditTest pushes a synthetic audit record through the pipeline.
func (h *DebugHandler) AuditTest(c *gin.Context) {
	if h.emitter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
		return
	}
	h.emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"status": "ok", "request_id": requestIDFromContext(c)})
}

// GroupMembers lists the connections in a group such as "user:7" or "everyone".
func (h *DebugHandler) GroupMembers(c *gin.Context) {
	if h.groups == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "fabric not configured"})
		return
	}
	group := c.Param("group")
	members := h.groups.Members(group)
	if members == nil {
		members = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"group": group, "connections": members})
}
