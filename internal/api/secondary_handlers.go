package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"replicated-log/internal/entry"
	"replicated-log/internal/secondary"
)

// SecondaryHandler exposes a Secondary's HTTP surface (spec.md §6).
type SecondaryHandler struct {
	secondary *secondary.Secondary
}

// NewSecondaryHandler creates a SecondaryHandler.
func NewSecondaryHandler(s *secondary.Secondary) *SecondaryHandler {
	return &SecondaryHandler{secondary: s}
}

// Register mounts all Secondary routes on r.
func (h *SecondaryHandler) Register(r *gin.Engine) {
	r.POST("/replicate", h.Replicate)
	r.GET("/messages", h.List)
	r.POST("/clear", h.Clear)
}

// replicateBody is the JSON body of POST /replicate. Order is a pointer
// so a genuinely absent field is distinguishable from an explicit 0
// (order 0 is the first entry in the log and must not be rejected).
type replicateBody struct {
	ID      string `json:"id" binding:"required"`
	Message string `json:"message" binding:"required"`
	Order   *int64 `json:"order"`
}

// Replicate handles POST /replicate.
func (h *SecondaryHandler) Replicate(c *gin.Context) {
	var body replicateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.Order == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order is required"})
		return
	}

	e := entry.LogEntry{ID: body.ID, Message: body.Message, Order: *body.Order}
	if err := h.secondary.Replicate(e); err != nil {
		// Injected fault (testing aid) — surfaced as a transient failure
		// so the Master's dispatcher retries it.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ACK"})
}

// List handles GET /messages.
func (h *SecondaryHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.secondary.Messages()})
}

// Clear handles POST /clear. Test-only.
func (h *SecondaryHandler) Clear(c *gin.Context) {
	h.secondary.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
