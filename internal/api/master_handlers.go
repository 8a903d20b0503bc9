// Package api wires up the Gin HTTP router with all handler functions.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"replicated-log/internal/master"
)

// MasterHandler exposes the Master's HTTP surface (spec.md §6).
type MasterHandler struct {
	master *master.Master
}

// NewMasterHandler creates a MasterHandler.
func NewMasterHandler(m *master.Master) *MasterHandler {
	return &MasterHandler{master: m}
}

// Register mounts all Master routes on r.
func (h *MasterHandler) Register(r *gin.Engine) {
	r.POST("/messages", h.Append)
	r.GET("/messages", h.List)
	r.GET("/full_messages", h.FullMessages)
	r.POST("/clear", h.Clear)

	// Internal endpoint used only by a rejoining Secondary.
	internal := r.Group("/internal")
	internal.POST("/sync", h.Sync)
}

// appendBody is the JSON body of POST /messages.
type appendBody struct {
	Message string `json:"message" binding:"required"`
	W       int    `json:"w" binding:"required"`
}

// Append handles POST /messages.
func (h *MasterHandler) Append(c *gin.Context) {
	var body appendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.master.Append(c.Request.Context(), body.Message, body.W)
	if err != nil {
		if _, ok := err.(*master.ErrBadRequest); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !result.Satisfied {
		// The caller's own context ended before w-1 secondary acks
		// arrived. The entry is NOT rolled back — it stays in the log at
		// its assigned order, and the dispatchers keep retrying it in the
		// background (spec.md §7 InsufficientReplicas: "leave entry in the
		// log and let dispatchers catch up"). There is usually no one left
		// to read this response (the client's own deadline is what ended
		// the wait), but we still write it for callers using an explicit
		// server-side deadline instead of disconnecting.
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":    "insufficient replicas before deadline",
			"id":       result.Entry.ID,
			"order":    result.Entry.Order,
			"acks":     result.Acks,
			"required": result.Required,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"message_id": result.Entry.ID,
		"order":      result.Entry.Order,
	})
}

// List handles GET /messages.
func (h *MasterHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.master.Messages()})
}

// FullMessages handles GET /full_messages.
func (h *MasterHandler) FullMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.master.FullMessages()})
}

// Clear handles POST /clear. Test-only.
func (h *MasterHandler) Clear(c *gin.Context) {
	h.master.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// syncBody is the JSON body of POST /internal/sync.
type syncBody struct {
	Address string `json:"address" binding:"required"`
}

// Sync handles POST /internal/sync: a rejoining Secondary asks the
// Master to drain its pending queue immediately (spec.md §4.4).
func (h *MasterHandler) Sync(c *gin.Context) {
	var body syncBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.master.TriggerSync(body.Address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
