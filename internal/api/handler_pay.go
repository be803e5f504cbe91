package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vending-storefront-backend/internal/relay"
)

type payRequest struct {
	Items []int `json:"items"`
}

// PostPay handles the POST /api/pay request. Payment authorization is a
// stub that always succeeds; the handler's job is to hand the vend off to
// the relay. The response only acknowledges acceptance: the vend outcome
// arrives asynchronously on the websocket stream.
func (h *Handler) PostPay(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items is required"})
		return
	}

	if err := h.relay.HandleVendRequest(req.Items); err != nil {
		if errors.Is(err, relay.ErrNoItems) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "requestedItems": req.Items})
}
