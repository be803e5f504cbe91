package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHealth handles GET /healthz. The process is healthy as long as it can
// answer; upstream reachability is reported separately so probes can tell a
// flapping machine from a dead relay.
func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"upstream": h.relay.Upstream().State().String(),
		"queued":   h.relay.QueueLen(),
	})
}
