package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vending-storefront-backend/internal/store"
)

// GetProducts handles the GET /api/products request.
func GetProducts(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := s.ListProducts(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// vendSessionResponse flattens a vend session row for the API.
type vendSessionResponse struct {
	ID          int64   `json:"id"`
	Items       []int   `json:"items"`
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
	StartedAt   string  `json:"startedAt"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

// GetVendSessions handles the GET /api/vends request.
func GetVendSessions(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 500 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
				return
			}
			limit = n
		}

		sessions, err := s.RecentVendSessions(c.Request.Context(), limit)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve vend history"})
			return
		}

		responses := make([]vendSessionResponse, 0, len(sessions))
		for _, sess := range sessions {
			resp := vendSessionResponse{
				ID:        sess.ID,
				Items:     store.SplitItems(sess.Items),
				Status:    sess.Status,
				Message:   sess.Message,
				StartedAt: sess.StartedAt.UTC().Format(time.RFC3339),
			}
			if sess.CompletedAt != nil {
				completed := sess.CompletedAt.UTC().Format(time.RFC3339)
				resp.CompletedAt = &completed
			}
			responses = append(responses, resp)
		}
		c.JSON(http.StatusOK, responses)
	}
}
