package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"vending-storefront-backend/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The storefront is same-machine-kiosk or LAN; origin checks are the
	// reverse proxy's concern.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades GET /ws, hands the connection to the broadcast hub, and
// lets the relay run its connect sequence (local ack + status probe).
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", c.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(h.hub, conn, h.sendBuffer)
	go client.WritePump()
	go client.ReadPump()

	h.relay.HandleClientConnect(client)
}
