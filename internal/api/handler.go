package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"vending-storefront-backend/internal/hub"
	"vending-storefront-backend/internal/relay"
	"vending-storefront-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	relay      *relay.Service
	hub        *hub.Hub
	webpush    *webpush.Options
	sendBuffer int
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, r *relay.Service, h *hub.Hub, webpushOptions *webpush.Options, sendBuffer int) *Handler {
	return &Handler{
		store:      s,
		relay:      r,
		hub:        h,
		webpush:    webpushOptions,
		sendBuffer: sendBuffer,
	}
}
