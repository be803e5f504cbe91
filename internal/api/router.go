package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"vending-storefront-backend/config"
	"vending-storefront-backend/internal/hub"
	"vending-storefront-backend/internal/mw"
	"vending-storefront-backend/internal/relay"
	"vending-storefront-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, rly *relay.Service, h *hub.Hub, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestLog(), gin.Recovery())

	handler := NewHandler(s, rly, h, webpushOptions, cfg.WSSendBuffer)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/products", caching, GetProducts(s))
		api.GET("/vends", GetVendSessions(s))

		api.POST("/pay", handler.PostPay)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	r.GET("/ws", handler.ServeWS)
	r.GET("/healthz", handler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
