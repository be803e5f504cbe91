package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vending-storefront-backend/config"
	"vending-storefront-backend/internal/api"
	"vending-storefront-backend/internal/db"
	"vending-storefront-backend/internal/hub"
	"vending-storefront-backend/internal/notification"
	"vending-storefront-backend/internal/relay"
	"vending-storefront-backend/internal/store"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	log.Info().Str("path", configPath).Msg("configuration loaded")

	if cfg.VMC.Endpoint == "" {
		log.Fatal().Msg("vmc.endpoint must be configured")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	// Seed the catalog from the product file
	if cfg.Catalog.ProductsPath != "" {
		products, err := store.LoadCatalog(cfg.Catalog.ProductsPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Catalog.ProductsPath).Msg("failed to load catalog")
		}
		if err := appStore.SeedProducts(ctx, products); err != nil {
			log.Fatal().Err(err).Msg("failed to seed catalog")
		}
		log.Info().Int("products", len(products)).Msg("catalog seeded")
	}

	// Push notifications are optional; without VAPID keys the relay still
	// runs, it just never pushes.
	var webpushOptions *webpush.Options
	var workerPool *notification.WorkerPool
	var notifier relay.Notifier
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			log.Fatal().Msg("push is enabled but VAPID keys are not configured")
		}
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		workerPool = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		workerPool.Start(ctx)
		notifier = workerPool
	}

	// Broadcast hub and relay core
	broadcastHub := hub.New()
	go broadcastHub.Run(ctx)

	relaySvc := relay.New(relay.Options{
		Endpoint:         cfg.VMC.Endpoint,
		ReconnectDelay:   cfg.VMC.ReconnectDelay,
		HandshakeTimeout: cfg.VMC.HandshakeTimeout,
	}, broadcastHub, appStore, notifier)
	relaySvc.Start(ctx)

	// HTTP server
	router := api.NewRouter(&cfg.Server, appStore, relaySvc, broadcastHub, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutdown signal received, stopping services")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("http server shutdown failed")
	}

	log.Info().Msg("server gracefully stopped")
}
