package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/isdelr/travel-listings-be/internal/api"
	"github.com/isdelr/travel-listings-be/internal/auth"
	"github.com/isdelr/travel-listings-be/internal/config"
	"github.com/isdelr/travel-listings-be/internal/database"
	"github.com/isdelr/travel-listings-be/internal/logger"
	"github.com/isdelr/travel-listings-be/internal/monitoring"
	"github.com/isdelr/travel-listings-be/internal/services"
	"github.com/isdelr/travel-listings-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(db)
	amenityService := services.NewAmenityService(db)
	listingService := services.NewListingService(db, eventService)

	if cfg.SeedAmenities {
		n, err := amenityService.SeedDefaults(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed amenities")
		}
		if n > 0 {
			log.Info().Int("created", n).Msg("Seeded default amenities")
		}
	}

	// Set up and run the event retention scheduler
	scheduler, err := monitoring.NewScheduler(eventService, cfg.PruneSchedule, cfg.EventRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure event retention")
	}
	go scheduler.Run()

	jwtProvider := auth.NewJWTProvider(cfg.JWTSecret, cfg.TokenTTL, userService)

	// Set up router
	router := api.NewRouter(cfg, api.Dependencies{
		Hub:            hub,
		Auth:           jwtProvider,
		Tokens:         jwtProvider,
		ListingService: listingService,
		AmenityService: amenityService,
		UserService:    userService,
		EventService:   eventService,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}
