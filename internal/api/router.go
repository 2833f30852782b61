package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/travel-listings-be/internal/api/handlers"
	"github.com/isdelr/travel-listings-be/internal/auth"
	"github.com/isdelr/travel-listings-be/internal/config"
	"github.com/isdelr/travel-listings-be/internal/services"
	"github.com/isdelr/travel-listings-be/internal/websocket"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Hub            *websocket.Hub
	Auth           auth.Provider
	Tokens         handlers.TokenIssuer
	ListingService services.ListingServiceProvider
	AmenityService services.AmenityServiceProvider
	UserService    services.UserServiceProvider
	EventService   services.EventServiceProvider
}

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	}))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(auth.Authenticator(deps.Auth))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Initialize handlers
	listingHandler := handlers.NewListingHandler(deps.ListingService, cfg.PageSize, cfg.EnforceOwner)
	amenityHandler := handlers.NewAmenityHandler(deps.AmenityService, cfg.PageSize)
	userHandler := handlers.NewUserHandler(deps.UserService, deps.Tokens, cfg.Production)
	eventHandler := handlers.NewEventHandler(deps.EventService)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, cfg.CORSOrigins)

	r.Route("/listings", func(r chi.Router) {
		r.Get("/", listingHandler.List)
		r.With(auth.RequireAuth).Post("/", listingHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", listingHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Put("/", listingHandler.Update)
				r.Patch("/", listingHandler.PartialUpdate)
				r.Delete("/", listingHandler.Delete)
				r.Post("/mark_unavailable", listingHandler.MarkUnavailable)
				r.Post("/mark_available", listingHandler.MarkAvailable)
				r.Post("/amenities", listingHandler.AddAmenity)
				r.Delete("/amenities/{amenityId}", listingHandler.RemoveAmenity)
			})
		})
	})

	// The amenity catalogue is read-only over HTTP.
	r.Route("/amenities", func(r chi.Router) {
		r.Get("/", amenityHandler.List)
		r.Get("/{id}", amenityHandler.Get)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.With(auth.RequireAuth).Get("/me", userHandler.GetMe)
	})

	r.Get("/events", eventHandler.GetRecent)

	// WebSocket connection endpoints
	r.Get("/ws", wsHandler.Serve)
	r.Get("/ws/listings/{id}", wsHandler.Serve)

	return r
}
