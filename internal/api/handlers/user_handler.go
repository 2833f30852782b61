package handlers

import (
	"net/http"
	"time"

	"github.com/isdelr/travel-listings-be/internal/auth"
	"github.com/isdelr/travel-listings-be/internal/models"
	"github.com/isdelr/travel-listings-be/internal/serializers"
	"github.com/isdelr/travel-listings-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	GenerateJWT(user models.User) (string, error)
	TTL() time.Duration
}

// UserHandler handles HTTP requests for user accounts.
type UserHandler struct {
	service      services.UserServiceProvider
	tokens       TokenIssuer
	secureCookie bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens TokenIssuer, secureCookie bool) *UserHandler {
	return &UserHandler{service: service, tokens: tokens, secureCookie: secureCookie}
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	fields, err := serializers.ReadFields(r)
	if err != nil {
		writeServiceError(w, err, "Invalid request body")
		return
	}
	var payload serializers.RegisterPayload
	if err := serializers.DecodeInto(fields, &payload); err != nil {
		writeServiceError(w, err, "Invalid request body")
		return
	}
	if err := payload.Validate(); err != nil {
		writeServiceError(w, err, "Invalid registration data")
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, err, "Failed to register user")
		return
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	writeJSON(w, http.StatusCreated, serializers.SerializeUser(user))
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	fields, err := serializers.ReadFields(r)
	if err != nil {
		writeServiceError(w, err, "Invalid request body")
		return
	}
	var payload serializers.LoginPayload
	if err := serializers.DecodeInto(fields, &payload); err != nil {
		writeServiceError(w, err, "Invalid request body")
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), payload.Login(), payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("login", payload.Login()).Msg("Failed authentication attempt")
		writeServiceError(w, err, "Failed to authenticate user")
		return
	}

	token, err := h.tokens.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		writeDetail(w, http.StatusInternalServerError, "Failed to generate token.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(h.tokens.TTL()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  serializers.SerializeUser(user),
	})
}

// GetMe returns the currently authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", identity.UserID).Msg("User from token not found in DB")
		writeServiceError(w, err, "Failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, serializers.SerializeUser(user))
}
