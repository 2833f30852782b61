package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/travel-listings-be/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrInvalidToken is returned when a token is present but cannot be trusted.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID   string
	Username string
}

// Provider resolves the caller of a request. A request without credentials
// yields (nil, nil); credentials that fail verification yield ErrInvalidToken.
type Provider interface {
	Authenticate(r *http.Request) (*Identity, error)
}

// Claims defines the JWT claims structure.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// contextKey is the context key type for the caller identity.
type contextKey string

const identityKey = contextKey("identity")

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity attached to ctx, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// UserChecker reports whether the account a token names still exists.
type UserChecker interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// JWTProvider issues and verifies HS256 tokens.
type JWTProvider struct {
	key   []byte
	ttl   time.Duration
	users UserChecker
	now   func() time.Time
}

// NewJWTProvider creates a JWTProvider signing with secret. Tokens whose user
// is no longer known to users are rejected.
func NewJWTProvider(secret string, ttl time.Duration, users UserChecker) *JWTProvider {
	return &JWTProvider{key: []byte(secret), ttl: ttl, users: users, now: time.Now}
}

// TTL is how long issued tokens stay valid.
func (p *JWTProvider) TTL() time.Duration { return p.ttl }

// GenerateJWT creates a new JWT for a given user.
func (p *JWTProvider) GenerateJWT(user models.User) (string, error) {
	now := p.now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.key)
}

// ValidateJWT parses and validates a JWT string.
func (p *JWTProvider) ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return p.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate reads the token from the Authorization header, falling back
// to the "token" cookie. A token for a deleted user is invalid.
func (p *JWTProvider) Authenticate(r *http.Request) (*Identity, error) {
	tokenStr := bearerToken(r)
	if tokenStr == "" {
		if cookie, err := r.Cookie("token"); err == nil {
			tokenStr = cookie.Value
		}
	}
	if tokenStr == "" {
		return nil, nil
	}

	claims, err := p.ValidateJWT(tokenStr)
	if err != nil {
		return nil, err
	}
	exists, err := p.users.UserExists(r.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %s no longer exists", ErrInvalidToken, claims.UserID)
	}
	return &Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticator attaches the caller identity to the request context. Requests
// without credentials pass through anonymously; bad credentials are rejected.
func Authenticator(p Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := p.Authenticate(r)
			if errors.Is(err, ErrInvalidToken) {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected request with invalid credentials")
				unauthorized(w, "Invalid token.")
				return
			}
			if err != nil {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to authenticate request")
				writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
				return
			}
			if id != nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			unauthorized(w, "Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
