package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/travel-listings-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// knownUsers is a UserChecker backed by a set of ids.
type knownUsers struct {
	ids map[string]bool
	err error
}

func (k *knownUsers) UserExists(ctx context.Context, id string) (bool, error) {
	return k.ids[id], k.err
}

func newTestProvider() *JWTProvider {
	return NewJWTProvider("test-secret", time.Hour, &knownUsers{ids: map[string]bool{"u1": true, "u2": true}})
}

func TestAuthenticateBearerToken(t *testing.T) {
	p := newTestProvider()
	token, err := p.GenerateJWT(models.User{ID: "u1", Username: "testuser"})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	id, err := p.Authenticate(r)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "testuser", id.Username)
}

func TestAuthenticateCookieFallback(t *testing.T) {
	p := newTestProvider()
	token, err := p.GenerateJWT(models.User{ID: "u2", Username: "cookie"})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: token})

	id, err := p.Authenticate(r)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "u2", id.UserID)
}

func TestAuthenticateAnonymous(t *testing.T) {
	id, err := newTestProvider().Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.Nil(t, id)
}

func TestAuthenticateRejectsForeignAndExpiredTokens(t *testing.T) {
	other := NewJWTProvider("other-secret", time.Hour, &knownUsers{})
	foreign, err := other.GenerateJWT(models.User{ID: "u1", Username: "x"})
	require.NoError(t, err)

	expiredIssuer := newTestProvider()
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.GenerateJWT(models.User{ID: "u1", Username: "x"})
	require.NoError(t, err)

	for name, token := range map[string]string{"foreign": foreign, "expired": expired, "garbage": "not-a-jwt"} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			_, err := newTestProvider().Authenticate(r)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthenticateRejectsDeletedUser(t *testing.T) {
	users := &knownUsers{ids: map[string]bool{"u1": true}}
	p := NewJWTProvider("test-secret", time.Hour, users)
	token, err := p.GenerateJWT(models.User{ID: "u1", Username: "ghost"})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	_, err = p.Authenticate(r)
	require.NoError(t, err)

	delete(users.ids, "u1")
	_, err = p.Authenticate(r)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticatorLookupFailure(t *testing.T) {
	users := &knownUsers{err: errors.New("database is locked")}
	p := NewJWTProvider("test-secret", time.Hour, users)
	token, err := p.GenerateJWT(models.User{ID: "u1", Username: "host"})
	require.NoError(t, err)

	handler := Authenticator(p)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"A server error occurred."}`, rec.Body.String())
}

func TestMiddlewareChain(t *testing.T) {
	p := newTestProvider()
	protected := Authenticator(p)(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(id.Username))
	})))

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer nope")
		protected.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Invalid token."}`, rec.Body.String())
	})

	t.Run("authenticated", func(t *testing.T) {
		token, err := p.GenerateJWT(models.User{ID: "u1", Username: "host"})
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		protected.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "host", rec.Body.String())
	})
}
