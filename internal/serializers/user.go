package serializers

import (
	"strings"
	"time"

	"github.com/isdelr/travel-listings-be/internal/models"
	"github.com/isdelr/travel-listings-be/internal/services"
)

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username" validate:"required,alphanum,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Validate checks the payload and returns a *services.ValidationError on failure.
func (p *RegisterPayload) Validate() error {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
	if err := validate.Struct(p); err != nil {
		verr := &services.ValidationError{}
		addValidatorErrors(verr, "", err)
		return verr
	}
	return nil
}

// LoginPayload defines the structure for login requests. Either username or
// email identifies the account.
type LoginPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login returns the identifier to authenticate with.
func (p LoginPayload) Login() string {
	if p.Username != "" {
		return strings.TrimSpace(p.Username)
	}
	return strings.TrimSpace(p.Email)
}

// UserRecord is the wire form of a user.
type UserRecord struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SerializeUser renders a user without credentials.
func SerializeUser(u models.User) UserRecord {
	return UserRecord{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}
