package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/travel-listings-be/internal/database"
	"github.com/isdelr/travel-listings-be/internal/models"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	UserExists(ctx context.Context, id string) (bool, error)
	CreateUser(ctx context.Context, username, email, password string) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
	AuthenticateUser(ctx context.Context, login, password string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *sqlx.DB) *UserService {
	return &UserService{db: db, now: time.Now}
}

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

func (r userRow) toModel() (models.User, error) {
	created, err := database.ParseTime(r.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    created,
	}, nil
}

func (s *UserService) getUser(ctx context.Context, where string, arg interface{}) (models.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT id, username, email, password_hash, created_at FROM users WHERE "+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return row.toModel()
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.getUser(ctx, "id = ?", id)
	user.PasswordHash = ""
	return user, err
}

// UserExists reports whether an account with id is still present.
func (s *UserService) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", id); err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return exists, nil
}

// CreateUser creates a new user, hashing their password.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) (models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     strings.ToLower(email),
		CreatedAt: s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users(id, username, email, password_hash, created_at) VALUES(?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, string(hashedPassword), database.FormatTime(user.CreatedAt))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, err
	}

	// Return user without password hash
	return user, nil
}

// DeleteUser removes a user and, by cascade, every listing they host.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AuthenticateUser verifies a user's credentials. login may be a username or an email.
func (s *UserService) AuthenticateUser(ctx context.Context, login, password string) (models.User, error) {
	column := "username = ?"
	if strings.Contains(login, "@") {
		column = "email = ?"
		login = strings.ToLower(login)
	}

	user, err := s.getUser(ctx, column, login)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}
