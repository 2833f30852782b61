package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrListingNotFound         = errors.New("listing not found")
	ErrAmenityNotFound         = errors.New("amenity not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrDuplicateAmenity        = errors.New("amenity with this name already exists")
	ErrDuplicateListingAmenity = errors.New("listing already declares this amenity")
	ErrDuplicateUser           = errors.New("user with this username or email already exists")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidPage             = errors.New("invalid page")
)

// ValidationError carries field-level messages for a rejected input.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns a ValidationError with a single message on field.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a message to field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no messages were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e when it holds messages, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
