package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// User is a principal owning a set of granted scope names. Users are created
// by provisioning together with their Client and are read-only from the
// token model's perspective.
type User struct {
	ID        ulid.ULID `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // bcrypt hash, never serialized
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new user instance with the given granted scopes
func NewUser(username, hashedPassword string, scopes []string) *User {
	now := time.Now()
	return &User{
		ID:        ulid.Make(),
		Username:  username,
		Password:  hashedPassword,
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasScope checks if the user has been granted a specific scope
func (u *User) HasScope(scope string) bool {
	for _, s := range u.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user in the database
	Create(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id ulid.ULID) (*User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*User, error)
}
