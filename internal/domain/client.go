package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// GrantClientCredentials is the only grant type this server issues tokens for.
const GrantClientCredentials = "client_credentials"

// Client represents a registered OAuth2 caller. Clients are created by an
// out-of-band provisioning step and are immutable afterwards. A client
// carrying the client_credentials grant references exactly one User, the
// service identity whose scopes its tokens inherit.
type Client struct {
	ID        ulid.ULID `json:"id"`
	ClientID  string    `json:"client_id"`
	Secret    string    `json:"-"` // opaque credential, compared by equality
	Name      string    `json:"name"`
	Grants    []string  `json:"grants"`
	UserID    ulid.ULID `json:"user_id"` // zero when no service identity is attached
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewClient creates a new client instance bound to its service identity
func NewClient(clientID, secret, name string, grants []string, userID ulid.ULID) *Client {
	now := time.Now()
	return &Client{
		ID:        ulid.Make(),
		ClientID:  clientID,
		Secret:    secret,
		Name:      name,
		Grants:    grants,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SupportsGrant checks if the client is permitted to use a grant type
func (c *Client) SupportsGrant(grant string) bool {
	for _, g := range c.Grants {
		if g == grant {
			return true
		}
	}
	return false
}

// HasUser reports whether the client references a service identity
func (c *Client) HasUser() bool {
	return c.UserID != (ulid.ULID{})
}

// ClientRepository defines the interface for client data access.
// Credential lookups match client id and secret in a single query so this
// layer never distinguishes an unknown id from a wrong secret.
type ClientRepository interface {
	// Create creates a new client in the database
	Create(ctx context.Context, client *Client) error

	// FindByCredentials finds a client by its client id and secret in one lookup
	FindByCredentials(ctx context.Context, clientID, clientSecret string) (*Client, error)

	// FindUserByCredentials resolves a client together with its associated
	// user in one traversal
	FindUserByCredentials(ctx context.Context, clientID, clientSecret string) (*User, error)

	// List lists all registered clients
	List(ctx context.Context) ([]*Client, error)
}
