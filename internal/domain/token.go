package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// BearerTokenType is the token_type issued by this server.
const BearerTokenType = "Bearer"

// DefaultAccessTokenDuration is the issuance lifetime used when none is configured.
const DefaultAccessTokenDuration = time.Hour

// Token is a bearer credential. The access token string itself is opaque and
// cryptographically random; it is generated by the caller and only stored
// here. A token references its client and user by identifier only, deleting
// either does not cascade to tokens.
type Token struct {
	ID          ulid.ULID `json:"id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"` // zero means no expiration was set; such a token is never valid
	Scopes      []string  `json:"scopes"`
	ClientID    ulid.ULID `json:"client_id"`
	UserID      ulid.ULID `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewToken creates a new token instance for the given client and user pair
func NewToken(accessToken string, expiresAt time.Time, scopes []string, clientID, userID ulid.ULID) *Token {
	return &Token{
		ID:          ulid.Make(),
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		Scopes:      scopes,
		ClientID:    clientID,
		UserID:      userID,
		CreatedAt:   time.Now(),
	}
}

// Active reports whether the token expires strictly after the given instant.
// A token with no expiration set is never active.
func (t *Token) Active(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && t.ExpiresAt.After(now)
}

// TokenRepository defines the interface for token data access
type TokenRepository interface {
	// Create persists a new token and returns the stored record
	Create(ctx context.Context, token *Token) (*Token, error)

	// FindByAccessToken finds a token by its exact access token string
	FindByAccessToken(ctx context.Context, accessToken string) (*Token, error)

	// FindActive lists all tokens for the (client, user) pair whose
	// expiration is strictly after now
	FindActive(ctx context.Context, clientID, userID ulid.ULID, now time.Time) ([]*Token, error)

	// UpdateExpiry moves a token's expiration timestamp and returns the
	// updated record. Expiry is the only field ever mutated post-creation.
	UpdateExpiry(ctx context.Context, token *Token) (*Token, error)
}
