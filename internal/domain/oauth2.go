package domain

import "context"

// OAuth2Model is the contract the grant flow drives. It answers the six
// questions the token endpoint and the bearer middleware need: is this
// bearer token currently valid and for whom, is this client/secret pair
// valid, what user backs this client, issue a token invalidating prior
// ones, invalidate a specific token, and does this user possess the
// requested scopes.
//
// Every operation downgrades store failures to its documented sentinel
// error; store errors never cross this boundary. Callers treat any non-nil
// error as an invalid result and choose their own status codes.
type OAuth2Model interface {
	// GetAccessToken looks up a token by its exact access token string.
	// Returns ErrTokenNotFound, ErrTokenNoExpiration or ErrTokenExpired.
	// No side effects.
	GetAccessToken(ctx context.Context, bearerToken string) (*Token, error)

	// GetClient validates a client id and secret pair in a single lookup.
	// Returns ErrClientNotFound.
	GetClient(ctx context.Context, clientID, clientSecret string) (*Client, error)

	// GetUserFromClient resolves the user backing an already authenticated
	// client. Returns ErrClientNotFound or ErrUserNotFound.
	GetUserFromClient(ctx context.Context, client *Client) (*User, error)

	// SaveToken expires every active token for the (client, user) pair and
	// then persists the new token. A failure expiring prior tokens aborts
	// the whole operation and the new token is not stored. Returns
	// ErrStoreUnavailable.
	SaveToken(ctx context.Context, token *Token, client *Client, user *User) (*Token, error)

	// RevokeToken moves the token's expiration into the past and persists
	// the mutation. Idempotent. Returns ErrStoreUnavailable.
	RevokeToken(ctx context.Context, token *Token) (*Token, error)

	// ValidateScope parses scope as a comma separated list, re-resolves the
	// user from the store and checks that every requested label is granted.
	// On success it returns exactly the requested set, never more. Returns
	// ErrUserNotFound or ErrInsufficientScope.
	ValidateScope(ctx context.Context, user *User, client *Client, scope string) ([]string, error)
}

// RevocationStrategy expires a single token and persists the mutation.
type RevocationStrategy func(ctx context.Context, token *Token) (*Token, error)

// ExpirationStrategy expires every currently active token for the
// (client, user) pair, using revoke for each one. A failure here must
// propagate so issuance never runs its second phase.
type ExpirationStrategy func(ctx context.Context, client *Client, user *User, revoke RevocationStrategy) error
