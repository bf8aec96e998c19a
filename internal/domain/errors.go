package domain

import "errors"

var (
	// ErrTokenNotFound is returned when no token matches an access token string
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenNoExpiration is returned when a matched token has no expiration timestamp set
	ErrTokenNoExpiration = errors.New("token has no expiration date")

	// ErrTokenExpired is returned when a matched token's expiration is not strictly in the future
	ErrTokenExpired = errors.New("token expired")

	// ErrClientNotFound is returned when no client matches a client id and secret pair
	ErrClientNotFound = errors.New("client not found")

	// ErrUserNotFound is returned when a user cannot be resolved
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientScope is returned when a requested scope is not granted to the user
	ErrInsufficientScope = errors.New("insufficient scope")

	// ErrUnsupportedGrant is returned when a client does not permit the requested grant type
	ErrUnsupportedGrant = errors.New("unsupported grant type")

	// ErrClientAlreadyExists is returned when provisioning collides with an existing client id
	ErrClientAlreadyExists = errors.New("client already exists")

	// ErrStoreUnavailable is returned when the persistent store fails
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDatabaseQuery is returned when a repository query fails for any other reason
	ErrDatabaseQuery = errors.New("database query error")
)
