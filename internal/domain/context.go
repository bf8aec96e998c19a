package domain

import "context"

// ContextKey is a type for context keys to avoid magic strings
type ContextKey string

const (
	// ContextKeyToken is the key for the authenticated bearer token in the context
	ContextKeyToken ContextKey = "token"
)

// WithToken adds the authenticated bearer token to the context
func WithToken(ctx context.Context, token *Token) context.Context {
	return context.WithValue(ctx, ContextKeyToken, token)
}

// GetToken retrieves the authenticated bearer token from the context
func GetToken(ctx context.Context) (*Token, bool) {
	token, ok := ctx.Value(ContextKeyToken).(*Token)
	return token, ok
}
