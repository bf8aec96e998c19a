package handlers

import "time"

// TokenResponse is the successful token grant response
type TokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	Scope       []string `json:"scope"`
}

// AuthenticateResponse confirms a valid bearer token
type AuthenticateResponse struct {
	UserID    string    `json:"user_id"`
	ClientID  string    `json:"client_id"`
	Scopes    []string  `json:"scopes"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateClientRequest is the admin request to provision a client
type CreateClientRequest struct {
	Name   string   `json:"name" validate:"required"`
	Scopes []string `json:"scopes" validate:"required,min=1"`
}
