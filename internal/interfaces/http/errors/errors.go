package errors

import (
	"encoding/json"
	"net/http"
)

// OAuth2 error codes from RFC 6749 §5.2
const (
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeInvalidClient        = "invalid_client"
	ErrCodeInvalidScope         = "invalid_scope"
	ErrCodeUnauthorizedClient   = "unauthorized_client"
	ErrCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrCodeServerError          = "server_error"
)

// ErrorResponse is the JSON error body the protocol engine produces. The
// token model itself contributes no user visible text.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// RespondWithError sends a standardized OAuth2 error response
func RespondWithError(w http.ResponseWriter, code, description string, status int) {
	w.Header().Set("Content-Type", "application/json")
	if code == ErrCodeInvalidClient {
		// RFC 6749 §5.2: challenge the client when authentication failed
		w.Header().Set("WWW-Authenticate", `Basic realm="oauth2"`)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:       code,
		Description: description,
	})
}
