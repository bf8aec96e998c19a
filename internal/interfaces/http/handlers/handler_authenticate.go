package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ipede/oauth2-server/internal/domain"
	httperrors "github.com/ipede/oauth2-server/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// AuthenticateHandler echoes the identity behind a valid bearer token. The
// bearer middleware has already validated the token and stored it in the
// request context before this handler runs.
type AuthenticateHandler struct {
	logger *zap.Logger
}

// NewAuthenticateHandler creates a new AuthenticateHandler
func NewAuthenticateHandler(logger *zap.Logger) *AuthenticateHandler {
	return &AuthenticateHandler{logger: logger}
}

// AuthenticateHandler handles GET /auth/authenticate
// @Summary Validate a bearer access token
// @Tags oauth2
// @Produce json
// @Success 200 {object} AuthenticateResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/authenticate [get]
func (h *AuthenticateHandler) AuthenticateHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := domain.GetToken(r.Context())
	if !ok {
		httperrors.RespondWithError(w, httperrors.ErrCodeInvalidClient,
			"authentication required", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthenticateResponse{
		UserID:    token.UserID.String(),
		ClientID:  token.ClientID.String(),
		Scopes:    token.Scopes,
		ExpiresAt: token.ExpiresAt,
	})
}
