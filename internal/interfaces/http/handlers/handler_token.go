package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/token"
	httperrors "github.com/ipede/oauth2-server/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// TokenHandler drives the client_credentials grant through the token
// model: authenticate the client, resolve its service identity, validate
// the requested scope, then issue a token that supersedes any prior one.
type TokenHandler struct {
	model     domain.OAuth2Model
	generator *token.Generator
	duration  time.Duration
	logger    *zap.Logger
}

// NewTokenHandler creates a new TokenHandler
func NewTokenHandler(model domain.OAuth2Model, generator *token.Generator, duration time.Duration, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		model:     model,
		generator: generator,
		duration:  duration,
		logger:    logger,
	}
}

// TokenGrantHandler handles POST /auth/token
// @Summary Issue an access token via the client_credentials grant
// @Tags oauth2
// @Accept x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "must be client_credentials"
// @Param scope formData string false "comma separated scope labels"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/token [post]
func (h *TokenHandler) TokenGrantHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeInvalidRequest,
			"malformed request body", http.StatusBadRequest)
		return
	}

	grantType := r.PostFormValue("grant_type")
	if grantType == "" {
		httperrors.RespondWithError(w, httperrors.ErrCodeInvalidRequest,
			"grant_type is required", http.StatusBadRequest)
		return
	}
	if grantType != domain.GrantClientCredentials {
		httperrors.RespondWithError(w, httperrors.ErrCodeUnsupportedGrantType,
			"only client_credentials is supported", http.StatusBadRequest)
		return
	}

	clientID, clientSecret, ok := clientCredentials(r)
	if !ok {
		httperrors.RespondWithError(w, httperrors.ErrCodeInvalidRequest,
			"client authentication is required", http.StatusBadRequest)
		return
	}

	client, err := h.model.GetClient(r.Context(), clientID, clientSecret)
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeInvalidClient,
			"client authentication failed", http.StatusUnauthorized)
		return
	}

	if !client.SupportsGrant(domain.GrantClientCredentials) {
		httperrors.RespondWithError(w, httperrors.ErrCodeUnauthorizedClient,
			"client is not permitted to use this grant", http.StatusBadRequest)
		return
	}

	user, err := h.model.GetUserFromClient(r.Context(), client)
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeUnauthorizedClient,
			"client has no service identity", http.StatusBadRequest)
		return
	}

	scopes, err := h.model.ValidateScope(r.Context(), user, client, r.PostFormValue("scope"))
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeInvalidScope,
			"requested scope is not granted", http.StatusBadRequest)
		return
	}

	accessToken, err := h.generator.Generate()
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeServerError,
			"failed to issue token", http.StatusInternalServerError)
		return
	}

	expiresAt := time.Now().Add(h.duration)
	saved, err := h.model.SaveToken(r.Context(), domain.NewToken(accessToken, expiresAt, scopes, client.ID, user.ID), client, user)
	if err != nil {
		h.logger.Error("failed to save token", zap.String("client_id", clientID), zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeServerError,
			"failed to issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(TokenResponse{
		AccessToken: saved.AccessToken,
		TokenType:   domain.BearerTokenType,
		ExpiresIn:   int(time.Until(saved.ExpiresAt).Seconds()),
		Scope:       saved.Scopes,
	})
}

// clientCredentials extracts the client id and secret from HTTP Basic
// authentication, with form-encoded fields as a fallback.
func clientCredentials(r *http.Request) (string, string, bool) {
	if id, secret, ok := r.BasicAuth(); ok {
		return id, secret, true
	}
	id := r.PostFormValue("client_id")
	secret := r.PostFormValue("client_secret")
	if id == "" || secret == "" {
		return "", "", false
	}
	return id, secret, true
}
