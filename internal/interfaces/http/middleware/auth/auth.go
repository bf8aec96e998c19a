package auth

import (
	"net/http"
	"strings"

	"github.com/ipede/oauth2-server/internal/domain"
	httperrors "github.com/ipede/oauth2-server/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// BearerMiddleware authenticates requests carrying a bearer access token.
// A structurally malformed or absent Authorization header is a 400; a well
// formed header with an invalid, expired or unknown token is a 401. The
// model collapses all failure kinds into one invalid signal, so this layer
// cannot (and does not) distinguish them further.
type BearerMiddleware struct {
	model  domain.OAuth2Model
	logger *zap.Logger
}

// NewBearerMiddleware creates a new BearerMiddleware
func NewBearerMiddleware(model domain.OAuth2Model, logger *zap.Logger) *BearerMiddleware {
	return &BearerMiddleware{model: model, logger: logger}
}

// Authenticator validates the bearer token and stores it in the request context
func (m *BearerMiddleware) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearerToken, ok := extractBearer(r)
		if !ok {
			httperrors.RespondWithError(w, httperrors.ErrCodeInvalidRequest,
				"malformed authorization header", http.StatusBadRequest)
			return
		}

		token, err := m.model.GetAccessToken(r.Context(), bearerToken)
		if err != nil {
			httperrors.RespondWithError(w, httperrors.ErrCodeInvalidClient,
				"invalid or expired token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithToken(r.Context(), token)))
	})
}

// RequireScope rejects authenticated requests whose token does not carry the scope
func (m *BearerMiddleware) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := domain.GetToken(r.Context())
			if !ok {
				httperrors.RespondWithError(w, httperrors.ErrCodeInvalidClient,
					"authentication required", http.StatusUnauthorized)
				return
			}

			for _, s := range token.Scopes {
				if s == scope {
					next.ServeHTTP(w, r)
					return
				}
			}

			m.logger.Info("token missing required scope", zap.String("scope", scope))
			httperrors.RespondWithError(w, httperrors.ErrCodeInvalidScope,
				"token does not carry the required scope", http.StatusForbidden)
		})
	}
}

// extractBearer pulls the token out of the Authorization header. It
// reports false when the header is absent, the scheme is not Bearer, or
// the token part is empty.
func extractBearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], domain.BearerTokenType) {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
