package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TokenModel implements domain.OAuth2Model against the injected
// repositories. It owns the token lifecycle: retrieval and validation,
// client credential verification, issuance with single-active-token
// enforcement, revocation and scope validation. It never caches entities
// across calls; every operation re-reads current state.
type TokenModel struct {
	clients domain.ClientRepository
	users   domain.UserRepository
	tokens  domain.TokenRepository
	logger  *zap.Logger

	now    func() time.Time
	revoke domain.RevocationStrategy
	expire domain.ExpirationStrategy
}

// Option configures a TokenModel
type Option func(*TokenModel)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *TokenModel) { m.now = now }
}

// WithRevocationStrategy overrides how a single token is expired
func WithRevocationStrategy(revoke domain.RevocationStrategy) Option {
	return func(m *TokenModel) { m.revoke = revoke }
}

// WithExpirationStrategy overrides how prior active tokens are expired
// before a new one is persisted
func WithExpirationStrategy(expire domain.ExpirationStrategy) Option {
	return func(m *TokenModel) { m.expire = expire }
}

// NewTokenModel creates a new TokenModel. The default strategies revoke a
// token by moving its expiration one second into the past and expire prior
// tokens by revoking them concurrently as a single batch.
func NewTokenModel(
	clients domain.ClientRepository,
	users domain.UserRepository,
	tokens domain.TokenRepository,
	logger *zap.Logger,
	opts ...Option,
) *TokenModel {
	m := &TokenModel{
		clients: clients,
		users:   users,
		tokens:  tokens,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.revoke == nil {
		m.revoke = m.revokeToken
	}
	if m.expire == nil {
		m.expire = m.expireTokens
	}
	return m
}

// GetAccessToken looks up a token by its exact access token string and
// checks that its expiration is strictly in the future. A store failure is
// logged and reported as ErrTokenNotFound; callers cannot distinguish
// "not found" from "store unavailable" through this operation.
func (m *TokenModel) GetAccessToken(ctx context.Context, bearerToken string) (*domain.Token, error) {
	m.logger.Debug("retrieving access token", zap.String("access_token", bearerToken))

	token, err := m.tokens.FindByAccessToken(ctx, bearerToken)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			m.logger.Info("could not find token", zap.String("access_token", bearerToken))
			return nil, domain.ErrTokenNotFound
		}
		m.logger.Error("failed to retrieve token",
			zap.String("access_token", bearerToken),
			zap.Error(err))
		return nil, domain.ErrTokenNotFound
	}

	if token.ExpiresAt.IsZero() {
		m.logger.Info("token has no expiration date", zap.String("access_token", bearerToken))
		return nil, domain.ErrTokenNoExpiration
	}

	if !token.ExpiresAt.After(m.now()) {
		m.logger.Info("token has expired",
			zap.String("access_token", bearerToken),
			zap.Time("expires_at", token.ExpiresAt))
		return nil, domain.ErrTokenExpired
	}

	return token, nil
}

// GetClient validates a client id and secret pair. Both fields are matched
// in a single lookup so an unknown id and a wrong secret are
// indistinguishable at this layer.
func (m *TokenModel) GetClient(ctx context.Context, clientID, clientSecret string) (*domain.Client, error) {
	m.logger.Debug("retrieving client", zap.String("client_id", clientID))

	client, err := m.clients.FindByCredentials(ctx, clientID, clientSecret)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			m.logger.Info("could not find client", zap.String("client_id", clientID))
		} else {
			m.logger.Error("failed to retrieve client",
				zap.String("client_id", clientID),
				zap.Error(err))
		}
		return nil, domain.ErrClientNotFound
	}
	return client, nil
}

// GetUserFromClient resolves the user backing an already authenticated
// client, re-resolving the client together with its user in one traversal.
func (m *TokenModel) GetUserFromClient(ctx context.Context, client *domain.Client) (*domain.User, error) {
	if client == nil {
		return nil, domain.ErrClientNotFound
	}
	m.logger.Debug("retrieving user for client", zap.String("client_id", client.ClientID))

	user, err := m.clients.FindUserByCredentials(ctx, client.ClientID, client.Secret)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			m.logger.Info("could not resolve user for client", zap.String("client_id", client.ClientID))
			return nil, domain.ErrUserNotFound
		}
		m.logger.Error("failed to resolve user for client",
			zap.String("client_id", client.ClientID),
			zap.Error(err))
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// SaveToken issues a token in two phases: every currently active token for
// the (client, user) pair is expired first, then the new token is
// persisted. A failure in the first phase is fatal to the whole operation
// so partial success can never leave multiple active tokens behind.
func (m *TokenModel) SaveToken(ctx context.Context, token *domain.Token, client *domain.Client, user *domain.User) (*domain.Token, error) {
	if token == nil || client == nil || user == nil {
		return nil, domain.ErrStoreUnavailable
	}
	m.logger.Debug("saving token",
		zap.String("client_id", client.ClientID),
		zap.String("username", user.Username))

	if err := m.expire(ctx, client, user, m.revoke); err != nil {
		m.logger.Error("failed to expire prior tokens, aborting issuance",
			zap.String("client_id", client.ClientID),
			zap.String("username", user.Username),
			zap.Error(err))
		return nil, domain.ErrStoreUnavailable
	}

	token.ClientID = client.ID
	token.UserID = user.ID

	saved, err := m.tokens.Create(ctx, token)
	if err != nil {
		m.logger.Error("failed to save token",
			zap.String("client_id", client.ClientID),
			zap.String("username", user.Username),
			zap.Error(err))
		return nil, domain.ErrStoreUnavailable
	}
	if saved == nil {
		return nil, domain.ErrStoreUnavailable
	}
	return saved, nil
}

// RevokeToken expires a single token using the configured revocation
// strategy. Revoking an already expired token is harmless.
func (m *TokenModel) RevokeToken(ctx context.Context, token *domain.Token) (*domain.Token, error) {
	return m.revoke(ctx, token)
}

// ValidateScope parses the requested scope as a comma separated list and
// checks every label against the granted scopes of the user, re-resolved
// from the store to defend against a stale or forged argument. On success
// it returns exactly the requested set, never the user's full grant.
func (m *TokenModel) ValidateScope(ctx context.Context, user *domain.User, client *domain.Client, scope string) ([]string, error) {
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	m.logger.Debug("validating scope",
		zap.String("username", user.Username),
		zap.String("scope", scope))

	requested := parseScope(scope)

	resolved, err := m.users.FindByUsername(ctx, user.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			m.logger.Info("could not find user", zap.String("username", user.Username))
		} else {
			m.logger.Error("failed to resolve user",
				zap.String("username", user.Username),
				zap.Error(err))
		}
		return nil, domain.ErrUserNotFound
	}

	for _, s := range requested {
		if !resolved.HasScope(s) {
			m.logger.Info("requested scope not granted",
				zap.String("username", user.Username),
				zap.String("scope", s))
			return nil, domain.ErrInsufficientScope
		}
	}
	return requested, nil
}

// revokeToken is the default revocation strategy. It moves the token's
// expiration one second into the past so it always reads as expired under
// the strictly-future check, avoiding equality boundary ambiguity.
func (m *TokenModel) revokeToken(ctx context.Context, token *domain.Token) (*domain.Token, error) {
	if token == nil {
		return nil, domain.ErrTokenNotFound
	}
	m.logger.Debug("revoking token", zap.String("access_token", token.AccessToken))

	token.ExpiresAt = m.now().Add(-time.Second)

	updated, err := m.tokens.UpdateExpiry(ctx, token)
	if err != nil {
		m.logger.Error("failed to revoke token",
			zap.String("access_token", token.AccessToken),
			zap.Error(err))
		return nil, domain.ErrStoreUnavailable
	}
	if updated == nil {
		return nil, domain.ErrStoreUnavailable
	}
	return updated, nil
}

// expireTokens is the default expiration strategy. All revocations are
// issued concurrently and awaited as a single batch before issuance may
// continue; any failure propagates to the caller.
func (m *TokenModel) expireTokens(ctx context.Context, client *domain.Client, user *domain.User, revoke domain.RevocationStrategy) error {
	active, err := m.tokens.FindActive(ctx, client.ID, user.ID, m.now())
	if err != nil {
		m.logger.Error("failed to enumerate active tokens",
			zap.String("client_id", client.ClientID),
			zap.String("username", user.Username),
			zap.Error(err))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range active {
		t := t
		g.Go(func() error {
			_, err := revoke(gctx, t)
			return err
		})
	}
	return g.Wait()
}

func parseScope(scope string) []string {
	if scope == "" {
		return []string{}
	}
	parts := strings.Split(scope, ",")
	requested := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			requested = append(requested, p)
		}
	}
	return requested
}
