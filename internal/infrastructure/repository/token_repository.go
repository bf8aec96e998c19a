package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// TokenRepository implements domain.TokenRepository using PostgreSQL.
// Tokens reference clients and users by identifier only; there are no
// foreign key cascades, expired tokens stay inert until an external
// retention job removes them.
type TokenRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *database.Postgres, logger *zap.Logger) domain.TokenRepository {
	return &TokenRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TokenRepository) Create(ctx context.Context, token *domain.Token) (*domain.Token, error) {
	scopes, err := json.Marshal(token.Scopes)
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if !token.ExpiresAt.IsZero() {
		expiresAt = &token.ExpiresAt
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO tokens (id, access_token, expires_at, scopes, client_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, access_token, expires_at, scopes, client_id, user_id, created_at
	`, token.ID.String(), token.AccessToken, expiresAt, scopes, token.ClientID.String(), token.UserID.String(), token.CreatedAt)

	saved, err := scanToken(row)
	if err != nil {
		r.logger.Error("failed to create token", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	return saved, nil
}

func (r *TokenRepository) FindByAccessToken(ctx context.Context, accessToken string) (*domain.Token, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, access_token, expires_at, scopes, client_id, user_id, created_at
		FROM tokens WHERE access_token = $1
	`, accessToken)

	token, err := scanToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		r.logger.Error("failed to find token", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	return token, nil
}

func (r *TokenRepository) FindActive(ctx context.Context, clientID, userID ulid.ULID, now time.Time) ([]*domain.Token, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, access_token, expires_at, scopes, client_id, user_id, created_at
		FROM tokens
		WHERE client_id = $1 AND user_id = $2 AND expires_at > $3
	`, clientID.String(), userID.String(), now)
	if err != nil {
		r.logger.Error("failed to enumerate active tokens", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	defer rows.Close()

	var tokens []*domain.Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (r *TokenRepository) UpdateExpiry(ctx context.Context, token *domain.Token) (*domain.Token, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tokens SET expires_at = $1 WHERE id = $2
		RETURNING id, access_token, expires_at, scopes, client_id, user_id, created_at
	`, token.ExpiresAt, token.ID.String())

	updated, err := scanToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		r.logger.Error("failed to update token expiry", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	return updated, nil
}

func scanToken(row pgx.Row) (*domain.Token, error) {
	token := &domain.Token{}
	var scopes []byte
	var expiresAt *time.Time

	err := row.Scan(&token.ID, &token.AccessToken, &expiresAt, &scopes, &token.ClientID, &token.UserID, &token.CreatedAt)
	if err != nil {
		return nil, err
	}

	if expiresAt != nil {
		token.ExpiresAt = *expiresAt
	}
	if err := json.Unmarshal(scopes, &token.Scopes); err != nil {
		return nil, err
	}
	return token, nil
}
