package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Postgres, logger *zap.Logger) domain.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	scopes, err := json.Marshal(user.Scopes)
	if err != nil {
		return err
	}

	return r.db.Exec(ctx, `
		INSERT INTO users (id, username, password, scopes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID.String(), user.Username, user.Password, scopes, user.CreatedAt, user.UpdatedAt)
}

func (r *UserRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.User, error) {
	return r.findOne(ctx, `
		SELECT id, username, password, scopes, created_at, updated_at
		FROM users WHERE id = $1
	`, id.String())
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `
		SELECT id, username, password, scopes, created_at, updated_at
		FROM users WHERE username = $1
	`, username)
}

func (r *UserRepository) findOne(ctx context.Context, sql string, arg interface{}) (*domain.User, error) {
	user := &domain.User{}
	var scopes []byte

	err := r.db.QueryRow(ctx, sql, arg).
		Scan(&user.ID, &user.Username, &user.Password, &scopes, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		r.logger.Error("failed to find user", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}

	if err := json.Unmarshal(scopes, &user.Scopes); err != nil {
		return nil, err
	}
	return user, nil
}
