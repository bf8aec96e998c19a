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

// ClientRepository implements domain.ClientRepository using PostgreSQL
type ClientRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *database.Postgres, logger *zap.Logger) domain.ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	grants, err := json.Marshal(client.Grants)
	if err != nil {
		return err
	}

	var userID interface{}
	if client.HasUser() {
		userID = client.UserID.String()
	}

	return r.db.Exec(ctx, `
		INSERT INTO clients (id, client_id, secret, name, grants, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, client.ID.String(), client.ClientID, client.Secret, client.Name, grants, userID, client.CreatedAt, client.UpdatedAt)
}

// FindByCredentials matches client id and secret in a single query. An
// unknown id and a wrong secret both surface as ErrClientNotFound.
func (r *ClientRepository) FindByCredentials(ctx context.Context, clientID, clientSecret string) (*domain.Client, error) {
	client := &domain.Client{}
	var grants []byte
	var userID *string

	err := r.db.QueryRow(ctx, `
		SELECT id, client_id, secret, name, grants, user_id, created_at, updated_at
		FROM clients WHERE client_id = $1 AND secret = $2
	`, clientID, clientSecret).
		Scan(&client.ID, &client.ClientID, &client.Secret, &client.Name, &grants, &userID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		r.logger.Error("failed to find client", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}

	if err := json.Unmarshal(grants, &client.Grants); err != nil {
		return nil, err
	}
	if userID != nil {
		id, err := ulid.Parse(*userID)
		if err != nil {
			return nil, err
		}
		client.UserID = id
	}
	return client, nil
}

// FindUserByCredentials resolves the client together with its associated
// user in one traversal. A client without a user yields ErrUserNotFound.
func (r *ClientRepository) FindUserByCredentials(ctx context.Context, clientID, clientSecret string) (*domain.User, error) {
	user := &domain.User{}
	var scopes []byte

	err := r.db.QueryRow(ctx, `
		SELECT u.id, u.username, u.password, u.scopes, u.created_at, u.updated_at
		FROM clients c
		JOIN users u ON u.id = c.user_id
		WHERE c.client_id = $1 AND c.secret = $2
	`, clientID, clientSecret).
		Scan(&user.ID, &user.Username, &user.Password, &scopes, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		r.logger.Error("failed to resolve client user", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}

	if err := json.Unmarshal(scopes, &user.Scopes); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*domain.Client, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, client_id, secret, name, grants, user_id, created_at, updated_at
		FROM clients
		ORDER BY created_at DESC
	`)
	if err != nil {
		r.logger.Error("failed to list clients", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		client := &domain.Client{}
		var grants []byte
		var userID *string

		err := rows.Scan(&client.ID, &client.ClientID, &client.Secret, &client.Name, &grants, &userID, &client.CreatedAt, &client.UpdatedAt)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(grants, &client.Grants); err != nil {
			return nil, err
		}
		if userID != nil {
			id, err := ulid.Parse(*userID)
			if err != nil {
				return nil, err
			}
			client.UserID = id
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}
