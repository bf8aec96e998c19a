package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/password"
	"go.uber.org/zap"
)

// ClientCredentials carries the plaintext credentials of a freshly
// provisioned client. They are returned exactly once; the user password is
// stored hashed and cannot be recovered later.
type ClientCredentials struct {
	Name         string   `json:"name"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Scopes       []string `json:"scopes"`
}

// ProvisionService creates client_credentials clients together with their
// service identity user. This is the out-of-band provisioning step; the
// token model itself never creates clients or users.
type ProvisionService struct {
	clients domain.ClientRepository
	users   domain.UserRepository
	logger  *zap.Logger
}

// NewProvisionService creates a new ProvisionService
func NewProvisionService(clients domain.ClientRepository, users domain.UserRepository, logger *zap.Logger) *ProvisionService {
	return &ProvisionService{
		clients: clients,
		users:   users,
		logger:  logger,
	}
}

// CreateClient provisions a client with a random 8 byte client id and
// random 16 byte secret, associated with a user carrying the granted
// scopes, also with a random 8 byte username and 16 byte password.
func (s *ProvisionService) CreateClient(ctx context.Context, name string, scopes []string) (*ClientCredentials, error) {
	if name == "" {
		return nil, fmt.Errorf("client name must not be empty")
	}

	clientID, err := randomHex(8)
	if err != nil {
		return nil, err
	}
	clientSecret, err := randomHex(16)
	if err != nil {
		return nil, err
	}
	username, err := randomHex(8)
	if err != nil {
		return nil, err
	}
	userPassword, err := randomHex(16)
	if err != nil {
		return nil, err
	}

	hashed, err := password.HashPassword(userPassword)
	if err != nil {
		s.logger.Error("failed to hash user password", zap.Error(err))
		return nil, err
	}

	user := domain.NewUser(username, hashed, scopes)
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	s.logger.Info("provisioned new user", zap.String("username", username))

	client := domain.NewClient(clientID, clientSecret, name, []string{domain.GrantClientCredentials}, user.ID)
	if err := s.clients.Create(ctx, client); err != nil {
		s.logger.Error("failed to create client", zap.String("client_id", clientID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("provisioned new client",
		zap.String("name", name),
		zap.String("client_id", clientID))

	return &ClientCredentials{
		Name:         name,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Username:     username,
		Password:     userPassword,
		Scopes:       scopes,
	}, nil
}

// ListClients lists all registered clients
func (s *ProvisionService) ListClients(ctx context.Context) ([]*domain.Client, error) {
	return s.clients.List(ctx)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
