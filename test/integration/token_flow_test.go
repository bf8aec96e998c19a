package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ipede/oauth2-server/internal/application"
	"github.com/ipede/oauth2-server/internal/infrastructure/repository"
	httpapi "github.com/ipede/oauth2-server/internal/interfaces/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	Scope       []string `json:"scope"`
}

type authenticateResponse struct {
	UserID   string   `json:"user_id"`
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes"`
}

func setupServer(t *testing.T) (*httptest.Server, *application.ProvisionService) {
	db, cfg := setupTestContainer(t)
	logger := zap.NewNop()

	router := httpapi.NewRouter(db, cfg, logger)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	provision := application.NewProvisionService(
		repository.NewClientRepository(db, logger),
		repository.NewUserRepository(db, logger),
		logger,
	)
	return srv, provision
}

func requestToken(t *testing.T, srv *httptest.Server, clientID, clientSecret, scope string) *http.Response {
	t.Helper()
	form := url.Values{"grant_type": {"client_credentials"}}
	if scope != "" {
		form.Set("scope", scope)
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/token", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, clientSecret)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func authenticate(t *testing.T, srv *httptest.Server, accessToken string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/authenticate", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClientCredentialsGrant(t *testing.T) {
	srv, provision := setupServer(t)

	creds, err := provision.CreateClient(context.Background(), "integration", []string{"orders:read", "orders:write"})
	require.NoError(t, err)

	resp := requestToken(t, srv, creds.ClientID, creds.ClientSecret, "orders:read")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var token tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, []string{"orders:read"}, token.Scope, "only the requested scope is issued")
	assert.InDelta(t, 3600, token.ExpiresIn, 10)

	authResp := authenticate(t, srv, token.AccessToken)
	defer authResp.Body.Close()
	require.Equal(t, http.StatusOK, authResp.StatusCode)

	var identity authenticateResponse
	require.NoError(t, json.NewDecoder(authResp.Body).Decode(&identity))
	assert.NotEmpty(t, identity.UserID)
	assert.NotEmpty(t, identity.ClientID)
	assert.Equal(t, []string{"orders:read"}, identity.Scopes)
}

func TestTokenSupersession(t *testing.T) {
	srv, provision := setupServer(t)

	creds, err := provision.CreateClient(context.Background(), "integration", []string{"orders:read"})
	require.NoError(t, err)

	first := requestToken(t, srv, creds.ClientID, creds.ClientSecret, "orders:read")
	defer first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)
	var oldToken tokenResponse
	require.NoError(t, json.NewDecoder(first.Body).Decode(&oldToken))

	second := requestToken(t, srv, creds.ClientID, creds.ClientSecret, "orders:read")
	defer second.Body.Close()
	require.Equal(t, http.StatusOK, second.StatusCode)
	var newToken tokenResponse
	require.NoError(t, json.NewDecoder(second.Body).Decode(&newToken))
	require.NotEqual(t, oldToken.AccessToken, newToken.AccessToken)

	// The superseded token must no longer authenticate.
	oldResp := authenticate(t, srv, oldToken.AccessToken)
	defer oldResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, oldResp.StatusCode)

	newResp := authenticate(t, srv, newToken.AccessToken)
	defer newResp.Body.Close()
	assert.Equal(t, http.StatusOK, newResp.StatusCode)
}

func TestGrantFailures(t *testing.T) {
	srv, provision := setupServer(t)

	creds, err := provision.CreateClient(context.Background(), "integration", []string{"orders:read"})
	require.NoError(t, err)

	t.Run("unknown client", func(t *testing.T) {
		resp := requestToken(t, srv, "nope", "nope", "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("wrong secret", func(t *testing.T) {
		resp := requestToken(t, srv, creds.ClientID, "wrong", "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("scope outside the grant", func(t *testing.T) {
		resp := requestToken(t, srv, creds.ClientID, creds.ClientSecret, "orders:read,superadmin")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unsupported grant type", func(t *testing.T) {
		form := url.Values{"grant_type": {"password"}}
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/token", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(creds.ClientID, creds.ClientSecret)

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthenticateFailures(t *testing.T) {
	srv, _ := setupServer(t)

	t.Run("malformed authorization header", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/authenticate", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "NotBearer abc")

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown token", func(t *testing.T) {
		resp := authenticate(t, srv, "deadbeef")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestUnsupportedMethodsReadAsNotFound(t *testing.T) {
	srv, _ := setupServer(t)

	t.Run("GET on the token endpoint", func(t *testing.T) {
		resp, err := srv.Client().Get(srv.URL + "/auth/token")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("POST on the authenticate endpoint", func(t *testing.T) {
		resp, err := srv.Client().Post(srv.URL+"/auth/authenticate", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAdminEndpoints(t *testing.T) {
	srv, provision := setupServer(t)

	admin, err := provision.CreateClient(context.Background(), "admin", []string{"clients:read", "clients:write"})
	require.NoError(t, err)

	resp := requestToken(t, srv, admin.ClientID, admin.ClientSecret, "clients:read,clients:write")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var adminToken tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&adminToken))

	t.Run("provision over HTTP", func(t *testing.T) {
		body := `{"name":"payments","scopes":["orders:read"]}`
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/clients", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+adminToken.AccessToken)
		req.Header.Set("Content-Type", "application/json")

		createResp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer createResp.Body.Close()
		require.Equal(t, http.StatusCreated, createResp.StatusCode)

		var creds application.ClientCredentials
		require.NoError(t, json.NewDecoder(createResp.Body).Decode(&creds))
		assert.Equal(t, "payments", creds.Name)
		assert.NotEmpty(t, creds.ClientSecret)
	})

	t.Run("list clients", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/clients", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+adminToken.AccessToken)

		listResp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer listResp.Body.Close()
		assert.Equal(t, http.StatusOK, listResp.StatusCode)
	})

	t.Run("token without the scope is forbidden", func(t *testing.T) {
		limited, err := provision.CreateClient(context.Background(), "limited", []string{"orders:read"})
		require.NoError(t, err)

		tokenResp := requestToken(t, srv, limited.ClientID, limited.ClientSecret, "orders:read")
		defer tokenResp.Body.Close()
		require.Equal(t, http.StatusOK, tokenResp.StatusCode)
		var limitedToken tokenResponse
		require.NoError(t, json.NewDecoder(tokenResp.Body).Decode(&limitedToken))

		body := `{"name":"payments","scopes":["orders:read"]}`
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/clients", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+limitedToken.AccessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
