package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ipede/oauth2-server/internal/application"
	httperrors "github.com/ipede/oauth2-server/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// ClientHandler exposes client provisioning over HTTP. The same
// ProvisionService backs the create-client command line tool.
type ClientHandler struct {
	provision *application.ProvisionService
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(provision *application.ProvisionService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		provision: provision,
		validate:  validator.New(),
		logger:    logger,
	}
}

// CreateClientHandler handles POST /api/clients
// @Summary Provision a client_credentials client and its service identity
// @Tags clients
// @Accept json
// @Produce json
// @Param request body CreateClientRequest true "client name and granted scopes"
// @Success 201 {object} application.ClientCredentials
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/clients [post]
func (h *ClientHandler) CreateClientHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeInvalidRequest,
			"invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeInvalidRequest,
			"name and at least one scope are required", http.StatusBadRequest)
		return
	}

	creds, err := h.provision.CreateClient(r.Context(), req.Name, req.Scopes)
	if err != nil {
		h.logger.Error("failed to provision client", zap.String("name", req.Name), zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeServerError,
			"failed to provision client", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(creds)
}

// ListClientsHandler handles GET /api/clients
// @Summary List registered clients
// @Tags clients
// @Produce json
// @Success 200 {array} domain.Client
// @Router /api/clients [get]
func (h *ClientHandler) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	clients, err := h.provision.ListClients(r.Context())
	if err != nil {
		h.logger.Error("failed to list clients", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeServerError,
			"failed to list clients", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(clients)
}
