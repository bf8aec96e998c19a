package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ipede/oauth2-server/internal/application"
	"github.com/ipede/oauth2-server/internal/infrastructure/config"
	"github.com/ipede/oauth2-server/internal/infrastructure/database"
	"github.com/ipede/oauth2-server/internal/infrastructure/repository"
	"github.com/ipede/oauth2-server/internal/infrastructure/token"
	"github.com/ipede/oauth2-server/internal/interfaces/http/handlers"
	"github.com/ipede/oauth2-server/internal/interfaces/http/middleware/auth"
	"github.com/ipede/oauth2-server/internal/interfaces/http/middleware/ratelimit"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Router wires the protocol engine: repositories, the token model, the
// handlers and the middleware stack.
type Router struct {
	router *chi.Mux
	db     *database.Postgres
}

// NewRouter creates the fully wired HTTP router
func NewRouter(
	db *database.Postgres,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	clientRepo := repository.NewClientRepository(db, logger)
	userRepo := repository.NewUserRepository(db, logger)
	tokenRepo := repository.NewTokenRepository(db, logger)

	model := application.NewTokenModel(clientRepo, userRepo, tokenRepo, logger)
	provision := application.NewProvisionService(clientRepo, userRepo, logger)
	generator := token.NewGenerator(logger)

	bearer := auth.NewBearerMiddleware(model, logger)

	tokenHandler := handlers.NewTokenHandler(model, generator, cfg.AccessTokenDuration, logger)
	authenticateHandler := handlers.NewAuthenticateHandler(logger)
	clientHandler := handlers.NewClientHandler(provision, logger)

	router := createRouter()

	rateLimiter := ratelimit.NewRateLimiter(100, 200, 3*time.Minute, logger)
	router.Use(rateLimiter.Middleware)

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := db.Ping(); err != nil {
				logger.Error("Database health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("Database connection failed"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ready"))
		})
	})

	// Swagger UI configuration
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DocExpansion("list"),
	))
	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "docs/swagger.json")
	})

	// OAuth2 endpoints
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", tokenHandler.TokenGrantHandler)

		r.Group(func(r chi.Router) {
			r.Use(bearer.Authenticator)
			r.Get("/authenticate", authenticateHandler.AuthenticateHandler)
		})
	})

	// Admin routes, guarded by token scopes
	router.Route("/api", func(r chi.Router) {
		r.Use(bearer.Authenticator)

		r.Group(func(r chi.Router) {
			r.Use(bearer.RequireScope("clients:write"))
			r.Post("/clients", clientHandler.CreateClientHandler)
		})
		r.Group(func(r chi.Router) {
			r.Use(bearer.RequireScope("clients:read"))
			r.Get("/clients", clientHandler.ListClientsHandler)
		})
	})

	return &Router{router: router, db: db}
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(60 * time.Second))

	// Unsupported methods on known paths read as unknown resources, the
	// behaviour the integration suite pins down.
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
