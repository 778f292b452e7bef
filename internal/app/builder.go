// Package app assembles the dependency graph and manages the server
// lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/usergate/user_service/internal/api"
	"github.com/usergate/user_service/internal/auth"
	"github.com/usergate/user_service/internal/config"
	"github.com/usergate/user_service/internal/database"
	"github.com/usergate/user_service/internal/errors"
	"github.com/usergate/user_service/internal/logging"
	"github.com/usergate/user_service/internal/metrics"
	"github.com/usergate/user_service/internal/middleware"
	"github.com/usergate/user_service/internal/repository"
	"github.com/usergate/user_service/internal/service"
	"github.com/usergate/user_service/internal/storage"
	"github.com/usergate/user_service/internal/storage/postgres"
)

// unauthenticatedPaths bypass bearer-token authentication.
var unauthenticatedPaths = []string{"/health", "/metrics"}

// Builder constructs the object graph in dependency order: logger, config,
// middleware, database, auth, repository, service, controller. Steps run out
// of order record a configuration error; later steps become no-ops and Build
// surfaces the first error.
type Builder struct {
	router *mux.Router

	cfg        *config.Config
	log        *logging.Logger
	gateway    *database.Gateway
	store      storage.UserStore
	verifier   auth.TokenVerifier
	repo       *repository.UserRepository
	users      *service.UserService
	controller *api.UserController
	limiter    *middleware.RateLimiter

	middlewareReady bool
	err             error
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{router: mux.NewRouter()}
}

func (b *Builder) fail(message string) *Builder {
	if b.err == nil {
		b.err = errors.Configuration(message)
	}
	return b
}

// WithLogger injects the logger. Must be the first configuration step.
func (b *Builder) WithLogger(log *logging.Logger) *Builder {
	if b.err != nil {
		return b
	}
	if log == nil {
		return b.fail("logger must not be nil")
	}
	b.log = log
	return b
}

// WithConfig injects the service configuration.
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	if b.err != nil {
		return b
	}
	if b.log == nil {
		return b.fail("configuring application without a logger")
	}
	if cfg == nil {
		return b.fail("config must not be nil")
	}
	b.cfg = cfg
	return b
}

// WithMiddleware prepares the request-size cap and the per-client rate
// limiter.
func (b *Builder) WithMiddleware() *Builder {
	if b.err != nil {
		return b
	}
	if b.log == nil {
		return b.fail("configuring middleware without a logger")
	}
	if b.cfg == nil {
		return b.fail("configuring middleware without configuration")
	}

	b.log.Info("attaching middleware")
	window := time.Duration(b.cfg.RateLimit.WindowMinutes) * time.Minute
	b.limiter = middleware.NewRateLimiter(window, b.cfg.RateLimit.MaxRequests, b.log)
	b.limiter.StartCleanup(window)
	b.middlewareReady = true
	return b
}

// WithDatabase opens the database connection and applies migrations.
func (b *Builder) WithDatabase() *Builder {
	if b.err != nil {
		return b
	}
	if b.log == nil {
		return b.fail("configuring database without a logger")
	}
	if b.cfg == nil {
		return b.fail("configuring database without configuration")
	}

	b.log.Info("opening database connection")
	gateway, err := database.Open(b.cfg.Database, b.log)
	if err != nil {
		b.err = fmt.Errorf("open database: %w", err)
		return b
	}
	if err := gateway.Migrate(); err != nil {
		b.err = fmt.Errorf("migrate database: %w", err)
		return b
	}
	b.gateway = gateway
	return b
}

// WithGateway injects an established database gateway, bypassing connection
// setup and migrations. Intended for tests.
func (b *Builder) WithGateway(gateway *database.Gateway) *Builder {
	if b.err != nil {
		return b
	}
	if gateway == nil {
		return b.fail("gateway must not be nil")
	}
	b.gateway = gateway
	return b
}

// WithStore overrides the persistence backend. Intended for tests and local
// development with the in-memory store; replaces the database requirement
// for the repository step.
func (b *Builder) WithStore(store storage.UserStore) *Builder {
	if b.err != nil {
		return b
	}
	b.store = store
	return b
}

// WithAuth configures token verification from the configured credential path.
func (b *Builder) WithAuth() *Builder {
	if b.err != nil {
		return b
	}
	if b.log == nil {
		return b.fail("configuring auth without a logger")
	}
	if b.cfg == nil {
		return b.fail("configuring auth without configuration")
	}

	b.log.Info("attaching auth")
	verifier, err := auth.NewJWTVerifierFromFile(b.cfg.Auth.PublicKeyPath)
	if err != nil {
		b.err = fmt.Errorf("configure token verifier: %w", err)
		return b
	}
	b.verifier = verifier
	return b
}

// WithVerifier injects a token verifier directly, bypassing key loading.
func (b *Builder) WithVerifier(verifier auth.TokenVerifier) *Builder {
	if b.err != nil {
		return b
	}
	if verifier == nil {
		return b.fail("verifier must not be nil")
	}
	b.verifier = verifier
	return b
}

// WithRepository constructs the user repository over the configured backend.
func (b *Builder) WithRepository() *Builder {
	if b.err != nil {
		return b
	}
	store := b.store
	if store == nil {
		if b.gateway == nil {
			return b.fail("configuring repository without a database")
		}
		store = postgres.New(b.gateway.Connection())
	}
	b.repo = repository.NewUserRepository(store, b.log)
	return b
}

// WithService constructs the user service.
func (b *Builder) WithService() *Builder {
	if b.err != nil {
		return b
	}
	if b.repo == nil {
		return b.fail("configuring service without a repository")
	}
	b.users = service.NewUserService(b.repo, b.log)
	return b
}

// WithController registers routes and the metrics/health endpoints.
func (b *Builder) WithController() *Builder {
	if b.err != nil {
		return b
	}
	if b.users == nil {
		return b.fail("configuring controller without a service")
	}
	if b.verifier == nil {
		return b.fail("configuring controller without auth")
	}
	if !b.middlewareReady {
		return b.fail("configuring controller without middleware")
	}

	b.log.Info("attaching controllers")
	b.controller = api.NewUserController(b.users, b.log)
	b.controller.RegisterRoutes(b.router)
	var prober api.ConnectivityProber
	if b.gateway != nil {
		prober = b.gateway
	}
	b.router.Handle("/health", api.HealthHandler(prober)).Methods(http.MethodGet)
	b.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	b.router.Use(middleware.Metrics())
	return b
}

// Build probes storage connectivity and assembles the handler chain. A failed
// probe aborts startup.
func (b *Builder) Build(ctx context.Context) (*Application, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.controller == nil {
		return nil, errors.Configuration("building application without a controller")
	}

	b.log.Info("building application")
	if b.gateway != nil && !b.gateway.TestConnection(ctx) {
		return nil, fmt.Errorf("database connectivity probe failed")
	}

	authMW := middleware.NewAuthMiddleware(b.verifier, b.log, unauthenticatedPaths)

	// Fixed, statically registered order: logging wraps auth wraps routing.
	var handler http.Handler = b.router
	handler = authMW.Handler(handler)
	handler = middleware.BodyLimit(b.cfg.MaxBodyBytes)(handler)
	handler = b.limiter.Handler(handler)
	handler = middleware.NewRequestLogger(b.log, b.cfg.MaxBodyBytes).Handler(handler)
	handler = middleware.Recovery(b.log)(handler)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", b.cfg.Server.Host, b.cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Application{
		cfg:     b.cfg,
		log:     b.log,
		server:  server,
		gateway: b.gateway,
	}, nil
}
