package app

import (
	"context"
	"net/http"
	"time"

	"github.com/usergate/user_service/internal/config"
	"github.com/usergate/user_service/internal/database"
	"github.com/usergate/user_service/internal/logging"
)

// Application owns the assembled HTTP server and its shared resources.
type Application struct {
	cfg     *config.Config
	log     *logging.Logger
	server  *http.Server
	gateway *database.Gateway
}

// Handler exposes the full middleware chain. Intended for tests.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Infof("HTTP server listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the server and closes the database pool.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.gateway != nil {
		if err := a.gateway.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}

	return nil
}
