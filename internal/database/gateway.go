// Package database manages the shared PostgreSQL connection handle, schema
// migrations and the startup connectivity probe.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/usergate/user_service/internal/config"
	"github.com/usergate/user_service/internal/logging"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Gateway holds the long-lived database handle shared across all requests.
// The driver's pool manages concurrent access; no extra locking here.
type Gateway struct {
	db  *sql.DB
	log *logging.Logger
}

// New wraps an established connection handle. Open is the production path.
func New(db *sql.DB, log *logging.Logger) *Gateway {
	return &Gateway{db: db, log: log}
}

// Open connects to PostgreSQL with the configured pool limits.
func Open(cfg config.DatabaseConfig, log *logging.Logger) (*Gateway, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn not configured")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	return New(db, log), nil
}

// Migrate applies the embedded schema migrations. A database already at the
// latest version is not an error.
func (g *Gateway) Migrate() error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := postgres.WithInstance(g.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	g.log.Info("database migrations applied")
	return nil
}

// TestConnection probes connectivity. It never returns an error; failures are
// logged and reported as false.
func (g *Gateway) TestConnection(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := g.db.PingContext(probeCtx); err != nil {
		g.log.WithError(err).Error("database connectivity probe failed")
		return false
	}
	return true
}

// Connection returns the shared query handle.
func (g *Gateway) Connection() *sql.DB {
	return g.db
}

// Close releases the connection pool.
func (g *Gateway) Close() error {
	return g.db.Close()
}
