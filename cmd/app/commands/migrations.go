package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/syncrete/vaultkit/internal/app"
	"github.com/syncrete/vaultkit/internal/config"
)

// RunMigrations applies pending schema migrations for the configured driver.
// The schema covers the secrets, encryption_keys, secret_history, api_keys,
// and audit_events tables; SQL lives under migrations/postgresql and
// migrations/mysql. Already-applied migrations are skipped.
func RunMigrations() error {
	cfg := config.Load()

	// The container is built only for its logger; no DB pool is opened here,
	// migrate manages its own connection.
	container := app.NewContainer(cfg)
	logger := container.Logger()

	logger.Info("running vaultkit schema migrations",
		slog.String("driver", cfg.DBDriver),
	)

	migrationsPath := "file://migrations/postgresql"
	if cfg.DBDriver == "mysql" {
		migrationsPath = "file://migrations/mysql"
	}

	m, err := migrate.New(migrationsPath, cfg.DBConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("schema is up to date")
	return nil
}
