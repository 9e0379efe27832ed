package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Up applies all pending migrations. It is a no-op when the schema is already
// current.
func Up(logger *zap.Logger, databaseURL string) error {
	source, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, pgxURL(databaseURL))
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil || dbErr != nil {
			logger.Warn("failed to close migrator",
				zap.NamedError("sourceErr", sourceErr), zap.NamedError("dbErr", dbErr))
		}
	}()

	if err := m.Up(); errors.Is(err, migrate.ErrNoChange) {
		logger.Info("database schema is up to date")
	} else if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	} else {
		logger.Info("database migrations applied")
	}
	return nil
}

// pgxURL rewrites a postgres:// URL to the scheme of the migrate pgx/v5
// driver.
func pgxURL(databaseURL string) string {
	if rest, ok := strings.CutPrefix(databaseURL, "postgresql://"); ok {
		return "pgx5://" + rest
	}
	if rest, ok := strings.CutPrefix(databaseURL, "postgres://"); ok {
		return "pgx5://" + rest
	}
	return databaseURL
}
