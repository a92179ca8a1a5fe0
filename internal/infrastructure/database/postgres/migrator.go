package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres:// database driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrator applies the embedded schema. It opens its own connection from
// the DSN, so Close never touches the application pool.
type Migrator struct {
	m   *migrate.Migrate
	log logging.Logger
}

// NewMigrator connects to dsn with the embedded migrations as source.
func NewMigrator(dsn string, log logging.Logger) (*Migrator, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m, log: log}, nil
}

// Up applies all pending migrations. No pending migration is not an error.
func (g *Migrator) Up() error {
	if err := g.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := g.m.Version()
		return fmt.Errorf("failed to run migrations (current version: %d): %w", version, err)
	}
	g.logVersion("Database migrations completed")
	return nil
}

// Down rolls back steps migrations.
func (g *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	if err := g.m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("failed to rollback %d step(s): %w", steps, err)
	}
	g.logVersion("Database migrations rolled back")
	return nil
}

// Status returns the applied version; 0 when nothing has been applied.
// dirty means a previous migration failed halfway.
func (g *Migrator) Status() (version uint, dirty bool, err error) {
	version, dirty, err = g.m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running migrations, to recover from a
// dirty state.
func (g *Migrator) Force(version int) error {
	if err := g.m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

func (g *Migrator) logVersion(msg string) {
	version, dirty, err := g.Status()
	if err != nil {
		g.log.Warn("Failed to get migration version", logging.Err(err))
		return
	}
	g.log.Info(msg, logging.Int64("version", int64(version)), logging.Bool("dirty", dirty))
}

// RunMigrations is the startup path used when database.auto_migrate is set.
func RunMigrations(dsn string, log logging.Logger) error {
	g, err := NewMigrator(dsn, log)
	if err != nil {
		return err
	}
	defer g.Close()
	return g.Up()
}
