package db

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrator applies the embedded SQL migrations.
type Migrator struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

// NewMigrator opens a migrate instance over the SQL files in fsys.
func NewMigrator(fsys fs.FS, dsn string, logger *slog.Logger) (*Migrator, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("platform/db: migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: migrate init: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies all pending migrations.
func (g *Migrator) Up() error {
	if err := g.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("platform/db: migrate up: %w", err)
	}
	g.logVersion()
	return nil
}

// Down rolls back a single migration step.
func (g *Migrator) Down() error {
	if err := g.m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("platform/db: migrate down: %w", err)
	}
	g.logVersion()
	return nil
}

// Version reports the applied version and dirty flag.
func (g *Migrator) Version() (uint, bool, error) {
	version, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases source and database handles.
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (g *Migrator) logVersion() {
	version, dirty, err := g.Version()
	if err != nil {
		g.logger.Warn("migrate version", slog.Any("error", err))
		return
	}
	g.logger.Info("migrations applied", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
}
