package cli

import (
	"fmt"
	"io"
)

// MigrationRunner is implemented by *db.Migrator.
type MigrationRunner interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
}

// MigrateOptions defines arguments for the migrate command.
type MigrateOptions struct {
	Action string
	Stdout io.Writer
	Stderr io.Writer
}

// MigrateCommand applies, rolls back or reports schema migrations.
func MigrateCommand(runner MigrationRunner, opts MigrateOptions) int {
	stdout, stderr := writers(opts.Stdout, opts.Stderr)
	var err error
	switch opts.Action {
	case "up":
		err = runner.Up()
	case "down":
		err = runner.Down()
	case "version":
	default:
		_, _ = fmt.Fprintf(stderr, "migrate: unknown action %q (expected up, down or version)\n", opts.Action)
		return 2
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "migrate %s: %v\n", opts.Action, err)
		return 1
	}
	version, dirty, err := runner.Version()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "migrate version: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "schema version %d dirty=%t\n", version, dirty)
	if dirty {
		return 10
	}
	return 0
}
