package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/vladislavdragonenkov/storefront/internal/storage/sqlite"
)

const (
	defaultTimeout = 30 * time.Second
	envSQLitePath  = "STOREFRONT_SQLITE_PATH"
)

type options struct {
	direction string
	steps     int
	path      string
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&opts.direction, "direction", "d", "up", "migration direction: up|down|status")
	fs.IntVarP(&opts.steps, "steps", "n", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	fs.StringVarP(&opts.path, "path", "p", "", "SQLite database file (fallback: "+envSQLitePath+")")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts.direction = strings.ToLower(strings.TrimSpace(opts.direction))
	opts.path = strings.TrimSpace(opts.path)
	if opts.path == "" {
		opts.path = strings.TrimSpace(os.Getenv(envSQLitePath))
	}
	if opts.path == "" {
		return options{}, errors.New(envSQLitePath + " (or --path) is required")
	}
	return opts, nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	store, err := sqlite.Open(ctx, opts.path)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	defer store.Close()

	switch opts.direction {
	case "up":
		if err := store.MigrateUp(ctx, opts.steps); err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
	case "down":
		if err := store.MigrateDown(ctx, opts.steps); err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
	case "status":
	default:
		return fmt.Errorf("unsupported direction: %s (use up|down|status)", opts.direction)
	}

	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	_, _ = fmt.Fprintf(out, "migrate %s ok: version=%d applied=%d\n", opts.direction, version, count)
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		cancel()
		fail("%v", err)
	}
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
