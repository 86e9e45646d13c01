package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/angelmondragon/shipbridge/pkg/config"
	"github.com/angelmondragon/shipbridge/pkg/db"
	"github.com/angelmondragon/shipbridge/pkg/logger"
	"github.com/angelmondragon/shipbridge/pkg/migrate"
	"github.com/angelmondragon/shipbridge/pkg/settings"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

var errUsage = errors.New("usage")

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	fs.StringVar(&opts.dir, "dir", "", "migrations directory (empty uses the embedded set; create defaults to "+migrate.DefaultDir+")")
	fs.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	fs.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func main() {
	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	if err := run(ctx, cfg, logg, opts, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logg.Error(ctx, "migrate "+opts.cmd+" failed", err)
		os.Exit(1)
	}
}

// run dispatches one command. create and validate work offline; every other
// command opens the remote store, preferring credentials persisted in the
// settings store over the environment.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options, stdout io.Writer) error {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("%w: -name is required for create", errUsage)
		}
		dir := opts.dir
		if dir == "" {
			dir = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "created migration:", path)
		return nil
	case "validate":
		var err error
		if opts.dir != "" {
			err = migrate.ValidateDir(opts.dir)
		} else {
			err = migrate.Validate(migrate.Embedded())
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "migration validation passed")
		return nil
	case "up", "down", "status":
		return withRemote(ctx, cfg, logg, func(conn *sql.DB) error {
			return migrate.Run(ctx, conn, opts.dir, opts.cmd)
		})
	case "version":
		if opts.version == "" {
			return fmt.Errorf("%w: -version is required for version", errUsage)
		}
		return withRemote(ctx, cfg, logg, func(conn *sql.DB) error {
			return migrate.MigrateToVersion(ctx, conn, opts.dir, opts.version)
		})
	default:
		return fmt.Errorf("%w: unknown -cmd %q", errUsage, opts.cmd)
	}
}

func withRemote(ctx context.Context, cfg *config.Config, logg *logger.Logger, fn func(*sql.DB) error) (err error) {
	store, err := settings.Open(ctx, cfg.State.Path)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	remoteCfg := cfg.Remote
	endpoint, apiKey, err := store.RemoteCredentials(ctx)
	if err != nil {
		return fmt.Errorf("read remote credentials: %w", err)
	}
	if endpoint != "" && apiKey != "" {
		remoteCfg = remoteCfg.WithCredentials(endpoint, apiKey)
	}

	client, err := db.OpenRemote(ctx, remoteCfg, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, client.Close()) }()

	conn, err := client.DB().DB()
	if err != nil {
		return err
	}
	return fn(conn)
}
