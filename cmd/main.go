package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ilasdev/ilas/internal/auth"
	"github.com/ilasdev/ilas/internal/client"
	"github.com/ilasdev/ilas/internal/services"
	"github.com/ilasdev/ilas/internal/session"
	"github.com/ilasdev/ilas/internal/shared"
	"github.com/urfave/cli/v3"
)

// newApp assembles the root command. The --verbose flag drops the logger to
// debug level before any subcommand action runs.
func newApp(runner *Runner, logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:    "ilas",
		Usage:   "Command-line client for the ILAS library portal",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warnf("ignoring unreadable config.toml: %v", err)
		}
	} else {
		shared.ApplyEnv(config)
	}

	db, err := shared.NewDatabase(config.Session.Path, config.Session.MaxOpenConns, config.Session.MaxIdleConns)
	if err != nil {
		logger.Fatalf("failed to open session database: %v", err)
	}
	defer db.Close()

	store, err := session.NewSQLiteStore(db, session.SQLiteOptions{
		PollInterval: time.Duration(config.Session.PollIntervalMS) * time.Millisecond,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatalf("failed to open session store: %v", err)
	}
	defer store.Close()

	api := client.NewAuthenticated(config.API, store, logger)
	controller := auth.NewController(api, store, config.API, logger)
	defer controller.Close()

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Store:      store,
		API:        api,
		Controller: controller,
		Library:    services.NewLibraryService(api),
		Logger:     logger,
	})

	app := newApp(runner, logger)

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			logger.Error("invalid username or password")
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
