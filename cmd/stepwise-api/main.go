package main

import (
	"context"
	"os"
	"time"

	"github.com/dukex/stepwise/pkg/cmd"
	"github.com/dukex/stepwise/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort        = 9091
	defaultHoldWarning = 2 * time.Second
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "stepwise-api",
		Usage:                 "Compose reusable steps into use cases and addon paths",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.DurationFlag{
				Name:    "tx-hold-warning",
				Usage:   "Log a warning when a transaction stays open longer than this",
				Value:   defaultHoldWarning,
				Sources: cli.EnvVars("TX_HOLD_WARNING"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger = log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Stepwise API")

			tracer, shutdown := cmd.NewTracer(ctx, logger, command.Bool("tracing"), "stepwise-api")
			defer func() {
				err := shutdown(context.Background())
				if err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"), command.Duration("tx-hold-warning"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				persistence,
				tracer,
			)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("stepwise-api exited", "error", err)
		os.Exit(1)
	}
}
