package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/replyforge/replyforge/pkg/cmd"
	"github.com/replyforge/replyforge/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "replyforge-maintenance",
		EnableShellCompletion: true,
		Usage:                 "Sweep expired workflow states and cache entries",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "State repository URL (file://... or postgres://...)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "cache-url",
				Usage:   "Durable cache URL (redis://...), empty for memory-only",
				Value:   "",
				Sources: cli.EnvVars("CACHE_URL"),
			},
			&cli.StringFlag{
				Name:    "records-url",
				Usage:   "Record store root directory",
				Value:   "./data",
				Sources: cli.EnvVars("RECORDS_URL"),
			},
			&cli.DurationFlag{
				Name:    "state-max-age",
				Usage:   "Delete states untouched for longer than this",
				Value:   24 * time.Hour,
				Sources: cli.EnvVars("STATE_MAX_AGE"),
			},
			&cli.StringFlag{
				Name:    "cron",
				Usage:   "Cron expression to run the sweep on a schedule instead of once",
				Value:   "",
				Sources: cli.EnvVars("CRON"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("replyforge-maintenance")

			logger.InfoContext(ctx, "Initializing maintenance sweep")

			states, err := cmd.NewStateRepository(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := states.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close state repository", "error", err)
				}
			}()

			tiered, err := cmd.NewCache(logger, command.String("cache-url"))
			if err != nil {
				return err
			}

			bus := cmd.NewEventBus(logger)
			defer func() {
				err := bus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			err = bus.LogSink(ctx, logger)
			if err != nil {
				return err
			}

			sweeper := NewSweeper(
				states,
				tiered,
				bus,
				command.String("records-url"),
				command.Duration("state-max-age"),
				logger,
			)

			cronExpr := command.String("cron")
			if cronExpr == "" {
				return sweeper.RunOnce(ctx)
			}

			return sweeper.RunScheduled(ctx, cronExpr)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := command.Run(ctx, os.Args)
	if err != nil {
		panic(err)
	}
}
