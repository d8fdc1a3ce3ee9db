package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/replyforge/replyforge/pkg/cache"
	"github.com/replyforge/replyforge/pkg/eventbus"
	"github.com/replyforge/replyforge/pkg/log"
	"github.com/replyforge/replyforge/pkg/persistence"
	"github.com/replyforge/replyforge/pkg/store"
	"github.com/replyforge/replyforge/pkg/template"
	"github.com/replyforge/replyforge/pkg/validation"
	"github.com/replyforge/replyforge/pkg/workflow"
)

// Sweeper runs the maintenance pass: expired workflow states are deleted
// and expired cache entries purged.
type Sweeper struct {
	manager *workflow.Manager
	cache   *cache.TieredCache
	maxAge  time.Duration
	logger  *slog.Logger
}

// NewSweeper wires the full workflow stack. The sweep only exercises
// cleanup, but the manager owns the retention policy and the cleanup event.
func NewSweeper(
	states persistence.StateRepository,
	tiered *cache.TieredCache,
	bus *eventbus.Bus,
	recordsURL string,
	maxAge time.Duration,
	logger *slog.Logger,
) *Sweeper {
	records := store.NewFileStore(recordsURL, tiered, bus, logger)

	templates := template.NewEngine(log.WithModule("template"), template.Config{Options: records})
	checker := validation.NewEngine(log.WithModule("validation"))

	manager := workflow.NewManager(states, records, templates, checker, tiered, bus, logger)

	return &Sweeper{
		manager: manager,
		cache:   tiered,
		maxAge:  maxAge,
		logger:  logger,
	}
}

// RunOnce executes a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	started := time.Now()

	removedStates, err := s.manager.CleanupOldStates(ctx, s.maxAge)
	if err != nil {
		return err
	}

	purgedEntries := s.cache.Cleanup(ctx)

	s.logger.InfoContext(ctx, "Maintenance sweep finished",
		"removed_states", removedStates,
		"purged_cache_entries", purgedEntries,
		"duration", time.Since(started))

	return nil
}

// RunScheduled runs the sweep on a cron schedule until ctx is cancelled.
func (s *Sweeper) RunScheduled(ctx context.Context, cronExpr string) error {
	scheduler := cron.New()

	_, err := scheduler.AddFunc(cronExpr, func() {
		err := s.RunOnce(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "Scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Starting scheduled maintenance", "cron", cronExpr)
	scheduler.Start()

	<-ctx.Done()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	s.logger.Info("Scheduled maintenance stopped")

	return nil
}
