package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/directory"
	"github.com/moviefinder/moviefinder/internal/health"
	"github.com/moviefinder/moviefinder/internal/scheduler"
)

const DirectoryHealthTaskID = "directory-health"

// DirectoryHealthTask checks that the movie directory answers requests.
type DirectoryHealthTask struct {
	provider directory.Provider
	health   *health.Service
	logger   zerolog.Logger
}

// NewDirectoryHealthTask creates a new directory health check task.
func NewDirectoryHealthTask(provider directory.Provider, healthSvc *health.Service, logger zerolog.Logger) *DirectoryHealthTask {
	return &DirectoryHealthTask{
		provider: provider,
		health:   healthSvc,
		logger:   logger.With().Str("task", DirectoryHealthTaskID).Logger(),
	}
}

// Run executes the directory health check.
func (t *DirectoryHealthTask) Run(ctx context.Context) error {
	name := t.provider.Name()

	if !t.provider.IsConfigured() {
		t.health.RecordCheck(health.CategoryDirectory, name, directory.ErrNotConfigured)
		t.logger.Warn().Str("provider", name).Msg("Directory is not configured, skipping health check")
		return nil
	}

	if err := t.health.Check(ctx, health.CategoryDirectory, name, t.provider.Test); err != nil {
		t.logger.Warn().Err(err).Str("provider", name).Msg("Directory health check failed")
		return err
	}

	t.logger.Debug().Str("provider", name).Msg("Directory health check passed")
	return nil
}

// RegisterDirectoryHealthTask registers the directory health check with the scheduler.
func RegisterDirectoryHealthTask(
	sched *scheduler.Scheduler,
	provider directory.Provider,
	healthSvc *health.Service,
	cfg *config.HealthConfig,
	logger zerolog.Logger,
) error {
	task := NewDirectoryHealthTask(provider, healthSvc, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          DirectoryHealthTaskID,
		Name:        "Directory Health Check",
		Description: "Verifies the movie directory is reachable",
		Cron:        cfg.Cron,
		Func:        task.Run,
	})
}
