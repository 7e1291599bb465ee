package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/pomodo/internal/config"
)

// StartScheduler registers the periodic refresh-token purge and starts the
// asynq scheduler. The returned func stops it.
func StartScheduler(cfg *config.Config, logger *slog.Logger) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLogger{logger: logger},
		},
	)

	// Unique keeps a doubled scheduler from queueing the purge twice.
	task, err := NewPurgeRefreshTokensTask(time.Time{}, asynq.Unique(time.Hour))
	if err != nil {
		return nil, err
	}

	entryID, err := scheduler.Register(cfg.TokenPurgeSchedule, task)
	if err != nil {
		return nil, fmt.Errorf("failed to register purge schedule: %w", err)
	}

	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info("Scheduler started",
		"schedule", cfg.TokenPurgeSchedule,
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}
