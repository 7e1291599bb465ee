package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/pomodo/internal/config"
	"github.com/jimdaga/pomodo/internal/store"
	"github.com/jimdaga/pomodo/internal/streams"
	"github.com/redis/go-redis/v9"
)

const concurrency = 5

// Run starts the asynq server and the activity consumer and blocks until a
// shutdown signal arrives. Use this for standalone worker mode.
func Run(cfg *config.Config, s *store.Store, rdb *redis.Client, logger *slog.Logger) error {
	srv, mux, err := newServer(cfg, s, logger)
	if err != nil {
		return err
	}

	stopConsumer, err := startActivityConsumer(rdb, logger)
	if err != nil {
		return err
	}
	defer stopConsumer()

	// srv.Run handles SIGINT/SIGTERM itself.
	return srv.Run(mux)
}

// Start runs the worker in the background for embedded mode. The returned
// func shuts it down.
func Start(cfg *config.Config, s *store.Store, rdb *redis.Client, logger *slog.Logger) (stop func(), err error) {
	srv, mux, err := newServer(cfg, s, logger)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	stopConsumer, err := startActivityConsumer(rdb, logger)
	if err != nil {
		srv.Shutdown()
		return nil, err
	}

	return func() {
		stopConsumer()
		srv.Shutdown()
	}, nil
}

func newServer(cfg *config.Config, s *store.Store, logger *slog.Logger) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     concurrency,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLogger{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPurgeRefreshTokens, handlePurgeRefreshTokens(logger, s, time.Now))

	logger.Info("Worker starting", "concurrency", concurrency)
	return srv, mux, nil
}

func startActivityConsumer(rdb *redis.Client, logger *slog.Logger) (stop func(), err error) {
	if rdb == nil {
		return func() {}, nil
	}
	stop, err = streams.StartConsumer(rdb, "worker", streams.LogActivity(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to start activity consumer: %w", err)
	}
	return stop, nil
}

// handlePurgeRefreshTokens deletes refresh-token rows past their expiry.
func handlePurgeRefreshTokens(logger *slog.Logger, s *store.Store, now func() time.Time) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload purgePayload
		if len(task.Payload()) > 0 {
			if err := json.Unmarshal(task.Payload(), &payload); err != nil {
				return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
			}
		}

		cutoff := payload.Before
		if cutoff.IsZero() {
			cutoff = now()
		}

		purged, err := s.PurgeExpiredRefreshTokens(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to purge refresh tokens: %w", err)
		}

		logger.Info("Purged expired refresh tokens", "count", purged, "cutoff", cutoff)
		return nil
	}
}

func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
