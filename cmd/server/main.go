package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/config"
	"github.com/jimdaga/pomodo/internal/database"
	"github.com/jimdaga/pomodo/internal/logging"
	"github.com/jimdaga/pomodo/internal/server"
	"github.com/jimdaga/pomodo/internal/store"
	"github.com/jimdaga/pomodo/internal/streams"
	"github.com/jimdaga/pomodo/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "pomodo",
		Short:         "Pomodoro task and project API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(purgeTokensCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the default logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Init(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return nil, err
	}
	return db, nil
}

// openRedis returns nil when REDIS_URL is unset.
func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if cfg.SeedDevData && !cfg.IsProduction() {
				seed, err := database.LoadSeed("")
				if err != nil {
					return err
				}
				if err := database.SeedDevData(ctx, db, seed); err != nil {
					return err
				}
			}

			rdb, err := openRedis(ctx, cfg)
			if err != nil {
				return err
			}
			var events streams.EventPublisher = streams.Nop{}
			if rdb != nil {
				defer rdb.Close()
				events = streams.NewPublisher(rdb)
			} else {
				logger.Warn("REDIS_URL not set: activity events and the background worker are disabled")
			}

			if cfg.WorkerEmbedded && rdb != nil {
				stopWorker, err := worker.Start(cfg, store.New(db), rdb, logger)
				if err != nil {
					return err
				}
				defer stopWorker()

				stopScheduler, err := worker.StartScheduler(cfg, logger)
				if err != nil {
					return err
				}
				defer stopScheduler()
			}

			router, err := server.NewRouter(server.Deps{
				Config: cfg,
				DB:     db,
				Redis:  rdb,
				Events: events,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			return server.Run(ctx, cfg.Addr(), router, logger)
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background worker and scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if cfg.RedisURL == "" {
				return fmt.Errorf("REDIS_URL is required for the worker")
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			rdb, err := openRedis(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			stopScheduler, err := worker.StartScheduler(cfg, logger)
			if err != nil {
				return err
			}
			defer stopScheduler()

			return worker.Run(cfg, store.New(db), rdb, logger)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			return database.Close(db)
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load development seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a production database")
			}

			seed, err := database.LoadSeed(file)
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			return database.SeedDevData(cmd.Context(), db, seed)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file (defaults to the built-in data)")
	return cmd
}

func purgeTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-tokens",
		Short: "Enqueue an immediate purge of expired refresh tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if cfg.RedisURL == "" {
				return fmt.Errorf("REDIS_URL is required to enqueue jobs")
			}

			client, err := worker.NewClient(cfg.RedisURL)
			if err != nil {
				return err
			}
			defer client.Close()

			id, err := client.EnqueuePurgeRefreshTokens()
			if err != nil {
				return err
			}
			logger.Info("Enqueued refresh token purge", "task_id", id)
			return nil
		},
	}
}
