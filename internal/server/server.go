// Package server assembles the HTTP API: middleware, sessions, auth and the
// resource handlers under /api.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/auth"
	"github.com/jimdaga/pomodo/internal/config"
	"github.com/jimdaga/pomodo/internal/health"
	"github.com/jimdaga/pomodo/internal/middleware"
	"github.com/jimdaga/pomodo/internal/modes"
	"github.com/jimdaga/pomodo/internal/projects"
	"github.com/jimdaga/pomodo/internal/stats"
	"github.com/jimdaga/pomodo/internal/store"
	"github.com/jimdaga/pomodo/internal/streams"
	"github.com/jimdaga/pomodo/internal/tags"
	"github.com/jimdaga/pomodo/internal/tasks"
	"github.com/jimdaga/pomodo/internal/users"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the collaborators the router needs. Redis is optional; without it
// the login limiter is kept in memory and activity events are dropped.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Events streams.EventPublisher
	Logger *slog.Logger
}

// NewRouter builds the gin engine serving the API.
func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	if d.Events == nil {
		d.Events = streams.Nop{}
	}

	validator, err := users.NewSettingsValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to build settings validator: %w", err)
	}

	s := store.New(d.DB)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	// cors.New panics on an empty origin list.
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", gin.WrapF(health.Handler))
	r.GET("/ready", health.Ready(d.DB, d.Redis))

	api := r.Group("/api")
	api.Use(middleware.RateLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst))

	authHandlers := auth.NewHandlers(s, issuer, cfg.IsProduction())
	sessionStore := auth.NewSessionStore(cfg.SessionSecret, cfg.RefreshTokenTTL, cfg.IsProduction())
	authRoutes := api.Group("/auth", sessions.Sessions(auth.SessionName, sessionStore))
	{
		limit := credentialLimiter(d.Redis, cfg.LoginRateLimit)
		authRoutes.POST("/register", limit, authHandlers.Register)
		authRoutes.POST("/login", limit, authHandlers.Login)
		authRoutes.POST("/refresh", authHandlers.Refresh)
		authRoutes.POST("/logout", authHandlers.Logout)
	}

	protected := api.Group("", auth.RequireAuth(issuer))
	users.NewHandlers(s, validator).Register(protected)
	tasks.NewHandlers(s, d.Events, cfg.StrictMutations).Register(protected)
	projects.NewHandlers(s, d.Events, cfg.StrictMutations).Register(protected)
	tags.NewHandlers(s).Register(protected)
	modes.NewHandlers(s).Register(protected)
	stats.NewHandlers(s).Register(protected)

	return r, nil
}

func credentialLimiter(rdb *redis.Client, perMinute int) gin.HandlerFunc {
	if rdb == nil {
		return middleware.RateLimiter(perMinute, perMinute)
	}
	return middleware.NewLoginLimiter(rdb, perMinute, time.Minute).Middleware("login")
}

// Run serves h on addr until ctx is cancelled, then drains in-flight
// requests for up to thirty seconds.
func Run(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
