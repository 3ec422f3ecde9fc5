// Package app assembles the service from configuration. It is shared by the
// standalone server and the Vercel function.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/adapters/cache/rediscache"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/adapters/repository"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/config"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/services"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

type App struct {
	Router *gin.Engine
	Store  repository.Store

	redis *redis.Client
}

// NewLogger returns a text logger for local development and JSON elsewhere.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsLocal() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// New opens storage, optionally fronts it with Redis and builds the router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	a := &App{Store: store}
	var links ports.LinkStore = store

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		a.redis = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			// Lookups fall through to the database while Redis is away.
			logger.Warn("redis unreachable at startup", "error", err)
		}
		links = rediscache.New(store, a.redis, cfg.CacheTTL, logger)
	}

	svc := services.NewLinkService(links, services.NewRandomAllocator(), cfg.BaseURL,
		services.WithLogger(logger.With("package", "services")))
	a.Router = handler.NewRouter(cfg, svc, logger)
	return a, nil
}

// Close releases the cache client and the database.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}
