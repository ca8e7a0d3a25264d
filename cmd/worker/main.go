package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tradechat/internal/config"
	cacheadapter "tradechat/internal/infrastructure/cache/adapter"
	"tradechat/internal/infrastructure/database"
	queueadapter "tradechat/internal/infrastructure/queue/adapter"
	catalogadapter "tradechat/internal/pkg/catalog/adapter"
	"tradechat/internal/pkg/chat/application/task"
)

// The worker consumes background tasks: currently only conversation
// decoration, which keeps catalog lookups off the request path.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required for the worker")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	cache, err := cacheadapter.NewRedisCache(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer cache.Close()

	srv, err := queueadapter.NewAsynqServer(cfg.RedisURL, cfg.AsynqConcurrency, nil, logger)
	if err != nil {
		logger.Fatal("failed to build queue server", zap.Error(err))
	}

	task.RegisterDecorateConversationTask(srv, catalogadapter.NewPgCatalog(pool), cache, logger)

	logger.Info("worker started", zap.Int("concurrency", cfg.AsynqConcurrency))
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("worker exited", zap.Error(err))
	}
	logger.Info("worker shutdown complete")
}
