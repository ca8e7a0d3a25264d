package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	v1 "tradechat/cmd/api/router/v1"
	"tradechat/internal/config"
	cacheadapter "tradechat/internal/infrastructure/cache/adapter"
	cacheport "tradechat/internal/infrastructure/cache/port"
	"tradechat/internal/infrastructure/database"
	queueadapter "tradechat/internal/infrastructure/queue/adapter"
	queueport "tradechat/internal/infrastructure/queue/port"
	"tradechat/internal/infrastructure/realtime"
	catalogadapter "tradechat/internal/pkg/catalog/adapter"
	repoadapter "tradechat/internal/pkg/chat/persistence/repository/adapter"
	httpHandler "tradechat/internal/pkg/chat/presentation/http"
	diradapter "tradechat/internal/pkg/directory/adapter"
	directoryport "tradechat/internal/pkg/directory/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
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

	// Redis is optional: without it conversations lack product decoration
	// and directory lookups hit the database every time.
	var cache cacheport.Cache
	var queue queueport.Client
	if cfg.RedisURL != "" {
		c, err := cacheadapter.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer c.Close()
		cache = c

		q, err := queueadapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to build queue client", zap.Error(err))
		}
		defer q.Close()
		queue = q
	}

	var directory directoryport.Directory = diradapter.NewPgDirectory(pool)
	if cache != nil {
		directory = diradapter.NewCachedDirectory(directory, cache, 10*time.Minute)
	}

	hub := realtime.NewHub()
	defer hub.Close()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1.RegisterRoutes(r, httpHandler.Deps{
		Repo:      repoadapter.NewPgChatRepository(pool),
		Directory: directory,
		Catalog:   catalogadapter.NewPgCatalog(pool),
		Cache:     cache,
		Queue:     queue,
		Hub:       hub,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
