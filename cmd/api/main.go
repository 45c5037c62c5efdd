package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/learnhub/backoffice/internal/api"
	"github.com/learnhub/backoffice/internal/config"
	"github.com/learnhub/backoffice/internal/database"
	"github.com/learnhub/backoffice/internal/lease"
	"github.com/learnhub/backoffice/internal/store"
	"github.com/learnhub/backoffice/internal/sweep"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	st := store.New(pool)
	if cfg.MigrateOnStart {
		if err := st.Migrate(ctx); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	handler := api.NewRouter(cfg, st, newSweeper(cfg, st, rdb))
	srv := newHTTPServer(cfg, handler)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("backoffice-api listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("http server: %v", err)
	}
}

// newSweeper takes the Redis lease only when a client is configured.
func newSweeper(cfg config.Config, st sweep.Store, rdb *redis.Client) *sweep.Sweeper {
	var opts []sweep.Option
	if rdb != nil {
		opts = append(opts, sweep.WithLocker(lease.NewRedisLease(rdb), cfg.SweepLeaseTTL))
	}
	return sweep.New(st, cfg.SessionTimeout, opts...)
}

func newHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	write := 30 * time.Second
	if cfg.RequestDeadline > 0 {
		write = cfg.RequestDeadline + 5*time.Second
	}
	return &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: write,
		IdleTimeout:  60 * time.Second,
	}
}
