package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/learnhub/backoffice/internal/config"
	"github.com/learnhub/backoffice/internal/database"
	"github.com/learnhub/backoffice/internal/jobs"
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

	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}

	var opts []sweep.Option
	if rdb != nil {
		defer rdb.Close()
		opts = append(opts, sweep.WithLocker(lease.NewRedisLease(rdb), cfg.SweepLeaseTTL))
	}
	sw := sweep.New(store.New(pool), cfg.SessionTimeout, opts...)

	if err := jobs.NewRunner(sw, cfg.SweepSchedule).Start(ctx); err != nil {
		log.Fatalf("start jobs: %v", err)
	}

	log.Printf("backoffice-jobs worker started schedule=%q timeout=%s", cfg.SweepSchedule, cfg.SessionTimeout)
	<-ctx.Done()
	log.Printf("backoffice-jobs worker stopping")
}
