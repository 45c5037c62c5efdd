package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/learnhub/backoffice/internal/metrics"
	"github.com/learnhub/backoffice/internal/model"
	"github.com/learnhub/backoffice/internal/sweep"
)

const sessionTimeoutJob = "session_timeout_sweep"

type Sweeper interface {
	Run(ctx context.Context, trigger string) (model.SweepResult, error)
}

type Runner struct {
	sweeper  Sweeper
	schedule string
}

func NewRunner(sw Sweeper, schedule string) *Runner {
	return &Runner{sweeper: sw, schedule: schedule}
}

// Start runs the sweep once, then on schedule until ctx is cancelled.
// Overlapping ticks are skipped while a pass is still running.
func (r *Runner) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(r.schedule, func() {
		r.runOnce(ctx, sessionTimeoutJob, r.sweep)
	}); err != nil {
		return fmt.Errorf("schedule %s %q: %w", sessionTimeoutJob, r.schedule, err)
	}

	r.runOnce(ctx, sessionTimeoutJob, r.sweep)
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

func (r *Runner) sweep(ctx context.Context) error {
	_, err := r.sweeper.Run(ctx, sweep.TriggerJob)
	return err
}

func (r *Runner) runOnce(ctx context.Context, name string, fn func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	err := fn(ctx)
	durMs := float64(time.Since(start).Milliseconds())
	labels := map[string]string{
		"job": name,
	}
	if err != nil {
		log.Printf("metric=job_run name=%s status=error duration_ms=%d err=%q", name, int64(durMs), err.Error())
		labels["status"] = "error"
	} else {
		log.Printf("metric=job_run name=%s status=ok duration_ms=%d", name, int64(durMs))
		labels["status"] = "ok"
	}
	metrics.Default().IncCounter("backoffice_job_runs_total", labels)
	metrics.Default().ObserveHistogram("backoffice_job_duration_ms", durMs, map[string]string{"job": name})
}
