package sweep

import (
	"context"
	"log"
	"time"

	"github.com/learnhub/backoffice/internal/metrics"
	"github.com/learnhub/backoffice/internal/model"
)

const leaseKey = "backoffice:session-timeout-sweep"

// Trigger names label sweep metrics and logs by entry point.
const (
	TriggerCron  = "cron"
	TriggerAdmin = "admin"
	TriggerJob   = "job"
	TriggerCLI   = "cli"
)

type Store interface {
	EndStaleSessions(ctx context.Context, cutoff, now time.Time) (checked, ended int, err error)
}

// Locker guards a sweep across processes. ok is false when someone else
// holds the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type Sweeper struct {
	store    Store
	timeout  time.Duration
	locker   Locker
	leaseTTL time.Duration
	now      func() time.Time
}

type Option func(*Sweeper)

func WithLocker(l Locker, ttl time.Duration) Option {
	return func(s *Sweeper) {
		s.locker = l
		s.leaseTTL = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

func New(store Store, timeout time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:   store,
		timeout: timeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sweeper) Timeout() time.Duration {
	return s.timeout
}

// Run ends every active session idle for longer than the configured timeout.
// When another instance holds the sweep lease the result is Skipped.
func (s *Sweeper) Run(ctx context.Context, trigger string) (model.SweepResult, error) {
	start := time.Now()

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, leaseKey, s.leaseTTL)
		switch {
		case err != nil:
			log.Printf("sweep_lease_unavailable trigger=%s err=%q", trigger, err.Error())
		case !ok:
			log.Printf("sweep_skipped trigger=%s reason=lease_held", trigger)
			s.record(trigger, "skipped", 0, time.Since(start))
			return model.SweepResult{Skipped: true, Elapsed: time.Since(start)}, nil
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					log.Printf("sweep_lease_release_failed trigger=%s err=%q", trigger, err.Error())
				}
			}()
		}
	}

	now := s.now().UTC()
	checked, ended, err := s.store.EndStaleSessions(ctx, now.Add(-s.timeout), now)
	res := model.SweepResult{Checked: checked, Ended: ended, Elapsed: time.Since(start)}
	if err != nil {
		log.Printf("metric=session_sweep trigger=%s status=error duration_ms=%d err=%q", trigger, res.Elapsed.Milliseconds(), err.Error())
		s.record(trigger, "error", 0, res.Elapsed)
		return res, err
	}
	log.Printf("metric=session_sweep trigger=%s status=ok checked=%d ended=%d duration_ms=%d", trigger, checked, ended, res.Elapsed.Milliseconds())
	s.record(trigger, "ok", ended, res.Elapsed)
	return res, nil
}

func (s *Sweeper) record(trigger, status string, ended int, elapsed time.Duration) {
	m := metrics.Default()
	m.IncCounter("backoffice_sweep_runs_total", map[string]string{"trigger": trigger, "status": status})
	if ended > 0 {
		m.AddCounter("backoffice_sweep_sessions_ended_total", float64(ended), map[string]string{"trigger": trigger})
	}
	m.ObserveHistogram("backoffice_sweep_duration_ms", float64(elapsed.Milliseconds()), map[string]string{"trigger": trigger})
}
