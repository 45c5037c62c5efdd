package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/learnhub/backoffice/internal/config"
	"github.com/learnhub/backoffice/internal/database"
	"github.com/learnhub/backoffice/internal/lease"
	"github.com/learnhub/backoffice/internal/model"
	"github.com/learnhub/backoffice/internal/store"
	"github.com/learnhub/backoffice/internal/sweep"
	"github.com/learnhub/backoffice/internal/tracking"
)

type sessionStore interface {
	sweep.Store
	GetSessionByToken(ctx context.Context, token string) (*model.Session, error)
	IssueTrackingToken(ctx context.Context, sessionID int64, token string) error
	Migrate(ctx context.Context) error
}

type app struct {
	store    sessionStore
	timeout  time.Duration
	locker   sweep.Locker
	leaseTTL time.Duration
	close    func()
}

type loader func(ctx context.Context) (*app, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(loadApp).ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, err
	}
	a := &app{
		store:    store.New(pool),
		timeout:  cfg.SessionTimeout,
		leaseTTL: cfg.SweepLeaseTTL,
		close:    pool.Close,
	}
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if rdb != nil {
		a.locker = lease.NewRedisLease(rdb)
		a.close = func() {
			_ = rdb.Close()
			pool.Close()
		}
	}
	return a, nil
}

func newRootCmd(load loader) *cobra.Command {
	root := &cobra.Command{
		Use:           "sessionctl",
		Short:         "Operate on tracked class sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSweepCmd(load))
	root.AddCommand(newInspectCmd(load))
	root.AddCommand(newIssueTokenCmd(load))
	root.AddCommand(newMigrateCmd(load))
	return root
}

func newSweepCmd(load loader) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "End active sessions that stopped sending heartbeats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if timeout <= 0 {
				timeout = a.timeout
			}
			var opts []sweep.Option
			if a.locker != nil {
				opts = append(opts, sweep.WithLocker(a.locker, a.leaseTTL))
			}
			res, err := sweep.New(a.store, timeout, opts...).Run(cmd.Context(), sweep.TriggerCLI)
			if err != nil {
				return err
			}
			if res.Skipped {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "skipped: sweep lease held by another instance")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "checked=%d ended=%d duration_ms=%d\n", res.Checked, res.Ended, res.Elapsed.Milliseconds())
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "inactivity timeout (defaults to BACKOFFICE_SESSION_TIMEOUT)")
	return cmd
}

func newInspectCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Show the session behind a tracking token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			sess, err := a.store.GetSessionByToken(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no session for token %q", args[0])
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "id=%d status=%s\n", sess.ID, sess.Status)
			_, _ = fmt.Fprintf(out, "teacher=%q student=%q\n", sess.TeacherName, sess.StudentName)
			_, _ = fmt.Fprintf(out, "link=%s\n", sess.Link)
			_, _ = fmt.Fprintf(out, "clicked_at=%s last_activity_at=%s ended_at=%s\n",
				formatTime(sess.ClickedAt), formatTime(sess.LastActivityAt), formatTime(sess.EndedAt))
			return nil
		},
	}
}

func newIssueTokenCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "issue-token <session-id>",
		Short: "Assign a tracking token to a session that has none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			tok, err := tracking.NewToken()
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			if err := a.store.IssueTrackingToken(cmd.Context(), id, tok); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("session %d not found or already has a token", id)
				}
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
}

func newMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return a.store.Migrate(cmd.Context())
		},
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
