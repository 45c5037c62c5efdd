package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/learnhub/backoffice/internal/model"
	"github.com/learnhub/backoffice/internal/store"
)

type fakeStore struct {
	cutoff, now time.Time
	checked     int
	ended       int
	sessions    map[string]*model.Session
	issued      map[int64]string
	migrated    bool
}

func (f *fakeStore) EndStaleSessions(_ context.Context, cutoff, now time.Time) (int, int, error) {
	f.cutoff, f.now = cutoff, now
	return f.checked, f.ended, nil
}

func (f *fakeStore) GetSessionByToken(_ context.Context, token string) (*model.Session, error) {
	if s, ok := f.sessions[token]; ok {
		return s, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) IssueTrackingToken(_ context.Context, sessionID int64, token string) error {
	if _, ok := f.issued[sessionID]; ok || sessionID != 7 {
		return store.ErrNotFound
	}
	f.issued[sessionID] = token
	return nil
}

func (f *fakeStore) Migrate(context.Context) error {
	f.migrated = true
	return nil
}

func run(t *testing.T, st *fakeStore, args ...string) (string, error) {
	t.Helper()
	closed := false
	load := func(context.Context) (*app, error) {
		return &app{store: st, timeout: 10 * time.Minute, close: func() { closed = true }}, nil
	}
	cmd := newRootCmd(load)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if err == nil && !closed {
		t.Fatalf("command did not release its resources")
	}
	return out.String(), err
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]*model.Session{}, issued: map[int64]string{}}
}

func TestSweep_UsesConfiguredTimeout(t *testing.T) {
	st := newFakeStore()
	st.checked, st.ended = 6, 2

	out, err := run(t, st, "sweep")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "checked=6 ended=2") {
		t.Fatalf("unexpected output %q", out)
	}
	if got := st.now.Sub(st.cutoff); got != 10*time.Minute {
		t.Fatalf("expected 10m window, got %s", got)
	}
}

func TestSweep_TimeoutFlagOverrides(t *testing.T) {
	st := newFakeStore()
	if _, err := run(t, st, "sweep", "--timeout", "90s"); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := st.now.Sub(st.cutoff); got != 90*time.Second {
		t.Fatalf("expected 90s window, got %s", got)
	}
}

func TestInspect(t *testing.T) {
	st := newFakeStore()
	clicked := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	st.sessions["abc123"] = &model.Session{ID: 7, Status: model.SessionActive, Link: "https://zoom.example/7", ClickedAt: &clicked}

	out, err := run(t, st, "inspect", "abc123")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"id=7 status=active", "clicked_at=2026-03-02T09:00:00Z last_activity_at=-"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}

	if _, err := run(t, st, "inspect", "doesnotexist"); err == nil {
		t.Fatalf("expected error for unknown token")
	}
}

func TestIssueToken(t *testing.T) {
	st := newFakeStore()

	out, err := run(t, st, "issue-token", "7")
	if err != nil {
		t.Fatalf("issue-token: %v", err)
	}
	if tok := strings.TrimSpace(out); tok == "" || st.issued[7] != tok {
		t.Fatalf("printed token %q does not match stored %q", tok, st.issued[7])
	}

	if _, err := run(t, st, "issue-token", "7"); err == nil || !strings.Contains(err.Error(), "already has a token") {
		t.Fatalf("expected reissue to fail, got %v", err)
	}
	if _, err := run(t, st, "issue-token", "seven"); err == nil {
		t.Fatalf("expected invalid id error")
	}
}

func TestMigrate(t *testing.T) {
	st := newFakeStore()
	if _, err := run(t, st, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !st.migrated {
		t.Fatalf("expected migrations to run")
	}
}

func TestLoadFailureIsReturned(t *testing.T) {
	cmd := newRootCmd(func(context.Context) (*app, error) { return nil, errors.New("no database") })
	cmd.SetArgs([]string{"sweep"})
	if err := cmd.Execute(); err == nil || err.Error() != "no database" {
		t.Fatalf("expected load error, got %v", err)
	}
}
