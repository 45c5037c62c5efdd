package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/learnhub/backoffice/internal/model"
	"github.com/learnhub/backoffice/internal/sweep"
)

func TestCronSessionTimeout_ReportsCounts(t *testing.T) {
	sw := &mockSweeper{
		runFn: func(context.Context, string) (model.SweepResult, error) {
			return model.SweepResult{Checked: 5, Ended: 2, Elapsed: 42 * time.Millisecond}, nil
		},
	}
	rr := serve(t, newTestRouter(testConfig(), &mockStore{}, sw), httptest.NewRequest(http.MethodGet, "/cron/session-timeout", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	body := decodeMap(t, rr)
	if body["success"] != true || body["sessionsEnded"] != float64(2) || body["totalChecked"] != float64(5) {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["processingTimeMs"] != float64(42) {
		t.Fatalf("unexpected processing time: %v", body["processingTimeMs"])
	}
	if v, ok := body["error"]; !ok || v != nil {
		t.Fatalf("expected explicit null error, got %v", body)
	}
	if body["timestamp"] != testNow.Format(time.RFC3339) {
		t.Fatalf("unexpected timestamp: %v", body["timestamp"])
	}
	if len(sw.triggers) != 1 || sw.triggers[0] != sweep.TriggerCron {
		t.Fatalf("unexpected triggers %v", sw.triggers)
	}
}

func TestCronSessionTimeout_FailureIsStructured500(t *testing.T) {
	sw := &mockSweeper{
		runFn: func(context.Context, string) (model.SweepResult, error) {
			return model.SweepResult{Elapsed: time.Millisecond}, errors.New("connection reset")
		},
	}
	rr := serve(t, newTestRouter(testConfig(), &mockStore{}, sw), httptest.NewRequest(http.MethodGet, "/cron/session-timeout", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	body := decodeMap(t, rr)
	if body["success"] != false || body["sessionsEnded"] != float64(0) || body["error"] != "session timeout sweep failed" {
		t.Fatalf("unexpected failure body: %v", body)
	}
}

func TestCronSessionTimeout_RequiresSecretWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.CronSecret = "cron-key"
	sw := &mockSweeper{}
	router := newTestRouter(cfg, &mockStore{}, sw)

	rr := serve(t, router, httptest.NewRequest(http.MethodGet, "/cron/session-timeout", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/cron/session-timeout", nil)
	req.Header.Set("Authorization", "Bearer cron-key")
	rr = serve(t, router, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d", rr.Code)
	}
	if len(sw.triggers) != 1 {
		t.Fatalf("expected exactly one sweep, got %d", len(sw.triggers))
	}
}

func TestAdminAutoTimeout_ReportsMessage(t *testing.T) {
	sw := &mockSweeper{
		runFn: func(context.Context, string) (model.SweepResult, error) {
			return model.SweepResult{Checked: 3, Ended: 1}, nil
		},
	}
	rr := serve(t, newTestRouter(testConfig(), &mockStore{}, sw), httptest.NewRequest(http.MethodPost, "/admin/auto-timeout", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeMap(t, rr)
	if body["success"] != true || body["sessionsChecked"] != float64(3) || body["sessionsEnded"] != float64(1) {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["message"] != "Ended 1 of 3 active sessions" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if sw.triggers[0] != sweep.TriggerAdmin {
		t.Fatalf("unexpected trigger %s", sw.triggers[0])
	}
}

func TestAdminAutoTimeout_SkippedWhenLeaseHeld(t *testing.T) {
	sw := &mockSweeper{
		runFn: func(context.Context, string) (model.SweepResult, error) {
			return model.SweepResult{Skipped: true}, nil
		},
	}
	rr := serve(t, newTestRouter(testConfig(), &mockStore{}, sw), httptest.NewRequest(http.MethodPost, "/admin/auto-timeout", nil))

	body := decodeMap(t, rr)
	if rr.Code != http.StatusOK || body["skipped"] != true || body["sessionsEnded"] != float64(0) {
		t.Fatalf("unexpected skipped response %d %v", rr.Code, body)
	}
}

func TestAdminAutoTimeout_FailureReturns500(t *testing.T) {
	sw := &mockSweeper{
		runFn: func(context.Context, string) (model.SweepResult, error) {
			return model.SweepResult{}, errors.New("boom")
		},
	}
	rr := serve(t, newTestRouter(testConfig(), &mockStore{}, sw), httptest.NewRequest(http.MethodPost, "/admin/auto-timeout", nil))

	body := decodeMap(t, rr)
	if rr.Code != http.StatusInternalServerError || body["success"] != false {
		t.Fatalf("unexpected failure response %d %v", rr.Code, body)
	}
}
