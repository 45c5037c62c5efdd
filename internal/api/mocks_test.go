package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/learnhub/backoffice/internal/config"
	"github.com/learnhub/backoffice/internal/model"
	"github.com/learnhub/backoffice/internal/store"
)

type mockStore struct {
	lookupJoinInfoFn       func(context.Context, string) (*model.JoinInfo, error)
	recordJoinFn           func(context.Context, string, time.Time) error
	recordHeartbeatFn      func(context.Context, string, time.Time) (bool, error)
	reviewAbsenceFn        func(context.Context, store.ReviewAbsenceInput) (*model.AbsenceRecord, error)
	listNotificationsFn    func(context.Context, string, string, bool, int) ([]model.Notification, error)
	createNotificationFn   func(context.Context, store.CreateNotificationInput) (int, error)
	markReadFn             func(context.Context, string, string, []string) (int, error)
	updateAdminPhoneFn     func(context.Context, string, string) error
	countActiveStudentsFn  func(context.Context, string) (int, error)
	listDayPackagesFn      func(context.Context) ([]model.Option, error)
	getFilterOptionsFn     func(context.Context) (*model.FilterOptions, error)
	listStudentConfigsFn   func(context.Context) ([]model.StudentConfig, error)
	listPermissionReasonFn func(context.Context) ([]model.Option, error)
	listControlOptionsFn   func(context.Context) ([]model.Option, error)
	listTeachersFn         func(context.Context) ([]model.TeacherSummary, error)
	getTeacherExamStatsFn  func(context.Context, int64) (*model.ExamStats, error)
}

func (m *mockStore) LookupJoinInfo(ctx context.Context, token string) (*model.JoinInfo, error) {
	if m.lookupJoinInfoFn != nil {
		return m.lookupJoinInfoFn(ctx, token)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) RecordJoin(ctx context.Context, token string, at time.Time) error {
	if m.recordJoinFn != nil {
		return m.recordJoinFn(ctx, token, at)
	}
	return store.ErrNotFound
}

func (m *mockStore) RecordHeartbeat(ctx context.Context, token string, at time.Time) (bool, error) {
	if m.recordHeartbeatFn != nil {
		return m.recordHeartbeatFn(ctx, token, at)
	}
	return false, nil
}

func (m *mockStore) ReviewAbsence(ctx context.Context, in store.ReviewAbsenceInput) (*model.AbsenceRecord, error) {
	if m.reviewAbsenceFn != nil {
		return m.reviewAbsenceFn(ctx, in)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ListNotifications(ctx context.Context, role, recipientID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if m.listNotificationsFn != nil {
		return m.listNotificationsFn(ctx, role, recipientID, unreadOnly, limit)
	}
	return nil, nil
}

func (m *mockStore) CreateTeacherNotification(ctx context.Context, in store.CreateNotificationInput) (int, error) {
	if m.createNotificationFn != nil {
		return m.createNotificationFn(ctx, in)
	}
	return 0, nil
}

func (m *mockStore) MarkNotificationsRead(ctx context.Context, role, recipientID string, ids []string) (int, error) {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, role, recipientID, ids)
	}
	return 0, nil
}

func (m *mockStore) UpdateAdminPhone(ctx context.Context, adminID, phone string) error {
	if m.updateAdminPhoneFn != nil {
		return m.updateAdminPhoneFn(ctx, adminID, phone)
	}
	return nil
}

func (m *mockStore) CountActiveStudents(ctx context.Context, teacherID string) (int, error) {
	if m.countActiveStudentsFn != nil {
		return m.countActiveStudentsFn(ctx, teacherID)
	}
	return 0, nil
}

func (m *mockStore) ListDayPackages(ctx context.Context) ([]model.Option, error) {
	if m.listDayPackagesFn != nil {
		return m.listDayPackagesFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) GetFilterOptions(ctx context.Context) (*model.FilterOptions, error) {
	if m.getFilterOptionsFn != nil {
		return m.getFilterOptionsFn(ctx)
	}
	return &model.FilterOptions{}, nil
}

func (m *mockStore) ListStudentConfigs(ctx context.Context) ([]model.StudentConfig, error) {
	if m.listStudentConfigsFn != nil {
		return m.listStudentConfigsFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) ListPermissionReasons(ctx context.Context) ([]model.Option, error) {
	if m.listPermissionReasonFn != nil {
		return m.listPermissionReasonFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) ListControlOptions(ctx context.Context) ([]model.Option, error) {
	if m.listControlOptionsFn != nil {
		return m.listControlOptionsFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) ListTeachers(ctx context.Context) ([]model.TeacherSummary, error) {
	if m.listTeachersFn != nil {
		return m.listTeachersFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) GetTeacherExamStats(ctx context.Context, teacherID int64) (*model.ExamStats, error) {
	if m.getTeacherExamStatsFn != nil {
		return m.getTeacherExamStatsFn(ctx, teacherID)
	}
	return nil, store.ErrNotFound
}

type mockSweeper struct {
	runFn    func(context.Context, string) (model.SweepResult, error)
	triggers []string
}

func (m *mockSweeper) Run(ctx context.Context, trigger string) (model.SweepResult, error) {
	m.triggers = append(m.triggers, trigger)
	if m.runFn != nil {
		return m.runFn(ctx, trigger)
	}
	return model.SweepResult{}, nil
}

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:       "test-secret",
		SessionTimeout:  10 * time.Minute,
		RequestDeadline: 5 * time.Second,
	}
}

func newTestRouter(cfg config.Config, ms *mockStore, sw *mockSweeper) http.Handler {
	if sw == nil {
		sw = &mockSweeper{}
	}
	s := &Server{
		cfg:      cfg,
		store:    ms,
		sweeper:  sw,
		validate: newValidator(),
		now:      func() time.Time { return testNow },
	}
	return s.routes()
}

func testJWT(t *testing.T, secret, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid":  userID,
		"role": role,
		"exp":  time.Now().Add(1 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return signed
}

func jsonBody(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return out
}
