package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/learnhub/backoffice/internal/auth"
	"github.com/learnhub/backoffice/internal/config"
	"github.com/learnhub/backoffice/internal/metrics"
	"github.com/learnhub/backoffice/internal/model"
	"github.com/learnhub/backoffice/internal/store"
)

type Store interface {
	LookupJoinInfo(rctx context.Context, token string) (*model.JoinInfo, error)
	RecordJoin(rctx context.Context, token string, at time.Time) error
	RecordHeartbeat(rctx context.Context, token string, at time.Time) (bool, error)

	ReviewAbsence(rctx context.Context, in store.ReviewAbsenceInput) (*model.AbsenceRecord, error)
	ListNotifications(rctx context.Context, role, recipientID string, unreadOnly bool, limit int) ([]model.Notification, error)
	CreateTeacherNotification(rctx context.Context, in store.CreateNotificationInput) (int, error)
	MarkNotificationsRead(rctx context.Context, role, recipientID string, ids []string) (int, error)
	UpdateAdminPhone(rctx context.Context, adminID, phone string) error
	CountActiveStudents(rctx context.Context, teacherID string) (int, error)

	ListDayPackages(rctx context.Context) ([]model.Option, error)
	GetFilterOptions(rctx context.Context) (*model.FilterOptions, error)
	ListStudentConfigs(rctx context.Context) ([]model.StudentConfig, error)
	ListPermissionReasons(rctx context.Context) ([]model.Option, error)
	ListControlOptions(rctx context.Context) ([]model.Option, error)
	ListTeachers(rctx context.Context) ([]model.TeacherSummary, error)
	GetTeacherExamStats(rctx context.Context, teacherID int64) (*model.ExamStats, error)
}

type Sweeper interface {
	Run(ctx context.Context, trigger string) (model.SweepResult, error)
}

type Server struct {
	cfg      config.Config
	store    Store
	sweeper  Sweeper
	validate *validator.Validate
	now      func() time.Time
}

func NewRouter(cfg config.Config, st Store, sw Sweeper) http.Handler {
	s := &Server{
		cfg:      cfg,
		store:    st,
		sweeper:  sw,
		validate: newValidator(),
		now:      time.Now,
	}
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestDeadline > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestDeadline))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Get("/metrics", metrics.Default().Handler().ServeHTTP)

	r.Route("/session", func(sr chi.Router) {
		sr.Get("/join/{token}", s.handleJoinLookup)
		sr.Post("/log-join/{token}", s.handleLogJoin)
		sr.Post("/heartbeat/{token}", s.handleHeartbeat)
	})

	r.With(s.cronAuth).Get("/cron/session-timeout", s.handleCronSessionTimeout)
	r.With(s.cronAuth).Post("/admin/auto-timeout", s.handleAdminAutoTimeout)

	r.Group(func(authed chi.Router) {
		authed.Use(auth.Middleware(s.cfg.JWTSecret))

		authed.With(auth.Require(auth.CapReviewAbsences)).Patch("/admin/absence-records/{id}", s.handleReviewAbsence)
		authed.With(auth.Require(auth.CapReadAdminInbox)).Get("/admin/notifications", s.handleListAdminNotifications)
		authed.With(auth.Require(auth.CapSendNotifications)).Post("/admin/notifications", s.handleCreateTeacherNotification)
		authed.With(auth.Require(auth.CapUpdatePhone)).Put("/admin/phone", s.handleUpdateAdminPhone)

		authed.With(auth.Require(auth.CapReadTeacherInbox)).Get("/teacher/notifications", s.handleListTeacherNotifications)
		authed.With(auth.Require(auth.CapReadTeacherInbox)).Post("/teacher/notifications", s.handleMarkTeacherNotificationsRead)
		authed.With(auth.Require(auth.CapViewStudentCount)).Get("/teacher/student-count", s.handleTeacherStudentCount)
	})

	r.Route("/lookups", func(lr chi.Router) {
		lr.Get("/day-packages", s.handleDayPackages)
		lr.Get("/filter-options", s.handleFilterOptions)
		lr.Get("/student-configs", s.handleStudentConfigs)
		lr.Get("/permission-reasons", s.handlePermissionReasons)
		lr.Get("/control-options", s.handleControlOptions)
	})
	r.Get("/teachers", s.handleTeachers)
	r.Get("/teachers/{id}/exam-stats", s.handleTeacherExamStats)

	return r
}

// cronAuth is a no-op until BACKOFFICE_CRON_SECRET is set; then the
// scheduler must send it as a bearer token.
func (s *Server) cronAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.CronSecret == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.CronSecret)) != 1 {
			writeAPIError(w, http.StatusUnauthorized, "unauthorized", "invalid cron secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}
