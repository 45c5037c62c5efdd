package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/learnhub/backoffice/internal/auth"
	"github.com/learnhub/backoffice/internal/model"
	"github.com/learnhub/backoffice/internal/store"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

type reviewAbsenceRequest struct {
	IsReviewed *bool  `json:"isReviewed" validate:"required"`
	ReviewNote string `json:"reviewNote" validate:"max=500"`
}

type createNotificationRequest struct {
	TeacherID string `json:"teacherId" validate:"omitempty,numeric"`
	Title     string `json:"title" validate:"required,max=200"`
	Message   string `json:"message" validate:"required,max=2000"`
}

type markReadRequest struct {
	IDs []string `json:"ids" validate:"omitempty,dive,uuid"`
}

type phoneRequest struct {
	Phone string `json:"phone" validate:"required,max=32"`
}

type absenceRecordResponse struct {
	ID               string  `json:"id"`
	StudentID        int64   `json:"studentId"`
	StudentName      string  `json:"studentName"`
	TeacherID        int64   `json:"teacherId"`
	ClassDate        string  `json:"classDate"`
	PermissionReason string  `json:"permissionReason"`
	IsReviewed       bool    `json:"isReviewed"`
	ReviewNote       string  `json:"reviewNote"`
	ReviewedAt       *string `json:"reviewedAt"`
	ReviewedBy       string  `json:"reviewedBy,omitempty"`
}

type notificationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

func (s *Server) handleReviewAbsence(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_request", "invalid absence record id")
		return
	}
	var req reviewAbsenceRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	rec, err := s.store.ReviewAbsence(r.Context(), store.ReviewAbsenceInput{
		ID:         id,
		IsReviewed: *req.IsReviewed,
		Note:       strings.TrimSpace(req.ReviewNote),
		ReviewerID: p.UserID,
		At:         s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, "not_found", "Absence record not found")
			return
		}
		s.internalError(w, r, "review_absence_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceRecordResponse(rec))
}

func (s *Server) handleListAdminNotifications(w http.ResponseWriter, r *http.Request) {
	s.listNotifications(w, r, auth.RoleAdmin)
}

func (s *Server) handleListTeacherNotifications(w http.ResponseWriter, r *http.Request) {
	s.listNotifications(w, r, auth.RoleTeacher)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request, role auth.Role) {
	p, _ := auth.PrincipalFromContext(r.Context())

	q := r.URL.Query()
	unreadOnly := false
	if raw := q.Get("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid_request", "unread must be a boolean")
			return
		}
		unreadOnly = v
	}
	limit := defaultNotificationLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeAPIError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = min(n, maxNotificationLimit)
	}

	items, err := s.store.ListNotifications(r.Context(), string(role), p.UserID, unreadOnly, limit)
	if err != nil {
		s.internalError(w, r, "list_notifications_failed", err)
		return
	}
	out := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

func (s *Server) handleCreateTeacherNotification(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	created, err := s.store.CreateTeacherNotification(r.Context(), store.CreateNotificationInput{
		TeacherID: req.TeacherID,
		Title:     strings.TrimSpace(req.Title),
		Message:   strings.TrimSpace(req.Message),
		At:        s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, "not_found", "Teacher not found")
			return
		}
		s.internalError(w, r, "create_notification_failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "created": created})
}

func (s *Server) handleMarkTeacherNotificationsRead(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	var req markReadRequest
	if !s.decodeBody(w, r, &req, true) {
		return
	}
	updated, err := s.store.MarkNotificationsRead(r.Context(), string(auth.RoleTeacher), p.UserID, req.IDs)
	if err != nil {
		s.internalError(w, r, "mark_notifications_read_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": updated})
}

func (s *Server) handleUpdateAdminPhone(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	var req phoneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if !s.validateBody(w, &req) {
		return
	}

	if err := s.store.UpdateAdminPhone(r.Context(), p.UserID, req.Phone); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, "not_found", "Admin not found")
			return
		}
		s.internalError(w, r, "update_admin_phone_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "phone": req.Phone})
}

func (s *Server) handleTeacherStudentCount(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	n, err := s.store.CountActiveStudents(r.Context(), p.UserID)
	if err != nil {
		s.internalError(w, r, "count_students_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": n})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, event string, err error) {
	log.Printf("%s request_id=%s err=%v", event, middleware.GetReqID(r.Context()), err)
	writeAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

func toAbsenceRecordResponse(rec *model.AbsenceRecord) absenceRecordResponse {
	resp := absenceRecordResponse{
		ID:               rec.ID,
		StudentID:        rec.StudentID,
		StudentName:      rec.StudentName,
		TeacherID:        rec.TeacherID,
		ClassDate:        rec.ClassDate.UTC().Format(time.DateOnly),
		PermissionReason: rec.PermissionReason,
		IsReviewed:       rec.IsReviewed,
		ReviewNote:       rec.ReviewNote,
		ReviewedBy:       rec.ReviewedBy,
	}
	if rec.ReviewedAt != nil {
		at := rec.ReviewedAt.UTC().Format(time.RFC3339)
		resp.ReviewedAt = &at
	}
	return resp
}

func toNotificationResponse(n model.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}
