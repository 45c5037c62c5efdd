package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/learnhub/backoffice/internal/metrics"
	"github.com/learnhub/backoffice/internal/store"
)

const (
	fallbackTeacherName = "Teacher"
	fallbackStudentName = "Student"
)

type joinInfoResponse struct {
	ZoomLink    string `json:"zoomLink"`
	TeacherName string `json:"teacherName"`
	StudentName string `json:"studentName"`
}

func (s *Server) handleJoinLookup(w http.ResponseWriter, r *http.Request) {
	token := trackingToken(r)
	if token == "" {
		writeAPIError(w, http.StatusNotFound, "not_found", "Session not found")
		return
	}

	info, err := s.store.LookupJoinInfo(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, "not_found", "Session not found")
			return
		}
		log.Printf("session_join_lookup_failed request_id=%s err=%v", middleware.GetReqID(r.Context()), err)
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, joinInfoResponse{
		ZoomLink:    info.Link,
		TeacherName: orDefault(info.TeacherName, fallbackTeacherName),
		StudentName: orDefault(info.StudentName, fallbackStudentName),
	})
}

func (s *Server) handleLogJoin(w http.ResponseWriter, r *http.Request) {
	token := trackingToken(r)
	if token == "" {
		countJoin("not_found")
		writeAPIError(w, http.StatusNotFound, "not_found", "Session not found")
		return
	}

	if err := s.store.RecordJoin(r.Context(), token, s.now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			countJoin("not_found")
			writeAPIError(w, http.StatusNotFound, "not_found", "Session not found")
			return
		}
		countJoin("error")
		log.Printf("session_log_join_failed request_id=%s err=%v", middleware.GetReqID(r.Context()), err)
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}
	countJoin("ok")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleHeartbeat succeeds for unknown tokens and inactive sessions alike;
// only a store failure is surfaced.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	token := trackingToken(r)
	if token == "" {
		countHeartbeat("noop")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	applied, err := s.store.RecordHeartbeat(r.Context(), token, s.now().UTC())
	if err != nil {
		countHeartbeat("error")
		log.Printf("session_heartbeat_failed request_id=%s err=%v", middleware.GetReqID(r.Context()), err)
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}
	if applied {
		countHeartbeat("applied")
	} else {
		countHeartbeat("noop")
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func trackingToken(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "token"))
}

func orDefault(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}

func countJoin(result string) {
	metrics.Default().IncCounter("backoffice_session_joins_total", map[string]string{"result": result})
}

func countHeartbeat(result string) {
	metrics.Default().IncCounter("backoffice_session_heartbeats_total", map[string]string{"result": result})
}
