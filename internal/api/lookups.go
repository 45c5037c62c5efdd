package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/backoffice/internal/model"
	"github.com/learnhub/backoffice/internal/store"
)

type optionResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

func (s *Server) handleDayPackages(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListDayPackages(r.Context())
	if err != nil {
		s.internalError(w, r, "list_day_packages_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dayPackages": toOptions(items)})
}

func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	f, err := s.store.GetFilterOptions(r.Context())
	if err != nil {
		s.internalError(w, r, "get_filter_options_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"statuses": toOptions(f.Statuses),
		"packages": toOptions(f.Packages),
		"subjects": toOptions(f.Subjects),
	})
}

func (s *Server) handleStudentConfigs(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListStudentConfigs(r.Context())
	if err != nil {
		s.internalError(w, r, "list_student_configs_failed", err)
		return
	}
	type configResponse struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	out := make([]configResponse, 0, len(items))
	for _, c := range items {
		out = append(out, configResponse{Key: c.Key, Value: c.Value})
	}
	writeJSON(w, http.StatusOK, map[string]any{"studentConfigs": out})
}

func (s *Server) handlePermissionReasons(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListPermissionReasons(r.Context())
	if err != nil {
		s.internalError(w, r, "list_permission_reasons_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"permissionReasons": toOptions(items)})
}

func (s *Server) handleControlOptions(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListControlOptions(r.Context())
	if err != nil {
		s.internalError(w, r, "list_control_options_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"controlOptions": toOptions(items)})
}

func (s *Server) handleTeachers(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListTeachers(r.Context())
	if err != nil {
		s.internalError(w, r, "list_teachers_failed", err)
		return
	}
	type teacherResponse struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]teacherResponse, 0, len(items))
	for _, t := range items {
		out = append(out, teacherResponse{ID: t.ID, Name: t.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"teachers": out})
}

func (s *Server) handleTeacherExamStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeAPIError(w, http.StatusBadRequest, "invalid_request", "invalid teacher id")
		return
	}
	st, err := s.store.GetTeacherExamStats(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, "not_found", "Teacher not found")
			return
		}
		s.internalError(w, r, "get_exam_stats_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"teacherId":    st.TeacherID,
		"totalExams":   st.TotalExams,
		"passed":       st.Passed,
		"failed":       st.Failed,
		"averageScore": st.AverageScore,
	})
}

func toOptions(items []model.Option) []optionResponse {
	out := make([]optionResponse, 0, len(items))
	for _, o := range items {
		out = append(out, optionResponse{ID: o.ID, Name: o.Name, Value: o.Value})
	}
	return out
}
