package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/learnhub/backoffice/internal/sweep"
)

type cronSweepResponse struct {
	Success          bool    `json:"success"`
	SessionsEnded    int     `json:"sessionsEnded"`
	TotalChecked     int     `json:"totalChecked"`
	ProcessingTimeMs int64   `json:"processingTimeMs"`
	Error            *string `json:"error"`
	Skipped          bool    `json:"skipped,omitempty"`
	Timestamp        string  `json:"timestamp"`
}

type adminSweepResponse struct {
	Success          bool   `json:"success"`
	SessionsChecked  int    `json:"sessionsChecked"`
	SessionsEnded    int    `json:"sessionsEnded"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	Message          string `json:"message"`
	Skipped          bool   `json:"skipped,omitempty"`
	Timestamp        string `json:"timestamp"`
}

func (s *Server) handleCronSessionTimeout(w http.ResponseWriter, r *http.Request) {
	res, err := s.sweeper.Run(r.Context(), sweep.TriggerCron)
	resp := cronSweepResponse{
		ProcessingTimeMs: res.Elapsed.Milliseconds(),
		Timestamp:        s.now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		log.Printf("cron_session_timeout_failed request_id=%s err=%v", middleware.GetReqID(r.Context()), err)
		msg := "session timeout sweep failed"
		resp.Error = &msg
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	resp.Success = true
	resp.SessionsEnded = res.Ended
	resp.TotalChecked = res.Checked
	resp.Skipped = res.Skipped
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminAutoTimeout(w http.ResponseWriter, r *http.Request) {
	res, err := s.sweeper.Run(r.Context(), sweep.TriggerAdmin)
	resp := adminSweepResponse{
		ProcessingTimeMs: res.Elapsed.Milliseconds(),
		Timestamp:        s.now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		log.Printf("admin_auto_timeout_failed request_id=%s err=%v", middleware.GetReqID(r.Context()), err)
		resp.Message = "Session timeout sweep failed"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	resp.Success = true
	resp.SessionsChecked = res.Checked
	resp.SessionsEnded = res.Ended
	resp.Skipped = res.Skipped
	if res.Skipped {
		resp.Message = "Sweep already running on another instance"
	} else {
		resp.Message = fmt.Sprintf("Ended %d of %d active sessions", res.Ended, res.Checked)
	}
	writeJSON(w, http.StatusOK, resp)
}
