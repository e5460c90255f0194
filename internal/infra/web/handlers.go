package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tenant-fanout-pipeline/internal/domain/model"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleQueues(w http.ResponseWriter, r *http.Request) {
	primary, deadLetter, err := s.statsUC.Queues(r.Context())
	if err != nil {
		http.Error(w, "Failed to read queue metrics", http.StatusInternalServerError)
		return
	}

	type queueView struct {
		PendingCount int     `json:"pending_count"`
		OldestAgeSec float64 `json:"oldest_age_seconds"`
	}
	writeJSON(w, http.StatusOK, map[string]queueView{
		"primary":     {PendingCount: primary.PendingCount, OldestAgeSec: primary.OldestAge.Seconds()},
		"dead_letter": {PendingCount: deadLetter.PendingCount, OldestAgeSec: deadLetter.OldestAge.Seconds()},
	})
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	jobKey := chi.URLParam(r, "jobKey")
	stats, err := s.statsUC.Run(r.Context(), jobKey)
	if err != nil {
		http.Error(w, "Failed to read run stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDurations(w http.ResponseWriter, r *http.Request) {
	p, err := s.statsUC.Durations(r.Context(), r.URL.Query().Get("job_key"))
	if err != nil {
		http.Error(w, "Failed to read durations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{
		"p50_ms": float64(p.P50.Milliseconds()),
		"p95_ms": float64(p.P95.Milliseconds()),
		"p99_ms": float64(p.P99.Milliseconds()),
	})
}

func (s *Server) handleFailures(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	board, err := s.statsUC.Failures(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to read failure leaderboard", http.StatusInternalServerError)
		return
	}
	if board == nil {
		board = []*model.TenantFailureCount{}
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleStalled(w http.ResponseWriter, r *http.Request) {
	window := time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			http.Error(w, "Invalid window duration", http.StatusBadRequest)
			return
		}
		window = d
	}
	stalled, err := s.statsUC.Stalled(r.Context(), window)
	if err != nil {
		http.Error(w, "Failed to evaluate stall state", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stalled": stalled})
}

func (s *Server) handleDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.statsUC.DeadLetters(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to list dead letters", http.StatusInternalServerError)
		return
	}

	type deadLetterView struct {
		TenantID  string    `json:"tenant_id"`
		JobKey    string    `json:"job_key"`
		Attempt   int       `json:"attempt"`
		MessageID string    `json:"message_id"`
		Error     string    `json:"error"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]deadLetterView, 0, len(entries))
	for _, e := range entries {
		out = append(out, deadLetterView{
			TenantID:  e.TenantID,
			JobKey:    e.JobKey,
			Attempt:   e.Attempt,
			MessageID: e.MessageID,
			Error:     e.ErrorMessage,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type enqueueRequest struct {
	JobKey string `json:"job_key"`
}

func (s *Server) handleEnqueuePass(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	summary, err := s.enqueueUC.RunPass(r.Context(), req.JobKey)
	if err != nil {
		http.Error(w, "Enqueue pass failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRunTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	var req enqueueRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	summary, err := s.processUC.RunDirect(r.Context(), tenantID, req.JobKey)
	if err != nil {
		http.Error(w, "Direct run failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
