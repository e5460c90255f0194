package web

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"tenant-fanout-pipeline/internal/usecase"
)

// Server exposes the operational surface: read-only observability endpoints
// plus the manual run triggers. Everything except /health, /metrics and the
// login endpoint sits behind the session-token middleware.
type Server struct {
	statsUC   usecase.StatsUseCase
	enqueueUC usecase.EnqueueUseCase
	processUC usecase.ProcessUseCase
	auth      *AuthManager
	apiKey    string
	log       *zerolog.Logger
}

func NewServer(
	statsUC usecase.StatsUseCase,
	enqueueUC usecase.EnqueueUseCase,
	processUC usecase.ProcessUseCase,
	auth *AuthManager,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		statsUC:   statsUC,
		enqueueUC: enqueueUC,
		processUC: processUC,
		auth:      auth,
		apiKey:    apiKey,
		log:       &srvLog,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/api/v1/login", s.handleLogin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/stats/queues", s.handleQueues)
		r.Get("/stats/runs/{jobKey}", s.handleRunStats)
		r.Get("/stats/durations", s.handleDurations)
		r.Get("/stats/failures", s.handleFailures)
		r.Get("/stats/stalled", s.handleStalled)
		r.Get("/deadletters", s.handleDeadLetters)

		r.Post("/runs/enqueue", s.handleEnqueuePass)
		r.Post("/runs/tenants/{tenantID}", s.handleRunTenant)
	})
	return r
}

// authMiddleware requires a valid session token minted by /api/v1/login.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if err := s.auth.Verify(token); err != nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("admin API key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	key, ok := bearerToken(r)
	if !ok || subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint()
	if err != nil {
		http.Error(w, "Failed to mint session token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
