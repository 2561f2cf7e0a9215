package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nur1slam20/tg-profession-bot/core/logger"
	"github.com/nur1slam20/tg-profession-bot/internal/domain"
)

// Counter supplies aggregate totals from the persistent store.
type Counter interface {
	Counts(ctx context.Context) (users, sessions, finished int, err error)
}

// Compute derives the reporting payload from raw store counts.
// completionRate is round(100 * finished / sessions), 0 when sessions is 0.
func Compute(users, sessions, finished int) domain.Stats {
	rate := 0
	if sessions > 0 {
		rate = int(math.Round(100 * float64(finished) / float64(sessions)))
	}
	return domain.Stats{
		Users:            users,
		Sessions:         sessions,
		FinishedSessions: finished,
		CompletionRate:   rate,
	}
}

// Server exposes the read-only /stats and /health endpoints.
type Server struct {
	counter Counter
	srv     *http.Server
}

// NewServer builds the HTTP server bound to the given listen address.
func NewServer(listen string, port int, counter Counter) *Server {
	s := &Server{counter: counter}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/stats", s.handleStats)
	r.Get("/health", s.handleHealth)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", listen, port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until Shutdown is called. It returns nil on graceful close.
func (s *Server) Start() error {
	logger.STATS.Info("stats server listening",
		slog.String("event", "listen"),
		slog.String("addr", s.srv.Addr),
	)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("stats server: %w", err)
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	users, sessions, finished, err := s.counter.Counts(r.Context())
	if err != nil {
		logger.STATS.Error("stats query failed",
			slog.String("event", "stats"),
			slog.String("err", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats query failed"})
		return
	}
	writeJSON(w, http.StatusOK, Compute(users, sessions, finished))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
