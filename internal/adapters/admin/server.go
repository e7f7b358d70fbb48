package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"hotel_scout/internal/adapters/observability"
)

// Server is the operational sidecar next to the bot: health and metrics only,
// no user-facing routes.
type Server struct {
	mux *chi.Mux
	db  *sql.DB
}

func New(db *sql.DB, reg *prometheus.Registry, log zerolog.Logger) *Server {
	s := &Server{mux: chi.NewRouter(), db: db}

	s.mux.Use(chimw.RealIP)
	s.mux.Use(chimw.RequestID)
	s.mux.Use(chimw.Recoverer)
	s.mux.Use(Timeout(10 * time.Second))
	s.mux.Use(Instrument(log))

	s.mux.Get("/healthz", s.healthz)
	s.mux.Handle("/metrics", observability.MetricsHandler(reg))
	return s
}

func (s *Server) Mux() http.Handler { return s.mux }

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["mysql"] = err.Error()
		} else {
			body["mysql"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
