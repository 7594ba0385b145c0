// Package server exposes the analysis pipeline and stored sessions over
// HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meltforce/movassist/internal/config"
	"github.com/meltforce/movassist/internal/exercise"
	"github.com/meltforce/movassist/internal/session"
	"github.com/meltforce/movassist/internal/storage"
)

// Store is the storage surface the handlers need. *storage.DB satisfies it;
// tests substitute a stub.
type Store interface {
	InsertSession(ctx context.Context, rec *session.Record) error
	ListSessions(ctx context.Context, exercise string, start, end time.Time, limit int) ([]storage.SessionRow, error)
	GetSession(ctx context.Context, id uuid.UUID) (*storage.SessionDetail, error)
	GetSessionReps(ctx context.Context, id uuid.UUID) ([]storage.RepRow, error)
	ViolationStats(ctx context.Context, exercise string, start, end time.Time) ([]storage.ViolationCount, error)
	Totals(ctx context.Context, start, end time.Time) ([]storage.ExerciseTotals, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       Store
	registry *exercise.Registry
	analyzer config.AnalyzerConfig
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, registry *exercise.Registry, analyzer config.AnalyzerConfig, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		registry: registry,
		analyzer: analyzer,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Ingest endpoint (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleIngest)
	})

	// Read endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/exercises", s.handleListExercises)
	s.router.Get("/api/v1/sessions", s.handleListSessions)
	s.router.Get("/api/v1/sessions/{id}", s.handleGetSession)
	s.router.Get("/api/v1/sessions/{id}/reps", s.handleGetSessionReps)
	s.router.Get("/api/v1/stats/violations", s.handleViolationStats)
	s.router.Get("/api/v1/stats/totals", s.handleTotals)

	s.router.Get("/healthz", s.handleHealthz)
}
