package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/chris/moodlog/internal/journal"
	"github.com/chris/moodlog/internal/metrics"
	"github.com/chris/moodlog/internal/mood"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Reader is the read side of the store the API exposes.
type Reader interface {
	Ping() error
	ListRecentMoods(limit int) ([]mood.Reading, error)
	ListRuleEvents() ([]mood.RuleEvent, error)
	ListScheduled() ([]mood.Notification, error)
}

// Server is the moodlog HTTP API: the widget quick-log endpoint plus settings
// and read-only views for clients.
type Server struct {
	journal *journal.Journal
	store   Reader
	router  chi.Router
	version string
	started time.Time
}

func New(j *journal.Journal, store Reader, version string) *Server {
	s := &Server{
		journal: j,
		store:   store,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/moods", s.handleLogMood)
		r.Get("/moods", s.handleListMoods)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)

		r.Get("/events", s.handleListEvents)
		r.Get("/notifications", s.handleListNotifications)
		r.Post("/recompute", s.handleRecompute)
	})
	r.Handle("/metrics", metrics.Handler())

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := s.store.Ping() == nil
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
