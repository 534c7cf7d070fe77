package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/chris/moodlog/internal/mood"
)

type logMoodRequest struct {
	Mood   string `json:"mood"`
	Source string `json:"source"`
}

// handleLogMood is the quick-log endpoint. Source defaults to widget.
func (s *Server) handleLogMood(w http.ResponseWriter, r *http.Request) {
	var req logMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	level, err := mood.ParseLevel(req.Mood)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	source := mood.SourceWidget
	if req.Source != "" {
		if source, err = mood.ParseSource(req.Source); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	reading, ev, err := s.journal.LogMood(level, source)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"reading":    reading,
		"rule_event": ev,
	})
}

func (s *Server) handleListMoods(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	moods, err := s.store.ListRecentMoods(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if moods == nil {
		moods = []mood.Reading{}
	}
	writeJSON(w, http.StatusOK, moods)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.journal.Settings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings mood.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	plan, err := s.journal.UpdateSettings(settings)
	if errors.Is(err, mood.ErrInvalidSettings) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stored, err := s.journal.Settings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"settings":  stored,
		"scheduled": len(plan),
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListRuleEvents()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []mood.RuleEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	pending, err := s.store.ListScheduled()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pending == nil {
		pending = []mood.Notification{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// handleRecompute is what a client calls when it comes to the foreground.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	plan, err := s.journal.Recompute()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scheduled": len(plan)})
}
