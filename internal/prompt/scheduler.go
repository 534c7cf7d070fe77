package prompt

import (
	"fmt"
	"log"
	"time"

	"github.com/chris/moodlog/internal/metrics"
	"github.com/chris/moodlog/internal/mood"
	"github.com/chris/moodlog/internal/report"
)

// Copy shown on every check-in prompt.
const (
	Title = "How are you feeling?"
	Body  = "Take a moment to log your mood."
)

// SettingsStore supplies the prompt times and spacing.
type SettingsStore interface {
	GetSettings() (mood.Settings, error)
}

// MoodStore supplies the reading history used for manual avoidance.
type MoodStore interface {
	ListMoods() ([]mood.Reading, error)
}

// Sink is the notification store the scheduler reconciles against.
// ListPending lists only notifications that fire after now; anything already
// due is left for delivery.
type Sink interface {
	ListPending(prefix string, now time.Time) ([]string, error)
	Cancel(identifiers []string) error
	Schedule(n mood.Notification) error
}

// Scheduler keeps the Prefix namespace of the sink equal to the current plan.
// It holds no state between passes.
type Scheduler struct {
	settings SettingsStore
	moods    MoodStore
	sink     Sink
	reporter report.Reporter
}

func New(settings SettingsStore, moods MoodStore, sink Sink, reporter report.Reporter) *Scheduler {
	if reporter == nil {
		reporter = report.Log{}
	}
	return &Scheduler{settings: settings, moods: moods, sink: sink, reporter: reporter}
}

// Recompute plans prompts for the next HorizonDays and replaces every prompt
// still waiting to fire with the plan. Prompts already due are not touched. Reads happen before anything is cancelled,
// so a failed read leaves the sink untouched. Individual scheduling failures are
// reported and skipped.
func (s *Scheduler) Recompute(now time.Time) ([]mood.Notification, error) {
	settings, err := s.settings.GetSettings()
	if err != nil {
		return nil, s.fail(fmt.Errorf("reading settings: %w", err))
	}
	history, err := s.moods.ListMoods()
	if err != nil {
		return nil, s.fail(fmt.Errorf("reading mood history: %w", err))
	}

	instants, planErrs := Plan(settings, history, now)
	for _, e := range planErrs {
		s.reporter.Report("prompt.plan", e)
	}

	pending, err := s.sink.ListPending(Prefix, now)
	if err != nil {
		return nil, s.fail(fmt.Errorf("listing pending prompts: %w", err))
	}
	if err := s.sink.Cancel(pending); err != nil {
		return nil, s.fail(fmt.Errorf("cancelling pending prompts: %w", err))
	}

	requests := make([]mood.Notification, 0, len(instants))
	scheduled := 0
	for _, at := range instants {
		n := mood.Notification{
			Identifier: Identifier(at),
			FireAt:     at,
			Title:      Title,
			Body:       Body,
		}
		requests = append(requests, n)
		if err := s.sink.Schedule(n); err != nil {
			s.reporter.Report("prompt.schedule", err)
			continue
		}
		scheduled++
	}

	metrics.RecomputeRuns.WithLabelValues("ok").Inc()
	metrics.PromptsScheduled.Set(float64(scheduled))
	log.Printf("prompt: replaced %d pending prompt(s) with %d", len(pending), scheduled)
	return requests, nil
}

func (s *Scheduler) fail(err error) error {
	metrics.RecomputeRuns.WithLabelValues("error").Inc()
	s.reporter.Report("prompt.recompute", err)
	return err
}
