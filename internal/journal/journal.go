// Package journal is the entry point the shells (CLI, HTTP, Discord, cron) use.
// It sequences store writes with the two engines: every mood insertion runs the
// rule engine, and every settings change or manual reading replans prompts.
package journal

import (
	"fmt"
	"time"

	"github.com/chris/moodlog/internal/metrics"
	"github.com/chris/moodlog/internal/mood"
	"github.com/chris/moodlog/internal/prompt"
	"github.com/chris/moodlog/internal/rules"
)

type Store interface {
	InsertMood(level mood.Level, source mood.Source, at time.Time) (mood.Reading, error)
	GetSettings() (mood.Settings, error)
	SaveSettings(s mood.Settings) error
}

type Journal struct {
	store   Store
	prompts *prompt.Scheduler
	rules   *rules.Engine
	clock   func() time.Time
}

// New wires a journal. clock supplies "now" in the user's local zone; nil means time.Now.
func New(store Store, prompts *prompt.Scheduler, engine *rules.Engine, clock func() time.Time) *Journal {
	if clock == nil {
		clock = time.Now
	}
	return &Journal{store: store, prompts: prompts, rules: engine, clock: clock}
}

func (j *Journal) Now() time.Time {
	return j.clock()
}

// LogMood records a reading and evaluates the rules against it. Engine failures
// are reported by the engines and do not fail the insertion.
func (j *Journal) LogMood(level mood.Level, source mood.Source) (mood.Reading, *mood.RuleEvent, error) {
	now := j.clock()
	r, err := j.store.InsertMood(level, source, now)
	if err != nil {
		return mood.Reading{}, nil, fmt.Errorf("logging mood: %w", err)
	}
	metrics.MoodsLogged.WithLabelValues(string(source)).Inc()

	ev, _ := j.rules.Evaluate(now)

	// A manual reading can land inside the window of an upcoming prompt.
	if source == mood.SourceManual {
		_, _ = j.prompts.Recompute(now)
	}
	return r, ev, nil
}

func (j *Journal) Settings() (mood.Settings, error) {
	return j.store.GetSettings()
}

// UpdateSettings saves the settings and replans prompts. The returned plan is
// empty when the recompute failed; that failure has already been reported.
func (j *Journal) UpdateSettings(s mood.Settings) ([]mood.Notification, error) {
	if err := j.store.SaveSettings(s); err != nil {
		return nil, fmt.Errorf("updating settings: %w", err)
	}
	plan, _ := j.prompts.Recompute(j.clock())
	return plan, nil
}

// Recompute replans prompts; the shells call it on startup, on a cron tick and
// whenever a client reports it came to the foreground.
func (j *Journal) Recompute() ([]mood.Notification, error) {
	return j.prompts.Recompute(j.clock())
}
