package rules

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/chris/moodlog/internal/metrics"
	"github.com/chris/moodlog/internal/mood"
	"github.com/chris/moodlog/internal/report"
)

type MoodStore interface {
	ListMoods() ([]mood.Reading, error)
}

type EventStore interface {
	InsertRuleEvent(typ mood.RuleType, triggeredAt time.Time) (mood.RuleEvent, error)
	ListRuleEvents() ([]mood.RuleEvent, error)
}

type Sink interface {
	Schedule(n mood.Notification) error
}

// Recorder is an EventStore that writes an event and its notification
// atomically. Without it a sink failure leaves the event recorded, and the rate
// limit then suppresses the retry for a day.
type Recorder interface {
	RecordRuleEvent(typ mood.RuleType, triggeredAt time.Time, notify func(mood.RuleEvent) mood.Notification) (mood.RuleEvent, error)
}

type rule struct {
	typ   mood.RuleType
	match func(history []mood.Reading, now time.Time) bool
}

// Evaluation order matters: each rule re-reads the ledger, so an encouragement
// recorded in this pass rate-limits the advisory check behind it.
var ruleOrder = []rule{
	{mood.RuleEncouragement, func(h []mood.Reading, _ time.Time) bool { return Encouragement(h) }},
	{mood.RuleAdvisory, Advisory},
}

// Engine evaluates the mood patterns after each insertion. It is stateless;
// the event ledger is the only memory it has.
type Engine struct {
	moods    MoodStore
	events   EventStore
	sink     Sink
	reporter report.Reporter
}

func New(moods MoodStore, events EventStore, sink Sink, reporter report.Reporter) *Engine {
	if reporter == nil {
		reporter = report.Log{}
	}
	return &Engine{moods: moods, events: events, sink: sink, reporter: reporter}
}

// Evaluate returns the event recorded by this pass, or nil when nothing fired.
// Any store or sink failure ends the pass and is reported.
func (e *Engine) Evaluate(now time.Time) (*mood.RuleEvent, error) {
	history, err := e.moods.ListMoods()
	if err != nil {
		return nil, e.fail(fmt.Errorf("reading mood history: %w", err))
	}
	history = newestFirst(history)

	var fired *mood.RuleEvent
	for _, r := range ruleOrder {
		if !r.match(history, now) {
			continue
		}
		events, err := e.events.ListRuleEvents()
		if err != nil {
			return fired, e.fail(fmt.Errorf("reading rule events: %w", err))
		}
		if !Allowed(events, now) {
			log.Printf("rules[%s]: matched but rate limited", r.typ)
			continue
		}
		ev, err := e.record(r.typ, now)
		if ev.ID != "" {
			fired = &ev
			metrics.RuleEvents.WithLabelValues(string(r.typ)).Inc()
			log.Printf("rules[%s]: triggered event %s", r.typ, ev.ID)
		}
		if err != nil {
			return fired, e.fail(err)
		}
	}
	return fired, nil
}

// record stores the event and schedules its notification. On the two-step path
// an error after the insert still returns the recorded event.
func (e *Engine) record(typ mood.RuleType, now time.Time) (mood.RuleEvent, error) {
	if rec, ok := e.events.(Recorder); ok {
		ev, err := rec.RecordRuleEvent(typ, now, notificationFor)
		if err != nil {
			return mood.RuleEvent{}, fmt.Errorf("recording %s event: %w", typ, err)
		}
		return ev, nil
	}
	ev, err := e.events.InsertRuleEvent(typ, now)
	if err != nil {
		return mood.RuleEvent{}, fmt.Errorf("recording %s event: %w", typ, err)
	}
	if err := e.sink.Schedule(notificationFor(ev)); err != nil {
		return ev, fmt.Errorf("scheduling %s notification: %w", typ, err)
	}
	return ev, nil
}

func (e *Engine) fail(err error) error {
	e.reporter.Report("rules.evaluate", err)
	return err
}

func newestFirst(history []mood.Reading) []mood.Reading {
	out := make([]mood.Reading, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}
