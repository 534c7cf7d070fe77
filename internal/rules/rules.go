package rules

import (
	"time"

	"github.com/chris/moodlog/internal/mood"
)

const (
	// RateLimit is shared by every rule: a new event needs the latest event of
	// any type to be older than this.
	RateLimit = 24 * time.Hour

	EncouragementStreak = 3

	AdvisoryWindow    = 48 * time.Hour
	AdvisoryThreshold = 5
)

// Encouragement reports whether the EncouragementStreak most recent readings are
// all positive. history must be newest first.
func Encouragement(history []mood.Reading) bool {
	if len(history) < EncouragementStreak {
		return false
	}
	for _, r := range history[:EncouragementStreak] {
		if !r.Level.Positive() {
			return false
		}
	}
	return true
}

// Advisory reports whether at least AdvisoryThreshold negative readings fall in
// the trailing AdvisoryWindow.
func Advisory(history []mood.Reading, now time.Time) bool {
	start := now.Add(-AdvisoryWindow)
	count := 0
	for _, r := range history {
		if !r.Timestamp.Before(start) && r.Level.Negative() {
			count++
		}
	}
	return count >= AdvisoryThreshold
}

// Allowed applies the shared rate limit to the event ledger.
func Allowed(events []mood.RuleEvent, now time.Time) bool {
	if len(events) == 0 {
		return true
	}
	latest := events[0].TriggeredAt
	for _, e := range events[1:] {
		if e.TriggeredAt.After(latest) {
			latest = e.TriggeredAt
		}
	}
	return now.Sub(latest) > RateLimit
}

type copyText struct{ title, body string }

var notificationCopy = map[mood.RuleType]copyText{
	mood.RuleEncouragement: {
		title: "You're on a roll",
		body:  "Your last few check-ins have been bright. Keep doing what's working.",
	},
	mood.RuleAdvisory: {
		title: "Checking in on you",
		body:  "The last couple of days look heavy. Consider reaching out to someone you trust or taking a break.",
	},
}

func notificationFor(e mood.RuleEvent) mood.Notification {
	c := notificationCopy[e.Type]
	return mood.Notification{
		Identifier: "mood-rule-" + string(e.Type) + "-" + e.ID,
		FireAt:     e.TriggeredAt,
		Immediate:  true,
		Title:      c.title,
		Body:       c.body,
	}
}
