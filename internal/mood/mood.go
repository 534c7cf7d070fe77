package mood

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Level is a mood reading on an ordinal scale. 0 is the most negative, 6 the most positive.
type Level int

const (
	Angry Level = iota
	Sad
	Neutral
	Content
	Joyful
	Happy
	Ecstatic
)

const (
	MinLevel = Angry
	MaxLevel = Ecstatic
)

var levelNames = []string{"angry", "sad", "neutral", "content", "joyful", "happy", "ecstatic"}

var ErrUnknownMood = errors.New("unknown mood")

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Positive reports whether l is one of the top two levels.
func (l Level) Positive() bool {
	return l >= MaxLevel-1 && l <= MaxLevel
}

// Negative reports whether l is one of the bottom two levels.
func (l Level) Negative() bool {
	return l >= MinLevel && l <= MinLevel+1
}

// ParseLevel accepts a mood name ("happy") or its ordinal ("5").
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return Level(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMood, s)
}

// LevelNames returns the mood names in ordinal order.
func LevelNames() []string {
	out := make([]string, len(levelNames))
	copy(out, levelNames)
	return out
}

// Source records how a reading was captured.
type Source string

const (
	SourceManual Source = "manual"
	SourceWidget Source = "widget"
)

func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceManual:
		return SourceManual, nil
	case SourceWidget:
		return SourceWidget, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Reading is a single logged mood. Readings are never updated or deleted.
type Reading struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Source    Source    `json:"source"`
}

type RuleType string

const (
	RuleEncouragement RuleType = "encouragement"
	RuleAdvisory      RuleType = "advisory"
)

// RuleEvent records that a rule fired. The ledger doubles as the rate limiter.
type RuleEvent struct {
	ID          string    `json:"id"`
	Type        RuleType  `json:"type"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// Notification is a request handed to the notification sink.
// Immediate notifications are due as soon as the sink stores them; FireAt is ignored.
type Notification struct {
	Identifier  string     `json:"identifier"`
	FireAt      time.Time  `json:"fire_at"`
	Immediate   bool       `json:"immediate"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}
