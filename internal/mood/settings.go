package mood

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings drive the prompt scheduler. Palette is carried for the UI and ignored here.
type Settings struct {
	PromptTimes            []string `json:"prompt_times"`
	MinimumIntervalMinutes int      `json:"minimum_interval_minutes"`
	Palette                string   `json:"palette"`
}

// DefaultSettings is returned by the settings store when nothing has been saved.
func DefaultSettings() Settings {
	return Settings{
		PromptTimes:            []string{"07:30", "12:30", "17:30", "22:00"},
		MinimumIntervalMinutes: 60,
		Palette:                "vivid",
	}
}

// ParseClock parses a wall-clock "HH:MM" string.
func ParseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("time %q: expected HH:MM", s)
	}
	hour, ok = clockField(h, 23)
	if !ok {
		return 0, 0, fmt.Errorf("time %q: bad hour", s)
	}
	minute, ok = clockField(m, 59)
	if !ok {
		return 0, 0, fmt.Errorf("time %q: bad minute", s)
	}
	return hour, minute, nil
}

// clockField parses one or two ASCII digits no greater than max.
func clockField(s string, max int) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil && n <= max
}

// Validate checks the invariants a saved settings row must hold:
// parseable, unique prompt times and a non-negative interval.
func (s Settings) Validate() error {
	seen := make(map[string]bool, len(s.PromptTimes))
	for _, t := range s.PromptTimes {
		h, m, err := ParseClock(t)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		canon := fmt.Sprintf("%02d:%02d", h, m)
		if seen[canon] {
			return fmt.Errorf("%w: duplicate prompt time %s", ErrInvalidSettings, canon)
		}
		seen[canon] = true
	}
	if s.MinimumIntervalMinutes < 0 {
		return fmt.Errorf("%w: minimum interval %d is negative", ErrInvalidSettings, s.MinimumIntervalMinutes)
	}
	return nil
}
