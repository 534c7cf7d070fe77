package prompt

import (
	"fmt"
	"sort"
	"time"

	"github.com/chris/moodlog/internal/mood"
)

const (
	// Prefix marks the sink namespace owned by the scheduler.
	Prefix = "mood-prompt-"

	// HorizonDays is how many local days, today included, a plan covers.
	HorizonDays = 7

	// ManualWindow is the closed interval on either side of a manual reading
	// inside which no prompt is scheduled.
	ManualWindow = 45 * time.Minute
)

// Identifier is deterministic in the prompt instant, so replanning with unchanged
// inputs reproduces the same identifiers.
func Identifier(at time.Time) string {
	return Prefix + at.UTC().Format(time.RFC3339)
}

// Candidates expands the prompt times over HorizonDays local days starting at
// now's date, keeps only instants strictly after now, and sorts them. Prompt
// times that fail to parse are skipped and returned as errors.
func Candidates(promptTimes []string, now time.Time) ([]time.Time, []error) {
	type clock struct{ hour, minute int }
	var clocks []clock
	var errs []error
	for _, s := range promptTimes {
		h, m, err := mood.ParseClock(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("skipping prompt time: %w", err))
			continue
		}
		clocks = append(clocks, clock{h, m})
	}

	loc := now.Location()
	y, mo, d := now.Date()
	var out []time.Time
	for offset := 0; offset < HorizonDays; offset++ {
		for _, c := range clocks {
			at := time.Date(y, mo, d+offset, c.hour, c.minute, 0, 0, loc)
			if at.After(now) {
				out = append(out, at)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	// "9:00" and "09:00" in a hand-edited row would otherwise collide.
	deduped := out[:0]
	for _, at := range out {
		if len(deduped) > 0 && at.Equal(deduped[len(deduped)-1]) {
			continue
		}
		deduped = append(deduped, at)
	}
	return deduped, errs
}

// Space walks the sorted candidates once and keeps each one that is at least
// interval after the last kept candidate. It never backtracks. A zero interval
// keeps everything.
func Space(sorted []time.Time, interval time.Duration) []time.Time {
	var out []time.Time
	for _, at := range sorted {
		if len(out) > 0 && at.Sub(out[len(out)-1]) < interval {
			continue
		}
		out = append(out, at)
	}
	return out
}

// AvoidManual drops candidates within window (inclusive) of any manual reading.
// Widget readings never suppress a prompt.
func AvoidManual(candidates []time.Time, history []mood.Reading, window time.Duration) []time.Time {
	var manual []time.Time
	for _, r := range history {
		if r.Source == mood.SourceManual {
			manual = append(manual, r.Timestamp)
		}
	}
	var out []time.Time
	for _, at := range candidates {
		if nearAny(at, manual, window) {
			continue
		}
		out = append(out, at)
	}
	return out
}

func nearAny(at time.Time, instants []time.Time, window time.Duration) bool {
	for _, t := range instants {
		d := at.Sub(t)
		if d < 0 {
			d = -d
		}
		if d <= window {
			return true
		}
	}
	return false
}

// Plan runs the three stages in order and returns the prompt instants.
func Plan(settings mood.Settings, history []mood.Reading, now time.Time) ([]time.Time, []error) {
	candidates, errs := Candidates(settings.PromptTimes, now)
	spaced := Space(candidates, time.Duration(settings.MinimumIntervalMinutes)*time.Minute)
	return AvoidManual(spaced, history, ManualWindow), errs
}
