package prompt

import (
	"math/rand"
	"testing"
	"time"

	"github.com/chris/moodlog/internal/mood"
)

var day0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, 2+day, hour, minute, 0, 0, time.UTC)
}

func TestCandidatesBoundedByHorizon(t *testing.T) {
	now := at(0, 6, 0)
	got, errs := Candidates([]string{"12:00", "07:00", "05:00"}, now)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	// 05:00 on day 0 is already past.
	if len(got) != 20 {
		t.Fatalf("expected 20 candidates, got %d", len(got))
	}
	if !got[0].Equal(at(0, 7, 0)) {
		t.Errorf("expected first candidate day0 07:00, got %v", got[0])
	}
	if !got[len(got)-1].Equal(at(6, 12, 0)) {
		t.Errorf("expected last candidate day6 12:00, got %v", got[len(got)-1])
	}
	for i := 1; i < len(got); i++ {
		if !got[i].After(got[i-1]) {
			t.Fatalf("candidates not strictly ascending at %d: %v then %v", i, got[i-1], got[i])
		}
	}
}

func TestCandidatesStrictlyAfterNow(t *testing.T) {
	now := at(0, 9, 0)
	got, _ := Candidates([]string{"09:00"}, now)
	if len(got) != 6 {
		t.Fatalf("expected 6 candidates, got %d", len(got))
	}
	if !got[0].Equal(at(1, 9, 0)) {
		t.Errorf("expected first candidate on day 1, got %v", got[0])
	}
}

func TestCandidatesSkipsMalformed(t *testing.T) {
	got, errs := Candidates([]string{"09:00", "25:00", "noon", "10"}, day0)
	if len(errs) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(errs), errs)
	}
	if len(got) != 7 {
		t.Errorf("expected 7 candidates from the one good time, got %d", len(got))
	}
}

func TestCandidatesCollapseEquivalentTimes(t *testing.T) {
	got, _ := Candidates([]string{"09:00", "9:00"}, day0)
	if len(got) != 7 {
		t.Errorf("expected 7 candidates, got %d", len(got))
	}
}

func TestCandidatesUseLocalDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// 23:00 local on March 1 is already March 2 in UTC.
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, loc)
	got, _ := Candidates([]string{"23:30"}, now)
	if len(got) != 7 {
		t.Fatalf("expected 7 candidates, got %d", len(got))
	}
	want := time.Date(2026, 3, 1, 23, 30, 0, 0, loc)
	if !got[0].Equal(want) {
		t.Errorf("expected %v, got %v", want, got[0])
	}
}

func TestCandidatesEmpty(t *testing.T) {
	got, errs := Candidates(nil, day0)
	if len(got) != 0 || len(errs) != 0 {
		t.Errorf("expected nothing, got %v %v", got, errs)
	}
}

func TestSpace(t *testing.T) {
	in := []time.Time{at(0, 9, 0), at(0, 9, 30), at(0, 10, 0), at(0, 10, 30), at(0, 12, 0)}

	tests := []struct {
		name     string
		interval time.Duration
		want     []time.Time
	}{
		{"zero keeps all", 0, in},
		{"sixty minutes", time.Hour, []time.Time{at(0, 9, 0), at(0, 10, 0), at(0, 12, 0)}},
		{"exact boundary accepted", 30 * time.Minute, in},
		{"no backtracking", 90 * time.Minute, []time.Time{at(0, 9, 0), at(0, 10, 30), at(0, 12, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Space(in, tt.interval)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("position %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestAvoidManualClosedWindow(t *testing.T) {
	candidate := at(1, 9, 0)
	tests := []struct {
		name    string
		reading mood.Reading
		dropped bool
	}{
		{"45 min before", mood.Reading{Timestamp: candidate.Add(-45 * time.Minute), Source: mood.SourceManual}, true},
		{"45 min after", mood.Reading{Timestamp: candidate.Add(45 * time.Minute), Source: mood.SourceManual}, true},
		{"46 min before", mood.Reading{Timestamp: candidate.Add(-46 * time.Minute), Source: mood.SourceManual}, false},
		{"widget at same instant", mood.Reading{Timestamp: candidate, Source: mood.SourceWidget}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AvoidManual([]time.Time{candidate}, []mood.Reading{tt.reading}, ManualWindow)
			if tt.dropped && len(got) != 0 {
				t.Errorf("expected candidate dropped")
			}
			if !tt.dropped && len(got) != 1 {
				t.Errorf("expected candidate kept")
			}
		})
	}
}

func TestPlanProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(6)
		seen := map[string]bool{}
		var times []string
		for len(times) < n {
			s := time.Date(0, 1, 1, rng.Intn(24), rng.Intn(4)*15, 0, 0, time.UTC).Format("15:04")
			if !seen[s] {
				seen[s] = true
				times = append(times, s)
			}
		}
		interval := time.Duration(rng.Intn(240)) * time.Minute
		now := day0.Add(time.Duration(rng.Intn(24*60)) * time.Minute)

		var history []mood.Reading
		readings := rng.Intn(10)
		for i := 0; i < readings; i++ {
			src := mood.SourceManual
			if rng.Intn(2) == 0 {
				src = mood.SourceWidget
			}
			history = append(history, mood.Reading{
				Timestamp: now.Add(time.Duration(rng.Intn(7*24*60)) * time.Minute),
				Source:    src,
			})
		}

		candidates, _ := Candidates(times, now)
		if len(candidates) > HorizonDays*len(times) {
			t.Fatalf("iter %d: %d candidates exceeds 7*%d", iter, len(candidates), len(times))
		}
		spaced := Space(candidates, interval)
		final := AvoidManual(spaced, history, ManualWindow)
		if len(spaced) > len(candidates) || len(final) > len(spaced) {
			t.Fatalf("iter %d: filter grew the set: %d -> %d -> %d", iter, len(candidates), len(spaced), len(final))
		}
		for i := 1; i < len(final); i++ {
			if final[i].Sub(final[i-1]) < interval {
				t.Fatalf("iter %d: %v and %v closer than %v", iter, final[i-1], final[i], interval)
			}
		}
		for _, c := range final {
			if !c.After(now) {
				t.Fatalf("iter %d: candidate %v not after now %v", iter, c, now)
			}
			for _, r := range history {
				if r.Source != mood.SourceManual {
					continue
				}
				d := c.Sub(r.Timestamp)
				if d < 0 {
					d = -d
				}
				if d <= ManualWindow {
					t.Fatalf("iter %d: candidate %v within window of manual reading %v", iter, c, r.Timestamp)
				}
			}
		}
	}
}

func TestIdentifierIsCanonicalUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got := Identifier(time.Date(2026, 3, 2, 11, 0, 0, 0, loc))
	want := "mood-prompt-2026-03-02T09:00:00Z"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
