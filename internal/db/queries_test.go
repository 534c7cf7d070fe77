package db

import (
	"errors"
	"testing"
	"time"

	"github.com/chris/moodlog/internal/mood"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

var base = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func TestMigrationsApplied(t *testing.T) {
	d := openTestDB(t)
	v, err := d.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("expected schema version %d, got %d", len(migrations), v)
	}
	// Re-running is a no-op.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

// --- Moods ---

func TestInsertAndListMoods(t *testing.T) {
	d := openTestDB(t)

	first, err := d.InsertMood(mood.Sad, mood.SourceManual, base)
	if err != nil {
		t.Fatalf("InsertMood: %v", err)
	}
	second, _ := d.InsertMood(mood.Happy, mood.SourceWidget, base.Add(time.Hour))
	older, _ := d.InsertMood(mood.Neutral, mood.SourceManual, base.Add(-time.Hour))

	moods, err := d.ListMoods()
	if err != nil {
		t.Fatalf("ListMoods: %v", err)
	}
	if len(moods) != 3 {
		t.Fatalf("expected 3 moods, got %d", len(moods))
	}
	wantOrder := []string{second.ID, first.ID, older.ID}
	for i, id := range wantOrder {
		if moods[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, moods[i].ID)
		}
	}
	if moods[0].Level != mood.Happy || moods[0].Source != mood.SourceWidget {
		t.Errorf("expected happy/widget, got %s/%s", moods[0].Level, moods[0].Source)
	}
	if !moods[0].Timestamp.Equal(base.Add(time.Hour)) {
		t.Errorf("expected timestamp %v, got %v", base.Add(time.Hour), moods[0].Timestamp)
	}
}

func TestInsertMoodSameInstantKeepsInsertionOrder(t *testing.T) {
	d := openTestDB(t)
	a, _ := d.InsertMood(mood.Sad, mood.SourceManual, base)
	b, _ := d.InsertMood(mood.Angry, mood.SourceManual, base)

	moods, _ := d.ListMoods()
	if moods[0].ID != b.ID || moods[1].ID != a.ID {
		t.Errorf("expected latest insert first, got %s then %s", moods[0].ID, moods[1].ID)
	}
}

func TestInsertMoodRejectsInvalidLevel(t *testing.T) {
	d := openTestDB(t)
	_, err := d.InsertMood(mood.Level(9), mood.SourceManual, base)
	if !errors.Is(err, mood.ErrUnknownMood) {
		t.Errorf("expected ErrUnknownMood, got %v", err)
	}
}

func TestListRecentMoodsLimit(t *testing.T) {
	d := openTestDB(t)
	for i := 0; i < 5; i++ {
		d.InsertMood(mood.Content, mood.SourceManual, base.Add(time.Duration(i)*time.Minute))
	}
	moods, err := d.ListRecentMoods(2)
	if err != nil {
		t.Fatalf("ListRecentMoods: %v", err)
	}
	if len(moods) != 2 {
		t.Fatalf("expected 2 moods, got %d", len(moods))
	}
	if !moods[0].Timestamp.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("expected newest first, got %v", moods[0].Timestamp)
	}
}

// --- Settings ---

func TestGetSettingsDefault(t *testing.T) {
	d := openTestDB(t)
	s, err := d.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	want := mood.DefaultSettings()
	if len(s.PromptTimes) != len(want.PromptTimes) {
		t.Fatalf("expected %v, got %v", want.PromptTimes, s.PromptTimes)
	}
	for i := range want.PromptTimes {
		if s.PromptTimes[i] != want.PromptTimes[i] {
			t.Errorf("prompt time %d: expected %s, got %s", i, want.PromptTimes[i], s.PromptTimes[i])
		}
	}
	if s.MinimumIntervalMinutes != 60 {
		t.Errorf("expected interval 60, got %d", s.MinimumIntervalMinutes)
	}
}

func TestSaveSettings(t *testing.T) {
	d := openTestDB(t)

	err := d.SaveSettings(mood.Settings{PromptTimes: []string{"09:00", "21:15"}, MinimumIntervalMinutes: 0, Palette: "pastel"})
	if err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	s, _ := d.GetSettings()
	if len(s.PromptTimes) != 2 || s.PromptTimes[1] != "21:15" {
		t.Errorf("expected [09:00 21:15], got %v", s.PromptTimes)
	}
	if s.MinimumIntervalMinutes != 0 {
		t.Errorf("expected interval 0, got %d", s.MinimumIntervalMinutes)
	}
	if s.Palette != "pastel" {
		t.Errorf("expected palette pastel, got %q", s.Palette)
	}

	// Overwrite with no prompt times at all.
	if err := d.SaveSettings(mood.Settings{MinimumIntervalMinutes: 30, Palette: "dark"}); err != nil {
		t.Fatalf("SaveSettings empty: %v", err)
	}
	s, _ = d.GetSettings()
	if len(s.PromptTimes) != 0 {
		t.Errorf("expected no prompt times, got %v", s.PromptTimes)
	}
}

func TestSaveSettingsValidation(t *testing.T) {
	d := openTestDB(t)

	tests := []struct {
		name     string
		settings mood.Settings
	}{
		{"duplicate", mood.Settings{PromptTimes: []string{"09:00", "9:00"}}},
		{"malformed", mood.Settings{PromptTimes: []string{"nine"}}},
		{"negative interval", mood.Settings{PromptTimes: []string{"09:00"}, MinimumIntervalMinutes: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.SaveSettings(tt.settings)
			if !errors.Is(err, mood.ErrInvalidSettings) {
				t.Errorf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

// --- Rule events ---

func TestInsertAndListRuleEvents(t *testing.T) {
	d := openTestDB(t)

	older, err := d.InsertRuleEvent(mood.RuleAdvisory, base.Add(-30*time.Hour))
	if err != nil {
		t.Fatalf("InsertRuleEvent: %v", err)
	}
	newer, _ := d.InsertRuleEvent(mood.RuleEncouragement, base)

	events, err := d.ListRuleEvents()
	if err != nil {
		t.Fatalf("ListRuleEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != newer.ID || events[1].ID != older.ID {
		t.Errorf("expected newest first")
	}
	if events[1].Type != mood.RuleAdvisory {
		t.Errorf("expected advisory, got %s", events[1].Type)
	}
}

func TestRecordRuleEventIsAtomic(t *testing.T) {
	d := openTestDB(t)

	_, err := d.RecordRuleEvent(mood.RuleAdvisory, base, func(mood.RuleEvent) mood.Notification {
		return mood.Notification{Immediate: true}
	})
	if err == nil {
		t.Fatal("expected error for a notification without identifier")
	}
	if events, _ := d.ListRuleEvents(); len(events) != 0 {
		t.Fatalf("expected event rolled back, got %v", events)
	}

	ev, err := d.RecordRuleEvent(mood.RuleAdvisory, base, func(e mood.RuleEvent) mood.Notification {
		return mood.Notification{Identifier: "mood-rule-advisory-" + e.ID, Immediate: true, Title: "t"}
	})
	if err != nil {
		t.Fatalf("RecordRuleEvent: %v", err)
	}
	events, _ := d.ListRuleEvents()
	if len(events) != 1 || events[0].ID != ev.ID {
		t.Errorf("expected the recorded event, got %v", events)
	}
	due, _ := d.ListDue(base)
	if len(due) != 1 || due[0].Identifier != "mood-rule-advisory-"+ev.ID {
		t.Errorf("expected its notification due, got %v", due)
	}
}

// --- Notifications ---

func TestScheduleIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	n := mood.Notification{Identifier: "mood-prompt-a", FireAt: base.Add(time.Hour), Title: "t", Body: "b"}

	if err := d.Schedule(n); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := d.Schedule(n); err != nil {
		t.Fatalf("Schedule again: %v", err)
	}
	ids, err := d.ListPending("mood-prompt-", base)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("expected 1 pending, got %v", ids)
	}
}

func TestScheduleRejectsEmptyIdentifier(t *testing.T) {
	d := openTestDB(t)
	if err := d.Schedule(mood.Notification{Title: "x"}); err == nil {
		t.Error("expected error for empty identifier")
	}
}

func TestListPendingByPrefix(t *testing.T) {
	d := openTestDB(t)
	d.Schedule(mood.Notification{Identifier: "mood-prompt-1", FireAt: base.Add(2 * time.Hour)})
	d.Schedule(mood.Notification{Identifier: "mood-prompt-0", FireAt: base.Add(time.Hour)})
	d.Schedule(mood.Notification{Identifier: "mood-rule-x", Immediate: true})
	d.Schedule(mood.Notification{Identifier: "mood_prompt-lookalike", FireAt: base})

	ids, _ := d.ListPending("mood-prompt-", base)
	if len(ids) != 2 {
		t.Fatalf("expected 2 prompt ids, got %v", ids)
	}
	if ids[0] != "mood-prompt-0" {
		t.Errorf("expected earliest first, got %v", ids)
	}
}

func TestCancel(t *testing.T) {
	d := openTestDB(t)
	d.Schedule(mood.Notification{Identifier: "mood-prompt-1", FireAt: base})
	d.Schedule(mood.Notification{Identifier: "mood-prompt-2", FireAt: base})
	d.Schedule(mood.Notification{Identifier: "other", FireAt: base})

	if err := d.Cancel([]string{"mood-prompt-1", "mood-prompt-2", "missing"}); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := d.Cancel(nil); err != nil {
		t.Fatalf("Cancel(nil): %v", err)
	}
	all, _ := d.ListScheduled()
	if len(all) != 1 || all[0].Identifier != "other" {
		t.Errorf("expected only 'other' to remain, got %v", all)
	}
}

func TestDueAndDelivered(t *testing.T) {
	d := openTestDB(t)
	d.Schedule(mood.Notification{Identifier: "past", FireAt: base.Add(-time.Minute), Title: "p"})
	d.Schedule(mood.Notification{Identifier: "future", FireAt: base.Add(time.Hour)})
	d.Schedule(mood.Notification{Identifier: "now", Immediate: true, Title: "i", Body: "body"})

	due, err := d.ListDue(base)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	got := map[string]bool{}
	for _, n := range due {
		got[n.Identifier] = true
	}
	if len(due) != 2 || !got["past"] || !got["now"] {
		t.Fatalf("expected past and now due, got %v", due)
	}

	if err := d.MarkDelivered("past", base); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	if err := d.MarkDelivered("past", base); err == nil {
		t.Error("expected error marking an already delivered notification")
	}

	// Delivered rows are out of the pending namespace and survive Cancel.
	ids, _ := d.ListPending("past", base.Add(-time.Hour))
	if len(ids) != 0 {
		t.Errorf("expected delivered notification excluded from pending, got %v", ids)
	}
	d.Cancel([]string{"past"})
	if err := d.Schedule(mood.Notification{Identifier: "past", FireAt: base}); err != nil {
		t.Fatalf("Schedule over delivered: %v", err)
	}
	due, _ = d.ListDue(base)
	for _, n := range due {
		if n.Identifier == "past" {
			t.Error("re-scheduling a delivered identifier should be a no-op")
		}
	}
}

// --- Notes ---

func TestNotes(t *testing.T) {
	d := openTestDB(t)

	v, err := d.GetNote("discord_user_id")
	if err != nil || v != "" {
		t.Fatalf("expected empty note, got (%q, %v)", v, err)
	}
	d.SetNote("discord_user_id", "123")
	d.SetNote("discord_user_id", "456")
	v, _ = d.GetNote("discord_user_id")
	if v != "456" {
		t.Errorf("expected 456, got %q", v)
	}
}

func TestListPendingExcludesDue(t *testing.T) {
	d := openTestDB(t)
	d.Schedule(mood.Notification{Identifier: "mood-prompt-due", FireAt: base.Add(-30 * time.Second)})
	d.Schedule(mood.Notification{Identifier: "mood-prompt-now", FireAt: base})
	d.Schedule(mood.Notification{Identifier: "mood-prompt-next", FireAt: base.Add(time.Hour)})

	ids, err := d.ListPending("mood-prompt-", base)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(ids) != 1 || ids[0] != "mood-prompt-next" {
		t.Fatalf("expected only the future prompt, got %v", ids)
	}

	d.Cancel(ids)
	due, _ := d.ListDue(base)
	if len(due) != 2 {
		t.Errorf("expected due prompts kept for delivery, got %d", len(due))
	}
}
