package db

import (
	"fmt"
	"time"

	"github.com/chris/moodlog/internal/mood"
	"github.com/google/uuid"
)

// InsertRuleEvent appends an event to the rule ledger.
func (d *DB) InsertRuleEvent(typ mood.RuleType, triggeredAt time.Time) (mood.RuleEvent, error) {
	return insertRuleEventWith(d.conn, typ, triggeredAt)
}

// RecordRuleEvent appends an event and schedules the notification notify builds
// for it in one transaction, so an event is never recorded without its
// notification.
func (d *DB) RecordRuleEvent(typ mood.RuleType, triggeredAt time.Time, notify func(mood.RuleEvent) mood.Notification) (mood.RuleEvent, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return mood.RuleEvent{}, fmt.Errorf("recording rule event: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	e, err := insertRuleEventWith(tx, typ, triggeredAt)
	if err != nil {
		return mood.RuleEvent{}, err
	}
	if err := scheduleWith(tx, notify(e)); err != nil {
		return mood.RuleEvent{}, err
	}
	if err := tx.Commit(); err != nil {
		return mood.RuleEvent{}, fmt.Errorf("recording rule event: commit: %w", err)
	}
	return e, nil
}

func insertRuleEventWith(ex execer, typ mood.RuleType, triggeredAt time.Time) (mood.RuleEvent, error) {
	e := mood.RuleEvent{
		ID:          uuid.NewString(),
		Type:        typ,
		TriggeredAt: fromMillis(toMillis(triggeredAt)),
	}
	_, err := ex.Exec(
		"INSERT INTO rule_events (id, type, triggered_at) VALUES (?, ?, ?)",
		e.ID, string(e.Type), toMillis(e.TriggeredAt),
	)
	if err != nil {
		return mood.RuleEvent{}, fmt.Errorf("inserting rule event: %w", err)
	}
	return e, nil
}

// ListRuleEvents returns the ledger, newest first.
func (d *DB) ListRuleEvents() ([]mood.RuleEvent, error) {
	rows, err := d.conn.Query(
		"SELECT id, type, triggered_at FROM rule_events ORDER BY triggered_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing rule events: %w", err)
	}
	defer rows.Close()
	var out []mood.RuleEvent
	for rows.Next() {
		var e mood.RuleEvent
		var typ string
		var at int64
		if err := rows.Scan(&e.ID, &typ, &at); err != nil {
			return nil, fmt.Errorf("scanning rule event: %w", err)
		}
		e.Type = mood.RuleType(typ)
		e.TriggeredAt = fromMillis(at)
		out = append(out, e)
	}
	return out, rows.Err()
}
