package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chris/moodlog/internal/mood"
)

// ListPending returns identifiers starting with prefix that have not fired yet:
// undelivered, not immediate and due strictly after now. Due rows awaiting
// delivery belong to the dispatcher and are never listed.
func (d *DB) ListPending(prefix string, now time.Time) ([]string, error) {
	rows, err := d.conn.Query(
		`SELECT identifier FROM notifications
		 WHERE delivered_at IS NULL AND immediate = 0 AND fire_at > ?
		   AND substr(identifier, 1, length(?)) = ?
		 ORDER BY fire_at ASC`,
		toMillis(now), prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending notifications: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning notification identifier: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Cancel removes undelivered notifications by identifier. Unknown identifiers are ignored.
func (d *DB) Cancel(identifiers []string) error {
	if len(identifiers) == 0 {
		return nil
	}
	args := make([]any, len(identifiers))
	for i, id := range identifiers {
		args[i] = id
	}
	_, err := d.conn.Exec(
		"DELETE FROM notifications WHERE delivered_at IS NULL AND identifier IN ("+placeholders(len(args))+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("cancelling notifications: %w", err)
	}
	return nil
}

// Schedule stores a notification. Scheduling an identifier that already exists is a no-op.
func (d *DB) Schedule(n mood.Notification) error {
	return scheduleWith(d.conn, n)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func scheduleWith(ex execer, n mood.Notification) error {
	if n.Identifier == "" {
		return fmt.Errorf("scheduling notification: empty identifier")
	}
	now := time.Now()
	fireAt := n.FireAt
	if n.Immediate || fireAt.IsZero() {
		fireAt = now
	}
	immediate := 0
	if n.Immediate {
		immediate = 1
	}
	_, err := ex.Exec(
		`INSERT INTO notifications (identifier, title, body, fire_at, immediate, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identifier) DO NOTHING`,
		n.Identifier, n.Title, n.Body, toMillis(fireAt), immediate, toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("scheduling notification %s: %w", n.Identifier, err)
	}
	return nil
}

// ListScheduled returns every undelivered notification ordered by fire time.
func (d *DB) ListScheduled() ([]mood.Notification, error) {
	rows, err := d.conn.Query(
		`SELECT identifier, title, body, fire_at, immediate, delivered_at FROM notifications
		 WHERE delivered_at IS NULL ORDER BY fire_at ASC, identifier ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled notifications: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// ListDue returns undelivered notifications that are immediate or whose fire time has passed.
func (d *DB) ListDue(now time.Time) ([]mood.Notification, error) {
	rows, err := d.conn.Query(
		`SELECT identifier, title, body, fire_at, immediate, delivered_at FROM notifications
		 WHERE delivered_at IS NULL AND (immediate = 1 OR fire_at <= ?)
		 ORDER BY fire_at ASC, identifier ASC`,
		toMillis(now),
	)
	if err != nil {
		return nil, fmt.Errorf("listing due notifications: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// MarkDelivered records that a notification left the building.
func (d *DB) MarkDelivered(identifier string, at time.Time) error {
	res, err := d.conn.Exec(
		"UPDATE notifications SET delivered_at = ? WHERE identifier = ? AND delivered_at IS NULL",
		toMillis(at), identifier,
	)
	if err != nil {
		return fmt.Errorf("marking notification delivered: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %s not pending", identifier)
	}
	return nil
}

func scanNotifications(rows *sql.Rows) ([]mood.Notification, error) {
	var out []mood.Notification
	for rows.Next() {
		var n mood.Notification
		var fireAt int64
		var immediate int
		var deliveredAt sql.NullInt64
		if err := rows.Scan(&n.Identifier, &n.Title, &n.Body, &fireAt, &immediate, &deliveredAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.FireAt = fromMillis(fireAt)
		n.Immediate = immediate == 1
		if deliveredAt.Valid {
			t := fromMillis(deliveredAt.Int64)
			n.DeliveredAt = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
