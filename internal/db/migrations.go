package db

import "fmt"

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "mood_readings: append-only mood log",
		SQL: `
CREATE TABLE mood_readings (
    id          TEXT PRIMARY KEY,
    level       INTEGER NOT NULL CHECK (level BETWEEN 0 AND 6),
    source      TEXT NOT NULL CHECK (source IN ('manual', 'widget')),
    recorded_at INTEGER NOT NULL
);
CREATE INDEX idx_mood_recorded_at ON mood_readings(recorded_at DESC);
`,
	},
	{
		Version:     2,
		Description: "settings: single scheduler settings row",
		SQL: `
CREATE TABLE settings (
    id                       INTEGER PRIMARY KEY CHECK (id = 0),
    prompt_times             TEXT NOT NULL,
    minimum_interval_minutes INTEGER NOT NULL CHECK (minimum_interval_minutes >= 0),
    palette                  TEXT NOT NULL,
    updated_at               INTEGER NOT NULL
);
`,
	},
	{
		Version:     3,
		Description: "rule_events: encouragement/advisory ledger",
		SQL: `
CREATE TABLE rule_events (
    id           TEXT PRIMARY KEY,
    type         TEXT NOT NULL CHECK (type IN ('encouragement', 'advisory')),
    triggered_at INTEGER NOT NULL
);
CREATE INDEX idx_rule_events_triggered_at ON rule_events(triggered_at DESC);
`,
	},
	{
		Version:     4,
		Description: "notifications: sink keyed by identifier",
		SQL: `
CREATE TABLE notifications (
    identifier   TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    body         TEXT NOT NULL,
    fire_at      INTEGER NOT NULL,
    immediate    INTEGER NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL,
    delivered_at INTEGER
);
CREATE INDEX idx_notifications_due ON notifications(delivered_at, fire_at);
`,
	},
	{
		Version:     5,
		Description: "notes: key/value scratch space",
		SQL: `
CREATE TABLE notes (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`,
	},
}

func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := d.conn.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := d.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration.
func (d *DB) SchemaVersion() (int, error) {
	var version int
	err := d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
