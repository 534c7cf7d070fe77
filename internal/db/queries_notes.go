package db

import (
	"database/sql"
	"fmt"
	"time"
)

// GetNote retrieves a note by key. A missing key yields "".
func (d *DB) GetNote(key string) (string, error) {
	var value string
	err := d.conn.QueryRow("SELECT value FROM notes WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting note %s: %w", key, err)
	}
	return value, nil
}

// SetNote stores or replaces a note.
func (d *DB) SetNote(key, value string) error {
	_, err := d.conn.Exec(
		"INSERT INTO notes (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("setting note %s: %w", key, err)
	}
	return nil
}
