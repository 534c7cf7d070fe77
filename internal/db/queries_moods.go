package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chris/moodlog/internal/mood"
	"github.com/google/uuid"
)

// InsertMood appends a reading recorded at the given instant.
func (d *DB) InsertMood(level mood.Level, source mood.Source, at time.Time) (mood.Reading, error) {
	if !level.Valid() {
		return mood.Reading{}, fmt.Errorf("inserting mood: %w: %d", mood.ErrUnknownMood, int(level))
	}
	r := mood.Reading{
		ID:        uuid.NewString(),
		Timestamp: fromMillis(toMillis(at)),
		Level:     level,
		Source:    source,
	}
	_, err := d.conn.Exec(
		"INSERT INTO mood_readings (id, level, source, recorded_at) VALUES (?, ?, ?, ?)",
		r.ID, int(r.Level), string(r.Source), toMillis(r.Timestamp),
	)
	if err != nil {
		return mood.Reading{}, fmt.Errorf("inserting mood: %w", err)
	}
	return r, nil
}

// ListMoods returns every reading, newest first.
func (d *DB) ListMoods() ([]mood.Reading, error) {
	rows, err := d.conn.Query(
		"SELECT id, level, source, recorded_at FROM mood_readings ORDER BY recorded_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing moods: %w", err)
	}
	defer rows.Close()
	return scanReadings(rows)
}

// ListRecentMoods returns at most limit readings, newest first.
func (d *DB) ListRecentMoods(limit int) ([]mood.Reading, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(
		"SELECT id, level, source, recorded_at FROM mood_readings ORDER BY recorded_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent moods: %w", err)
	}
	defer rows.Close()
	return scanReadings(rows)
}

func scanReadings(rows *sql.Rows) ([]mood.Reading, error) {
	var out []mood.Reading
	for rows.Next() {
		var r mood.Reading
		var level int
		var source string
		var at int64
		if err := rows.Scan(&r.ID, &level, &source, &at); err != nil {
			return nil, fmt.Errorf("scanning mood: %w", err)
		}
		r.Level = mood.Level(level)
		r.Source = mood.Source(source)
		r.Timestamp = fromMillis(at)
		out = append(out, r)
	}
	return out, rows.Err()
}
