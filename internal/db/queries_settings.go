package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chris/moodlog/internal/mood"
)

// GetSettings returns the saved scheduler settings, or mood.DefaultSettings if none were saved.
func (d *DB) GetSettings() (mood.Settings, error) {
	var timesJSON, palette string
	var interval int
	err := d.conn.QueryRow(
		"SELECT prompt_times, minimum_interval_minutes, palette FROM settings WHERE id = 0",
	).Scan(&timesJSON, &interval, &palette)
	if err == sql.ErrNoRows {
		return mood.DefaultSettings(), nil
	}
	if err != nil {
		return mood.Settings{}, fmt.Errorf("getting settings: %w", err)
	}
	s := mood.Settings{MinimumIntervalMinutes: interval, Palette: palette}
	if err := json.Unmarshal([]byte(timesJSON), &s.PromptTimes); err != nil {
		return mood.Settings{}, fmt.Errorf("decoding prompt times: %w", err)
	}
	return s, nil
}

// SaveSettings validates and stores the settings row.
func (d *DB) SaveSettings(s mood.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.PromptTimes == nil {
		s.PromptTimes = []string{}
	}
	timesJSON, _ := json.Marshal(s.PromptTimes) // []string marshal cannot fail
	_, err := d.conn.Exec(
		`INSERT INTO settings (id, prompt_times, minimum_interval_minutes, palette, updated_at)
		 VALUES (0, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   prompt_times = excluded.prompt_times,
		   minimum_interval_minutes = excluded.minimum_interval_minutes,
		   palette = excluded.palette,
		   updated_at = excluded.updated_at`,
		string(timesJSON), s.MinimumIntervalMinutes, s.Palette, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
