package cli

import (
	"fmt"
	"time"

	"github.com/chris/moodlog/config"
	"github.com/chris/moodlog/internal/db"
	"github.com/chris/moodlog/internal/journal"
	"github.com/chris/moodlog/internal/prompt"
	"github.com/chris/moodlog/internal/report"
	"github.com/chris/moodlog/internal/rules"
)

// app is what every command needs: the store and a journal over it whose
// clock runs in the configured zone.
type app struct {
	cfg     *config.Config
	loc     *time.Location
	db      *db.DB
	journal *journal.Journal
}

func openApp() (*app, error) {
	cfg := config.Load()
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &app{
		cfg:     cfg,
		loc:     loc,
		db:      database,
		journal: newJournal(database, loc),
	}, nil
}

func newJournal(database *db.DB, loc *time.Location) *journal.Journal {
	rep := report.Log{}
	return journal.New(
		database,
		prompt.New(database, database, database, rep),
		rules.New(database, database, database, rep),
		func() time.Time { return time.Now().In(loc) },
	)
}

func (a *app) Close() error {
	return a.db.Close()
}
