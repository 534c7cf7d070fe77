package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabasePath   string
	ListenAddr     string
	Timezone       string // IANA name; empty means the host zone
	RecomputeCron  string // rolls the prompt horizon forward
	DiscordToken   string
	DiscordWebhook string
}

// ConfigDir is ~/.moodlog.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".moodlog"
	}
	return filepath.Join(home, ".moodlog")
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config")
}

// Load reads ./.env and then ~/.moodlog/config. Variables already set in the
// environment win, and .env wins over the home config.
func Load() *Config {
	_ = godotenv.Load()             // ignore error if no .env
	_ = godotenv.Load(ConfigFile()) // or no home config

	return &Config{
		DatabasePath:   envOr("DATABASE_PATH", filepath.Join(ConfigDir(), "moodlog.db")),
		ListenAddr:     envOr("LISTEN_ADDR", "127.0.0.1:7373"),
		Timezone:       os.Getenv("TIMEZONE"),
		RecomputeCron:  envOr("RECOMPUTE_CRON", "5 0 * * *"),
		DiscordToken:   os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordWebhook: os.Getenv("DISCORD_WEBHOOK_URL"),
	}
}

// Location resolves Timezone, falling back to the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
