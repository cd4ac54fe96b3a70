// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken  string
	ScheduleSourceURL string
	DatabasePath      string
	FilesDir          string
	BaseURL           string
	LogLevel          string
	AllowedUsers      []int64
	Timezone          string
	RefreshInterval   time.Duration
	SyncWorkers       int
	WriteRetries      uint64

	location *time.Location
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	sourceURL := os.Getenv("SCHEDULE_SOURCE_URL")
	if sourceURL == "" {
		return nil, fmt.Errorf("SCHEDULE_SOURCE_URL is required")
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	timezone := getenv("TIMEZONE", "Asia/Yekaterinburg")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", timezone, err)
	}

	interval, err := time.ParseDuration(getenv("REFRESH_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", interval)
	}

	workers, err := strconv.Atoi(getenv("SYNC_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_WORKERS: %w", err)
	}
	if workers < 1 {
		return nil, fmt.Errorf("SYNC_WORKERS must be at least 1, got %d", workers)
	}

	retries, err := strconv.ParseUint(getenv("WRITE_RETRIES", "3"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_RETRIES: %w", err)
	}

	return &Config{
		TelegramBotToken:  token,
		ScheduleSourceURL: sourceURL,
		DatabasePath:      getenv("DATABASE_PATH", "./data/bot.db"),
		FilesDir:          getenv("FILES_DIR", "./data/user_files"),
		BaseURL:           strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		AllowedUsers:      allowedUsers,
		Timezone:          timezone,
		RefreshInterval:   interval,
		SyncWorkers:       workers,
		WriteRetries:      retries,
		location:          loc,
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Location returns the time zone lesson times are interpreted in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
