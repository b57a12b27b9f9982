package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all settings the service reads from the environment.
type Config struct {
	TelegramToken string
	OpenAIKey     string

	PostgresDSN string // durable record store
	MirrorPath  string // sqlite document mirror file
	RedisURL    string // volatile counter store

	TickInterval     time.Duration // dispatch loop period
	DailyReportHour  int           // 0-23, in Timezone
	WeeklyReportDay  time.Weekday
	WeeklyReportHour int
	Timezone         string // single anchor zone for all scheduling

	LogLevel     string
	AdminUserIDs []int64
}

// Load builds the configuration from environment variables, applying defaults
// and validating the values that the scheduler depends on.
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		PostgresDSN:      getEnv("POSTGRES_DSN", "postgres://localhost:5432/sprache?sslmode=disable"),
		MirrorPath:       getEnv("MIRROR_PATH", "data/mirror.db"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		TickInterval:     5 * time.Minute,
		DailyReportHour:  21,
		WeeklyReportDay:  time.Sunday,
		WeeklyReportHour: 20,
		Timezone:         getEnv("SCHED_TIMEZONE", "Europe/Moscow"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < time.Minute {
			return nil, fmt.Errorf("invalid TICK_INTERVAL %q: must be a duration of at least 1m", v)
		}
		cfg.TickInterval = d
	}

	if v := os.Getenv("DAILY_REPORT_HOUR"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("invalid DAILY_REPORT_HOUR %q", v)
		}
		cfg.DailyReportHour = h
	}

	if v := os.Getenv("WEEKLY_REPORT_HOUR"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("invalid WEEKLY_REPORT_HOUR %q", v)
		}
		cfg.WeeklyReportHour = h
	}

	if v := os.Getenv("WEEKLY_REPORT_DAY"); v != "" {
		day, err := parseWeekday(v)
		if err != nil {
			return nil, err
		}
		cfg.WeeklyReportDay = day
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid SCHED_TIMEZONE %q: %v", cfg.Timezone, err)
	}

	if v := os.Getenv("ADMIN_USER_IDS"); v != "" {
		for _, idStr := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid admin user ID %q", idStr)
			}
			cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
		}
	}

	return cfg, nil
}

// Location returns the single scheduling zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("invalid WEEKLY_REPORT_DAY %q", s)
}
