// Package config loads the host settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"github.com/dukerupert/housemood/internal/recurrence"
)

type Config struct {
	DBPath    string
	LogLevel  string
	LogFormat string

	InstanceInterval time.Duration
	ReminderInterval time.Duration
	MoodInterval     time.Duration
	MaxWindow        time.Duration
	JobTimeout       time.Duration

	// DigestTime is the family-local time the daily digest goes out.
	DigestTime recurrence.TimeOfDay
}

// file mirrors the YAML config. Durations are Go duration strings.
type file struct {
	DBPath           string `yaml:"db_path"`
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
	InstanceInterval string `yaml:"instance_interval"`
	ReminderInterval string `yaml:"reminder_interval"`
	MoodInterval     string `yaml:"mood_interval"`
	MaxWindow        string `yaml:"max_window"`
	JobTimeout       string `yaml:"job_timeout"`
	DigestTime       string `yaml:"digest_time"`
}

func defaults() file {
	return file{
		DBPath:           "housemood.db",
		LogLevel:         "info",
		LogFormat:        "text",
		InstanceInterval: "1m",
		ReminderInterval: "15m",
		MoodInterval:     "30m",
		MaxWindow:        "24h",
		JobTimeout:       "50s",
		DigestTime:       "08:00",
	}
}

// Load reads HOUSEMOOD_CONFIG (if set) and then the HOUSEMOOD_* variables.
func Load() (*Config, error) {
	raw := defaults()

	if path := os.Getenv("HOUSEMOOD_CONFIG"); path != "" {
		if err := readFile(path, &raw); err != nil {
			return nil, err
		}
	}

	raw.DBPath = getEnv("HOUSEMOOD_DB_PATH", raw.DBPath)
	raw.LogLevel = getEnv("HOUSEMOOD_LOG_LEVEL", raw.LogLevel)
	raw.LogFormat = getEnv("HOUSEMOOD_LOG_FORMAT", raw.LogFormat)
	raw.InstanceInterval = getEnv("HOUSEMOOD_INSTANCE_INTERVAL", raw.InstanceInterval)
	raw.ReminderInterval = getEnv("HOUSEMOOD_REMINDER_INTERVAL", raw.ReminderInterval)
	raw.MoodInterval = getEnv("HOUSEMOOD_MOOD_INTERVAL", raw.MoodInterval)
	raw.MaxWindow = getEnv("HOUSEMOOD_MAX_WINDOW", raw.MaxWindow)
	raw.JobTimeout = getEnv("HOUSEMOOD_JOB_TIMEOUT", raw.JobTimeout)
	raw.DigestTime = getEnv("HOUSEMOOD_DIGEST_TIME", raw.DigestTime)

	return raw.parse()
}

func readFile(path string, into *file) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (f file) parse() (*Config, error) {
	cfg := &Config{
		DBPath:    strings.TrimSpace(f.DBPath),
		LogLevel:  f.LogLevel,
		LogFormat: strings.ToLower(strings.TrimSpace(f.LogFormat)),
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db_path must not be empty")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("log_format: want text or json, got %q", f.LogFormat)
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"instance_interval", f.InstanceInterval, &cfg.InstanceInterval},
		{"reminder_interval", f.ReminderInterval, &cfg.ReminderInterval},
		{"mood_interval", f.MoodInterval, &cfg.MoodInterval},
		{"max_window", f.MaxWindow, &cfg.MaxWindow},
		{"job_timeout", f.JobTimeout, &cfg.JobTimeout},
	}
	for _, d := range durations {
		v, err := parseDuration(d.name, d.raw)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}
	for name, d := range map[string]time.Duration{
		"instance_interval": cfg.InstanceInterval,
		"reminder_interval": cfg.ReminderInterval,
		"mood_interval":     cfg.MoodInterval,
	} {
		if d < time.Second {
			return nil, fmt.Errorf("%s: must be at least 1s, got %v", name, d)
		}
	}
	if cfg.MaxWindow < cfg.InstanceInterval {
		return nil, fmt.Errorf("max_window %v is shorter than instance_interval %v", cfg.MaxWindow, cfg.InstanceInterval)
	}

	at, err := recurrence.ParseTimeOfDay(strings.TrimSpace(f.DigestTime))
	if err != nil {
		return nil, fmt.Errorf("digest_time: %w", err)
	}
	cfg.DigestTime = at
	return cfg, nil
}

func parseDuration(name, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", name, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", name)
	}
	return d, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
