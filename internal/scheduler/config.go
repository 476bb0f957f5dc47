package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/internlink/internal/config"
)

// Config controls when the sweeper wakes and how long a job may run.
type Config struct {
	// SweepAt is the daily wake-up time in UTC, "HH:MM".
	SweepAt     string
	RunOnStart  bool
	JobTimeout  time.Duration
	EnabledJobs []string
	LockTTL     time.Duration
}

func DefaultConfig() Config {
	return Config{
		SweepAt:    "03:00",
		JobTimeout: 5 * time.Minute,
		LockTTL:    10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(c.SweepAt) == "" {
		c.SweepAt = defaults.SweepAt
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		SweepAt:     cfg.Scheduler.SweepAt,
		RunOnStart:  cfg.Scheduler.RunOnStart,
		JobTimeout:  cfg.Scheduler.JobTimeout,
		EnabledJobs: cfg.Scheduler.EnabledJobs,
		LockTTL:     2 * cfg.Scheduler.JobTimeout,
	}
}

// parseSweepAt reads "HH:MM" in 24h form.
func parseSweepAt(raw string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: sweep time %q must be HH:MM", ErrInvalidConfig, raw)
	}
	return t.Hour(), t.Minute(), nil
}
