// Package config handles configuration loading and validation for buildsched.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/buildsched/internal/core/schedule"
)

// Config holds the application configuration.
type Config struct {
	Database DatabaseConfig      `yaml:"database"`
	Schedule ScheduleConfig      `yaml:"schedule"`
	Trades   schedule.TradeRules `yaml:"warnings"`
	Server   ServerConfig        `yaml:"server"`
	TUI      TUIConfig           `yaml:"tui"`
	DataDir  string              `yaml:"-"` // set by caller, not from config file
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
	// SweepInterval is how often expired preferences and old notices are removed.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// NotificationRetention is how long notices are kept. Zero keeps them forever.
	NotificationRetention time.Duration `yaml:"notification_retention"`
}

// ScheduleConfig holds the timings of the reschedule coordinator.
type ScheduleConfig struct {
	// DefaultDurationDays is the placeholder length of unscheduled tasks.
	DefaultDurationDays int `yaml:"default_duration_days"`
	// Debounce is how long a task must be left alone before its dates are written.
	Debounce time.Duration `yaml:"debounce"`
	// InteractionGrace suppresses the detail view for this long after a drag.
	InteractionGrace time.Duration `yaml:"interaction_grace"`
	// ToastDuration is how long success notices stay visible.
	ToastDuration time.Duration `yaml:"toast_duration"`
	EventBuffer   int           `yaml:"event_buffer"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

// TUIConfig configures the terminal board.
type TUIConfig struct {
	ShowPhases bool `yaml:"show_phases"`
	// RecentTTL is how long the last opened project is remembered for
	// `buildsched` with no arguments.
	RecentTTL time.Duration `yaml:"recent_ttl"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			MaxOpenConns:          10,
			MaxIdleConns:          5,
			BusyTimeout:           5000,
			SweepInterval:         5 * time.Minute,
			NotificationRetention: 30 * 24 * time.Hour,
		},
		Schedule: ScheduleConfig{
			DefaultDurationDays: schedule.DefaultDurationDays,
			Debounce:            300 * time.Millisecond,
			InteractionGrace:    300 * time.Millisecond,
			ToastDuration:       3 * time.Second,
			EventBuffer:         256,
		},
		Trades: schedule.DefaultTradeRules(),
		Server: ServerConfig{
			Addr:              "127.0.0.1:8484",
			ReadHeaderTimeout: 5 * time.Second,
		},
		TUI: TUIConfig{ShowPhases: true, RecentTTL: 14 * 24 * time.Hour},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Database.SweepInterval == 0 {
		c.Database.SweepInterval = defaults.Database.SweepInterval
	}
	if c.Schedule.DefaultDurationDays == 0 {
		c.Schedule.DefaultDurationDays = defaults.Schedule.DefaultDurationDays
	}
	if c.Schedule.Debounce == 0 {
		c.Schedule.Debounce = defaults.Schedule.Debounce
	}
	if c.Schedule.InteractionGrace == 0 {
		c.Schedule.InteractionGrace = defaults.Schedule.InteractionGrace
	}
	if c.Schedule.ToastDuration == 0 {
		c.Schedule.ToastDuration = defaults.Schedule.ToastDuration
	}
	if c.Schedule.EventBuffer == 0 {
		c.Schedule.EventBuffer = defaults.Schedule.EventBuffer
	}
	if c.TUI.RecentTTL == 0 {
		c.TUI.RecentTTL = defaults.TUI.RecentTTL
	}
	if len(c.Trades.Finishing) == 0 {
		c.Trades.Finishing = defaults.Trades.Finishing
	}
	if len(c.Trades.Rough) == 0 {
		c.Trades.Rough = defaults.Trades.Rough
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = defaults.Server.ReadHeaderTimeout
	}
}

// DatabaseFile returns the path of the SQLite database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "buildsched.db")
}
