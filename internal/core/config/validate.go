package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is structurally valid. Every
// failing field is reported, not only the first.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, notEmpty),
		c.validateDatabase(),
		c.validateSchedule(),
		c.validateWarnings(),
		criterio.Run("server.addr", c.Server.Addr, validAddr),
	)
}

// ValidateDeep runs Validate and then checks the file system: the config
// file and the data directory.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Schedule.InteractionGrace > c.Schedule.Debounce*10 {
		warnings = append(warnings, ValidationWarning{
			Category: "Schedule",
			Item:     "interaction_grace",
			Message:  "interaction grace is much longer than the debounce; clicks after a drag will be ignored for a long time",
		})
	}

	for _, p := range c.Trades.Finishing {
		for _, r := range c.Trades.Rough {
			if strings.EqualFold(p, r) {
				warnings = append(warnings, ValidationWarning{
					Category: "Warnings",
					Item:     p,
					Message:  "pattern is listed as both a finishing and a rough trade",
				})
			}
		}
	}

	return warnings
}

func (c *Config) validateDatabase() error {
	var errs criterio.FieldErrorsBuilder
	if c.Database.MaxOpenConns < 1 {
		errs = errs.Append("database.max_open_conns", errors.New("must be at least 1"))
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = errs.Append("database.max_idle_conns", fmt.Errorf("must be between 0 and max_open_conns (%d)", c.Database.MaxOpenConns))
	}
	if c.Database.BusyTimeout < 0 {
		errs = errs.Append("database.busy_timeout", errors.New("must not be negative"))
	}
	if c.Database.SweepInterval < time.Second {
		errs = errs.Append("database.sweep_interval", errors.New("must be at least 1s"))
	}
	if c.Database.NotificationRetention < 0 {
		errs = errs.Append("database.notification_retention", errors.New("must not be negative"))
	}
	return errs.ToError()
}

func (c *Config) validateSchedule() error {
	var errs criterio.FieldErrorsBuilder
	if c.Schedule.DefaultDurationDays < 1 {
		errs = errs.Append("schedule.default_duration_days", errors.New("must be at least 1"))
	}
	if c.Schedule.Debounce < 0 {
		errs = errs.Append("schedule.debounce", errors.New("must not be negative"))
	}
	if c.Schedule.InteractionGrace < 0 {
		errs = errs.Append("schedule.interaction_grace", errors.New("must not be negative"))
	}
	if c.Schedule.ToastDuration < 0 {
		errs = errs.Append("schedule.toast_duration", errors.New("must not be negative"))
	}
	if c.Schedule.EventBuffer < 1 {
		errs = errs.Append("schedule.event_buffer", errors.New("must be at least 1"))
	}
	if c.TUI.RecentTTL < 0 {
		errs = errs.Append("tui.recent_ttl", errors.New("must not be negative"))
	}
	return errs.ToError()
}

func (c *Config) validateWarnings() error {
	var errs criterio.FieldErrorsBuilder
	for i, p := range c.Trades.Finishing {
		if !doublestar.ValidatePattern(strings.ToLower(p)) {
			errs = errs.Append(fmt.Sprintf("warnings.finishing_trades[%d]", i), fmt.Errorf("invalid glob %q", p))
		}
	}
	for i, p := range c.Trades.Rough {
		if !doublestar.ValidatePattern(strings.ToLower(p)) {
			errs = errs.Append(fmt.Sprintf("warnings.rough_trades[%d]", i), fmt.Errorf("invalid glob %q", p))
		}
	}
	return errs.ToError()
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func validAddr(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
