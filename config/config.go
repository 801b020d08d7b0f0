// Package config handles loading and validation of the service YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/warp/sample-sla/calendar"
	"gopkg.in/yaml.v3"
)

// Config is the parsed sla-server.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Calendar CalendarConfig `yaml:"calendar"`
	Refresh  RefreshConfig  `yaml:"refresh"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CalendarConfig mirrors calendar.Config with a human-friendly weekday.
type CalendarConfig struct {
	TimezoneOffsetMinutes int    `yaml:"timezoneOffsetMinutes"`
	WorkStartHour         int    `yaml:"workStartHour"`
	WorkEndHour           int    `yaml:"workEndHour"`
	NonWorkingWeekday     string `yaml:"nonWorkingWeekday"` // "sunday" or 0-6
}

type RefreshConfig struct {
	Interval string `yaml:"interval"` // Go duration, e.g. "60s"
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cal := calendar.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Database: DatabaseConfig{Path: "sla.db"},
		Calendar: CalendarConfig{
			TimezoneOffsetMinutes: cal.TimezoneOffsetMinutes,
			WorkStartHour:         cal.WorkStartHour,
			WorkEndHour:           cal.WorkEndHour,
			NonWorkingWeekday:     "sunday",
		},
		Refresh: RefreshConfig{Interval: "60s"},
	}
}

// Load reads path on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks every section, including the calendar invariants.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if _, err := c.RefreshInterval(); err != nil {
		return err
	}
	if _, err := c.CalendarConfig(); err != nil {
		return err
	}
	return nil
}

// CalendarConfig converts the YAML calendar section and validates it.
func (c *Config) CalendarConfig() (calendar.Config, error) {
	wd, err := calendar.ParseWeekday(c.Calendar.NonWorkingWeekday)
	if err != nil {
		return calendar.Config{}, fmt.Errorf("calendar.nonWorkingWeekday: %w", err)
	}
	cfg := calendar.Config{
		TimezoneOffsetMinutes: c.Calendar.TimezoneOffsetMinutes,
		WorkStartHour:         c.Calendar.WorkStartHour,
		WorkEndHour:           c.Calendar.WorkEndHour,
		NonWorkingWeekday:     wd,
	}
	if err := cfg.Validate(); err != nil {
		return calendar.Config{}, err
	}
	return cfg, nil
}

// RefreshInterval parses refresh.interval.
func (c *Config) RefreshInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Refresh.Interval)
	if err != nil {
		return 0, fmt.Errorf("refresh.interval %q: %w", c.Refresh.Interval, err)
	}
	if d < time.Second {
		return 0, fmt.Errorf("refresh.interval %s must be at least 1s", d)
	}
	return d, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
