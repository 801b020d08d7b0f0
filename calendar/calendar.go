/*
Package calendar encodes the working-hours policy used for SLA accounting.

PURPOSE:
  Maps absolute instants to local wall-clock coordinates using a fixed UTC
  offset, and answers whether a weekday is a working day. A calendar is
  immutable once built; every SLA evaluation shares the same instance.

POLICY:
  - One fixed timezone offset (no DST, no zone database lookup)
  - One daily work window [WorkStartHour, WorkEndHour)
  - Exactly one non-working weekday; all other days are working days

HOST INDEPENDENCE:
  Local coordinates come from a time.FixedZone built from the configured
  offset. The process timezone (TZ, /etc/localtime) is never consulted, so
  the same instant maps to the same local time on every machine.

USAGE:
  cal, err := calendar.New(calendar.DefaultConfig())
  if err != nil {
      log.Fatal(err) // configuration errors are fatal to the caller
  }
  local := cal.ToLocal(time.Now())
  if cal.IsWorkingDay(local.Weekday) { ... }

SEE ALSO:
  - sla/clock.go: walks the calendar day by day to count working minutes
  - config/config.go: builds a Config from YAML
*/
package calendar

import (
	"fmt"
	"time"
)

// Offset bounds cover every real-world UTC offset (UTC-12:00 .. UTC+14:00).
const (
	minOffsetMinutes = -12 * 60
	maxOffsetMinutes = 14 * 60
)

// Config is the raw working-hours policy.
type Config struct {
	TimezoneOffsetMinutes int          `json:"timezone_offset_minutes"`
	WorkStartHour         int          `json:"work_start_hour"`
	WorkEndHour           int          `json:"work_end_hour"`
	NonWorkingWeekday     time.Weekday `json:"non_working_weekday"`
}

// DefaultConfig is the production policy: 10:00-19:00 IST, Sundays off.
func DefaultConfig() Config {
	return Config{
		TimezoneOffsetMinutes: 330,
		WorkStartHour:         10,
		WorkEndHour:           19,
		NonWorkingWeekday:     time.Sunday,
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.TimezoneOffsetMinutes < minOffsetMinutes || c.TimezoneOffsetMinutes > maxOffsetMinutes {
		return &ConfigError{Field: "timezone_offset_minutes", Value: c.TimezoneOffsetMinutes, Reason: "must be between -720 and 840"}
	}
	if c.WorkStartHour < 0 || c.WorkStartHour > 23 {
		return &ConfigError{Field: "work_start_hour", Value: c.WorkStartHour, Reason: "must be in [0,24)"}
	}
	if c.WorkEndHour < 0 || c.WorkEndHour > 23 {
		return &ConfigError{Field: "work_end_hour", Value: c.WorkEndHour, Reason: "must be in [0,24)"}
	}
	if c.WorkEndHour <= c.WorkStartHour {
		return &ConfigError{Field: "work_end_hour", Value: c.WorkEndHour, Reason: "must be after work_start_hour"}
	}
	if c.NonWorkingWeekday < time.Sunday || c.NonWorkingWeekday > time.Saturday {
		return &ConfigError{Field: "non_working_weekday", Value: int(c.NonWorkingWeekday), Reason: "must be in [0,6] (0 = Sunday)"}
	}
	return nil
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar is a validated, immutable working-hours policy.
// Safe for concurrent use.
type Calendar struct {
	cfg  Config
	zone *time.Location
}

// New validates cfg and builds a Calendar.
func New(cfg Config) (*Calendar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calendar{
		cfg:  cfg,
		zone: time.FixedZone(zoneName(cfg.TimezoneOffsetMinutes), cfg.TimezoneOffsetMinutes*60),
	}, nil
}

// MustNew is New for static configurations. It panics on invalid input.
func MustNew(cfg Config) *Calendar {
	cal, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return cal
}

// Config returns the validated configuration the calendar was built from.
func (c *Calendar) Config() Config { return c.cfg }

// Location is the fixed-offset zone all local times are expressed in.
func (c *Calendar) Location() *time.Location { return c.zone }

// WorkStartHour is the local hour the working window opens (inclusive).
func (c *Calendar) WorkStartHour() int { return c.cfg.WorkStartHour }

// WorkEndHour is the local hour the working window closes (exclusive).
func (c *Calendar) WorkEndHour() int { return c.cfg.WorkEndHour }

// DailyWorkingMinutes is the length of one full working day.
func (c *Calendar) DailyWorkingMinutes() int {
	return (c.cfg.WorkEndHour - c.cfg.WorkStartHour) * 60
}

// IsWorkingDay returns false only for the configured non-working weekday.
func (c *Calendar) IsWorkingDay(wd time.Weekday) bool {
	return wd != c.cfg.NonWorkingWeekday
}

// ToLocal converts an instant to wall-clock components in the calendar's zone.
func (c *Calendar) ToLocal(t time.Time) LocalTime {
	lt := t.In(c.zone)
	return LocalTime{
		Date:    Date{Year: lt.Year(), Month: lt.Month(), Day: lt.Day()},
		Hour:    lt.Hour(),
		Minute:  lt.Minute(),
		Second:  lt.Second(),
		Weekday: lt.Weekday(),
	}
}

// StartOfDay returns local midnight of the day containing t.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	lt := t.In(c.zone)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, c.zone)
}

// NextLocalMidnight returns the first instant of the local day after t.
func (c *Calendar) NextLocalMidnight(t time.Time) time.Time {
	lt := t.In(c.zone)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, c.zone)
}

// At returns the instant for a local wall-clock time in the calendar's zone.
func (c *Calendar) At(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, c.zone)
}

func zoneName(offsetMinutes int) string {
	sign := '+'
	if offsetMinutes < 0 {
		sign = '-'
		offsetMinutes = -offsetMinutes
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, offsetMinutes/60, offsetMinutes%60)
}

// =============================================================================
// LOCAL COORDINATES
// =============================================================================

// Date is a civil date with no zone attached. Comparable with ==.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// LocalTime is an instant expressed in the calendar's zone.
type LocalTime struct {
	Date    Date
	Hour    int
	Minute  int
	Second  int
	Weekday time.Weekday
}

// SecondsIntoDay is the number of whole seconds since local midnight.
func (l LocalTime) SecondsIntoDay() int {
	return l.Hour*3600 + l.Minute*60 + l.Second
}
