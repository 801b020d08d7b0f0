package calendar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidCalendar is returned when a calendar configuration is malformed.
	// It is a construction-time error: a calendar that was built never fails later.
	ErrInvalidCalendar = errors.New("invalid calendar configuration")

	// ErrInvalidWeekday is returned when a weekday name or number cannot be parsed.
	ErrInvalidWeekday = errors.New("invalid weekday")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError describes which calendar field was rejected and why.
type ConfigError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid calendar configuration: %s=%d: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidCalendar
}
