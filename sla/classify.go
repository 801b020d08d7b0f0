package sla

import (
	"fmt"
	"sort"
	"time"
)

// Thresholds in working minutes. 540 is one full 9-hour working day.
const (
	WarningThresholdMinutes = 9 * 60
	SafeThresholdMinutes    = 18 * 60
)

// IsApplicable reports whether an SLA runs at all. A missing deadline, one at
// or before the Unix epoch, and draft or rejected requests have no SLA.
func IsApplicable(deadline *time.Time, status Status) bool {
	if deadline == nil || deadline.IsZero() || !deadline.After(time.Unix(0, 0)) {
		return false
	}
	return status != StatusDraft && status != StatusRejected
}

// IsCompleted is the stop condition. Self pickup is satisfied once the sample
// is ready; every other method needs it dispatched. Received always counts.
func IsCompleted(status Status, method FulfillmentMethod) bool {
	if method == MethodSelfPickup {
		return status == StatusReady || status == StatusReceived
	}
	return status == StatusDispatched || status == StatusReceived
}

// Classify maps signed working minutes of a live request to a level.
func Classify(minutes int) Level {
	switch {
	case minutes < 0:
		return LevelOverdue
	case minutes < WarningThresholdMinutes:
		return LevelWarning
	case minutes <= SafeThresholdMinutes:
		return LevelApproaching
	default:
		return LevelSafe
	}
}

// FormatWorkingTime renders minutes as "2h 5m", "45m" or "3h". Overdue values
// get an "Overdue " prefix instead of a minus sign.
func FormatWorkingTime(minutes int) string {
	prefix := ""
	if minutes < 0 {
		prefix = "Overdue "
		minutes = -minutes
	}

	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%s%dm", prefix, m)
	case m == 0:
		return fmt.Sprintf("%s%dh", prefix, h)
	default:
		return fmt.Sprintf("%s%dh %dm", prefix, h, m)
	}
}

// SortByUrgency orders items most urgent first: overdue (most overdue first),
// then warning, approaching and safe by remaining time, then completed and
// not-applicable. The sort is stable so ties keep their input order.
func SortByUrgency[T any](items []T, result func(T) Result) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := result(items[i]), result(items[j])
		if a.Level.Rank() != b.Level.Rank() {
			return a.Level.Rank() < b.Level.Rank()
		}
		if a.Level == LevelCompleted || a.Level == LevelNone {
			return false
		}
		return a.SignedWorkingMinutes < b.SignedWorkingMinutes
	})
}
