/*
Package sla computes business-hours SLA state for sample requests.

PURPOSE:
  Converts "now" and a deadline into a signed count of working minutes and
  classifies it into an urgency level for dashboard badges.

THREE CONCERNS:
  1. Calendar primitives    calendar.Calendar (zone, work window, off day)
  2. Minute accumulation    Clock.WorkingMinutesBetween / SignedWorkingMinutes
  3. Classification         IsCompleted, Classify, FormatWorkingTime

DAY WALK:
  Split [start, end) at local midnights:

    first day   [max(start, workStart), workEnd)        unless off day
    middle days whole weeks in one step (6 working days each), then
                the few leftover days one at a time
    last day    [workStart, min(end, workEnd))          unless off day

  Day offsets are exact durations from local midnight, accumulated as
  decimal nanoseconds and converted to minutes with a single rounding at the
  end (half away from zero). A 30-second remainder always rounds up, and a
  deadline centuries away costs no more than one a week away.

PURITY:
  Clock holds only an immutable calendar. Every method is a pure function of
  its arguments and safe to call from any number of goroutines.

SEE ALSO:
  - classify.go: stop conditions, thresholds, labels
  - calendar/calendar.go: local time conversion
*/
package sla

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/sample-sla/calendar"
)

var nanosPerMinute = decimal.NewFromInt(int64(time.Minute))

const (
	day  = 24 * time.Hour
	week = 7
)

// Clock evaluates SLAs against one working calendar.
type Clock struct {
	cal *calendar.Calendar
}

// NewClock binds a clock to a validated calendar.
func NewClock(cal *calendar.Calendar) *Clock {
	return &Clock{cal: cal}
}

func (c *Clock) Calendar() *calendar.Calendar { return c.cal }

// WorkingMinutesBetween counts working minutes in [start, end).
// Returns 0 when start is not before end.
func (c *Clock) WorkingMinutesBetween(start, end time.Time) int {
	if !start.Before(end) {
		return 0
	}

	first := c.cal.StartOfDay(start)
	last := c.cal.StartOfDay(end)
	if first.Equal(last) {
		return toMinutes(c.dayWork(first, start.Sub(first), end.Sub(last)))
	}

	worked := c.dayWork(first, start.Sub(first), day)

	// Whole days strictly between the first and the last. Unix seconds keep
	// the count exact for spans far beyond time.Duration's range.
	cursor := c.cal.NextLocalMidnight(first)
	days := (last.Unix() - cursor.Unix()) / int64(day/time.Second)

	// Any seven consecutive days hold exactly one non-working day.
	weeks := days / week
	weekWork := decimal.NewFromInt(int64(week-1) * int64(c.dailyWork()))
	worked = worked.Add(weekWork.Mul(decimal.NewFromInt(weeks)))
	cursor = cursor.AddDate(0, 0, int(weeks*week))

	for ; cursor.Before(last); cursor = c.cal.NextLocalMidnight(cursor) {
		worked = worked.Add(c.dayWork(cursor, 0, day))
	}
	worked = worked.Add(c.dayWork(last, 0, end.Sub(last)))

	return toMinutes(worked)
}

// dayWork is the working time, in nanoseconds, of [from, to) on the local
// day starting at midnight. Offsets are measured from midnight.
func (c *Clock) dayWork(midnight time.Time, from, to time.Duration) decimal.Decimal {
	if !c.cal.IsWorkingDay(midnight.Weekday()) {
		return decimal.Zero
	}
	from = max(from, c.workStart())
	to = min(to, c.workEnd())
	if to <= from {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(to - from))
}

// toMinutes rounds once, half away from zero.
func toMinutes(nanos decimal.Decimal) int {
	return int(nanos.DivRound(nanosPerMinute, 0).IntPart())
}

func (c *Clock) workStart() time.Duration { return time.Duration(c.cal.WorkStartHour()) * time.Hour }
func (c *Clock) workEnd() time.Duration   { return time.Duration(c.cal.WorkEndHour()) * time.Hour }
func (c *Clock) dailyWork() time.Duration { return c.workEnd() - c.workStart() }

// SignedWorkingMinutes is positive (remaining) when the deadline is after now
// and negative (overdue) otherwise.
func (c *Clock) SignedWorkingMinutes(now, deadline time.Time) int {
	if !deadline.After(now) {
		return -c.WorkingMinutesBetween(deadline, now)
	}
	return c.WorkingMinutesBetween(now, deadline)
}

// Evaluate produces the badge state for one request.
func (c *Clock) Evaluate(in Input) Result {
	if !IsApplicable(in.Deadline, in.Status) {
		return Result{Level: LevelNone, Label: LabelNotApplicable}
	}
	if IsCompleted(in.Status, in.FulfillmentMethod) {
		return Result{Completed: true, Level: LevelCompleted, Label: LabelDone}
	}

	m := c.SignedWorkingMinutes(in.Now, *in.Deadline)
	return Result{
		SignedWorkingMinutes: m,
		Level:                Classify(m),
		Label:                FormatWorkingTime(m),
	}
}

// AddWorkingMinutes returns the instant that lies the given number of working
// minutes after t (before t when negative). Off-hours and the non-working day
// are skipped, so SignedWorkingMinutes(t, AddWorkingMinutes(t, m)) == m.
func (c *Clock) AddWorkingMinutes(t time.Time, minutes int) time.Time {
	if minutes == 0 {
		return t
	}

	// Shifting t by whole weeks moves the result by whole weeks of work.
	// Keep at least one minute so the walk below still lands inside a window.
	weekMinutes := (week - 1) * c.cal.DailyWorkingMinutes()
	if n := abs(minutes); n > weekMinutes {
		weeks := (n - 1) / weekMinutes
		if minutes > 0 {
			t = t.In(c.cal.Location()).AddDate(0, 0, weeks*week)
			minutes -= weeks * weekMinutes
		} else {
			t = t.In(c.cal.Location()).AddDate(0, 0, -weeks*week)
			minutes += weeks * weekMinutes
		}
	}

	workStart, workEnd := c.workStart(), c.workEnd()
	midnight := c.cal.StartOfDay(t)
	pos := t.Sub(midnight)

	if minutes > 0 {
		remaining := time.Duration(minutes) * time.Minute
		for {
			if c.cal.IsWorkingDay(midnight.Weekday()) {
				from := max(pos, workStart)
				if from < workEnd {
					avail := workEnd - from
					if remaining <= avail {
						return midnight.Add(from + remaining)
					}
					remaining -= avail
				}
			}
			midnight, pos = c.cal.NextLocalMidnight(midnight), 0
		}
	}

	remaining := time.Duration(-minutes) * time.Minute
	for {
		if c.cal.IsWorkingDay(midnight.Weekday()) {
			to := min(pos, workEnd)
			if to > workStart {
				avail := to - workStart
				if remaining <= avail {
					return midnight.Add(to - remaining)
				}
				remaining -= avail
			}
		}
		// Fixed offset: local days are always 24h long.
		midnight, pos = midnight.Add(-day), day
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
