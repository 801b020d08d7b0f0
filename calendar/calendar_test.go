package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/sample-sla/calendar"
)

func TestNew_DefaultConfig(t *testing.T) {
	cal, err := calendar.New(calendar.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 10, cal.WorkStartHour())
	assert.Equal(t, 19, cal.WorkEndHour())
	assert.Equal(t, 540, cal.DailyWorkingMinutes())
	assert.Equal(t, "UTC+05:30", cal.Location().String())
}

func TestNew_RejectsMalformedConfig(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*calendar.Config)
		field string
	}{
		{"end before start", func(c *calendar.Config) { c.WorkStartHour, c.WorkEndHour = 19, 10 }, "work_end_hour"},
		{"end equals start", func(c *calendar.Config) { c.WorkEndHour = c.WorkStartHour }, "work_end_hour"},
		{"start negative", func(c *calendar.Config) { c.WorkStartHour = -1 }, "work_start_hour"},
		{"end is 24", func(c *calendar.Config) { c.WorkEndHour = 24 }, "work_end_hour"},
		{"weekday 7", func(c *calendar.Config) { c.NonWorkingWeekday = 7 }, "non_working_weekday"},
		{"offset too far east", func(c *calendar.Config) { c.TimezoneOffsetMinutes = 15 * 60 }, "timezone_offset_minutes"},
		{"offset too far west", func(c *calendar.Config) { c.TimezoneOffsetMinutes = -13 * 60 }, "timezone_offset_minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := calendar.DefaultConfig()
			tt.mod(&cfg)

			cal, err := calendar.New(cfg)
			assert.Nil(t, cal)
			require.Error(t, err)
			assert.ErrorIs(t, err, calendar.ErrInvalidCalendar)

			var cfgErr *calendar.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestMustNew_PanicsOnInvalidConfig(t *testing.T) {
	assert.Panics(t, func() {
		calendar.MustNew(calendar.Config{WorkStartHour: 9, WorkEndHour: 9})
	})
}

func TestToLocal_UsesConfiguredOffset(t *testing.T) {
	cal := calendar.MustNew(calendar.DefaultConfig())

	// 2025-06-02 12:30 UTC is Monday 18:00 in IST.
	instant := time.Date(2025, time.June, 2, 12, 30, 0, 0, time.UTC)
	local := cal.ToLocal(instant)

	assert.Equal(t, calendar.Date{Year: 2025, Month: time.June, Day: 2}, local.Date)
	assert.Equal(t, 18, local.Hour)
	assert.Equal(t, 0, local.Minute)
	assert.Equal(t, time.Monday, local.Weekday)
	assert.Equal(t, 18*3600, local.SecondsIntoDay())
}

func TestToLocal_IndependentOfInputLocation(t *testing.T) {
	cal := calendar.MustNew(calendar.DefaultConfig())

	utc := time.Date(2025, time.June, 7, 20, 0, 0, 0, time.UTC)
	ny := utc.In(time.FixedZone("EDT", -4*3600))

	// Saturday 20:00 UTC is already Sunday 01:30 in IST.
	assert.Equal(t, cal.ToLocal(utc), cal.ToLocal(ny))
	assert.Equal(t, time.Sunday, cal.ToLocal(utc).Weekday)
	assert.Equal(t, "2025-06-08", cal.ToLocal(utc).Date.String())
}

func TestToLocal_NegativeOffset(t *testing.T) {
	cfg := calendar.DefaultConfig()
	cfg.TimezoneOffsetMinutes = -300
	cal := calendar.MustNew(cfg)

	local := cal.ToLocal(time.Date(2025, time.June, 2, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-06-01", local.Date.String())
	assert.Equal(t, 22, local.Hour)
	assert.Equal(t, "UTC-05:00", cal.Location().String())
}

func TestIsWorkingDay(t *testing.T) {
	cal := calendar.MustNew(calendar.DefaultConfig())

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		assert.Equal(t, wd != time.Sunday, cal.IsWorkingDay(wd), wd.String())
	}
}

func TestNextLocalMidnight(t *testing.T) {
	cal := calendar.MustNew(calendar.DefaultConfig())

	monday6pm := cal.At(2025, time.June, 2, 18, 0)
	next := cal.NextLocalMidnight(monday6pm)

	assert.Equal(t, cal.At(2025, time.June, 3, 0, 0), next)
	local := cal.ToLocal(next)
	assert.Equal(t, time.Tuesday, local.Weekday)
	assert.Equal(t, 0, local.SecondsIntoDay())

	// Month rollover.
	assert.Equal(t, cal.At(2025, time.July, 1, 0, 0), cal.NextLocalMidnight(cal.At(2025, time.June, 30, 23, 59)))
}

func TestStartOfDay(t *testing.T) {
	cal := calendar.MustNew(calendar.DefaultConfig())

	// 20:00Z on 2 June is 01:30 on 3 June local.
	instant := time.Date(2025, time.June, 2, 20, 0, 0, 500, time.UTC)
	assert.True(t, cal.At(2025, time.June, 3, 0, 0).Equal(cal.StartOfDay(instant)))

	midnight := cal.At(2025, time.June, 3, 0, 0)
	assert.Equal(t, midnight, cal.StartOfDay(midnight))
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
	}{
		{"sunday", time.Sunday},
		{"Sun", time.Sunday},
		{" FRIDAY ", time.Friday},
		{"0", time.Sunday},
		{"6", time.Saturday},
	}
	for _, tt := range tests {
		got, err := calendar.ParseWeekday(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "7", "-1", "someday"} {
		_, err := calendar.ParseWeekday(bad)
		assert.ErrorIs(t, err, calendar.ErrInvalidWeekday, bad)
	}
}
