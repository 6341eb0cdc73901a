// Package sla implements the SLA accounting engine: business-hours
// calendars, pause bookkeeping, rule resolution, and snapshot computation.
package sla

import (
	"fmt"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/resolva-io/resolva-ce/internal/models"
)

// maxCalendarScanDays bounds the day-by-day search for the next working
// instant. A holiday-free config needs at most eight steps; holiday runs
// can push the next workday further out.
const maxCalendarScanDays = 366

// ConfigError reports an invalid business-hours configuration. It is
// raised at construction time, never mid-calculation.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "sla: invalid business hours config: " + e.Reason
}

// BusinessCalendar converts wall-clock intervals into effective business
// time and projects deadlines, for one immutable BusinessHoursConfig.
// It wraps rickar/cal for the interval arithmetic; all inputs are moved
// into the configured timezone before any calendar math.
type BusinessCalendar struct {
	cfg models.BusinessHoursConfig
	loc *time.Location
	cal *cal.BusinessCalendar
}

// NewBusinessCalendar validates the config and builds a calendar for it.
func NewBusinessCalendar(cfg models.BusinessHoursConfig) (*BusinessCalendar, error) {
	if len(cfg.WorkingDays) == 0 {
		return nil, &ConfigError{Reason: "no working days"}
	}
	if cfg.StartHour < 0 || cfg.EndHour > 24 || cfg.StartHour >= cfg.EndHour {
		return nil, &ConfigError{Reason: fmt.Sprintf("hour window %d-%d out of order", cfg.StartHour, cfg.EndHour)}
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown timezone %q", cfg.Timezone)}
	}

	working := make(map[time.Weekday]bool, len(cfg.WorkingDays))
	for _, d := range cfg.WorkingDays {
		working[d] = true
	}

	c := cal.NewBusinessCalendar()
	c.SetWorkHours(time.Duration(cfg.StartHour)*time.Hour, time.Duration(cfg.EndHour)*time.Hour)
	for d := time.Sunday; d <= time.Saturday; d++ {
		c.SetWorkday(d, working[d])
	}
	for _, h := range cfg.Holidays {
		holiday := &cal.Holiday{
			Name:  h.Name,
			Type:  cal.ObservancePublic,
			Month: h.Month,
			Day:   h.Day,
			Func:  cal.CalcDayOfMonth,
		}
		if h.Year != 0 {
			holiday.StartYear = h.Year
			holiday.EndYear = h.Year
		}
		c.AddHoliday(holiday)
	}

	return &BusinessCalendar{cfg: cfg, loc: loc, cal: c}, nil
}

// Config returns the configuration the calendar was built from.
func (b *BusinessCalendar) Config() models.BusinessHoursConfig {
	return b.cfg
}

// IsWorkingInstant reports whether t falls inside the working window:
// a working weekday with local hour in [StartHour, EndHour).
func (b *BusinessCalendar) IsWorkingInstant(t time.Time) bool {
	return b.cal.IsWorkTime(t.In(b.loc))
}

// NextWorkingInstant returns the smallest working instant >= t. Before the
// window on a working day it snaps to StartHour; otherwise it advances one
// calendar day at a time until a working day is found.
func (b *BusinessCalendar) NextWorkingInstant(t time.Time) time.Time {
	local := t.In(b.loc)
	for i := 0; i < maxCalendarScanDays; i++ {
		if b.cal.IsWorkday(local) {
			start := b.atHour(local, b.cfg.StartHour)
			end := b.atHour(local, b.cfg.EndHour)
			if local.Before(start) {
				return start
			}
			if local.Before(end) {
				return local
			}
		}
		local = b.atHour(local.AddDate(0, 0, 1), b.cfg.StartHour)
	}
	return local
}

// EffectiveHoursBetween returns the business hours contained in
// [start, end). It is exact at sub-hour precision and additive under
// splitting: for any a <= b <= c the sum over [a,b) and [b,c) equals the
// value over [a,c).
func (b *BusinessCalendar) EffectiveHoursBetween(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}
	return b.cal.WorkHoursInRange(start.In(b.loc), end.In(b.loc)).Hours()
}

// DeadlineAfter returns the instant at which durationHours of business
// time have elapsed since start. It is the inverse of
// EffectiveHoursBetween for working-time starts.
func (b *BusinessCalendar) DeadlineAfter(start time.Time, durationHours float64) time.Time {
	d := time.Duration(durationHours * float64(time.Hour))
	return b.cal.AddWorkHours(start.In(b.loc), d)
}

func (b *BusinessCalendar) atHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, b.loc)
}
