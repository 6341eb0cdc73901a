package models

import (
	"time"
)

// BusinessHoursConfig defines the recurring weekly window during which SLA
// time accrues. One process-wide default comes from configuration, but the
// calendar API takes an explicit config on every call so computations stay
// reproducible in tests.
type BusinessHoursConfig struct {
	StartHour   int            `json:"start_hour"` // inclusive, 0-23
	EndHour     int            `json:"end_hour"`   // exclusive, 1-24
	WorkingDays []time.Weekday `json:"working_days"`
	Timezone    string         `json:"timezone"` // IANA zone name
	Holidays    []Holiday      `json:"holidays,omitempty"`
}

// Holiday is a non-working date. Year zero means the holiday recurs every
// year on the same month/day.
type Holiday struct {
	Name  string     `json:"name"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
	Year  int        `json:"year,omitempty"`
}

// DefaultBusinessHours returns the stock Monday-Friday 08:00-18:00 window.
func DefaultBusinessHours() BusinessHoursConfig {
	return BusinessHoursConfig{
		StartHour: 8,
		EndHour:   18,
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		Timezone: "America/Sao_Paulo",
	}
}
