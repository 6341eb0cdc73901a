package models

import (
	"time"
)

// SlaRule maps a (department, category, priority) combination to a
// resolution time in business hours. Nil dimensions are wildcards.
// Rules are never deleted, only deactivated, so historical tickets keep
// resolving against a stable rule set.
type SlaRule struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	DepartmentID    *int      `json:"department_id,omitempty"`
	Category        *string   `json:"category,omitempty"`
	Priority        *string   `json:"priority,omitempty"`
	ResolutionHours float64   `json:"resolution_hours"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SlaStatus is the compliance state reported in a snapshot.
type SlaStatus string

const (
	SlaStatusMet      SlaStatus = "met"
	SlaStatusAtRisk   SlaStatus = "at_risk"
	SlaStatusViolated SlaStatus = "violated"
)

// SlaSnapshot is the point-in-time SLA result for a ticket. Snapshots are
// computed fresh on every read and never persisted, so they always reflect
// the current wall clock and the current rule configuration.
type SlaSnapshot struct {
	Status          SlaStatus `json:"sla_status"`
	HoursTotal      float64   `json:"sla_hours_total"`
	HoursElapsed    float64   `json:"sla_hours_elapsed"`
	HoursRemaining  float64   `json:"sla_hours_remaining"`
	ProgressPercent float64   `json:"sla_progress_percent"`
	Deadline        time.Time `json:"sla_deadline"`
	Source          string    `json:"sla_source"`
}
