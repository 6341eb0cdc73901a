package sla

import (
	"log"
	"time"

	"github.com/resolva-io/resolva-ce/internal/models"
)

// DefaultResolutionHours is the fallback SLA duration applied when no
// configured rule matches a ticket. An unmatched ticket is expected and
// common, not an error.
const DefaultResolutionHours = 4.0

// DefaultSource is the snapshot provenance reported for the fallback.
const DefaultSource = "default"

// defaultAtRiskPercent is the progress threshold where an open ticket
// moves from met to at_risk.
const defaultAtRiskPercent = 90.0

// Engine computes SLA snapshots. It is a pure computation over inputs the
// caller supplies (ticket, rules, pause records, current time): it owns no
// mutable shared state, so one Engine may serve any number of goroutines.
type Engine struct {
	resolver      *Resolver
	defaultHours  float64
	atRiskPercent float64
}

// NewEngine creates an engine. A nil logger falls back to the process
// default; it is only used to flag rule-specificity ties.
func NewEngine(logger *log.Logger) *Engine {
	return &Engine{
		resolver:      NewResolver(logger),
		defaultHours:  DefaultResolutionHours,
		atRiskPercent: defaultAtRiskPercent,
	}
}

// SetDefaultResolutionHours overrides the fallback SLA duration.
func (e *Engine) SetDefaultResolutionHours(hours float64) {
	if hours > 0 {
		e.defaultHours = hours
	}
}

// SetAtRiskPercent overrides the met/at_risk threshold.
func (e *Engine) SetAtRiskPercent(percent float64) {
	if percent > 0 && percent < 100 {
		e.atRiskPercent = percent
	}
}

// ComputeSnapshot is the engine entry point: it validates the calendar
// config and computes the snapshot for one ticket at the given instant.
// The only error it can return is a ConfigError for an invalid
// business-hours config; every data condition (no matching rule, empty
// pause list, nil resolvedAt) is absorbed into the snapshot.
func (e *Engine) ComputeSnapshot(ticket *models.Ticket, rules []models.SlaRule, pauses []models.PauseRecord, now time.Time, cfg models.BusinessHoursConfig) (models.SlaSnapshot, error) {
	calendar, err := NewBusinessCalendar(cfg)
	if err != nil {
		return models.SlaSnapshot{}, err
	}
	return e.ComputeWithCalendar(ticket, rules, pauses, now, calendar), nil
}

// ComputeWithCalendar computes a snapshot against an already-validated
// calendar. Callers that serve many tickets build the calendar once and
// reuse it.
func (e *Engine) ComputeWithCalendar(ticket *models.Ticket, rules []models.SlaRule, pauses []models.PauseRecord, now time.Time, calendar *BusinessCalendar) models.SlaSnapshot {
	terminal := ticket.Status.IsTerminal()

	// Resolved tickets freeze at their resolution instant: the window end
	// is resolvedAt and open pauses clip there too, so recomputing later
	// with a different now yields an identical snapshot.
	end := now
	if terminal && ticket.ResolvedAt != nil {
		end = *ticket.ResolvedAt
	}
	if end.Before(ticket.CreatedAt) {
		// Malformed upstream data; report zero progress rather than fail.
		end = ticket.CreatedAt
	}

	hoursTotal := e.defaultHours
	source := DefaultSource
	if rule := e.resolver.Resolve(ticket, rules); rule != nil {
		hoursTotal = rule.ResolutionHours
		source = rule.Name
	}

	elapsed := calendar.EffectiveHoursBetween(ticket.CreatedAt, end)
	elapsed -= BusinessPausedHours(calendar, pauses, ticket.CreatedAt, end, end)
	if elapsed < 0 {
		elapsed = 0
	}

	rawPercent := elapsed / hoursTotal * 100
	progress := rawPercent
	if progress > 100 {
		progress = 100
	}

	var status models.SlaStatus
	switch {
	case terminal:
		if rawPercent <= 100 {
			status = models.SlaStatusMet
		} else {
			status = models.SlaStatusViolated
		}
	case rawPercent >= 100:
		status = models.SlaStatusViolated
	case rawPercent >= e.atRiskPercent:
		status = models.SlaStatusAtRisk
	default:
		status = models.SlaStatusMet
	}

	remaining := hoursTotal - elapsed
	if remaining < 0 {
		remaining = 0
	}

	return models.SlaSnapshot{
		Status:          status,
		HoursTotal:      hoursTotal,
		HoursElapsed:    elapsed,
		HoursRemaining:  remaining,
		ProgressPercent: progress,
		// The deadline is a fixed calendar projection from creation;
		// pauses shift effective elapsed time, not the displayed deadline.
		Deadline: calendar.DeadlineAfter(ticket.CreatedAt, hoursTotal),
		Source:   source,
	}
}
