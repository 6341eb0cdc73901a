package sla

import (
	"log"

	"github.com/resolva-io/resolva-ce/internal/models"
)

// Specificity weights. Department-specific rules outrank category-specific
// ones, which outrank priority-specific ones, so the weights follow a
// strict binary ordering.
const (
	weightDepartment = 4
	weightCategory   = 2
	weightPriority   = 1
)

// Resolver selects the applicable SLA rule for a ticket.
type Resolver struct {
	logger *log.Logger
}

// NewResolver creates a rule resolver. A nil logger falls back to the
// process default.
func NewResolver(logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve returns the most specific active rule compatible with the
// ticket, or nil when none matches. A rule is compatible only when every
// non-nil dimension equals the ticket's value; a partial match disqualifies
// the rule entirely. Ties on specificity resolve to the lowest rule ID and
// are logged as a configuration smell.
func (r *Resolver) Resolve(ticket *models.Ticket, rules []models.SlaRule) *models.SlaRule {
	var (
		best     *models.SlaRule
		bestSpec = -1
		tied     bool
	)

	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive {
			continue
		}
		spec, ok := specificity(rule, ticket)
		if !ok {
			continue
		}
		switch {
		case spec > bestSpec:
			best, bestSpec, tied = rule, spec, false
		case spec == bestSpec:
			tied = true
			if rule.ID < best.ID {
				best = rule
			}
		}
	}

	if tied {
		r.logger.Printf("sla: multiple rules tie at specificity %d for ticket %d, using rule %d (%s); review rule configuration",
			bestSpec, ticket.ID, best.ID, best.Name)
	}
	return best
}

// specificity scores a rule against a ticket. ok is false when the rule is
// incompatible with the ticket.
func specificity(rule *models.SlaRule, ticket *models.Ticket) (int, bool) {
	score := 0
	if rule.DepartmentID != nil {
		if *rule.DepartmentID != ticket.DepartmentID {
			return 0, false
		}
		score += weightDepartment
	}
	if rule.Category != nil {
		if *rule.Category != ticket.Category {
			return 0, false
		}
		score += weightCategory
	}
	if rule.Priority != nil {
		if *rule.Priority != ticket.Priority {
			return 0, false
		}
		score += weightPriority
	}
	return score, true
}
