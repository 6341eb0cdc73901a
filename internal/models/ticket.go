package models

import (
	"time"
)

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusOnHold     TicketStatus = "on_hold"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// IsTerminal reports whether the ticket has reached a final state.
// Terminal tickets freeze their SLA accounting at ResolvedAt.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Ticket holds the fields the SLA engine consumes. Full ticket records
// (subject, requester, assignments, comments) live in the ticket store;
// this projection is what the accounting core reads.
type Ticket struct {
	ID           int          `json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	ResolvedAt   *time.Time   `json:"resolved_at,omitempty"`
	Status       TicketStatus `json:"status"`
	DepartmentID int          `json:"department_id"`
	Category     string       `json:"category"`
	Priority     string       `json:"priority"`
}

// PauseRecord is a declared interval during which SLA accrual is suspended
// for a ticket. A closed record carries ResumedAt; an open record carries
// ExpectedReturnAt instead, and is treated as auto-resumed once that
// instant has passed. Records for one ticket never overlap; the ticket
// store enforces that before they reach the engine.
type PauseRecord struct {
	ID               int        `json:"id"`
	TicketID         int        `json:"ticket_id"`
	PausedAt         time.Time  `json:"paused_at"`
	ResumedAt        *time.Time `json:"resumed_at,omitempty"`
	ExpectedReturnAt *time.Time `json:"expected_return_at,omitempty"`
}

// Open reports whether the pause has not been explicitly resumed.
func (p *PauseRecord) Open() bool {
	return p.ResumedAt == nil
}

// EndAt returns the effective end of the pause interval as seen at the
// given instant: ResumedAt when closed, otherwise the earlier of
// ExpectedReturnAt and now.
func (p *PauseRecord) EndAt(now time.Time) time.Time {
	if p.ResumedAt != nil {
		return *p.ResumedAt
	}
	if p.ExpectedReturnAt != nil && p.ExpectedReturnAt.Before(now) {
		return *p.ExpectedReturnAt
	}
	return now
}
