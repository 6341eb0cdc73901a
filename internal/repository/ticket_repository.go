// Package repository implements SQL persistence for tickets, SLA rules,
// and pause records.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/resolva-io/resolva-ce/internal/database"
	"github.com/resolva-io/resolva-ce/internal/models"
)

// ErrTicketNotFound is returned when a ticket id has no row.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepository reads the ticket projection the SLA engine consumes.
type TicketRepository struct {
	db     *sql.DB
	driver string
}

// NewTicketRepository creates a ticket repository for the given driver.
func NewTicketRepository(db *sql.DB, driver string) *TicketRepository {
	return &TicketRepository{db: db, driver: driver}
}

// GetTicket loads one ticket by id.
func (r *TicketRepository) GetTicket(ctx context.Context, id int) (*models.Ticket, error) {
	query := database.ConvertPlaceholders(r.driver, `
		SELECT id, created_at, resolved_at, status, department_id, category, priority
		FROM ticket
		WHERE id = ?
	`)
	var (
		t        models.Ticket
		resolved sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.CreatedAt, &resolved, &t.Status, &t.DepartmentID, &t.Category, &t.Priority,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket %d: %w", id, err)
	}
	if resolved.Valid {
		t.ResolvedAt = &resolved.Time
	}
	return &t, nil
}

// ListOpenTickets returns all tickets in a non-terminal state, for the
// periodic monitor scan.
func (r *TicketRepository) ListOpenTickets(ctx context.Context) ([]models.Ticket, error) {
	query := database.ConvertPlaceholders(r.driver, `
		SELECT id, created_at, resolved_at, status, department_id, category, priority
		FROM ticket
		WHERE status IN (?, ?, ?)
		ORDER BY id
	`)
	rows, err := r.db.QueryContext(ctx, query,
		models.TicketStatusOpen, models.TicketStatusInProgress, models.TicketStatusOnHold)
	if err != nil {
		return nil, fmt.Errorf("failed to list open tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		var (
			t        models.Ticket
			resolved sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.CreatedAt, &resolved, &t.Status, &t.DepartmentID, &t.Category, &t.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan ticket row: %w", err)
		}
		if resolved.Valid {
			t.ResolvedAt = &resolved.Time
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
