package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/resolva-io/resolva-ce/internal/database"
	"github.com/resolva-io/resolva-ce/internal/models"
)

var (
	// ErrPauseAlreadyOpen is returned when starting a pause while one is
	// still open; pause intervals for a ticket must never overlap.
	ErrPauseAlreadyOpen = errors.New("ticket already has an open pause")
	// ErrNoOpenPause is returned when resuming a ticket with no open pause.
	ErrNoOpenPause = errors.New("ticket has no open pause")
)

// PauseRepository owns the pause/resume ledger rows. It enforces the
// non-overlap invariant the engine's PauseLedger assumes: at most one
// open pause per ticket, opened only when no other pause is open.
type PauseRepository struct {
	db     *sql.DB
	driver string
}

// NewPauseRepository creates a pause repository.
func NewPauseRepository(db *sql.DB, driver string) *PauseRepository {
	return &PauseRepository{db: db, driver: driver}
}

// RecordsForTicket returns every pause record of a ticket in chronological
// order.
func (r *PauseRepository) RecordsForTicket(ctx context.Context, ticketID int) ([]models.PauseRecord, error) {
	query := database.ConvertPlaceholders(r.driver, `
		SELECT id, ticket_id, paused_at, resumed_at, expected_return_at
		FROM ticket_pause
		WHERE ticket_id = ?
		ORDER BY paused_at
	`)
	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pauses for ticket %d: %w", ticketID, err)
	}
	defer rows.Close()

	var records []models.PauseRecord
	for rows.Next() {
		var (
			rec            models.PauseRecord
			resumed        sql.NullTime
			expectedReturn sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.TicketID, &rec.PausedAt, &resumed, &expectedReturn); err != nil {
			return nil, fmt.Errorf("failed to scan pause row: %w", err)
		}
		if resumed.Valid {
			rec.ResumedAt = &resumed.Time
		}
		if expectedReturn.Valid {
			rec.ExpectedReturnAt = &expectedReturn.Time
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// StartPause opens a pause for a ticket moving to on_hold. The expected
// return instant must not precede the pause start.
func (r *PauseRepository) StartPause(ctx context.Context, ticketID int, pausedAt, expectedReturnAt time.Time) error {
	if expectedReturnAt.Before(pausedAt) {
		return fmt.Errorf("expected return %v precedes pause start %v", expectedReturnAt, pausedAt)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin pause transaction: %w", err)
	}
	defer tx.Rollback()

	var open int
	countQuery := database.ConvertPlaceholders(r.driver, `
		SELECT COUNT(*) FROM ticket_pause
		WHERE ticket_id = ? AND resumed_at IS NULL
	`)
	if err := tx.QueryRowContext(ctx, countQuery, ticketID).Scan(&open); err != nil {
		return fmt.Errorf("failed to check open pauses: %w", err)
	}
	if open > 0 {
		return ErrPauseAlreadyOpen
	}

	insert := database.ConvertPlaceholders(r.driver, `
		INSERT INTO ticket_pause (ticket_id, paused_at, resumed_at, expected_return_at)
		VALUES (?, ?, NULL, ?)
	`)
	if _, err := tx.ExecContext(ctx, insert, ticketID, pausedAt, expectedReturnAt); err != nil {
		return fmt.Errorf("failed to insert pause: %w", err)
	}
	return tx.Commit()
}

// ClosePause closes the open pause of a ticket returning to active work.
func (r *PauseRepository) ClosePause(ctx context.Context, ticketID int, resumedAt time.Time) error {
	update := database.ConvertPlaceholders(r.driver, `
		UPDATE ticket_pause
		SET resumed_at = ?
		WHERE ticket_id = ? AND resumed_at IS NULL
	`)
	res, err := r.db.ExecContext(ctx, update, resumedAt, ticketID)
	if err != nil {
		return fmt.Errorf("failed to close pause: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read pause update result: %w", err)
	}
	if affected == 0 {
		return ErrNoOpenPause
	}
	return nil
}
