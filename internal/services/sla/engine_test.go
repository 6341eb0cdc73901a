package sla

import (
	"math"
	"testing"
	"time"

	"github.com/resolva-io/resolva-ce/internal/models"
)

func computeAt(t *testing.T, e *Engine, ticket *models.Ticket, rules []models.SlaRule, pauses []models.PauseRecord, now time.Time) models.SlaSnapshot {
	t.Helper()
	snap, err := e.ComputeSnapshot(ticket, rules, pauses, now, utcConfig())
	if err != nil {
		t.Fatalf("ComputeSnapshot: %v", err)
	}
	return snap
}

func TestComputeSnapshotDefaultsWhenNoRuleMatches(t *testing.T) {
	e := NewEngine(nil)
	ticket := &models.Ticket{
		ID:           1,
		CreatedAt:    time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), // Monday
		Status:       models.TicketStatusOpen,
		DepartmentID: 99,
		Category:     "unmapped",
		Priority:     "critical",
	}
	rules := []models.SlaRule{
		{ID: 1, Name: "other department", DepartmentID: intPtr(1), ResolutionHours: 8, IsActive: true},
	}

	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	snap := computeAt(t, e, ticket, rules, nil, now)

	if snap.HoursTotal != 4 {
		t.Errorf("HoursTotal = %v, want 4", snap.HoursTotal)
	}
	if snap.Source != DefaultSource {
		t.Errorf("Source = %q, want %q", snap.Source, DefaultSource)
	}
	if math.Abs(snap.HoursElapsed-1) > 1e-9 {
		t.Errorf("HoursElapsed = %v, want 1", snap.HoursElapsed)
	}
	if math.Abs(snap.ProgressPercent-25) > 1e-9 {
		t.Errorf("ProgressPercent = %v, want 25", snap.ProgressPercent)
	}
	if snap.Status != models.SlaStatusMet {
		t.Errorf("Status = %q, want met", snap.Status)
	}
	// Monday 09:00 + 4 business hours.
	wantDeadline := time.Date(2025, 1, 6, 13, 0, 0, 0, time.UTC)
	if !snap.Deadline.Equal(wantDeadline) {
		t.Errorf("Deadline = %v, want %v", snap.Deadline, wantDeadline)
	}
}

func TestComputeSnapshotMatchedRuleProvenance(t *testing.T) {
	e := NewEngine(nil)
	ticket := sampleTicket()
	ticket.CreatedAt = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	rules := []models.SlaRule{
		{ID: 5, Name: "hardware 8h", Category: strPtr("hardware"), ResolutionHours: 8, IsActive: true},
	}

	snap := computeAt(t, e, ticket, rules, nil, time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC))
	if snap.HoursTotal != 8 {
		t.Errorf("HoursTotal = %v, want 8", snap.HoursTotal)
	}
	if snap.Source != "hardware 8h" {
		t.Errorf("Source = %q, want the rule name", snap.Source)
	}
}

func TestComputeSnapshotStatusThresholds(t *testing.T) {
	e := NewEngine(nil)
	created := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC) // Monday 08:00

	tests := []struct {
		name string
		now  time.Time
		want models.SlaStatus
	}{
		{"well inside", created.Add(time.Hour), models.SlaStatusMet},
		{"just under the at-risk line", created.Add(3*time.Hour + 35*time.Minute), models.SlaStatusMet},
		{"at 90 percent", created.Add(time.Duration(3.6 * float64(time.Hour))), models.SlaStatusAtRisk},
		{"just before the deadline", created.Add(3*time.Hour + 59*time.Minute), models.SlaStatusAtRisk},
		{"at 100 percent", created.Add(4 * time.Hour), models.SlaStatusViolated},
		{"long overdue", created.Add(9 * time.Hour), models.SlaStatusViolated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &models.Ticket{ID: 1, CreatedAt: created, Status: models.TicketStatusOpen}
			snap := computeAt(t, e, ticket, nil, nil, tt.now)
			if snap.Status != tt.want {
				t.Errorf("Status at %v = %q, want %q (progress %v)", tt.now, snap.Status, tt.want, snap.ProgressPercent)
			}
		})
	}
}

func TestComputeSnapshotProgressCappedAt100(t *testing.T) {
	e := NewEngine(nil)
	ticket := &models.Ticket{
		ID:        1,
		CreatedAt: time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC),
		Status:    models.TicketStatusOpen,
	}
	snap := computeAt(t, e, ticket, nil, nil, time.Date(2025, 1, 8, 8, 0, 0, 0, time.UTC))
	if snap.ProgressPercent != 100 {
		t.Errorf("ProgressPercent = %v, want capped 100", snap.ProgressPercent)
	}
	if snap.HoursRemaining != 0 {
		t.Errorf("HoursRemaining = %v, want 0", snap.HoursRemaining)
	}
}

// Declared pause of 24 wall-clock hours, queried past its expected return:
// only the business-hours overlap of the pause is discounted, leaving the
// unpaused business time as elapsed.
func TestComputeSnapshotPauseDiscountsBusinessHoursOnly(t *testing.T) {
	e := NewEngine(nil)
	created := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC) // Monday 09:00
	ticket := &models.Ticket{ID: 1, CreatedAt: created, Status: models.TicketStatusInProgress}

	pauses := []models.PauseRecord{
		{
			TicketID:         1,
			PausedAt:         time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),      // Monday 10:00
			ExpectedReturnAt: ptr(time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)), // Tuesday 10:00
		},
	}
	now := time.Date(2025, 1, 7, 11, 0, 0, 0, time.UTC) // Tuesday 11:00

	snap := computeAt(t, e, ticket, nil, pauses, now)

	// Business elapsed Monday 09:00-Tuesday 11:00 is 12h; the pause covers
	// Monday 10:00-18:00 and Tuesday 08:00-10:00 of it, leaving 2h unpaused.
	if math.Abs(snap.HoursElapsed-2) > 1e-9 {
		t.Errorf("HoursElapsed = %v, want 2", snap.HoursElapsed)
	}
	if math.Abs(snap.ProgressPercent-50) > 1e-9 {
		t.Errorf("ProgressPercent = %v, want 50", snap.ProgressPercent)
	}
	if snap.Status != models.SlaStatusMet {
		t.Errorf("Status = %q, want met", snap.Status)
	}
}

func TestComputeSnapshotPauseMonotonicity(t *testing.T) {
	e := NewEngine(nil)
	created := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)
	ticket := &models.Ticket{ID: 1, CreatedAt: created, Status: models.TicketStatusOpen}

	base := computeAt(t, e, ticket, nil, nil, now)

	pause := models.PauseRecord{
		TicketID:  1,
		PausedAt:  time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		ResumedAt: ptr(time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC)),
	}
	paused := computeAt(t, e, ticket, nil, []models.PauseRecord{pause}, now)

	if paused.ProgressPercent > base.ProgressPercent {
		t.Errorf("pause increased progress: %v > %v", paused.ProgressPercent, base.ProgressPercent)
	}
	// The drop equals the business-hours portion of the pause (1.5h of 4h = 37.5 points).
	if math.Abs((base.ProgressPercent-paused.ProgressPercent)-37.5) > 1e-9 {
		t.Errorf("progress drop = %v, want 37.5", base.ProgressPercent-paused.ProgressPercent)
	}
}

// The deadline is a calendar projection from creation and ignores pauses.
func TestComputeSnapshotDeadlineUnaffectedByPauses(t *testing.T) {
	e := NewEngine(nil)
	created := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)
	ticket := &models.Ticket{ID: 1, CreatedAt: created, Status: models.TicketStatusOpen}

	pause := models.PauseRecord{
		TicketID:  1,
		PausedAt:  created.Add(time.Hour),
		ResumedAt: ptr(created.Add(2 * time.Hour)),
	}

	plain := computeAt(t, e, ticket, nil, nil, now)
	withPause := computeAt(t, e, ticket, nil, []models.PauseRecord{pause}, now)
	if !plain.Deadline.Equal(withPause.Deadline) {
		t.Errorf("deadline moved with pause: %v vs %v", plain.Deadline, withPause.Deadline)
	}
}

func TestComputeSnapshotTerminalFreeze(t *testing.T) {
	e := NewEngine(nil)
	created := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	resolved := time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC)
	ticket := &models.Ticket{
		ID:         1,
		CreatedAt:  created,
		ResolvedAt: &resolved,
		Status:     models.TicketStatusResolved,
	}

	first := computeAt(t, e, ticket, nil, nil, time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC))
	second := computeAt(t, e, ticket, nil, nil, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	if first != second {
		t.Errorf("resolved snapshot changed with now:\n first = %+v\nsecond = %+v", first, second)
	}
	if first.Status != models.SlaStatusMet {
		t.Errorf("Status = %q, want met (3h of 4h used at resolution)", first.Status)
	}
}

func TestComputeSnapshotTerminalViolation(t *testing.T) {
	e := NewEngine(nil)
	created := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	resolved := time.Date(2025, 1, 6, 17, 0, 0, 0, time.UTC) // 9 business hours later
	ticket := &models.Ticket{
		ID:         1,
		CreatedAt:  created,
		ResolvedAt: &resolved,
		Status:     models.TicketStatusClosed,
	}

	snap := computeAt(t, e, ticket, nil, nil, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if snap.Status != models.SlaStatusViolated {
		t.Errorf("Status = %q, want violated", snap.Status)
	}
	if snap.ProgressPercent != 100 {
		t.Errorf("ProgressPercent = %v, want capped 100", snap.ProgressPercent)
	}
}

// A resolved ticket with an open pause must still freeze: the pause clips
// at resolution, not at the query instant.
func TestComputeSnapshotTerminalFreezeWithOpenPause(t *testing.T) {
	e := NewEngine(nil)
	created := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	resolved := time.Date(2025, 1, 6, 16, 0, 0, 0, time.UTC)
	ticket := &models.Ticket{
		ID:         1,
		CreatedAt:  created,
		ResolvedAt: &resolved,
		Status:     models.TicketStatusResolved,
	}
	pauses := []models.PauseRecord{
		{
			TicketID:         1,
			PausedAt:         time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
			ExpectedReturnAt: ptr(time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)),
		},
	}

	first := computeAt(t, e, ticket, nil, pauses, time.Date(2025, 1, 6, 17, 0, 0, 0, time.UTC))
	second := computeAt(t, e, ticket, nil, pauses, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	if first != second {
		t.Errorf("resolved snapshot with open pause changed with now:\n first = %+v\nsecond = %+v", first, second)
	}
	// Paused 09:00-16:00, so only 08:00-09:00 counted.
	if math.Abs(first.HoursElapsed-1) > 1e-9 {
		t.Errorf("HoursElapsed = %v, want 1", first.HoursElapsed)
	}
}

func TestComputeSnapshotBestEffortOnMalformedInput(t *testing.T) {
	e := NewEngine(nil)

	// resolvedAt before createdAt: clamp to zero progress, never crash.
	created := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	resolved := created.Add(-2 * time.Hour)
	ticket := &models.Ticket{
		ID:         1,
		CreatedAt:  created,
		ResolvedAt: &resolved,
		Status:     models.TicketStatusResolved,
	}
	snap := computeAt(t, e, ticket, nil, nil, created.Add(time.Hour))
	if snap.HoursElapsed != 0 || snap.ProgressPercent != 0 {
		t.Errorf("want zeroed best-effort snapshot, got %+v", snap)
	}

	// Resolved status with a missing resolution instant falls back to now.
	ticket2 := &models.Ticket{
		ID:        2,
		CreatedAt: time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC),
		Status:    models.TicketStatusResolved,
	}
	snap2 := computeAt(t, e, ticket2, nil, nil, time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC))
	if math.Abs(snap2.HoursElapsed-2) > 1e-9 {
		t.Errorf("HoursElapsed = %v, want 2", snap2.HoursElapsed)
	}
}

func TestComputeSnapshotInvalidConfigSurfaces(t *testing.T) {
	e := NewEngine(nil)
	cfg := utcConfig()
	cfg.WorkingDays = nil
	ticket := &models.Ticket{ID: 1, CreatedAt: time.Now(), Status: models.TicketStatusOpen}

	if _, err := e.ComputeSnapshot(ticket, nil, nil, time.Now(), cfg); err == nil {
		t.Fatal("expected ConfigError for empty working days")
	}
}
