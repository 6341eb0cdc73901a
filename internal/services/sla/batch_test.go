package sla

import (
	"testing"
	"time"

	"github.com/resolva-io/resolva-ce/internal/models"
)

func TestComputeBatch(t *testing.T) {
	e := NewEngine(nil)
	c := mustCalendar(t, utcConfig())
	now := time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)

	items := make([]BatchItem, 50)
	for i := range items {
		items[i] = BatchItem{
			Ticket: &models.Ticket{
				ID:        i + 1,
				CreatedAt: time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
				Status:    models.TicketStatusOpen,
			},
		}
	}

	got := e.ComputeBatch(items, nil, now, c, 8)
	if len(got) != len(items) {
		t.Fatalf("got %d results, want %d", len(got), len(items))
	}

	// Results must align with the input order and match the serial path.
	for i, item := range items {
		want := e.ComputeWithCalendar(item.Ticket, nil, item.Pauses, now, c)
		if got[i] != want {
			t.Fatalf("result %d differs from serial computation:\n got = %+v\nwant = %+v", i, got[i], want)
		}
	}
}

func TestComputeBatchEmpty(t *testing.T) {
	e := NewEngine(nil)
	c := mustCalendar(t, utcConfig())
	if got := e.ComputeBatch(nil, nil, time.Now(), c, 0); got != nil {
		t.Errorf("ComputeBatch(nil) = %v, want nil", got)
	}
}

func TestComputeBatchDefaultWorkerCount(t *testing.T) {
	e := NewEngine(nil)
	c := mustCalendar(t, utcConfig())
	items := []BatchItem{
		{Ticket: &models.Ticket{ID: 1, CreatedAt: time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC), Status: models.TicketStatusOpen}},
	}
	got := e.ComputeBatch(items, nil, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), c, 0)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
}
