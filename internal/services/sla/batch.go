package sla

import (
	"runtime"
	"sync"
	"time"

	"github.com/resolva-io/resolva-ce/internal/models"
)

// BatchItem pairs a ticket with its pause records for batch computation.
type BatchItem struct {
	Ticket *models.Ticket
	Pauses []models.PauseRecord
}

// ComputeBatch computes snapshots for many tickets against one rule set
// and one calendar. No ticket's computation depends on another's, so the
// work is spread over a bounded worker pool. The caller's now is captured
// once for the whole batch, keeping results mutually consistent.
//
// workers <= 0 selects GOMAXPROCS. Results align with items by index.
func (e *Engine) ComputeBatch(items []BatchItem, rules []models.SlaRule, now time.Time, calendar *BusinessCalendar, workers int) []models.SlaSnapshot {
	if len(items) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]models.SlaSnapshot, len(items))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				item := items[i]
				results[i] = e.ComputeWithCalendar(item.Ticket, rules, item.Pauses, now, calendar)
			}
		}()
	}
	for i := range items {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}
