package sla

import (
	"time"

	"github.com/resolva-io/resolva-ce/internal/models"
)

// TotalPausedWithin sums the wall-clock time the given pause records spend
// inside [windowStart, windowEnd]. Each record is clipped to the window;
// records fully outside contribute nothing. Open records end at the
// earlier of their expected return and now, so a pause left open past its
// declared return stops accruing (implicit auto-resume).
//
// Records for one ticket must not overlap; the ticket store guarantees
// that, and the ledger does not deduplicate.
func TotalPausedWithin(records []models.PauseRecord, windowStart, windowEnd, now time.Time) time.Duration {
	var total time.Duration
	for i := range records {
		from, to, ok := clipPause(&records[i], windowStart, windowEnd, now)
		if !ok {
			continue
		}
		total += to.Sub(from)
	}
	return total
}

// BusinessPausedHours sums the business-hours portion of the pause records
// inside [windowStart, windowEnd]. Pause time outside the working window
// contributes nothing: non-business time never counted as elapsed, so
// there is nothing to subtract for it.
func BusinessPausedHours(calendar *BusinessCalendar, records []models.PauseRecord, windowStart, windowEnd, now time.Time) float64 {
	var total float64
	for i := range records {
		from, to, ok := clipPause(&records[i], windowStart, windowEnd, now)
		if !ok {
			continue
		}
		total += calendar.EffectiveHoursBetween(from, to)
	}
	return total
}

// clipPause restricts a pause record to the window, returning ok=false
// when the intersection is empty.
func clipPause(rec *models.PauseRecord, windowStart, windowEnd, now time.Time) (time.Time, time.Time, bool) {
	from := rec.PausedAt
	to := rec.EndAt(now)
	if from.Before(windowStart) {
		from = windowStart
	}
	if to.After(windowEnd) {
		to = windowEnd
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
