// Package slamonitor periodically sweeps the open tickets and exports
// their SLA standing as Prometheus metrics.
package slamonitor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"

	"github.com/resolva-io/resolva-ce/internal/models"
	"github.com/resolva-io/resolva-ce/internal/services/sla"
)

var (
	ticketsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resolva_sla_tickets",
			Help: "Open tickets by SLA status as of the last sweep",
		},
		[]string{"status"},
	)
	sweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resolva_sla_sweeps_total",
			Help: "Total SLA monitor sweeps completed",
		},
	)
	sweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resolva_sla_sweep_errors_total",
			Help: "Total SLA monitor sweeps aborted by an error",
		},
	)
	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resolva_sla_sweep_duration_seconds",
			Help:    "Time spent per SLA monitor sweep",
			Buckets: prometheus.DefBuckets,
		},
	)
)

type ticketLister interface {
	ListOpenTickets(ctx context.Context) ([]models.Ticket, error)
}

type ruleSource interface {
	ActiveRules(ctx context.Context) ([]models.SlaRule, error)
}

type pauseSource interface {
	RecordsForTicket(ctx context.Context, ticketID int) ([]models.PauseRecord, error)
}

// Monitor runs the periodic SLA sweep.
type Monitor struct {
	tickets  ticketLister
	rules    ruleSource
	pauses   pauseSource
	engine   *sla.Engine
	calendar *sla.BusinessCalendar
	schedule string
	workers  int
	cron     *cron.Cron
	logger   *log.Logger

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewMonitor wires a Monitor over the given sources. The schedule uses the
// standard five-field cron syntax.
func NewMonitor(tickets ticketLister, rules ruleSource, pauses pauseSource, engine *sla.Engine, calendar *sla.BusinessCalendar, schedule string, workers int, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.Default()
	}
	if schedule == "" {
		schedule = "*/5 * * * *"
	}
	return &Monitor{
		tickets:  tickets,
		rules:    rules,
		pauses:   pauses,
		engine:   engine,
		calendar: calendar,
		schedule: schedule,
		workers:  workers,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Run sweeps once immediately, then on the configured schedule until the
// context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	var schedErr error
	m.startOnce.Do(func() {
		if _, err := m.cron.AddFunc(m.schedule, func() {
			m.Sweep(ctx)
		}); err != nil {
			schedErr = err
			return
		}
		m.cron.Start()
		go m.Sweep(ctx)
	})
	if schedErr != nil {
		return schedErr
	}

	<-ctx.Done()
	m.stop()
	return nil
}

func (m *Monitor) stop() {
	m.stopOnce.Do(func() {
		stopCtx := m.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			m.logger.Printf("slamonitor: timed out waiting for sweep to finish")
		}
	})
}

// Sweep recomputes every open ticket's snapshot and refreshes the gauges.
func (m *Monitor) Sweep(ctx context.Context) {
	start := time.Now()

	tickets, err := m.tickets.ListOpenTickets(ctx)
	if err != nil {
		m.logger.Printf("slamonitor: list open tickets failed: %v", err)
		sweepErrors.Inc()
		return
	}
	rules, err := m.rules.ActiveRules(ctx)
	if err != nil {
		m.logger.Printf("slamonitor: load rules failed: %v", err)
		sweepErrors.Inc()
		return
	}

	items := make([]sla.BatchItem, 0, len(tickets))
	for i := range tickets {
		ticket := &tickets[i]
		pauses, err := m.pauses.RecordsForTicket(ctx, ticket.ID)
		if err != nil {
			m.logger.Printf("slamonitor: load pauses for ticket %d failed: %v", ticket.ID, err)
			sweepErrors.Inc()
			return
		}
		items = append(items, sla.BatchItem{Ticket: ticket, Pauses: pauses})
	}

	snapshots := m.engine.ComputeBatch(items, rules, time.Now(), m.calendar, m.workers)

	counts := map[models.SlaStatus]int{
		models.SlaStatusMet:      0,
		models.SlaStatusAtRisk:   0,
		models.SlaStatusViolated: 0,
	}
	for _, snapshot := range snapshots {
		counts[snapshot.Status]++
	}
	for status, count := range counts {
		ticketsByStatus.WithLabelValues(string(status)).Set(float64(count))
	}

	sweepsTotal.Inc()
	sweepDuration.Observe(time.Since(start).Seconds())
	m.logger.Printf("slamonitor: sweep done tickets=%d met=%d at_risk=%d violated=%d elapsed=%s",
		len(snapshots), counts[models.SlaStatusMet], counts[models.SlaStatusAtRisk], counts[models.SlaStatusViolated], time.Since(start))
}
