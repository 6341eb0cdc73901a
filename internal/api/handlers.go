// Package api exposes the SLA accounting engine over HTTP.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resolva-io/resolva-ce/internal/models"
	"github.com/resolva-io/resolva-ce/internal/repository"
	"github.com/resolva-io/resolva-ce/internal/services/sla"
	"github.com/resolva-io/resolva-ce/internal/version"
)

// TicketSource loads tickets for the SLA endpoints.
type TicketSource interface {
	GetTicket(ctx context.Context, id int) (*models.Ticket, error)
}

// RuleSource loads the active SLA rules.
type RuleSource interface {
	ActiveRules(ctx context.Context) ([]models.SlaRule, error)
}

// PauseSource loads the pause ledger for a ticket.
type PauseSource interface {
	RecordsForTicket(ctx context.Context, ticketID int) ([]models.PauseRecord, error)
}

// Handler wires the SLA engine to the HTTP routes.
type Handler struct {
	tickets  TicketSource
	rules    RuleSource
	pauses   PauseSource
	engine   *sla.Engine
	calendar *sla.BusinessCalendar
	logger   *log.Logger
}

// NewHandler builds a Handler around the given sources.
func NewHandler(tickets TicketSource, rules RuleSource, pauses PauseSource, engine *sla.Engine, calendar *sla.BusinessCalendar, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		tickets:  tickets,
		rules:    rules,
		pauses:   pauses,
		engine:   engine,
		calendar: calendar,
		logger:   logger,
	}
}

func sendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   message,
	})
}

// handleGetTicket returns a ticket with its SLA snapshot fields merged in.
func (h *Handler) handleGetTicket(c *gin.Context) {
	ticket, snapshot, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":                   ticket.ID,
			"created_at":           ticket.CreatedAt,
			"resolved_at":          ticket.ResolvedAt,
			"status":               ticket.Status,
			"department_id":        ticket.DepartmentID,
			"category":             ticket.Category,
			"priority":             ticket.Priority,
			"sla_status":           snapshot.Status,
			"sla_hours_total":      snapshot.HoursTotal,
			"sla_hours_elapsed":    snapshot.HoursElapsed,
			"sla_hours_remaining":  snapshot.HoursRemaining,
			"sla_progress_percent": snapshot.ProgressPercent,
			"sla_deadline":         snapshot.Deadline,
			"sla_source":           snapshot.Source,
		},
	})
}

// handleGetTicketSla returns only the SLA snapshot for a ticket.
func (h *Handler) handleGetTicketSla(c *gin.Context) {
	_, snapshot, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    snapshot,
	})
}

// handleListRules returns the active SLA rules ordered by id.
func (h *Handler) handleListRules(c *gin.Context) {
	rules, err := h.rules.ActiveRules(c.Request.Context())
	if err != nil {
		h.logger.Printf("list rules failed: %v", err)
		sendError(c, http.StatusInternalServerError, "Failed to fetch SLA rules")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rules,
	})
}

func (h *Handler) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.GetInfo(),
	})
}

// loadSnapshot fetches the ticket, rules and pauses and computes the
// snapshot at a single instant so both ticket endpoints agree.
func (h *Handler) loadSnapshot(c *gin.Context) (*models.Ticket, models.SlaSnapshot, bool) {
	var zero models.SlaSnapshot

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid ticket id")
		return nil, zero, false
	}

	ctx := c.Request.Context()
	ticket, err := h.tickets.GetTicket(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			sendError(c, http.StatusNotFound, "Ticket not found")
			return nil, zero, false
		}
		h.logger.Printf("get ticket %d failed: %v", id, err)
		sendError(c, http.StatusInternalServerError, "Failed to fetch ticket")
		return nil, zero, false
	}

	rules, err := h.rules.ActiveRules(ctx)
	if err != nil {
		h.logger.Printf("load rules for ticket %d failed: %v", id, err)
		sendError(c, http.StatusInternalServerError, "Failed to fetch SLA rules")
		return nil, zero, false
	}

	pauses, err := h.pauses.RecordsForTicket(ctx, id)
	if err != nil {
		h.logger.Printf("load pauses for ticket %d failed: %v", id, err)
		sendError(c, http.StatusInternalServerError, "Failed to fetch pause records")
		return nil, zero, false
	}

	now := time.Now()
	snapshot := h.engine.ComputeWithCalendar(ticket, rules, pauses, now, h.calendar)
	return ticket, snapshot, true
}
