package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/resolva-io/resolva-ce/internal/middleware"
)

// NewRouter assembles the gin engine with the shared middleware and the
// SLA routes.
func NewRouter(h *Handler, logger *log.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())

	router.GET("/healthz", h.handleHealthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/tickets/:id", h.handleGetTicket)
		v1.GET("/tickets/:id/sla", h.handleGetTicketSla)
		v1.GET("/sla/rules", h.handleListRules)
	}

	return router
}
