package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/resolva-io/resolva-ce/internal/api"
	"github.com/resolva-io/resolva-ce/internal/cache"
	"github.com/resolva-io/resolva-ce/internal/repository"
	"github.com/resolva-io/resolva-ce/internal/services/sla"
	"github.com/resolva-io/resolva-ce/internal/services/slamonitor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SLA accounting HTTP service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.New(os.Stdout, "[resolva] ", log.LstdFlags)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	businessHours, err := cfg.BusinessHoursModel()
	if err != nil {
		return err
	}
	calendar, err := sla.NewBusinessCalendar(businessHours)
	if err != nil {
		return err
	}

	engine := sla.NewEngine(logger)
	engine.SetDefaultResolutionHours(cfg.Sla.DefaultResolutionHours)
	engine.SetAtRiskPercent(cfg.Sla.AtRiskPercent)

	ticketRepo := repository.NewTicketRepository(db, cfg.Database.Driver)
	ruleRepo := repository.NewSlaRuleRepository(db, cfg.Database.Driver)
	pauseRepo := repository.NewPauseRepository(db, cfg.Database.Driver)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Printf("Redis unavailable, rule caching disabled: %v", err)
			redisClient = nil
		}
		cancel()
	}
	ruleCache := cache.NewRuleCache(redisClient, ruleRepo, cfg.Redis.RuleTTL)

	handler := api.NewHandler(ticketRepo, ruleCache, pauseRepo, engine, calendar, logger)
	router := api.NewRouter(handler, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Monitor.Enabled {
		monitor := slamonitor.NewMonitor(ticketRepo, ruleCache, pauseRepo, engine, calendar, cfg.Monitor.Schedule, cfg.Monitor.Workers, logger)
		go func() {
			if err := monitor.Run(ctx); err != nil {
				logger.Printf("SLA monitor stopped: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Forced shutdown: %v", err)
	}
	logger.Println("Server stopped")
	return nil
}
