package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/resolva-io/resolva-ce/internal/cache"
	"github.com/resolva-io/resolva-ce/internal/config"
	"github.com/resolva-io/resolva-ce/internal/database"
	"github.com/resolva-io/resolva-ce/internal/repository"
	"github.com/resolva-io/resolva-ce/internal/services/sla"
	"github.com/resolva-io/resolva-ce/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "resolva",
	Short: "Resolva CLI - help desk SLA accounting tools",
	Long: `Resolva Command Line Interface

Utilities for inspecting SLA rules and previewing ticket snapshots
against the configured business calendar.`,
	Version: version.Full(),
}

var slaCmd = &cobra.Command{
	Use:   "sla",
	Short: "SLA accounting commands",
}

var (
	previewTicketFlag int
	previewAtFlag     string
)

var slaPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Compute the SLA snapshot for a ticket",
	Long: `Preview loads a ticket, its pause ledger and the active rules, then
prints the computed snapshot as JSON. Use --at to evaluate at a
point in time other than now (RFC 3339).`,
	RunE: runSlaPreview,
}

var slaRulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active SLA rules",
	RunE:  runSlaRules,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Rule cache commands",
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop the cached SLA rule set",
	RunE:  runCacheInvalidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Resolva CLI %s\n", version.Full())
	},
}

func init() {
	slaPreviewCmd.Flags().IntVar(&previewTicketFlag, "ticket", 0, "Ticket id to preview (required)")
	slaPreviewCmd.Flags().StringVar(&previewAtFlag, "at", "", "Evaluate at this RFC 3339 instant instead of now")
	slaPreviewCmd.MarkFlagRequired("ticket")

	slaCmd.AddCommand(slaPreviewCmd)
	slaCmd.AddCommand(slaRulesCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)

	rootCmd.AddCommand(slaCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	if err := config.Load(configPath); err != nil {
		return nil, err
	}
	return config.Get(), nil
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	return database.Open(database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
}

func runSlaPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	at := time.Now()
	if previewAtFlag != "" {
		at, err = time.Parse(time.RFC3339, previewAtFlag)
		if err != nil {
			return fmt.Errorf("invalid --at value: %w", err)
		}
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	ticketRepo := repository.NewTicketRepository(db, cfg.Database.Driver)
	ruleRepo := repository.NewSlaRuleRepository(db, cfg.Database.Driver)
	pauseRepo := repository.NewPauseRepository(db, cfg.Database.Driver)

	ticket, err := ticketRepo.GetTicket(ctx, previewTicketFlag)
	if err != nil {
		return err
	}
	rules, err := ruleRepo.ActiveRules(ctx)
	if err != nil {
		return err
	}
	pauses, err := pauseRepo.RecordsForTicket(ctx, ticket.ID)
	if err != nil {
		return err
	}

	businessHours, err := cfg.BusinessHoursModel()
	if err != nil {
		return err
	}

	engine := sla.NewEngine(log.New(os.Stderr, "", 0))
	engine.SetDefaultResolutionHours(cfg.Sla.DefaultResolutionHours)
	engine.SetAtRiskPercent(cfg.Sla.AtRiskPercent)

	snapshot, err := engine.ComputeSnapshot(ticket, rules, pauses, at, businessHours)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runSlaRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ruleRepo := repository.NewSlaRuleRepository(db, cfg.Database.Driver)
	rules, err := ruleRepo.ActiveRules(context.Background())
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Redis.Enabled {
		return fmt.Errorf("redis is disabled, nothing to invalidate")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	ruleCache := cache.NewRuleCache(client, nil, cfg.Redis.RuleTTL)
	if err := ruleCache.Invalidate(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Rule cache invalidated")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
