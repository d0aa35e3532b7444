package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/api"
	"github.com/quantfolio/quantfolio/internal/api/handlers"
	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/nlu"
	"github.com/quantfolio/quantfolio/internal/scheduler"
	"github.com/quantfolio/quantfolio/pkg/config"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// apiCmd represents the api command.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the REST API server.

Endpoints:
  GET  /health                  - Health check
  POST /api/backtest            - Run a backtest from a structured config
  POST /api/backtest/prompt     - Run a backtest from a natural-language prompt
  GET  /api/data/fields         - Recognized data fields
  GET  /api/data/range/{field}  - Available date range for a field

Example:
  go run ./cmd/quantfolio api
  go run ./cmd/quantfolio api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port":     cfg.Port,
		"env":      cfg.Env,
		"provider": cfg.Data.Provider,
	}).Info("Initializing API server")

	ctx := cmd.Context()

	provider, cleanup, err := buildProvider(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	orchestrator := backtest.NewOrchestrator(provider, log)

	// The prompt endpoint is optional: without an API key it answers 503.
	var parser nlu.Parser
	if cfg.LLM.APIKey != "" {
		service, err := nlu.NewServiceFromConfig(cfg, log)
		if err != nil {
			return fmt.Errorf("configure NLU service: %w", err)
		}
		parser = service
	} else {
		log.Warn("LLM_API_KEY not set, prompt parsing disabled")
	}

	backtestHandler := handlers.NewBacktestHandler(orchestrator, parser, log)
	dataHandler := handlers.NewDataHandler(provider, log)

	router := api.NewRouter(backtestHandler, dataHandler, log)
	server := api.New(cfg, log, router)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(log)
		job := scheduler.NewFreshnessJob(provider, cfg.Scheduler.CronSpec, log)
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("schedule freshness job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
