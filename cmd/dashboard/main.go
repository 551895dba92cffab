// @title Energy Dashboard API
// @version 1.0
// @description Upload energy model outputs and prepare dense, aggregated chart grids.
// @host localhost:8080
// @BasePath /api/v1
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-energy-dashboard/internal/api"
	"go-energy-dashboard/internal/api/handler"
	"go-energy-dashboard/internal/config"
	"go-energy-dashboard/internal/logging"
	"go-energy-dashboard/internal/pipeline"
	"go-energy-dashboard/internal/session"
	"go-energy-dashboard/internal/store"
	"go-energy-dashboard/pkg/router"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	addr       string
	dbPath     string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the energy dashboard API",
		Long: `dashboard serves uploads of energy model outputs and prepares
dense, aggregated chart grids, downloads and chart pages from them.`,
		Args: cobra.NoArgs,
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "YAML config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Session catalog path (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Init DB
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open session catalog: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ingest := pipeline.IngestOptions{
		Categorical:          cfg.Ingest.CategoricalColumns,
		DeriveTimeDimensions: cfg.Ingest.DeriveTimeDimensions,
	}
	sessions := session.NewManager(db, logger.Named("session"), cfg.GetSessionTTL(), ingest)
	go sessions.Run(ctx, cfg.GetSweepInterval())

	// Create router
	r := router.New(logger.Named("http"))

	// Register API routes
	api.RegisterRoutes(r, handler.New(sessions, db, logger.Named("api"), cfg.GetMaxUploadBytes()))

	logger.Info("Starting dashboard",
		zap.String("addr", cfg.Server.Addr),
		zap.String("db", cfg.Database.Path),
		zap.Duration("session_ttl", cfg.GetSessionTTL()))

	// Start server
	return r.Serve(ctx, cfg.Server.Addr, router.ServerOptions{
		ReadTimeout:     cfg.GetReadTimeout(),
		WriteTimeout:    cfg.GetWriteTimeout(),
		ShutdownTimeout: cfg.GetShutdownTimeout(),
	})
}
