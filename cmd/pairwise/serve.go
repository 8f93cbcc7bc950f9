package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/pairwise/internal/api"
	"github.com/newthinker/pairwise/internal/api/handler"
	"github.com/newthinker/pairwise/internal/api/job"
	"github.com/newthinker/pairwise/internal/collector"
	"github.com/newthinker/pairwise/internal/logger"
	"github.com/newthinker/pairwise/internal/metrics"
	"github.com/newthinker/pairwise/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the PAIRWISE API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Info("starting PAIRWISE server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	store, err := newArchive(cfg)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	jobStore := job.NewStore(cfg.Server.MaxJobs, time.Duration(cfg.Server.JobTTLHours)*time.Hour)
	runner := pipeline.NewRunner(nil, log)

	backtests := handler.NewBacktestHandler(
		jobStore,
		provider,
		runner,
		cfg.Pipeline,
		collector.Range(cfg.Source.Range),
		store,
		reg,
		log,
	)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		MetricsPath: metricsPath,
	}, backtests, handler.NewCointHandler(), reg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down PAIRWISE server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
