package main

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/pairwise/internal/collector"
	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/logger"
	"github.com/newthinker/pairwise/internal/pipeline"
)

var (
	sweepSymbolA string
	sweepSymbolB string
	sweepRange   string
	sweepEntries []float64
	sweepExits   []float64
	sweepWorkers int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Grid-search entry/exit thresholds for a pair",
	Long:  "Run the pipeline once per threshold combination and rank the results by Sharpe ratio",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepSymbolA, "symbol-a", "", "First instrument (required)")
	sweepCmd.Flags().StringVar(&sweepSymbolB, "symbol-b", "", "Second instrument (required)")
	sweepCmd.Flags().StringVar(&sweepRange, "range", "", "History range, e.g. 1y, 3y, max")
	sweepCmd.Flags().Float64SliceVar(&sweepEntries, "entries", nil, "Entry thresholds to try")
	sweepCmd.Flags().Float64SliceVar(&sweepExits, "exits", nil, "Exit thresholds to try")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "Parallel runs (default from config)")

	sweepCmd.MarkFlagRequired("symbol-a")
	sweepCmd.MarkFlagRequired("symbol-b")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries := cfg.Sweep.EntryThresholds
	if len(sweepEntries) > 0 {
		entries = sweepEntries
	}
	exits := cfg.Sweep.ExitThresholds
	if len(sweepExits) > 0 {
		exits = sweepExits
	}
	workers := cfg.Sweep.Workers
	if sweepWorkers > 0 {
		workers = sweepWorkers
	}

	rng := collector.Range(cfg.Source.Range)
	if sweepRange != "" {
		rng = collector.Range(sweepRange)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	// Ctrl-C stops the sweep between runs; completed points still print.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetchCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pair := core.Pair{SymbolA: sweepSymbolA, SymbolB: sweepSymbolB}

	rawA, err := provider.FetchDailyCloses(fetchCtx, pair.SymbolA, rng)
	if err != nil {
		return err
	}
	rawB, err := provider.FetchDailyCloses(fetchCtx, pair.SymbolB, rng)
	if err != nil {
		return err
	}

	grid := pipeline.Grid(entries, exits)
	runner := pipeline.NewRunner(nil, log)

	results, sweepErr := runner.Sweep(ctx, pair, rawA, rawB, cfg.Pipeline, grid, workers)

	printLeaderboard(pair, results)

	if sweepErr != nil {
		return fmt.Errorf("sweep interrupted: %w", sweepErr)
	}
	return nil
}

func printLeaderboard(pair core.Pair, results []pipeline.SweepResult) {
	completed := make([]pipeline.SweepResult, 0, len(results))
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		if r.Result != nil {
			completed = append(completed, r)
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].Result.Stats.SharpeRatio > completed[j].Result.Stats.SharpeRatio
	})

	fmt.Printf("=== PAIRWISE Sweep: %s ===\n", pair)
	fmt.Printf("%-8s %-8s %8s %8s %10s %8s %8s\n",
		"entry", "exit", "trades", "win%", "return%", "sharpe", "maxdd%")
	for _, r := range completed {
		s := r.Result.Stats
		fmt.Printf("%-8.2f %-8.2f %8d %8.1f %10.2f %8.2f %8.2f\n",
			r.Point.EntryThreshold, r.Point.ExitThreshold,
			s.TotalTrades, s.WinRate*100, s.TotalReturn*100,
			s.SharpeRatio, s.MaxDrawdown*100)
	}
	if failed > 0 {
		fmt.Printf("\n%d grid point(s) failed or were skipped\n", failed)
	}
	if best := pipeline.Best(results); best != nil {
		fmt.Printf("\nBest: entry %.2f / exit %.2f (Sharpe %.2f)\n",
			best.Point.EntryThreshold, best.Point.ExitThreshold,
			best.Result.Stats.SharpeRatio)
	}
}
