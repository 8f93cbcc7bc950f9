package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/newthinker/pairwise/internal/collector"
	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/export"
	"github.com/newthinker/pairwise/internal/logger"
	"github.com/newthinker/pairwise/internal/pipeline"
	"github.com/newthinker/pairwise/internal/storage/archive"
)

var (
	runSymbolA     string
	runSymbolB     string
	runRange       string
	runEntry       float64
	runExit        float64
	runZWindow     int
	runEstWindow   int
	runClipAbs     float64
	runCapital     float64
	runAllocation  float64
	runRequireCoin bool
	runOutJSON     string
	runCSVDir      string
	runArchive     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one backtest for a pair",
	Long:  "Fetch both price histories, run the full pipeline and print a performance summary",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSymbolA, "symbol-a", "", "First instrument (required)")
	runCmd.Flags().StringVar(&runSymbolB, "symbol-b", "", "Second instrument (required)")
	runCmd.Flags().StringVar(&runRange, "range", "", "History range, e.g. 1y, 3y, max")
	runCmd.Flags().Float64Var(&runEntry, "entry", 0, "Entry z-score threshold")
	runCmd.Flags().Float64Var(&runExit, "exit", 0, "Exit z-score threshold")
	runCmd.Flags().IntVar(&runZWindow, "zscore-window", 0, "Rolling z-score window in bars")
	runCmd.Flags().IntVar(&runEstWindow, "estimation-window", 0, "Trailing OLS window in bars (0 = full sample)")
	runCmd.Flags().Float64Var(&runClipAbs, "clip-abs", 0, "Clamp |z| above this to 0 (0 = off)")
	runCmd.Flags().Float64Var(&runCapital, "capital", 0, "Starting capital")
	runCmd.Flags().Float64Var(&runAllocation, "allocation", 0, "Fraction of capital committed per trade")
	runCmd.Flags().BoolVar(&runRequireCoin, "require-coint", false, "Abort when the pair fails the cointegration check")
	runCmd.Flags().StringVar(&runOutJSON, "out", "", "Write the full result as JSON to this file")
	runCmd.Flags().StringVar(&runCSVDir, "csv", "", "Write equity/trades/zscores CSVs into this directory")
	runCmd.Flags().BoolVar(&runArchive, "archive", false, "Persist the run to the configured archive")

	runCmd.MarkFlagRequired("symbol-a")
	runCmd.MarkFlagRequired("symbol-b")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pipeCfg := cfg.Pipeline
	if cmd.Flags().Changed("entry") {
		pipeCfg.EntryThreshold = runEntry
	}
	if cmd.Flags().Changed("exit") {
		pipeCfg.ExitThreshold = runExit
	}
	if cmd.Flags().Changed("zscore-window") {
		pipeCfg.ZScoreWindow = runZWindow
	}
	if cmd.Flags().Changed("estimation-window") {
		pipeCfg.EstimationWindow = runEstWindow
	}
	if cmd.Flags().Changed("clip-abs") && runClipAbs > 0 {
		pipeCfg.ClipAbs = &runClipAbs
	}
	if cmd.Flags().Changed("capital") {
		pipeCfg.StartingCapital = runCapital
	}
	if cmd.Flags().Changed("allocation") {
		pipeCfg.AllocationFraction = runAllocation
	}
	if cmd.Flags().Changed("require-coint") {
		pipeCfg.RequireCointegration = runRequireCoin
	}
	if err := pipeCfg.Validate(); err != nil {
		return err
	}

	rng := collector.Range(cfg.Source.Range)
	if runRange != "" {
		rng = collector.Range(runRange)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pair := core.Pair{SymbolA: runSymbolA, SymbolB: runSymbolB}

	rawA, err := provider.FetchDailyCloses(ctx, pair.SymbolA, rng)
	if err != nil {
		return err
	}
	rawB, err := provider.FetchDailyCloses(ctx, pair.SymbolB, rng)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, log)
	result, err := runner.Run(pair, rawA, rawB, pipeCfg)
	if err != nil {
		return err
	}

	printSummary(result)

	if runOutJSON != "" {
		data, err := export.ResultJSON(result)
		if err != nil {
			return err
		}
		if err := os.WriteFile(runOutJSON, data, 0644); err != nil {
			return fmt.Errorf("writing result JSON: %w", err)
		}
	}

	if runCSVDir != "" {
		if err := writeCSVs(runCSVDir, result); err != nil {
			return err
		}
	}

	if runArchive {
		store, err := newArchive(cfg)
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("archive requested but disabled in config")
		}
		runID := uuid.NewString()
		if err := archive.SaveRun(ctx, store, runID, result); err != nil {
			return err
		}
		fmt.Printf("\nArchived as run %s\n", runID)
	}

	return nil
}

func writeCSVs(dir string, result *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating csv directory: %w", err)
	}

	write := func(name string, fn func(f *os.File) error) error {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		defer f.Close()
		return fn(f)
	}

	if err := write("equity.csv", func(f *os.File) error {
		return export.WriteEquityCSV(f, result.Equity)
	}); err != nil {
		return err
	}
	if err := write("trades.csv", func(f *os.File) error {
		return export.WriteTradesCSV(f, result.Trades)
	}); err != nil {
		return err
	}
	return write("zscores.csv", func(f *os.File) error {
		return export.WriteZScoresCSV(f, result.ZScores)
	})
}

func printSummary(result *pipeline.Result) {
	fmt.Println("=== PAIRWISE Backtest ===")
	fmt.Printf("Pair:          %s\n", result.Pair)
	fmt.Printf("Bars:          %d\n", result.Bars)
	fmt.Printf("Hedge ratio:   %.4f (alpha %.4f, residual std %.4f)\n",
		result.Hedge.Beta, result.Hedge.Alpha, result.Hedge.ResidualStd)
	fmt.Printf("Cointegration: stat %.3f, p %.4f, cointegrated=%v (heuristic)\n",
		result.Coint.Statistic, result.Coint.PValue, result.Coint.IsCointegrated)
	fmt.Println()
	fmt.Printf("Trades:        %d (%d closed, %d forced)\n",
		result.Stats.TotalTrades, result.Stats.ClosedTrades, result.Stats.ForcedCloses)
	fmt.Printf("Win rate:      %.1f%%\n", result.Stats.WinRate*100)
	fmt.Printf("Total return:  %.2f%%\n", result.Stats.TotalReturn*100)
	fmt.Printf("Sharpe ratio:  %.2f\n", result.Stats.SharpeRatio)
	fmt.Printf("Max drawdown:  %.2f%%\n", result.Stats.MaxDrawdown*100)
}
