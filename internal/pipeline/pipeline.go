// Package pipeline wires the stages together: align prices, estimate the
// hedge ratio, score cointegration, generate z-scores, simulate and
// summarize. Each stage fully consumes its predecessor's output; a stage
// failure aborts the whole run and no partial result ever escapes.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/pairwise/internal/backtest"
	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/hedge"
	"github.com/newthinker/pairwise/internal/series"
	"github.com/newthinker/pairwise/internal/signal"
)

// Config enumerates every knob of a single pipeline run.
type Config struct {
	// MinBars is the minimum aligned series length. Zero selects
	// series.DefaultMinBars.
	MinBars int `json:"min_bars" mapstructure:"min_bars"`
	// EstimationWindow restricts the OLS regression to the trailing window
	// bars. Zero uses the full sample.
	EstimationWindow int `json:"estimation_window" mapstructure:"estimation_window"`
	// ZScoreWindow is the rolling window for spread mean/std.
	ZScoreWindow int `json:"zscore_window" mapstructure:"zscore_window"`

	EntryThreshold     float64 `json:"entry_threshold" mapstructure:"entry_threshold"`
	ExitThreshold      float64 `json:"exit_threshold" mapstructure:"exit_threshold"`
	StartingCapital    float64 `json:"starting_capital" mapstructure:"starting_capital"`
	AllocationFraction float64 `json:"allocation_fraction" mapstructure:"allocation_fraction"`

	// ClipAbs, when set, clamps |z| readings above it to 0. Off by default.
	ClipAbs *float64 `json:"clip_abs,omitempty" mapstructure:"clip_abs"`

	// RequireCointegration aborts the run when the residual test rejects
	// the pair. Off by default: the report is always recorded either way.
	RequireCointegration bool `json:"require_cointegration" mapstructure:"require_cointegration"`
	// CointThreshold is the p-value rejection level. Zero selects
	// hedge.DefaultPValueThreshold.
	CointThreshold float64 `json:"coint_threshold" mapstructure:"coint_threshold"`
}

// Defaults returns the standard run configuration.
func Defaults() Config {
	return Config{
		MinBars:            series.DefaultMinBars,
		ZScoreWindow:       30,
		EntryThreshold:     2.0,
		ExitThreshold:      0.5,
		StartingCapital:    backtest.DefaultStartingCapital,
		AllocationFraction: backtest.DefaultAllocationFraction,
	}
}

// Validate fails fast before any stage runs.
func (c Config) Validate() error {
	if c.ZScoreWindow <= 1 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("zscore_window must be greater than 1, got %d", c.ZScoreWindow))
	}
	if c.EstimationWindow < 0 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("estimation_window must be non-negative, got %d", c.EstimationWindow))
	}
	if c.CointThreshold < 0 || c.CointThreshold >= 1 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("coint_threshold must be in [0, 1), got %g", c.CointThreshold))
	}
	return c.simulatorConfig().Validate()
}

func (c Config) simulatorConfig() backtest.Config {
	return backtest.Config{
		EntryThreshold:     c.EntryThreshold,
		ExitThreshold:      c.ExitThreshold,
		StartingCapital:    c.StartingCapital,
		AllocationFraction: c.AllocationFraction,
	}
}

// Result is the complete output of one run. It is assembled atomically at
// the end of the run and contains everything a caller needs to render or
// export without re-deriving: hedge diagnostics, the full z-score series,
// trade log, equity curve and summary statistics. Identical inputs and
// configuration always produce an identical Result.
type Result struct {
	Pair    core.Pair               `json:"pair"`
	Config  Config                  `json:"config"`
	Bars    int                     `json:"bars"`
	Hedge   hedge.Ratio             `json:"hedge"`
	Coint   hedge.Report            `json:"cointegration"`
	ZScores signal.ZScoreSeries     `json:"zscores"`
	Trades  []backtest.Trade        `json:"trades"`
	Equity  []backtest.EquityPoint  `json:"equity"`
	Stats   backtest.Stats          `json:"stats"`
}

// Runner executes pipeline runs with a pluggable cointegration test.
type Runner struct {
	coint  hedge.CointegrationTest
	logger *zap.Logger
}

// NewRunner creates a runner. A nil test selects the Engle-Granger
// heuristic; the logger is optional.
func NewRunner(coint hedge.CointegrationTest, logger ...*zap.Logger) *Runner {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	if coint == nil {
		coint = hedge.EngleGranger{}
	}
	return &Runner{coint: coint, logger: l}
}

// Run executes one full pipeline pass over the raw price lists of a pair.
// It returns either a complete Result or a typed error identifying the
// failed stage invariant.
func (r *Runner) Run(pair core.Pair, rawA, rawB []core.DailyClose, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	aligned, err := series.Align(rawA, rawB, cfg.MinBars)
	if err != nil {
		return nil, err
	}

	ratio, err := hedge.Estimate(aligned, cfg.EstimationWindow)
	if err != nil {
		return nil, err
	}

	coint := r.coint
	if eg, ok := coint.(hedge.EngleGranger); ok && cfg.CointThreshold > 0 {
		eg.Threshold = cfg.CointThreshold
		coint = eg
	}
	report, err := coint.Test(hedge.Residuals(aligned, ratio))
	if err != nil {
		return nil, err
	}
	if cfg.RequireCointegration && !report.IsCointegrated {
		return nil, core.WrapError(core.ErrNotCointegrated,
			fmt.Errorf("%s scored p=%.4f", pair, report.PValue))
	}

	zscores, err := signal.Generate(aligned, ratio.Beta, signal.Config{
		Window:  cfg.ZScoreWindow,
		ClipAbs: cfg.ClipAbs,
	})
	if err != nil {
		return nil, err
	}

	sim, err := backtest.NewSimulator(cfg.simulatorConfig())
	if err != nil {
		return nil, err
	}
	run, err := sim.Run(aligned, zscores, ratio.Beta)
	if err != nil {
		return nil, err
	}

	stats := backtest.ComputeStats(run.Equity, run.Trades)

	r.logger.Debug("pipeline run complete",
		zap.String("pair", pair.String()),
		zap.Int("bars", aligned.Len()),
		zap.Float64("beta", ratio.Beta),
		zap.Int("trades", stats.TotalTrades),
		zap.Float64("total_return", stats.TotalReturn),
	)

	return &Result{
		Pair:    pair,
		Config:  cfg,
		Bars:    aligned.Len(),
		Hedge:   ratio,
		Coint:   report,
		ZScores: zscores,
		Trades:  run.Trades,
		Equity:  run.Equity,
		Stats:   stats,
	}, nil
}
