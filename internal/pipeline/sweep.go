package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/newthinker/pairwise/internal/core"
)

// GridPoint is one entry/exit threshold combination of a sweep.
type GridPoint struct {
	EntryThreshold float64 `json:"entry_threshold"`
	ExitThreshold  float64 `json:"exit_threshold"`
}

// SweepResult pairs a grid point with its run outcome. Invalid
// combinations (exit >= entry) carry a typed error instead of a result.
type SweepResult struct {
	Point  GridPoint `json:"point"`
	Result *Result   `json:"result,omitempty"`
	Err    error     `json:"-"`
}

// Grid expands the cartesian product of entry and exit threshold lists.
func Grid(entries, exits []float64) []GridPoint {
	points := make([]GridPoint, 0, len(entries)*len(exits))
	for _, en := range entries {
		for _, ex := range exits {
			points = append(points, GridPoint{EntryThreshold: en, ExitThreshold: ex})
		}
	}
	return points
}

// Sweep runs the pipeline once per grid point, overriding the thresholds of
// the base configuration. Runs are independent: each one re-aligns from the
// raw inputs and writes only to its own result, so workers share no mutable
// state. Cancellation is cooperative at run granularity: a worker checks
// ctx before picking up the next point, never mid-run. Results come back in
// grid order; if the context is cancelled the slice holds whatever
// completed and ctx.Err() is returned.
func (r *Runner) Sweep(ctx context.Context, pair core.Pair, rawA, rawB []core.DailyClose, base Config, grid []GridPoint, workers int) ([]SweepResult, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(grid) {
		workers = len(grid)
	}

	results := make([]SweepResult, len(grid))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				point := grid[idx]
				cfg := base
				cfg.EntryThreshold = point.EntryThreshold
				cfg.ExitThreshold = point.ExitThreshold
				res, err := r.Run(pair, rawA, rawB, cfg)
				results[idx] = SweepResult{Point: point, Result: res, Err: err}
			}
		}()
	}

	var cancelled bool
feed:
	for i := range grid {
		select {
		case <-ctx.Done():
			cancelled = true
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled {
		r.logger.Warn("sweep cancelled",
			zap.String("pair", pair.String()),
			zap.Int("grid_size", len(grid)),
		)
		return results, ctx.Err()
	}

	r.logger.Info("sweep complete",
		zap.String("pair", pair.String()),
		zap.Int("grid_size", len(grid)),
		zap.Int("workers", workers),
	)
	return results, nil
}

// Best returns the completed sweep result with the highest Sharpe ratio,
// or nil when no run succeeded.
func Best(results []SweepResult) *SweepResult {
	var best *SweepResult
	for i := range results {
		if results[i].Err != nil || results[i].Result == nil {
			continue
		}
		if best == nil || results[i].Result.Stats.SharpeRatio > best.Result.Stats.SharpeRatio {
			best = &results[i]
		}
	}
	return best
}
