// internal/api/handler/backtest.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/pairwise/internal/api/job"
	"github.com/newthinker/pairwise/internal/api/response"
	"github.com/newthinker/pairwise/internal/collector"
	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/metrics"
	"github.com/newthinker/pairwise/internal/pipeline"
	"github.com/newthinker/pairwise/internal/storage/archive"
)

const backtestTimeout = 5 * time.Minute

// BacktestRequest is the request body for starting a backtest. Optional
// fields override the server's base pipeline configuration.
type BacktestRequest struct {
	SymbolA string `json:"symbol_a"`
	SymbolB string `json:"symbol_b"`
	Range   string `json:"range,omitempty"`

	EstimationWindow     *int     `json:"estimation_window,omitempty"`
	ZScoreWindow         *int     `json:"zscore_window,omitempty"`
	EntryThreshold       *float64 `json:"entry_threshold,omitempty"`
	ExitThreshold        *float64 `json:"exit_threshold,omitempty"`
	StartingCapital      *float64 `json:"starting_capital,omitempty"`
	AllocationFraction   *float64 `json:"allocation_fraction,omitempty"`
	ClipAbs              *float64 `json:"clip_abs,omitempty"`
	RequireCointegration *bool    `json:"require_cointegration,omitempty"`
}

// apply merges the request overrides onto the base configuration.
func (r BacktestRequest) apply(base pipeline.Config) pipeline.Config {
	if r.EstimationWindow != nil {
		base.EstimationWindow = *r.EstimationWindow
	}
	if r.ZScoreWindow != nil {
		base.ZScoreWindow = *r.ZScoreWindow
	}
	if r.EntryThreshold != nil {
		base.EntryThreshold = *r.EntryThreshold
	}
	if r.ExitThreshold != nil {
		base.ExitThreshold = *r.ExitThreshold
	}
	if r.StartingCapital != nil {
		base.StartingCapital = *r.StartingCapital
	}
	if r.AllocationFraction != nil {
		base.AllocationFraction = *r.AllocationFraction
	}
	if r.ClipAbs != nil {
		base.ClipAbs = r.ClipAbs
	}
	if r.RequireCointegration != nil {
		base.RequireCointegration = *r.RequireCointegration
	}
	return base
}

// BacktestHandler serves async backtest jobs.
type BacktestHandler struct {
	jobStore *job.Store
	provider collector.Provider
	runner   *pipeline.Runner
	baseCfg  pipeline.Config
	rng      collector.Range
	store    archive.Storage // nil disables archiving
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// NewBacktestHandler creates a new backtest handler. store may be nil.
func NewBacktestHandler(
	jobStore *job.Store,
	provider collector.Provider,
	runner *pipeline.Runner,
	baseCfg pipeline.Config,
	rng collector.Range,
	store archive.Storage,
	reg *metrics.Registry,
	logger *zap.Logger,
) *BacktestHandler {
	return &BacktestHandler{
		jobStore: jobStore,
		provider: provider,
		runner:   runner,
		baseCfg:  baseCfg,
		rng:      rng,
		store:    store,
		metrics:  reg,
		logger:   logger,
	}
}

// Create starts a new backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter, err))
		return
	}

	if req.SymbolA == "" || req.SymbolB == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter,
				fmt.Errorf("symbol_a and symbol_b are required")))
		return
	}

	cfg := req.apply(h.baseCfg)
	// Reject bad parameters before accepting the job.
	if err := cfg.Validate(); err != nil {
		response.Error(w, response.StatusForError(err), err)
		return
	}

	rng := h.rng
	if req.Range != "" {
		rng = collector.Range(req.Range)
	}

	j := h.jobStore.Create("backtest")
	jobID := j.ID
	status := j.Status

	pair := core.Pair{SymbolA: req.SymbolA, SymbolB: req.SymbolB}
	go h.runBacktest(jobID, pair, rng, cfg)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

// runBacktest fetches both legs, executes the pipeline and updates the job.
func (h *BacktestHandler) runBacktest(jobID string, pair core.Pair, rng collector.Range, cfg pipeline.Config) {
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})
	h.metrics.SetJobsActive("backtest", h.jobStore.CountActive())

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()

	started := time.Now()
	result, err := h.execute(ctx, pair, rng, cfg)
	duration := time.Since(started).Seconds()

	if err != nil {
		h.metrics.RecordRun("error", duration, 0)
		h.failJob(jobID, err)
		return
	}
	h.metrics.RecordRun("ok", duration, result.Stats.TotalTrades)

	if h.store != nil {
		if err := archive.SaveRun(ctx, h.store, jobID, result); err != nil {
			h.logger.Warn("archiving run failed",
				zap.String("job_id", jobID),
				zap.Error(err),
			)
		} else {
			h.metrics.RecordArchivedRun()
		}
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = result
	})
	h.metrics.SetJobsActive("backtest", h.jobStore.CountActive())
}

func (h *BacktestHandler) execute(ctx context.Context, pair core.Pair, rng collector.Range, cfg pipeline.Config) (*pipeline.Result, error) {
	rawA, err := h.provider.FetchDailyCloses(ctx, pair.SymbolA, rng)
	if err != nil {
		h.metrics.RecordFetch(h.provider.Name(), "error")
		return nil, err
	}
	h.metrics.RecordFetch(h.provider.Name(), "ok")

	rawB, err := h.provider.FetchDailyCloses(ctx, pair.SymbolB, rng)
	if err != nil {
		h.metrics.RecordFetch(h.provider.Name(), "error")
		return nil, err
	}
	h.metrics.RecordFetch(h.provider.Name(), "ok")

	return h.runner.Run(pair, rawA, rawB, cfg)
}

func (h *BacktestHandler) failJob(jobID string, err error) {
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusFailed
		var coreErr *core.Error
		if errors.As(err, &coreErr) {
			j.Error = coreErr
		} else {
			j.Error = core.WrapError(core.ErrDataUnavailable, err)
		}
	})
	h.metrics.SetJobsActive("backtest", h.jobStore.CountActive())
}

// GetStatus returns the status of a backtest job.
func (h *BacktestHandler) GetStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	j, err := h.jobStore.Get(jobID)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}
