// internal/api/handler/coint.go
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/newthinker/pairwise/internal/api/response"
	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/hedge"
)

// CointRequest carries two raw equal-length series for a synchronous
// cointegration check.
type CointRequest struct {
	SeriesY   []float64 `json:"series_y"`
	SeriesX   []float64 `json:"series_x"`
	Threshold float64   `json:"threshold,omitempty"`
}

// CointResponse is the hedge ratio plus the stationarity report.
type CointResponse struct {
	Hedge  hedge.Ratio  `json:"hedge"`
	Report hedge.Report `json:"report"`
}

// CointHandler serves synchronous cointegration checks on raw series.
type CointHandler struct{}

// NewCointHandler creates a new cointegration handler.
func NewCointHandler() *CointHandler {
	return &CointHandler{}
}

// Check regresses y on x and scores the residuals with the Engle-Granger
// heuristic. Deterministic: the same payload always produces the same score.
func (h *CointHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req CointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter, err))
		return
	}

	if req.Threshold < 0 || req.Threshold >= 1 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter,
				fmt.Errorf("threshold must be in [0, 1), got %g", req.Threshold)))
		return
	}

	ratio, err := hedge.EstimateXY(req.SeriesY, req.SeriesX)
	if err != nil {
		response.Error(w, response.StatusForError(err), err)
		return
	}

	test := hedge.EngleGranger{Threshold: req.Threshold}
	report, err := test.Test(hedge.ResidualsXY(req.SeriesY, req.SeriesX, ratio))
	if err != nil {
		response.Error(w, response.StatusForError(err), err)
		return
	}

	response.JSON(w, http.StatusOK, CointResponse{Hedge: ratio, Report: report})
}
