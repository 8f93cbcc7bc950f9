package hedge

import (
	"fmt"
	"math"

	"github.com/newthinker/pairwise/internal/core"
)

// Report is the outcome of a cointegration test on OLS residuals.
type Report struct {
	Statistic      float64 `json:"statistic"`
	PValue         float64 `json:"p_value"`
	IsCointegrated bool    `json:"is_cointegrated"`
	Method         string  `json:"method"`
}

// CointegrationTest scores the stationarity of a residual series.
// Implementations must be deterministic. Swapping in a certified
// statistical test only requires a new implementation of this interface.
type CointegrationTest interface {
	Test(residuals []float64) (Report, error)
}

// DefaultPValueThreshold is the rejection level used when none is configured.
const DefaultPValueThreshold = 0.05

// EngleGranger is a deterministic residual-based stationarity heuristic in
// the shape of the Engle-Granger second stage: it regresses the first
// difference of the residuals on their lag and maps the t-statistic of the
// slope through fixed Dickey-Fuller-style critical values to a p-value-like
// score. The score is a heuristic ranking, not a certified statistical
// result.
type EngleGranger struct {
	// Threshold below which the pair is reported cointegrated.
	// Zero selects DefaultPValueThreshold.
	Threshold float64
}

// Critical values for the two-variable Engle-Granger case with constant,
// interpolated linearly between levels and clamped outside them.
var egCriticalValues = []struct {
	stat float64
	p    float64
}{
	{-4.50, 0.001},
	{-3.90, 0.01},
	{-3.34, 0.05},
	{-3.04, 0.10},
	{0.00, 1.00},
}

// Test implements CointegrationTest.
func (e EngleGranger) Test(residuals []float64) (Report, error) {
	if len(residuals) < 3 {
		return Report{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("need at least 3 residuals, got %d", len(residuals)))
	}

	threshold := e.Threshold
	if threshold == 0 {
		threshold = DefaultPValueThreshold
	}

	// AR(1) regression without intercept: d(e_t) = gamma * e_{t-1} + u_t.
	// The OLS stage already removed the mean, so no constant term here.
	var sxy, sxx float64
	for t := 1; t < len(residuals); t++ {
		lag := residuals[t-1]
		diff := residuals[t] - residuals[t-1]
		sxy += lag * diff
		sxx += lag * lag
	}

	// A flat residual series is trivially stationary: the spread tracks the
	// fitted line exactly.
	if sxx <= machineEps {
		return Report{
			Statistic:      egCriticalValues[0].stat,
			PValue:         egCriticalValues[0].p,
			IsCointegrated: egCriticalValues[0].p < threshold,
			Method:         "engle-granger-heuristic",
		}, nil
	}

	gamma := sxy / sxx

	var ssu float64
	for t := 1; t < len(residuals); t++ {
		u := (residuals[t] - residuals[t-1]) - gamma*residuals[t-1]
		ssu += u * u
	}
	dof := float64(len(residuals) - 2)
	if dof < 1 {
		dof = 1
	}
	se := math.Sqrt(ssu / dof / sxx)

	var tstat float64
	switch {
	case se > 0:
		tstat = gamma / se
	case gamma < 0:
		// A perfect AR fit with negative gamma is maximally mean-reverting.
		tstat = egCriticalValues[0].stat
	}

	p := interpolatePValue(tstat)

	return Report{
		Statistic:      tstat,
		PValue:         p,
		IsCointegrated: p < threshold,
		Method:         "engle-granger-heuristic",
	}, nil
}

// interpolatePValue maps a t-statistic onto [0.001, 1] through the fixed
// critical value table.
func interpolatePValue(t float64) float64 {
	cv := egCriticalValues
	if t <= cv[0].stat {
		return cv[0].p
	}
	if t >= cv[len(cv)-1].stat {
		return cv[len(cv)-1].p
	}
	for i := 1; i < len(cv); i++ {
		if t <= cv[i].stat {
			lo, hi := cv[i-1], cv[i]
			frac := (t - lo.stat) / (hi.stat - lo.stat)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return 1.0
}
