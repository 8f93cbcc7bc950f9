// Package hedge estimates the cointegrating hedge ratio between the two
// legs of a pair and scores the stationarity of the resulting spread.
package hedge

import (
	"fmt"
	"math"

	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/series"
)

// MethodOLS is the estimation method recorded on ratios produced by Estimate.
const MethodOLS = "ols"

// Ratio is the estimated hedge ratio plus estimation diagnostics.
// It is a value: produced once per (series, window) pair and never mutated.
type Ratio struct {
	Beta        float64 `json:"beta"`
	Alpha       float64 `json:"alpha"`
	Method      string  `json:"method"`
	SampleSize  int     `json:"sample_size"`
	ResidualStd float64 `json:"residual_std"`
}

// Estimate computes the OLS slope of priceA on priceB using the closed-form
// formula beta = (n*Sxy - Sx*Sy) / (n*Sxx - Sx*Sx). A window > 0 restricts
// the regression to the trailing window bars; window <= 0 uses the full
// sample. Deterministic: identical input always yields a bit-identical
// result. Fails with ErrDegenerateInput when instrument B has no variance
// over the sample.
func Estimate(s *series.Series, window int) (Ratio, error) {
	n := s.Len()
	if window > n {
		return Ratio{}, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("estimation window %d exceeds series length %d", window, n))
	}
	if window > 0 && window < 2 {
		return Ratio{}, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("estimation window must be at least 2, got %d", window))
	}

	start := 0
	if window > 0 {
		start = n - window
	}

	ys := make([]float64, 0, n-start)
	xs := make([]float64, 0, n-start)
	for i := start; i < n; i++ {
		bar := s.Bar(i)
		ys = append(ys, bar.PriceA)
		xs = append(xs, bar.PriceB)
	}

	return EstimateXY(ys, xs)
}

// EstimateXY runs the closed-form OLS regression of y on x over two raw
// equal-length slices.
func EstimateXY(y, x []float64) (Ratio, error) {
	if len(y) != len(x) {
		return Ratio{}, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("series lengths differ: %d vs %d", len(y), len(x)))
	}
	if len(y) < 2 {
		return Ratio{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("need at least 2 observations, got %d", len(y)))
	}

	var sx, sy, sxx, sxy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}

	fn := float64(len(x))
	den := fn*sxx - sx*sx
	// Scale-relative epsilon check: a constant regressor leaves den at
	// rounding-noise level compared to fn*sxx.
	if math.Abs(den) <= machineEps*fn*math.Abs(sxx) {
		return Ratio{}, core.WrapError(core.ErrDegenerateInput,
			fmt.Errorf("regressor is constant over the %d-observation sample", len(x)))
	}

	beta := (fn*sxy - sx*sy) / den
	alpha := (sy - beta*sx) / fn

	// Population standard deviation of the regression residuals.
	var ssr float64
	for i := range x {
		r := y[i] - (alpha + beta*x[i])
		ssr += r * r
	}

	return Ratio{
		Beta:        beta,
		Alpha:       alpha,
		Method:      MethodOLS,
		SampleSize:  len(x),
		ResidualStd: math.Sqrt(ssr / fn),
	}, nil
}

// ResidualsXY returns the OLS residuals y - (alpha + beta*x) for raw slices.
func ResidualsXY(y, x []float64, r Ratio) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		out[i] = y[i] - (r.Alpha + r.Beta*x[i])
	}
	return out
}

// Residuals returns the OLS residuals priceA - (alpha + beta*priceB) for
// every bar of the series, in bar order. Input for cointegration testing.
func Residuals(s *series.Series, r Ratio) []float64 {
	out := make([]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		bar := s.Bar(i)
		out[i] = bar.PriceA - (r.Alpha + r.Beta*bar.PriceB)
	}
	return out
}

const machineEps = 2.220446049250313e-16
