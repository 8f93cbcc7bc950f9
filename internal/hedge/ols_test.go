package hedge

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/series"
)

func makeSeries(t *testing.T, n int, priceA, priceB func(i int) float64) *series.Series {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = core.Bar{
			Date:   base.AddDate(0, 0, i),
			PriceA: priceA(i),
			PriceB: priceB(i),
		}
	}
	s, err := series.FromBars(bars, 1)
	if err != nil {
		t.Fatalf("FromBars failed: %v", err)
	}
	return s
}

func TestEstimate_ExactLinearFit(t *testing.T) {
	s := makeSeries(t, 50,
		func(i int) float64 { return 2*float64(i+1) + 5 },
		func(i int) float64 { return float64(i + 1) },
	)

	r, err := Estimate(s, 0)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if math.Abs(r.Beta-2) > 1e-9 {
		t.Errorf("beta = %g, want 2", r.Beta)
	}
	if math.Abs(r.Alpha-5) > 1e-9 {
		t.Errorf("alpha = %g, want 5", r.Alpha)
	}
	if r.ResidualStd > 1e-9 {
		t.Errorf("residual std = %g, want ~0 for an exact fit", r.ResidualStd)
	}
	if r.Method != MethodOLS {
		t.Errorf("method = %q, want %q", r.Method, MethodOLS)
	}
	if r.SampleSize != 50 {
		t.Errorf("sample size = %d, want 50", r.SampleSize)
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	s := makeSeries(t, 80,
		func(i int) float64 { return 100 + 1.5*float64(i) + 3*math.Sin(float64(i)) },
		func(i int) float64 { return 50 + float64(i) },
	)

	r1, err1 := Estimate(s, 0)
	r2, err2 := Estimate(s, 0)
	if err1 != nil || err2 != nil {
		t.Fatalf("Estimate failed: %v / %v", err1, err2)
	}
	if r1 != r2 {
		t.Errorf("repeated estimates differ: %+v vs %+v", r1, r2)
	}
}

func TestEstimate_TrailingWindow(t *testing.T) {
	// Regime change: the last 30 bars follow an exact y = 3x line.
	s := makeSeries(t, 100,
		func(i int) float64 {
			x := float64(i + 1)
			if i >= 70 {
				return 3 * x
			}
			return 2 * x
		},
		func(i int) float64 { return float64(i + 1) },
	)

	r, err := Estimate(s, 30)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if math.Abs(r.Beta-3) > 1e-9 {
		t.Errorf("windowed beta = %g, want 3", r.Beta)
	}
	if r.SampleSize != 30 {
		t.Errorf("sample size = %d, want 30", r.SampleSize)
	}
}

func TestEstimate_WindowValidation(t *testing.T) {
	s := makeSeries(t, 10,
		func(i int) float64 { return float64(i + 1) },
		func(i int) float64 { return float64(i + 2) },
	)

	if _, err := Estimate(s, 11); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("oversized window: want ErrInvalidParameter, got %v", err)
	}
	if _, err := Estimate(s, 1); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("window of 1: want ErrInvalidParameter, got %v", err)
	}
}

func TestEstimate_DegenerateRegressor(t *testing.T) {
	s := makeSeries(t, 60,
		func(i int) float64 { return 100 + float64(i) },
		func(i int) float64 { return 50 }, // constant leg B
	)

	_, err := Estimate(s, 0)
	if !errors.Is(err, core.ErrDegenerateInput) {
		t.Errorf("want ErrDegenerateInput, got %v", err)
	}
}

func TestEstimateXY_Validation(t *testing.T) {
	if _, err := EstimateXY([]float64{1, 2}, []float64{1}); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("length mismatch: want ErrInvalidParameter, got %v", err)
	}
	if _, err := EstimateXY([]float64{1}, []float64{1}); !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("single observation: want ErrInsufficientData, got %v", err)
	}
}

func TestResiduals_ExactFitIsZero(t *testing.T) {
	s := makeSeries(t, 40,
		func(i int) float64 { return 1.5*float64(i+1) + 2 },
		func(i int) float64 { return float64(i + 1) },
	)
	r, err := Estimate(s, 0)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	for i, res := range Residuals(s, r) {
		if math.Abs(res) > 1e-9 {
			t.Fatalf("residual[%d] = %g, want ~0", i, res)
		}
	}
}

func TestResidualsXY_MatchesDefinition(t *testing.T) {
	y := []float64{10, 12, 15, 13}
	x := []float64{1, 2, 3, 4}
	r := Ratio{Beta: 2, Alpha: 1}

	got := ResidualsXY(y, x, r)
	for i := range y {
		want := y[i] - (1 + 2*x[i])
		if got[i] != want {
			t.Errorf("residual[%d] = %g, want %g", i, got[i], want)
		}
	}
}
