package signal

import (
	"math"
	"testing"
)

// naiveStats recomputes the population mean/std of a window from scratch.
func naiveStats(window []float64) (mean, std float64) {
	for _, v := range window {
		mean += v
	}
	mean /= float64(len(window))
	var m2 float64
	for _, v := range window {
		m2 += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(m2 / float64(len(window)))
}

func TestRollingStat_MatchesNaiveRecomputation(t *testing.T) {
	const n, window = 200, 20

	values := make([]float64, n)
	for i := range values {
		values[i] = math.Sin(float64(i)*1.7)*50 + float64(i%7)
	}

	var acc rollingStat
	for i := 0; i < n; i++ {
		acc.Push(values[i])
		if acc.Count() > window {
			acc.Drop(values[i-window])
		}
		if acc.Count() < window {
			continue
		}

		wantMean, wantStd := naiveStats(values[i-window+1 : i+1])
		if math.Abs(acc.Mean()-wantMean) > 1e-9 {
			t.Fatalf("bar %d: mean = %g, naive = %g", i, acc.Mean(), wantMean)
		}
		if math.Abs(acc.Std()-wantStd) > 1e-9 {
			t.Fatalf("bar %d: std = %g, naive = %g", i, acc.Std(), wantStd)
		}
	}
}

func TestRollingStat_ConstantWindow(t *testing.T) {
	var acc rollingStat
	for i := 0; i < 10; i++ {
		acc.Push(42)
	}
	if acc.Mean() != 42 {
		t.Errorf("mean = %g, want 42", acc.Mean())
	}
	if acc.Std() != 0 {
		t.Errorf("std = %g, want 0", acc.Std())
	}
}

func TestRollingStat_DropToEmpty(t *testing.T) {
	var acc rollingStat
	acc.Push(7)
	acc.Drop(7)

	if acc.Count() != 0 {
		t.Errorf("count = %d, want 0", acc.Count())
	}
	if acc.Mean() != 0 || acc.Std() != 0 {
		t.Errorf("empty accumulator not reset: mean=%g std=%g", acc.Mean(), acc.Std())
	}
}

func TestRollingStat_VarianceNeverNegative(t *testing.T) {
	// Near-identical large values maximize cancellation error in the
	// streaming update.
	var acc rollingStat
	values := []float64{1e12, 1e12 + 1e-4, 1e12, 1e12 + 1e-4, 1e12}
	for i, v := range values {
		acc.Push(v)
		if i >= 3 {
			acc.Drop(values[i-3])
		}
		if acc.Std() < 0 || math.IsNaN(acc.Std()) {
			t.Fatalf("std = %g after bar %d", acc.Std(), i)
		}
	}
}
