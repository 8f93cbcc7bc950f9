// Package signal turns an aligned price series and a hedge ratio into a
// rolling z-score series. The z-score is the only input the simulator
// trades on, so everything here is strictly deterministic.
package signal

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/series"
)

// Config controls z-score generation.
type Config struct {
	// Window is the trailing bar count for the rolling mean/std. Must be > 1.
	Window int `json:"window"`
	// ClipAbs, when set, treats any |z| above it as a data artifact and
	// clamps the z-score to 0 so outliers never trigger entries.
	ClipAbs *float64 `json:"clip_abs,omitempty"`
}

// Point is one bar of the z-score series. Bars before the rolling window
// is filled carry NaN in RollingMean, RollingStd and Z; a NaN z-score is a
// sentinel, never a tradable value.
type Point struct {
	Date        time.Time
	Spread      float64
	RollingMean float64
	RollingStd  float64
	Z           float64
}

// Tradable reports whether the point carries a usable z-score.
func (p Point) Tradable() bool {
	return !math.IsNaN(p.Z)
}

// MarshalJSON emits NaN sentinel fields as null so the series survives
// JSON encoding.
func (p Point) MarshalJSON() ([]byte, error) {
	type out struct {
		Date        time.Time `json:"date"`
		Spread      float64   `json:"spread"`
		RollingMean *float64  `json:"rolling_mean"`
		RollingStd  *float64  `json:"rolling_std"`
		Z           *float64  `json:"zscore"`
	}
	o := out{Date: p.Date, Spread: p.Spread}
	if !math.IsNaN(p.RollingMean) {
		v := p.RollingMean
		o.RollingMean = &v
	}
	if !math.IsNaN(p.RollingStd) {
		v := p.RollingStd
		o.RollingStd = &v
	}
	if !math.IsNaN(p.Z) {
		v := p.Z
		o.Z = &v
	}
	return json.Marshal(o)
}

// ZScoreSeries is the full z-score series, one point per aligned bar.
type ZScoreSeries []Point

// Generate computes spread = priceA - beta*priceB for every bar and its
// rolling z-score over cfg.Window trailing bars. The first Window-1 bars
// get NaN sentinels. A zero rolling std maps to z = 0 (flat region, not an
// error). Identical inputs always produce identical output.
func Generate(s *series.Series, beta float64, cfg Config) (ZScoreSeries, error) {
	if cfg.Window <= 1 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("zscore window must be greater than 1, got %d", cfg.Window))
	}
	if cfg.ClipAbs != nil && *cfg.ClipAbs <= 0 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("clip_abs must be positive, got %g", *cfg.ClipAbs))
	}

	n := s.Len()
	points := make(ZScoreSeries, n)
	spreads := make([]float64, n)

	var acc rollingStat
	for i := 0; i < n; i++ {
		bar := s.Bar(i)
		spread := bar.PriceA - beta*bar.PriceB
		spreads[i] = spread
		acc.Push(spread)

		p := Point{
			Date:        bar.Date,
			Spread:      spread,
			RollingMean: math.NaN(),
			RollingStd:  math.NaN(),
			Z:           math.NaN(),
		}

		if acc.Count() == cfg.Window {
			mean := acc.Mean()
			std := acc.Std()
			p.RollingMean = mean
			p.RollingStd = std
			if std == 0 {
				p.Z = 0
			} else {
				p.Z = (spread - mean) / std
			}
			if cfg.ClipAbs != nil && math.Abs(p.Z) > *cfg.ClipAbs {
				p.Z = 0
			}
			acc.Drop(spreads[i-cfg.Window+1])
		}

		points[i] = p
	}

	return points, nil
}
