// Package series builds the aligned two-instrument price series every
// downstream stage consumes. Alignment is the only place raw source data
// is touched; everything after it operates on an immutable Series.
package series

import (
	"fmt"
	"sort"
	"time"

	"github.com/newthinker/pairwise/internal/core"
)

// DefaultMinBars is the minimum aligned length accepted when the caller
// does not override it.
const DefaultMinBars = 50

// Series is an immutable, chronologically ordered sequence of aligned bars.
// Both instruments have a positive close on every retained date and dates
// are strictly increasing.
type Series struct {
	bars []core.Bar
}

// Align intersects two raw daily close lists on calendar day, keeping only
// days where both instruments have a non-nil positive close. Dates are
// normalized to UTC midnight; when a source reports the same day twice the
// later observation wins. Fails with ErrInsufficientData when fewer than
// minBars days survive (minBars <= 0 selects DefaultMinBars).
func Align(rawA, rawB []core.DailyClose, minBars int) (*Series, error) {
	if minBars <= 0 {
		minBars = DefaultMinBars
	}

	pricesA := validByDay(rawA)
	pricesB := validByDay(rawB)

	days := make([]time.Time, 0, len(pricesA))
	for day := range pricesA {
		if _, ok := pricesB[day]; ok {
			days = append(days, time.Unix(day, 0).UTC())
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	if len(days) < minBars {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("aligned %d bars, need at least %d", len(days), minBars))
	}

	bars := make([]core.Bar, len(days))
	for i, d := range days {
		bars[i] = core.Bar{
			Date:   d,
			PriceA: pricesA[d.Unix()],
			PriceB: pricesB[d.Unix()],
		}
	}

	return &Series{bars: bars}, nil
}

// validByDay indexes usable observations by UTC day.
func validByDay(raw []core.DailyClose) map[int64]float64 {
	out := make(map[int64]float64, len(raw))
	for _, obs := range raw {
		if obs.IsValid() {
			out[core.Day(obs.Date).Unix()] = *obs.Close
		}
	}
	return out
}

// FromBars builds a Series directly from pre-aligned bars. It enforces the
// same invariants as Align: positive prices, strictly increasing dates,
// minimum length.
func FromBars(bars []core.Bar, minBars int) (*Series, error) {
	if minBars <= 0 {
		minBars = DefaultMinBars
	}
	if len(bars) < minBars {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("got %d bars, need at least %d", len(bars), minBars))
	}
	copied := make([]core.Bar, len(bars))
	for i, b := range bars {
		if b.PriceA <= 0 || b.PriceB <= 0 {
			return nil, core.WrapError(core.ErrInsufficientData,
				fmt.Errorf("non-positive price at bar %d", i))
		}
		b.Date = core.Day(b.Date)
		if i > 0 && !copied[i-1].Date.Before(b.Date) {
			return nil, core.WrapError(core.ErrInsufficientData,
				fmt.Errorf("dates not strictly increasing at bar %d", i))
		}
		copied[i] = b
	}
	return &Series{bars: copied}, nil
}

// Len returns the number of aligned bars.
func (s *Series) Len() int {
	return len(s.bars)
}

// Bar returns the bar at index i.
func (s *Series) Bar(i int) core.Bar {
	return s.bars[i]
}

// Bars returns a copy of all aligned bars.
func (s *Series) Bars() []core.Bar {
	out := make([]core.Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// PricesA returns a copy of instrument A closes in bar order.
func (s *Series) PricesA() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.PriceA
	}
	return out
}

// PricesB returns a copy of instrument B closes in bar order.
func (s *Series) PricesB() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.PriceB
	}
	return out
}

// Dates returns a copy of the bar dates in order.
func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Date
	}
	return out
}
