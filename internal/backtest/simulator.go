// Package backtest simulates a mean-reversion rule over a z-score series
// with explicit position state and per-bar portfolio accounting.
package backtest

import (
	"fmt"

	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/series"
	"github.com/newthinker/pairwise/internal/signal"
)

// Default simulation parameters.
const (
	DefaultStartingCapital    = 100000.0
	DefaultAllocationFraction = 1.0
)

// Config holds the simulation parameters. Thresholds are z-score
// magnitudes and must satisfy 0 <= ExitThreshold < EntryThreshold.
type Config struct {
	EntryThreshold     float64 `json:"entry_threshold"`
	ExitThreshold      float64 `json:"exit_threshold"`
	StartingCapital    float64 `json:"starting_capital"`
	AllocationFraction float64 `json:"allocation_fraction"`

	// Filter, when set, is consulted before every entry.
	Filter TradeFilter `json:"-"`
}

// Validate fails fast on malformed or contradictory parameters, before any
// simulation state exists.
func (c Config) Validate() error {
	if c.ExitThreshold < 0 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("exit threshold must be non-negative, got %g", c.ExitThreshold))
	}
	if c.ExitThreshold >= c.EntryThreshold {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("exit threshold %g must be below entry threshold %g",
				c.ExitThreshold, c.EntryThreshold))
	}
	if c.StartingCapital <= 0 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("starting capital must be positive, got %g", c.StartingCapital))
	}
	if c.AllocationFraction <= 0 || c.AllocationFraction > 1 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("allocation fraction must be in (0, 1], got %g", c.AllocationFraction))
	}
	return nil
}

// Simulator runs the mean-reversion state machine.
type Simulator struct {
	cfg Config
}

// NewSimulator validates the configuration and returns a simulator.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{cfg: cfg}, nil
}

// Run walks the series bar by bar. Per bar, in order: accrue P&L for the
// position held coming into the bar, evaluate the bar's z-score for
// transitions, then append one equity point carrying the post-transition
// state. Bars with a NaN z-score accrue P&L but never trigger entries or
// exits. A position still open at the final bar is force-closed and its
// trade flagged. Entries are never taken at the final bar: a position
// opened there could not accrue a single bar of P&L, and closed trades
// must exit strictly after they enter.
func (s *Simulator) Run(sr *series.Series, zs signal.ZScoreSeries, beta float64) (*Simulation, error) {
	if sr.Len() != len(zs) {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("series has %d bars but z-score series has %d", sr.Len(), len(zs)))
	}
	if sr.Len() == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("empty series"))
	}

	n := sr.Len()
	value := s.cfg.StartingCapital
	position := Flat
	var trades []Trade
	var open *Trade
	var entryValue float64
	equity := make([]EquityPoint, 0, n)

	closeTrade := func(z float64, hasZ bool, forced bool, i int) {
		exitDate := sr.Bar(i).Date
		open.ExitDate = &exitDate
		if hasZ {
			zc := z
			open.ExitZ = &zc
		}
		pnl := value/entryValue - 1
		open.PnL = &pnl
		open.ForcedClose = forced
		trades = append(trades, *open)
		open = nil
		position = Flat
	}

	for i := 0; i < n; i++ {
		bar := sr.Bar(i)
		z := zs[i].Z
		tradable := zs[i].Tradable()

		// Accrue the spread return for the position held coming into the bar.
		if position != Flat && i > 0 {
			prev := sr.Bar(i - 1)
			retA := (bar.PriceA - prev.PriceA) / prev.PriceA
			retB := (bar.PriceB - prev.PriceB) / prev.PriceB
			dayReturn := position.Sign() * (retA - beta*retB)
			value *= 1 + dayReturn*s.cfg.AllocationFraction
		}

		lastBar := i == n-1

		if tradable {
			switch position {
			case Flat:
				if !lastBar {
					var dir Position
					if z < -s.cfg.EntryThreshold {
						dir = LongSpread
					} else if z > s.cfg.EntryThreshold {
						dir = ShortSpread
					}
					if dir != Flat && (s.cfg.Filter == nil || s.cfg.Filter.Allow(zs[i], dir)) {
						position = dir
						entryValue = value
						open = &Trade{
							EntryDate: bar.Date,
							Direction: dir,
							EntryZ:    z,
						}
					}
				}
			case LongSpread, ShortSpread:
				if abs(z) < s.cfg.ExitThreshold {
					closeTrade(z, true, false, i)
				}
			}
		}

		// End of data: whatever is still open gets flattened.
		if lastBar && position != Flat {
			closeTrade(z, tradable, true, i)
		}

		equity = append(equity, EquityPoint{
			Date:     bar.Date,
			Value:    value,
			Position: position,
			Z:        z,
		})
	}

	return &Simulation{Trades: trades, Equity: equity}, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
