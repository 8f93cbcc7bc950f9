package backtest

import (
	"encoding/json"
	"math"
	"time"

	"github.com/newthinker/pairwise/internal/signal"
)

// Position is the simulator's state: flat, long the spread (long A, short
// beta*B) or short the spread (the inverse). Transitions only ever go
// through Flat.
type Position string

const (
	Flat        Position = "flat"
	LongSpread  Position = "long_spread"
	ShortSpread Position = "short_spread"
)

// Sign returns the P&L sign of the position: +1 long spread, -1 short
// spread, 0 flat.
func (p Position) Sign() float64 {
	switch p {
	case LongSpread:
		return 1
	case ShortSpread:
		return -1
	default:
		return 0
	}
}

// Trade records one round trip (or an open position awaiting exit).
// Exit fields are nil while the trade is open.
type Trade struct {
	EntryDate   time.Time  `json:"entry_date"`
	ExitDate    *time.Time `json:"exit_date"`
	Direction   Position   `json:"direction"`
	EntryZ      float64    `json:"entry_z"`
	ExitZ       *float64   `json:"exit_z"`
	PnL         *float64   `json:"pnl"`
	ForcedClose bool       `json:"forced_close"`
}

// IsClosed reports whether the trade has an exit.
func (t Trade) IsClosed() bool {
	return t.ExitDate != nil
}

// IsWin reports whether the closed trade was profitable.
func (t Trade) IsWin() bool {
	return t.PnL != nil && *t.PnL > 0
}

// EquityPoint is one bar of the equity curve. Position is the state held
// going into the next bar, after the bar's signals were evaluated. Z is NaN
// on sentinel bars.
type EquityPoint struct {
	Date     time.Time
	Value    float64
	Position Position
	Z        float64
}

// MarshalJSON emits a NaN z-score as null.
func (e EquityPoint) MarshalJSON() ([]byte, error) {
	type out struct {
		Date     time.Time `json:"date"`
		Value    float64   `json:"value"`
		Position Position  `json:"position"`
		Z        *float64  `json:"zscore"`
	}
	o := out{Date: e.Date, Value: e.Value, Position: e.Position}
	if !math.IsNaN(e.Z) {
		v := e.Z
		o.Z = &v
	}
	return json.Marshal(o)
}

// Simulation is the raw simulator output: the full trade log and one
// equity point per bar. It is only constructed complete; a failed run
// produces nothing.
type Simulation struct {
	Trades []Trade       `json:"trades"`
	Equity []EquityPoint `json:"equity"`
}

// Stats summarizes a completed simulation. All fields are derived purely
// from the equity curve and trade log.
type Stats struct {
	TotalReturn   float64 `json:"total_return"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	WinRate       float64 `json:"win_rate"`
	TotalTrades   int     `json:"total_trades"`
	ClosedTrades  int     `json:"closed_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	ForcedCloses  int     `json:"forced_closes"`
}

// TradeFilter is the hook an external entry model plugs into: the simulator
// consults it before opening a position. Implementations must be
// deterministic for reproducible runs.
type TradeFilter interface {
	Allow(p signal.Point, dir Position) bool
}

// ZMagnitudeFilter is the reference TradeFilter: it vetoes entries whose
// |z| exceeds MaxAbs, on the view that extreme readings are data artifacts
// rather than opportunities.
type ZMagnitudeFilter struct {
	MaxAbs float64
}

// Allow implements TradeFilter.
func (f ZMagnitudeFilter) Allow(p signal.Point, dir Position) bool {
	return math.Abs(p.Z) <= f.MaxAbs
}
