// Package collector defines the price-fetch boundary. The engine itself
// never performs I/O; it consumes already-fetched daily closes and rejects
// what it cannot align.
package collector

import (
	"context"

	"github.com/newthinker/pairwise/internal/core"
)

// Range selects how much daily history to fetch, in the source's own
// range vocabulary.
type Range string

const (
	Range1Y  Range = "1y"
	Range2Y  Range = "2y"
	Range3Y  Range = "3y"
	Range5Y  Range = "5y"
	RangeMax Range = "max"
)

// Provider fetches raw daily closes for one symbol. Days without a quote
// come back with a nil Close; alignment downstream drops them. A source
// failure or empty payload surfaces as ErrDataUnavailable.
type Provider interface {
	Name() string
	FetchDailyCloses(ctx context.Context, symbol string, rng Range) ([]core.DailyClose, error)
}
