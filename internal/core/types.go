package core

import "time"

// Pair identifies the two instruments of a spread trade.
// Instrument A is the dependent leg, instrument B the hedge leg.
type Pair struct {
	SymbolA string `json:"symbol_a"`
	SymbolB string `json:"symbol_b"`
}

// String returns the conventional "A/B" pair name.
func (p Pair) String() string {
	return p.SymbolA + "/" + p.SymbolB
}

// DailyClose is one raw observation from a price source.
// Close is nil when the source has no quote for that day.
type DailyClose struct {
	Date  time.Time `json:"date"`
	Close *float64  `json:"close"`
}

// IsValid reports whether the observation carries a usable price.
func (d DailyClose) IsValid() bool {
	return d.Close != nil && *d.Close > 0
}

// Bar is one aligned observation: both instruments quoted on the same day.
type Bar struct {
	Date   time.Time `json:"date"`
	PriceA float64   `json:"price_a"`
	PriceB float64   `json:"price_b"`
}

// Day truncates t to UTC midnight. All aligned dates are normalized
// through this so the same calendar day from two sources compares equal.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
