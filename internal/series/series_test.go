package series

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/pairwise/internal/core"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func obs(i int, px float64) core.DailyClose {
	return core.DailyClose{Date: day(i), Close: &px}
}

func closes(from, to int, px func(i int) float64) []core.DailyClose {
	out := make([]core.DailyClose, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, obs(i, px(i)))
	}
	return out
}

func TestAlign_IntersectsOnDay(t *testing.T) {
	rawA := closes(0, 60, func(i int) float64 { return 100 + float64(i) })
	rawB := closes(5, 65, func(i int) float64 { return 50 + float64(i) })

	s, err := Align(rawA, rawB, 50)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	if s.Len() != 55 {
		t.Errorf("aligned %d bars, want 55", s.Len())
	}
	if !s.Bar(0).Date.Equal(day(5)) {
		t.Errorf("first bar %v, want %v", s.Bar(0).Date, day(5))
	}
	if !s.Bar(s.Len() - 1).Date.Equal(day(59)) {
		t.Errorf("last bar %v, want %v", s.Bar(s.Len()-1).Date, day(59))
	}
}

func TestAlign_DropsInvalidObservations(t *testing.T) {
	rawA := closes(0, 60, func(i int) float64 { return 100 })
	rawB := closes(0, 60, func(i int) float64 { return 50 })

	// A nil close on one leg removes the whole day from the intersection.
	rawA[10].Close = nil
	zero := 0.0
	rawB[20].Close = &zero

	s, err := Align(rawA, rawB, 50)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if s.Len() != 58 {
		t.Errorf("aligned %d bars, want 58", s.Len())
	}
	for i := 0; i < s.Len(); i++ {
		d := s.Bar(i).Date
		if d.Equal(day(10)) || d.Equal(day(20)) {
			t.Errorf("bar for excluded day %v survived alignment", d)
		}
	}
}

func TestAlign_LaterObservationWinsSameDay(t *testing.T) {
	rawA := closes(0, 50, func(i int) float64 { return 100 })
	rawA = append(rawA, obs(10, 999)) // revision of day 10
	rawB := closes(0, 50, func(i int) float64 { return 50 })

	s, err := Align(rawA, rawB, 50)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if got := s.Bar(10).PriceA; got != 999 {
		t.Errorf("bar 10 priceA = %g, want the later observation 999", got)
	}
}

func TestAlign_NormalizesIntradayTimestamps(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	px := 100.0
	rawA := closes(0, 50, func(i int) float64 { return 100 })
	// Same calendar day as day(5) UTC, but carrying a time-of-day and zone.
	rawA[5] = core.DailyClose{Date: time.Date(2024, 1, 6, 11, 30, 0, 0, loc), Close: &px}
	rawB := closes(0, 50, func(i int) float64 { return 50 })

	s, err := Align(rawA, rawB, 50)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if s.Len() != 50 {
		t.Errorf("aligned %d bars, want 50", s.Len())
	}
	if !s.Bar(5).Date.Equal(day(5)) {
		t.Errorf("bar 5 date %v, want normalized %v", s.Bar(5).Date, day(5))
	}
}

func TestAlign_InsufficientData(t *testing.T) {
	rawA := closes(0, 10, func(i int) float64 { return 100 })
	rawB := closes(0, 10, func(i int) float64 { return 50 })

	_, err := Align(rawA, rawB, 50)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("want ErrInsufficientData, got %v", err)
	}
}

func TestFromBars_RejectsNonPositivePrices(t *testing.T) {
	bars := []core.Bar{
		{Date: day(0), PriceA: 100, PriceB: 50},
		{Date: day(1), PriceA: -1, PriceB: 50},
	}
	_, err := FromBars(bars, 1)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("want ErrInsufficientData, got %v", err)
	}
}

func TestFromBars_RejectsUnorderedDates(t *testing.T) {
	bars := []core.Bar{
		{Date: day(1), PriceA: 100, PriceB: 50},
		{Date: day(1), PriceA: 101, PriceB: 51},
	}
	_, err := FromBars(bars, 1)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("want ErrInsufficientData, got %v", err)
	}
}

func TestSeries_AccessorsCopy(t *testing.T) {
	bars := []core.Bar{
		{Date: day(0), PriceA: 100, PriceB: 50},
		{Date: day(1), PriceA: 101, PriceB: 51},
	}
	s, err := FromBars(bars, 1)
	if err != nil {
		t.Fatalf("FromBars failed: %v", err)
	}

	prices := s.PricesA()
	prices[0] = -1
	if s.Bar(0).PriceA != 100 {
		t.Error("mutating the PricesA copy changed the series")
	}

	out := s.Bars()
	out[1].PriceB = -1
	if s.Bar(1).PriceB != 51 {
		t.Error("mutating the Bars copy changed the series")
	}
}
