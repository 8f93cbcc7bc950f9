// Package export serializes completed runs so callers can chart or load
// them into other tools without re-deriving anything.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/newthinker/pairwise/internal/backtest"
	"github.com/newthinker/pairwise/internal/pipeline"
	"github.com/newthinker/pairwise/internal/signal"
)

const dateLayout = "2006-01-02"

// ResultJSON renders the full result as indented JSON. NaN sentinels in
// the z-score series become nulls.
func ResultJSON(res *pipeline.Result) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}

// WriteEquityCSV writes the equity curve as date,value,position,zscore.
// Sentinel z-scores leave the column empty.
func WriteEquityCSV(w io.Writer, equity []backtest.EquityPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "value", "position", "zscore"}); err != nil {
		return err
	}
	for _, p := range equity {
		rec := []string{
			p.Date.Format(dateLayout),
			formatFloat(p.Value),
			string(p.Position),
			formatOptional(p.Z),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTradesCSV writes the trade log. Open trades leave exit columns empty.
func WriteTradesCSV(w io.Writer, trades []backtest.Trade) error {
	cw := csv.NewWriter(w)
	header := []string{"entry_date", "exit_date", "direction", "entry_z", "exit_z", "pnl", "forced_close"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, t := range trades {
		rec := []string{
			t.EntryDate.Format(dateLayout),
			formatDate(t.ExitDate),
			string(t.Direction),
			formatFloat(t.EntryZ),
			formatFloatPtr(t.ExitZ),
			formatFloatPtr(t.PnL),
			strconv.FormatBool(t.ForcedClose),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteZScoresCSV writes the z-score series as
// date,spread,rolling_mean,rolling_std,zscore.
func WriteZScoresCSV(w io.Writer, zs signal.ZScoreSeries) error {
	cw := csv.NewWriter(w)
	header := []string{"date", "spread", "rolling_mean", "rolling_std", "zscore"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range zs {
		rec := []string{
			p.Date.Format(dateLayout),
			formatFloat(p.Spread),
			formatOptional(p.RollingMean),
			formatOptional(p.RollingStd),
			formatOptional(p.Z),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return formatFloat(v)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
