package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pairwise/internal/backtest"
	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/pipeline"
	"github.com/newthinker/pairwise/internal/signal"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func TestWriteEquityCSV(t *testing.T) {
	equity := []backtest.EquityPoint{
		{Date: day(0), Value: 100000, Position: backtest.Flat, Z: math.NaN()},
		{Date: day(1), Value: 100500, Position: backtest.LongSpread, Z: -2.1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEquityCSV(&buf, equity))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"date", "value", "position", "zscore"}, rows[0])
	assert.Equal(t, []string{"2024-01-01", "100000", "flat", ""}, rows[1])
	assert.Equal(t, []string{"2024-01-02", "100500", "long_spread", "-2.1"}, rows[2])
}

func TestWriteTradesCSV(t *testing.T) {
	exit := day(5)
	exitZ := -0.3
	pnl := 0.012
	trades := []backtest.Trade{
		{
			EntryDate: day(2),
			ExitDate:  &exit,
			Direction: backtest.LongSpread,
			EntryZ:    -2.5,
			ExitZ:     &exitZ,
			PnL:       &pnl,
		},
		{EntryDate: day(8), Direction: backtest.ShortSpread, EntryZ: 2.2}, // open
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, trades))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"2024-01-03", "2024-01-06", "long_spread", "-2.5", "-0.3", "0.012", "false"}, rows[1])
	assert.Equal(t, []string{"2024-01-09", "", "short_spread", "2.2", "", "", "false"}, rows[2])
}

func TestWriteZScoresCSV_SentinelsEmpty(t *testing.T) {
	zs := signal.ZScoreSeries{
		{Date: day(0), Spread: 1.5, RollingMean: math.NaN(), RollingStd: math.NaN(), Z: math.NaN()},
		{Date: day(1), Spread: 2.0, RollingMean: 1.75, RollingStd: 0.25, Z: 1.0},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteZScoresCSV(&buf, zs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"2024-01-01", "1.5", "", "", ""}, rows[1])
	assert.Equal(t, []string{"2024-01-02", "2", "1.75", "0.25", "1"}, rows[2])
}

func TestResultJSON_RoundTrips(t *testing.T) {
	res := &pipeline.Result{
		Pair:   core.Pair{SymbolA: "KO", SymbolB: "PEP"},
		Config: pipeline.Defaults(),
		Bars:   2,
		ZScores: signal.ZScoreSeries{
			{Date: day(0), Spread: 1, RollingMean: math.NaN(), RollingStd: math.NaN(), Z: math.NaN()},
		},
	}

	data, err := ResultJSON(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"zscore": null`)
	assert.Contains(t, string(data), `"symbol_a": "KO"`)
}
