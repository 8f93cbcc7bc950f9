package archive

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pairwise/internal/backtest"
	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	day := func(i int) time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	exit := day(3)
	pnl := 0.01
	return &pipeline.Result{
		Pair:   core.Pair{SymbolA: "KO", SymbolB: "PEP"},
		Config: pipeline.Defaults(),
		Bars:   4,
		Trades: []backtest.Trade{
			{EntryDate: day(1), ExitDate: &exit, Direction: backtest.LongSpread, PnL: &pnl},
		},
		Equity: []backtest.EquityPoint{
			{Date: day(0), Value: 100000, Position: backtest.Flat},
			{Date: day(1), Value: 100000, Position: backtest.LongSpread},
			{Date: day(2), Value: 100500, Position: backtest.LongSpread},
			{Date: day(3), Value: 101000, Position: backtest.Flat},
		},
	}
}

func TestSaveRun_WritesAllArtifacts(t *testing.T) {
	st, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, SaveRun(ctx, st, "run-1", sampleResult()))

	for _, name := range []string{"result.json", "equity.csv", "trades.csv"} {
		ok, err := st.Exists(ctx, "runs/run-1/"+name)
		require.NoError(t, err)
		assert.True(t, ok, "missing artifact %s", name)
	}

	data, err := st.Read(ctx, "runs/run-1/result.json")
	require.NoError(t, err)

	var restored pipeline.Result
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, "KO", restored.Pair.SymbolA)
	assert.Equal(t, 4, restored.Bars)
}

func TestListRuns(t *testing.T) {
	st, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, SaveRun(ctx, st, "run-a", sampleResult()))
	require.NoError(t, SaveRun(ctx, st, "run-b", sampleResult()))

	ids, err := ListRuns(ctx, st)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"run-a", "run-b"}, ids)
}

func TestListRuns_EmptyArchive(t *testing.T) {
	st, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	ids, err := ListRuns(context.Background(), st)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLocalFS_ReadMissing(t *testing.T) {
	st, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	_, err = st.Read(context.Background(), "runs/nope/result.json")
	require.Error(t, err)

	ok, err := st.Exists(context.Background(), "runs/nope/result.json")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalFS_WriteCreatesDirectories(t *testing.T) {
	st, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, st.Write(ctx, "deep/nested/dir/file.txt", []byte("x")))

	data, err := st.Read(ctx, "deep/nested/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}
