package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pairwise/internal/collector"
	"github.com/newthinker/pairwise/internal/core"
)

const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1704067200, 1704153600, 1704240000],
      "indicators": {
        "quote": [{"close": [185.5, null, 187.25]}]
      }
    }],
    "error": null
  }
}`

func TestFetchDailyCloses(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	data, err := NewWithBase(srv.URL).FetchDailyCloses(context.Background(), "AAPL", collector.Range1Y)
	require.NoError(t, err)
	require.Len(t, data, 3)

	assert.Equal(t, "/AAPL", gotPath)
	assert.Equal(t, "interval=1d&range=1y", gotQuery)

	require.NotNil(t, data[0].Close)
	assert.Equal(t, 185.5, *data[0].Close)
	assert.Equal(t, time.Unix(1704067200, 0).UTC(), data[0].Date)

	// Days without a quote keep a nil close; alignment drops them later.
	assert.Nil(t, data[1].Close)
	require.NotNil(t, data[2].Close)
	assert.Equal(t, 187.25, *data[2].Close)
}

func TestFetchDailyCloses_DefaultRange(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	_, err := NewWithBase(srv.URL).FetchDailyCloses(context.Background(), "AAPL", "")
	require.NoError(t, err)
	assert.Equal(t, "interval=1d&range=3y", gotQuery)
}

func TestFetchDailyCloses_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewWithBase(srv.URL).FetchDailyCloses(context.Background(), "AAPL", collector.Range1Y)
	require.ErrorIs(t, err, core.ErrDataUnavailable)
}

func TestFetchDailyCloses_YahooError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	_, err := NewWithBase(srv.URL).FetchDailyCloses(context.Background(), "NOPE", collector.Range1Y)
	require.ErrorIs(t, err, core.ErrDataUnavailable)
}

func TestFetchDailyCloses_InvalidSymbol(t *testing.T) {
	for _, symbol := range []string{"", "../etc/passwd", "WAY-TOO-LONG-SYMBOL", "a b"} {
		_, err := New().FetchDailyCloses(context.Background(), symbol, collector.Range1Y)
		assert.ErrorIs(t, err, core.ErrDataUnavailable, "symbol %q", symbol)
	}
}

func TestFetchDailyCloses_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewWithBase(srv.URL).FetchDailyCloses(ctx, "AAPL", collector.Range1Y)
	require.ErrorIs(t, err, core.ErrDataUnavailable)
}
