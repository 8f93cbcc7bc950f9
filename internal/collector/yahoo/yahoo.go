package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/newthinker/pairwise/internal/collector"
	"github.com/newthinker/pairwise/internal/core"
)

const baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// validSymbol matches stock symbols like AAPL, MSFT, 0700.HK
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9\-]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements the Yahoo Finance daily close provider.
type Yahoo struct {
	client *http.Client
	base   string
}

// New creates a new Yahoo provider.
func New() *Yahoo {
	return &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		base: baseURL,
	}
}

// NewWithBase creates a provider against a custom chart endpoint. Used by
// tests and by deployments that proxy Yahoo.
func NewWithBase(base string) *Yahoo {
	y := New()
	y.base = base
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// FetchDailyCloses fetches daily closes over the given range. Days Yahoo
// reports without a close keep a nil Close so alignment can drop them.
func (y *Yahoo) FetchDailyCloses(ctx context.Context, symbol string, rng collector.Range) ([]core.DailyClose, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	if rng == "" {
		rng = collector.Range3Y
	}

	url := fmt.Sprintf("%s/%s?interval=1d&range=%s", y.base, symbol, rng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("fetching closes: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("decoding response: %w", err))
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}

	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("no data for symbol: %s", symbol))
	}

	r := result.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("no quote data for symbol: %s", symbol))
	}

	closes := r.Indicators.Quote[0].Close
	data := make([]core.DailyClose, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		obs := core.DailyClose{Date: time.Unix(int64(ts), 0).UTC()}
		if i < len(closes) {
			obs.Close = closes[i]
		}
		data = append(data, obs)
	}

	return data, nil
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int      `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Close []*float64 `json:"close"`
}
