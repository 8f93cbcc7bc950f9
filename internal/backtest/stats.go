package backtest

import (
	"math"
)

// tradingDaysPerYear is the annualization factor for daily Sharpe ratios.
const tradingDaysPerYear = 252

// ComputeStats derives summary statistics from an equity curve and trade
// log. It never recomputes the simulation and never returns NaN or Inf:
// a flat return series reports Sharpe 0 and no closed trades report win
// rate 0.
func ComputeStats(equity []EquityPoint, trades []Trade) Stats {
	stats := Stats{TotalTrades: len(trades)}

	for _, t := range trades {
		if !t.IsClosed() {
			continue
		}
		stats.ClosedTrades++
		if t.ForcedClose {
			stats.ForcedCloses++
		}
		if t.IsWin() {
			stats.WinningTrades++
		} else {
			stats.LosingTrades++
		}
	}
	if stats.ClosedTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.ClosedTrades)
	}

	if len(equity) == 0 {
		return stats
	}

	start := equity[0].Value
	final := equity[len(equity)-1].Value
	if start > 0 {
		stats.TotalReturn = final/start - 1
	}

	stats.SharpeRatio = sharpeRatio(dailyReturns(equity))
	stats.MaxDrawdown = maxDrawdown(equity)

	return stats
}

// dailyReturns converts the equity curve into simple daily returns.
func dailyReturns(equity []EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev <= 0 {
			continue
		}
		returns = append(returns, equity[i].Value/prev-1)
	}
	return returns
}

// sharpeRatio computes the annualized Sharpe ratio with a zero risk-free
// rate. Returns 0 for fewer than two observations or a zero-variance
// return series.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))

	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown finds the largest peak-to-trough decline of the portfolio
// value as a fraction of the running peak. Single pass, always in [0, 1].
func maxDrawdown(equity []EquityPoint) float64 {
	var maxDD float64
	peak := equity[0].Value

	for _, p := range equity {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}
