package backtest

import (
	"math"
)

// CalculateStats computes trade-level statistics from simple trade returns.
// With no trades every field holds its documented empty sentinel: zero for
// counts, rates and extremes, Undefined for the average and profit factor.
func CalculateStats(returns []float64, eps float64) TradeStats {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	if len(returns) == 0 {
		return TradeStats{}
	}

	var stats TradeStats
	var sum, winSum, lossSum float64
	maxWin, maxLoss := math.Inf(-1), math.Inf(1)

	for _, r := range returns {
		sum += r
		if r > 0 {
			stats.Winners++
			winSum += r
			maxWin = math.Max(maxWin, r)
		} else {
			stats.Losers++
			lossSum += r
			maxLoss = math.Min(maxLoss, r)
		}
	}

	total := len(returns)
	stats.TotalNum = total
	stats.PctProfitable = float64(stats.Winners) / float64(total)
	stats.AvgReturn = Num(sum / float64(total))

	if stats.Winners > 0 {
		stats.AvgWin = winSum / float64(stats.Winners)
		stats.MaxWin = maxWin
	}
	if stats.Losers > 0 {
		stats.AvgLoss = lossSum / float64(stats.Losers)
		stats.MaxLoss = maxLoss
	}

	stats.GrossProfit = winSum
	stats.GrossLoss = math.Abs(lossSum)

	switch {
	case stats.GrossLoss > eps:
		stats.ProfitFactor = Num(stats.GrossProfit / stats.GrossLoss)
	case stats.GrossProfit > 0:
		stats.ProfitFactor = Inf()
	}

	return stats
}
