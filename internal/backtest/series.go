package backtest

import (
	"math"

	"github.com/newthinker/riskon/internal/core"
)

// BuildSeries converts prices to log returns and applies the one-period
// exposure lag. The first price has no prior and is dropped, so the result
// has len(prices)-1 rows; fewer than two prices yields an empty series.
// Inputs are assumed to have passed core.ValidateSeries.
func BuildSeries(prices []core.PricePoint, exposure []float64) Series {
	if len(prices) < 2 {
		return Series{}
	}

	series := make(Series, 0, len(prices)-1)
	for t := 1; t < len(prices); t++ {
		logRet := math.Log(prices[t].Price / prices[t-1].Price)

		// The first output row has no prior decision.
		applied := 0.0
		if t > 1 {
			applied = exposure[t-1]
		}

		series = append(series, Row{
			Time:              prices[t].Time,
			Price:             prices[t].Price,
			Exposure:          exposure[t],
			ExposureApplied:   applied,
			LogReturn:         logRet,
			StrategyLogReturn: logRet * applied,
			BuyHoldLogReturn:  logRet,
		})
	}

	return series
}
