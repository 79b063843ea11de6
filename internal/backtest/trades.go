package backtest

import (
	"math"
	"time"
)

// SegmentTrades partitions the applied-exposure series into trades.
// A trade opens where exposure moves from <= 0 to > 0 and runs until the next
// index where it is back to <= 0, or to the end of the data. The returned ids
// slice labels every index with its trade id, 0 when flat.
func SegmentTrades(times []time.Time, applied, strategyLog []float64) ([]Trade, []int) {
	ids := make([]int, len(applied))
	var trades []Trade
	var open *Trade

	closeTrade := func(end int) {
		open.End = end
		open.ExitTime = times[end-1]
		open.Return = math.Expm1(open.LogReturn)
		trades = append(trades, *open)
		open = nil
	}

	for i, exp := range applied {
		if exp > 0 {
			if open == nil {
				open = &Trade{
					ID:        len(trades) + 1,
					Start:     i,
					EntryTime: times[i],
				}
			}
			open.LogReturn += strategyLog[i]
			ids[i] = open.ID
			continue
		}
		if open != nil {
			closeTrade(i)
		}
	}

	// Still exposed at the last observation
	if open != nil {
		open.Open = true
		closeTrade(len(applied))
	}

	return trades, ids
}

// TradeReturns extracts the simple return of each trade
func TradeReturns(trades []Trade) []float64 {
	out := make([]float64, len(trades))
	for i, t := range trades {
		out[i] = t.Return
	}
	return out
}
