package backtest

import (
	"math"
)

// EquityCurve compounds log returns into growth factors, starting implicitly
// at 1.0 one period before the first entry. Sums stay in log space and are
// exponentiated once per point.
func EquityCurve(logReturns []float64) []float64 {
	curve := make([]float64, len(logReturns))
	var cum float64
	for i, r := range logReturns {
		cum += r
		curve[i] = math.Exp(cum)
	}
	return curve
}

// Drawdown returns equity/runningMax - 1 for each point
func Drawdown(equity []float64) []float64 {
	dd := make([]float64, len(equity))
	var peak float64
	for i, eq := range equity {
		if i == 0 || eq > peak {
			peak = eq
		}
		dd[i] = eq/peak - 1
	}
	return dd
}

// MaxDrawdown finds the largest peak-to-trough decline as a value <= 0,
// or Undefined for an empty curve
func MaxDrawdown(equity []float64) Value {
	if len(equity) == 0 {
		return Undefined()
	}

	var maxDD float64
	for _, dd := range Drawdown(equity) {
		if dd < maxDD {
			maxDD = dd
		}
	}
	return Num(maxDD)
}
