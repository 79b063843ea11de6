package indicator

import "math"

// SMA calculates a Simple Moving Average aligned to the input: out[i] is the
// mean of prices[i-period+1..i], NaN while the window is still filling.
func SMA(prices []float64, period int) []float64 {
	result := warmup(len(prices))
	if period <= 0 || len(prices) < period {
		return result
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result[period-1] = sum / float64(period)

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result[i] = sum / float64(period)
	}

	return result
}

// EMA calculates an Exponential Moving Average aligned to the input, seeded
// with the SMA of the first window; NaN before that.
func EMA(prices []float64, period int) []float64 {
	result := warmup(len(prices))
	if period <= 0 || len(prices) < period {
		return result
	}

	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema := sum / float64(period)
	result[period-1] = ema

	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		result[i] = ema
	}

	return result
}

// Ready reports whether an aligned indicator value is past its warm-up
func Ready(v float64) bool {
	return !math.IsNaN(v)
}

func warmup(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
