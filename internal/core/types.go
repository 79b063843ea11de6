package core

import (
	"fmt"
	"math"
	"time"
)

// PricePoint is one observation of a price series
type PricePoint struct {
	Time  time.Time
	Price float64
}

// IsValid checks the point has a timestamp and a positive finite price
func (p PricePoint) IsValid() bool {
	return !p.Time.IsZero() && p.Price > 0 && !math.IsInf(p.Price, 0)
}

// Prices extracts the price column
func Prices(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}

// ValidateSeries checks a price series and its aligned exposure series.
// It rejects mismatched lengths, missing or non-increasing timestamps,
// non-positive prices and exposures outside [0,1].
func ValidateSeries(prices []PricePoint, exposure []float64) error {
	if len(prices) != len(exposure) {
		return WrapError(ErrLengthMismatch,
			fmt.Errorf("%d prices vs %d exposure values", len(prices), len(exposure)))
	}

	for i, p := range prices {
		if p.Time.IsZero() {
			return WrapError(ErrNonMonotonicTime, fmt.Errorf("index %d: missing timestamp", i))
		}
		if !p.IsValid() {
			return WrapError(ErrNonPositivePrice,
				fmt.Errorf("index %d (%s): price %v", i, p.Time.Format(time.RFC3339), p.Price))
		}
		if i > 0 && !p.Time.After(prices[i-1].Time) {
			return WrapError(ErrNonMonotonicTime,
				fmt.Errorf("index %d: %s does not follow %s", i,
					p.Time.Format(time.RFC3339), prices[i-1].Time.Format(time.RFC3339)))
		}
		// NaN fails both comparisons
		if e := exposure[i]; !(e >= 0 && e <= 1) {
			return WrapError(ErrExposureRange, fmt.Errorf("index %d: exposure %v", i, e))
		}
	}

	return nil
}
