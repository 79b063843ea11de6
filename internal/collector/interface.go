package collector

import (
	"context"
	"time"

	"github.com/newthinker/riskon/internal/core"
)

// PriceSource loads a daily close series for one asset
type PriceSource interface {
	Name() string

	// FetchHistory returns prices in [start, end] ordered by time. A zero start
	// or end leaves that side open. The exposure slice is nil unless the source
	// carries a precomputed exposure column, in which case it is aligned to the
	// prices.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PricePoint, []float64, error)
}

// InRange reports whether t falls inside the optional [start, end] window
func InRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}
