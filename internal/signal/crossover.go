// Package signal derives a long-only exposure series from prices.
package signal

import (
	"fmt"

	"github.com/newthinker/riskon/internal/core"
	"github.com/newthinker/riskon/internal/indicator"
)

// MAType selects the moving average used by Crossover
type MAType string

const (
	MATypeSMA MAType = "sma"
	MATypeEMA MAType = "ema"
)

// Crossover is risk-on (exposure 1) while the fast moving average is above
// the slow one, risk-off otherwise and during the slow warm-up.
type Crossover struct {
	Type MAType
	Fast int
	Slow int
}

// NewCrossover creates a crossover signal, defaulting to SMA
func NewCrossover(maType MAType, fast, slow int) (*Crossover, error) {
	if maType == "" {
		maType = MATypeSMA
	}
	c := &Crossover{Type: maType, Fast: fast, Slow: slow}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the windows and moving-average type
func (c *Crossover) Validate() error {
	if c.Type != MATypeSMA && c.Type != MATypeEMA {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown moving average type %q", c.Type))
	}
	if c.Fast <= 0 || c.Slow <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("windows must be positive, got %d/%d", c.Fast, c.Slow))
	}
	if c.Fast >= c.Slow {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fast window %d must be shorter than slow window %d", c.Fast, c.Slow))
	}
	return nil
}

// Name identifies the signal in reports
func (c *Crossover) Name() string {
	return fmt.Sprintf("%s_crossover_%d_%d", c.Type, c.Fast, c.Slow)
}

// RequiredPoints is the warm-up needed before the signal can be risk-on
func (c *Crossover) RequiredPoints() int {
	return c.Slow
}

// Exposure returns one exposure value per price, decided on that bar's close
func (c *Crossover) Exposure(prices []core.PricePoint) []float64 {
	closes := core.Prices(prices)

	var fast, slow []float64
	switch c.Type {
	case MATypeEMA:
		fast, slow = indicator.EMA(closes, c.Fast), indicator.EMA(closes, c.Slow)
	default:
		fast, slow = indicator.SMA(closes, c.Fast), indicator.SMA(closes, c.Slow)
	}

	exposure := make([]float64, len(closes))
	for i := range closes {
		if indicator.Ready(fast[i]) && indicator.Ready(slow[i]) && fast[i] > slow[i] {
			exposure[i] = 1
		}
	}
	return exposure
}
