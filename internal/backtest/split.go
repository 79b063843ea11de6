package backtest

import (
	"fmt"
	"math"

	"github.com/newthinker/riskon/internal/core"
)

// Split cuts the series chronologically at floor(len*frac). Train is the
// prefix [0,idx) and test the suffix [idx,len); both share the input's
// backing array and concatenate back to it exactly.
func Split(series Series, frac float64) (train, test Series, idx int, err error) {
	if !(frac > 0 && frac < 1) {
		return nil, nil, 0, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("train fraction must be in (0,1), got %v", frac))
	}
	idx = int(math.Floor(float64(len(series)) * frac))
	return series[:idx:idx], series[idx:], idx, nil
}
