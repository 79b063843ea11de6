package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/newthinker/riskon/internal/backtest"
	"github.com/newthinker/riskon/internal/core"
	"github.com/newthinker/riskon/internal/signal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Grid is the fast/slow window search space; both ranges are inclusive
type Grid struct {
	Type    signal.MAType
	FastMin int
	FastMax int
	SlowMin int
	SlowMax int
	Step    int
}

// Combinations enumerates valid crossovers (fast < slow) in grid order
func (g Grid) Combinations() ([]*signal.Crossover, error) {
	if g.Step <= 0 {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("sweep step must be positive, got %d", g.Step))
	}
	if g.FastMin <= 0 || g.FastMin > g.FastMax || g.SlowMin > g.SlowMax {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("invalid sweep ranges fast=[%d,%d] slow=[%d,%d]", g.FastMin, g.FastMax, g.SlowMin, g.SlowMax))
	}

	var out []*signal.Crossover
	for fast := g.FastMin; fast <= g.FastMax; fast += g.Step {
		for slow := g.SlowMin; slow <= g.SlowMax; slow += g.Step {
			if fast >= slow {
				continue
			}
			c, err := signal.NewCrossover(g.Type, fast, slow)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("sweep grid has no fast < slow combination"))
	}
	return out, nil
}

// SweepRow is the outcome of one combination
type SweepRow struct {
	Signal string          `json:"signal"`
	Fast   int             `json:"fast"`
	Slow   int             `json:"slow"`
	Report backtest.Report `json:"report"`
}

// Ranked returns the metrics used for ranking: the test split when present
func (r SweepRow) Ranked() *backtest.Metrics {
	if r.Report.Test != nil {
		return r.Report.Test
	}
	return &r.Report.Full
}

// GridFromConfig converts the configured sweep section
func (a *App) GridFromConfig() Grid {
	return Grid{
		Type:    signal.MAType(a.cfg.Signal.Type),
		FastMin: a.cfg.Sweep.FastMin,
		FastMax: a.cfg.Sweep.FastMax,
		SlowMin: a.cfg.Sweep.SlowMin,
		SlowMax: a.cfg.Sweep.SlowMax,
		Step:    a.cfg.Sweep.Step,
	}
}

// Sweep fetches prices once and backtests every grid combination in
// parallel. Rows are ranked by profit factor, then Sharpe ratio, best first.
func (a *App) Sweep(ctx context.Context, job Job, grid Grid) ([]SweepRow, error) {
	combos, err := grid.Combinations()
	if err != nil {
		return nil, err
	}

	prices, _, err := a.fetch(ctx, job)
	if err != nil {
		return nil, err
	}

	base := a.BacktestConfig()
	rows := make([]SweepRow, len(combos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.cfg.Sweep.Parallelism))

	for i, c := range combos {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg := base
			cfg.MinPoints = max(cfg.MinPoints, c.RequiredPoints())

			result, err := backtest.Run(prices, c.Exposure(prices), cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			rows[i] = SweepRow{Signal: c.Name(), Fast: c.Fast, Slow: c.Slow, Report: result.Report}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweeping %s: %w", job.Symbol, err)
	}

	Rank(rows)

	if a.metrics != nil {
		a.metrics.RecordSweepCombinations(len(rows))
	}
	a.logger.Info("sweep finished",
		zap.String("symbol", job.Symbol),
		zap.Int("combinations", len(rows)),
		zap.String("best", rows[0].Signal),
	)
	return rows, nil
}

// Rank orders rows by profit factor then Sharpe ratio, descending, with
// undefined values last and ties kept in grid order.
func Rank(rows []SweepRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		mi, mj := rows[i].Ranked(), rows[j].Ranked()
		pi, pj := mi.Trades.ProfitFactor, mj.Trades.ProfitFactor
		if pi != pj {
			return pj.Less(pi)
		}
		return mj.SharpeRatio.Less(mi.SharpeRatio)
	})
}
