package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/newthinker/riskon/internal/config"
	"github.com/newthinker/riskon/internal/core"
	"github.com/newthinker/riskon/internal/signal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProfileRun is the outcome of one configured profile. Err is set when the
// profile could not be backtested; other profiles still run.
type ProfileRun struct {
	Name    string
	Symbol  string
	Outcome *Outcome
	Err     error
}

// Skipped reports whether the profile had too little data to backtest
func (r ProfileRun) Skipped() bool {
	return r.Err == nil && r.Outcome != nil && r.Outcome.Result.IsEmpty()
}

// ProfileJob builds the backtest job for a named profile
func (a *App) ProfileJob(name string, p config.ProfileConfig, start, end time.Time) (Job, error) {
	maType := p.Type
	if maType == "" {
		maType = a.cfg.Signal.Type
	}
	sig, err := signal.NewCrossover(signal.MAType(maType), p.Fast, p.Slow)
	if err != nil {
		return Job{}, fmt.Errorf("profile %s: %w", name, err)
	}
	return Job{
		Label:  name,
		Symbol: p.Symbol,
		Source: p.Source,
		Start:  start,
		End:    end,
		Signal: sig,
	}, nil
}

// RunProfiles backtests every configured profile in parallel, each asset
// with its own crossover. Runs are independent: a failing profile is
// reported in its row. Rows are sorted by profile name.
func (a *App) RunProfiles(ctx context.Context, start, end time.Time) ([]ProfileRun, error) {
	if len(a.cfg.Profiles) == 0 {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("no profiles configured"))
	}

	names := make([]string, 0, len(a.cfg.Profiles))
	for name := range a.cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	runs := make([]ProfileRun, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.cfg.Sweep.Parallelism))

	for i, name := range names {
		p := a.cfg.Profiles[name]
		runs[i] = ProfileRun{Name: name, Symbol: p.Symbol}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			job, err := a.ProfileJob(name, p, start, end)
			if err != nil {
				runs[i].Err = err
				return nil
			}
			out, err := a.RunBacktest(ctx, job)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Warn("profile backtest failed", zap.String("profile", name), zap.Error(err))
				runs[i].Err = err
			}
			runs[i].Outcome = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("running profiles: %w", err)
	}

	var failed int
	for _, r := range runs {
		if r.Err != nil {
			failed++
		}
	}
	a.logger.Info("profiles finished",
		zap.Int("profiles", len(runs)),
		zap.Int("failed", failed),
	)
	return runs, nil
}
