package backtest

import (
	"fmt"

	"github.com/newthinker/riskon/internal/core"
)

// Validate checks the run configuration
func (c Config) Validate() error {
	if c.PeriodsPerYear <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("periods_per_year must be positive, got %d", c.PeriodsPerYear))
	}
	if c.TrainFrac != 0 && !(c.TrainFrac > 0 && c.TrainFrac < 1) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("train_frac must be in (0,1), got %v", c.TrainFrac))
	}
	if c.MinPoints < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_points cannot be negative, got %d", c.MinPoints))
	}
	if c.Epsilon < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("epsilon cannot be negative, got %v", c.Epsilon))
	}
	return nil
}

// Run backtests a long-only exposure series against a price series.
//
// Malformed input (length mismatch, non-positive prices, non-increasing
// timestamps, exposure outside [0,1]) and invalid config fail before any
// computation. Input shorter than max(2, cfg.MinPoints) is not an error: the
// result has an empty series and an all-undefined report.
func Run(prices []core.PricePoint, exposure []float64, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateSeries(prices, exposure); err != nil {
		return nil, err
	}

	if len(prices) < 2 || len(prices) < cfg.MinPoints {
		return &Result{
			Series: Series{},
			Trades: []Trade{},
			Report: Report{Full: Metrics{YearlyReturns: map[int]float64{}}},
		}, nil
	}

	series := BuildSeries(prices, exposure)
	trades := annotate(series)

	report := Report{Full: Evaluate(series, cfg)}

	if cfg.TrainFrac != 0 {
		train, test, idx, err := Split(series, cfg.TrainFrac)
		if err != nil {
			return nil, err
		}
		trainMetrics := Evaluate(train, cfg)
		testMetrics := Evaluate(test, cfg)
		report.Train = &trainMetrics
		report.Test = &testMetrics
		report.Split = &SplitInfo{Frac: cfg.TrainFrac, Index: idx}
		if len(test) > 0 {
			report.Split.TestStart = test[0].Time
		}
	}

	return &Result{
		StartDate: series[0].Time,
		EndDate:   series[len(series)-1].Time,
		Series:    series,
		Trades:    trades,
		Report:    report,
	}, nil
}

// Evaluate computes metrics and trade statistics for one sample. Equity is
// rebuilt from 1.0 so a test sample does not inherit the train sample's level.
func Evaluate(series Series, cfg Config) Metrics {
	strategy := series.StrategyLogReturns()
	times := series.Times()

	m := ComputeMetrics(MetricsInput{
		Times:          times,
		StrategyLog:    strategy,
		Equity:         EquityCurve(strategy),
		BuyHoldEquity:  EquityCurve(series.BuyHoldLogReturns()),
		PeriodsPerYear: cfg.PeriodsPerYear,
		Epsilon:        cfg.epsilon(),
	})

	trades, _ := SegmentTrades(times, series.AppliedExposure(), strategy)
	m.Trades = CalculateStats(TradeReturns(trades), cfg.epsilon())

	return m
}

// annotate fills the full-sample equity, drawdown and trade-id columns
func annotate(series Series) []Trade {
	strategy := series.StrategyLogReturns()
	equity := EquityCurve(strategy)
	bhEquity := EquityCurve(series.BuyHoldLogReturns())
	dd := Drawdown(equity)
	bhDD := Drawdown(bhEquity)
	trades, ids := SegmentTrades(series.Times(), series.AppliedExposure(), strategy)

	for i := range series {
		series[i].Equity = equity[i]
		series[i].BuyHoldEquity = bhEquity[i]
		series[i].Drawdown = dd[i]
		series[i].BuyHoldDrawdown = bhDD[i]
		series[i].TradeID = ids[i]
	}

	if trades == nil {
		trades = []Trade{}
	}
	return trades
}
