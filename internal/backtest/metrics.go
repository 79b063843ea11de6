package backtest

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MetricsInput carries one sample's series into ComputeMetrics
type MetricsInput struct {
	Times          []time.Time // timestamp of each return
	StrategyLog    []float64
	Equity         []float64 // strategy equity built from StrategyLog
	BuyHoldEquity  []float64
	PeriodsPerYear int
	Epsilon        float64
}

// ComputeMetrics computes return, risk and risk-adjusted statistics for a
// single sample. An empty sample yields every scalar Undefined and no yearly
// returns. Without a positive PeriodsPerYear the annualised figures (CAGR,
// volatility, Sharpe, Sortino, Calmar) stay Undefined. Trade statistics are
// not filled here.
func ComputeMetrics(in MetricsInput) Metrics {
	n := len(in.StrategyLog)
	m := Metrics{
		Periods:       n,
		YearlyReturns: map[int]float64{},
	}
	if n == 0 {
		return m
	}

	eps := in.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	var years float64
	if in.PeriodsPerYear > 0 {
		years = float64(n) / float64(in.PeriodsPerYear)
	}
	annualize := in.PeriodsPerYear > 0
	annualizer := math.Sqrt(float64(max(in.PeriodsPerYear, 0)))

	finalEq, hasEq := last(in.Equity)
	finalBH, hasBH := last(in.BuyHoldEquity)
	if hasEq {
		m.TotalReturnStrategy = Num(finalEq - 1)
		m.CAGRStrategy = cagr(finalEq, years)
	}
	if hasBH {
		m.TotalReturnBuyHold = Num(finalBH - 1)
		m.CAGRBuyHold = cagr(finalBH, years)
	}
	m.MaxDrawdownStrategy = MaxDrawdown(in.Equity)
	m.MaxDrawdownBuyHold = MaxDrawdown(in.BuyHoldEquity)

	mean, std := stat.PopMeanStdDev(in.StrategyLog, nil)
	m.DailyMean = Num(mean)
	m.DailyStd = Num(std)

	if annualize && std > eps {
		m.AnnualVolatility = Num(std * annualizer)
		m.SharpeRatio = Num(annualizer * mean / std)
	}

	if mdd, ok := m.MaxDrawdownStrategy.Float(); ok && mdd < 0 && m.CAGRStrategy.Defined() {
		c, _ := m.CAGRStrategy.Float()
		m.CalmarRatio = Num(c / math.Abs(mdd))
	}

	downside := make([]float64, n)
	for i, r := range in.StrategyLog {
		downside[i] = math.Min(r, 0)
	}
	downStd := stat.PopStdDev(downside, nil)
	switch {
	case !annualize:
	case downStd > eps:
		m.SortinoRatio = Num(annualizer * mean / downStd)
	case mean > 0:
		m.SortinoRatio = Inf()
	}

	m.AnnualSkew, m.AnnualKurtosis = moments(in.StrategyLog, eps)
	m.YearlyReturns = YearlyReturns(in.Times, in.StrategyLog)

	return m
}

// YearlyReturns compounds simple returns within each calendar year of the
// return's timestamp
func YearlyReturns(times []time.Time, logReturns []float64) map[int]float64 {
	growth := make(map[int]float64)
	for i, r := range logReturns {
		if i >= len(times) {
			break
		}
		y := times[i].Year()
		g, ok := growth[y]
		if !ok {
			g = 1
		}
		growth[y] = g * (1 + math.Expm1(r))
	}

	out := make(map[int]float64, len(growth))
	for y, g := range growth {
		out[y] = g - 1
	}
	return out
}

// moments returns the bias-adjusted Fisher-Pearson skewness (G1) and excess
// kurtosis (G2) of x. gonum divides by the sample standard deviation, so a
// flat sample has to be caught before it turns into NaN.
func moments(x []float64, eps float64) (skew, kurt Value) {
	n := len(x)
	if n < 3 || stat.StdDev(x, nil) <= eps {
		return Undefined(), Undefined()
	}
	skew = Num(stat.Skew(x, nil))
	if n >= 4 {
		kurt = Num(stat.ExKurtosis(x, nil))
	}
	return skew, kurt
}

func cagr(final, years float64) Value {
	if years <= 0 || final <= 0 {
		return Undefined()
	}
	return Num(math.Pow(final, 1/years) - 1)
}

func last(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return xs[len(xs)-1], true
}
