package backtest

import (
	"time"
)

// Config controls a single backtest run
type Config struct {
	PeriodsPerYear int     `json:"periods_per_year" yaml:"periods_per_year"`
	TrainFrac      float64 `json:"train_frac,omitempty" yaml:"train_frac,omitempty"` // 0 disables the split
	MinPoints      int     `json:"min_points,omitempty" yaml:"min_points,omitempty"` // upstream warm-up requirement
	Epsilon        float64 `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`       // zero threshold for denominators
}

// DefaultEpsilon is the denominator threshold used when Config.Epsilon is unset.
const DefaultEpsilon = 1e-12

// DefaultConfig returns daily settings for continuously traded assets
func DefaultConfig() Config {
	return Config{
		PeriodsPerYear: 365,
		TrainFrac:      0.7,
		Epsilon:        DefaultEpsilon,
	}
}

func (c Config) epsilon() float64 {
	if c.Epsilon > 0 {
		return c.Epsilon
	}
	return DefaultEpsilon
}

// Row is one point of the augmented series
type Row struct {
	Time              time.Time `json:"time" yaml:"time"`
	Price             float64   `json:"price" yaml:"price"`
	Exposure          float64   `json:"exposure" yaml:"exposure"`                 // decided at Time
	ExposureApplied   float64   `json:"exposure_applied" yaml:"exposure_applied"` // decided one period earlier
	LogReturn         float64   `json:"log_return" yaml:"log_return"`
	StrategyLogReturn float64   `json:"strategy_log_return" yaml:"strategy_log_return"`
	BuyHoldLogReturn  float64   `json:"buy_hold_log_return" yaml:"buy_hold_log_return"`
	Equity            float64   `json:"equity" yaml:"equity"`
	BuyHoldEquity     float64   `json:"buy_hold_equity" yaml:"buy_hold_equity"`
	Drawdown          float64   `json:"drawdown" yaml:"drawdown"`
	BuyHoldDrawdown   float64   `json:"buy_hold_drawdown" yaml:"buy_hold_drawdown"`
	TradeID           int       `json:"trade_id" yaml:"trade_id"`
}

// Series is the ordered augmented series
type Series []Row

func (s Series) column(f func(Row) float64) []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = f(r)
	}
	return out
}

// Times returns the timestamp column
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, r := range s {
		out[i] = r.Time
	}
	return out
}

// StrategyLogReturns returns the lagged strategy log-return column
func (s Series) StrategyLogReturns() []float64 {
	return s.column(func(r Row) float64 { return r.StrategyLogReturn })
}

// BuyHoldLogReturns returns the buy-and-hold log-return column
func (s Series) BuyHoldLogReturns() []float64 {
	return s.column(func(r Row) float64 { return r.BuyHoldLogReturn })
}

// AppliedExposure returns the post-lag exposure column
func (s Series) AppliedExposure() []float64 {
	return s.column(func(r Row) float64 { return r.ExposureApplied })
}

// Trade is a maximal contiguous block of positive applied exposure.
// Start and End index the series the trade was segmented from; End is exclusive.
type Trade struct {
	ID        int       `json:"id" yaml:"id"`
	Start     int       `json:"start" yaml:"start"`
	End       int       `json:"end" yaml:"end"`
	EntryTime time.Time `json:"entry_time" yaml:"entry_time"`
	ExitTime  time.Time `json:"exit_time" yaml:"exit_time"` // time of the last period held
	LogReturn float64   `json:"log_return" yaml:"log_return"`
	Return    float64   `json:"return" yaml:"return"`
	Open      bool      `json:"open" yaml:"open"` // still exposed at the last observation
}

// Bars returns the number of periods the trade was exposed
func (t Trade) Bars() int {
	return t.End - t.Start
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.Return > 0
}

// IsClosed returns true if exposure went back to zero before the data ended
func (t Trade) IsClosed() bool {
	return !t.Open
}

// TradeStats aggregates trade-level results
type TradeStats struct {
	TotalNum      int     `json:"trades_total_num" yaml:"trades_total_num"`
	Winners       int     `json:"trades_winners" yaml:"trades_winners"`
	Losers        int     `json:"trades_losers" yaml:"trades_losers"`
	PctProfitable float64 `json:"trades_pct_profitable" yaml:"trades_pct_profitable"`
	AvgReturn     Value   `json:"trades_avg_return" yaml:"trades_avg_return"`
	AvgWin        float64 `json:"trades_avg_win" yaml:"trades_avg_win"`
	AvgLoss       float64 `json:"trades_avg_loss" yaml:"trades_avg_loss"`
	GrossProfit   float64 `json:"trades_gross_profit" yaml:"trades_gross_profit"`
	GrossLoss     float64 `json:"trades_gross_loss" yaml:"trades_gross_loss"`
	ProfitFactor  Value   `json:"trades_profit_factor" yaml:"trades_profit_factor"`
	MaxWin        float64 `json:"trades_max_win" yaml:"trades_max_win"`
	MaxLoss       float64 `json:"trades_max_loss" yaml:"trades_max_loss"`
}

// Metrics is the performance report for one sample
type Metrics struct {
	Periods             int             `json:"periods" yaml:"periods"`
	TotalReturnStrategy Value           `json:"total_return_strategy" yaml:"total_return_strategy"`
	TotalReturnBuyHold  Value           `json:"total_return_buy_hold" yaml:"total_return_buy_hold"`
	CAGRStrategy        Value           `json:"cagr_strategy" yaml:"cagr_strategy"`
	CAGRBuyHold         Value           `json:"cagr_buy_hold" yaml:"cagr_buy_hold"`
	MaxDrawdownStrategy Value           `json:"max_drawdown_strategy" yaml:"max_drawdown_strategy"`
	MaxDrawdownBuyHold  Value           `json:"max_drawdown_buy_hold" yaml:"max_drawdown_buy_hold"`
	DailyMean           Value           `json:"daily_mean" yaml:"daily_mean"`
	DailyStd            Value           `json:"daily_std" yaml:"daily_std"`
	AnnualVolatility    Value           `json:"annual_volatility_strategy" yaml:"annual_volatility_strategy"`
	SharpeRatio         Value           `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	SortinoRatio        Value           `json:"sortino_ratio" yaml:"sortino_ratio"`
	CalmarRatio         Value           `json:"calmar_ratio" yaml:"calmar_ratio"`
	AnnualSkew          Value           `json:"annual_skew" yaml:"annual_skew"`
	AnnualKurtosis      Value           `json:"annual_kurtosis" yaml:"annual_kurtosis"`
	YearlyReturns       map[int]float64 `json:"yearly_returns" yaml:"yearly_returns"`
	Trades              TradeStats      `json:"trades" yaml:"trades"`
}

// SplitInfo describes where the series was cut
type SplitInfo struct {
	Frac      float64   `json:"frac" yaml:"frac"`
	Index     int       `json:"index" yaml:"index"`
	TestStart time.Time `json:"test_start,omitempty" yaml:"test_start,omitempty"`
}

// Report nests the full-sample metrics with optional train/test metrics
type Report struct {
	Full  Metrics    `json:"full" yaml:"full"`
	Train *Metrics   `json:"train,omitempty" yaml:"train,omitempty"`
	Test  *Metrics   `json:"test,omitempty" yaml:"test,omitempty"`
	Split *SplitInfo `json:"split,omitempty" yaml:"split,omitempty"`
}

// Result holds the complete backtest output
type Result struct {
	StartDate time.Time `json:"start_date" yaml:"start_date"`
	EndDate   time.Time `json:"end_date" yaml:"end_date"`
	Series    Series    `json:"series" yaml:"series"`
	Trades    []Trade   `json:"trades" yaml:"trades"`
	Report    Report    `json:"report" yaml:"report"`
}

// IsEmpty reports whether the run produced no series, e.g. for too-short input
func (r *Result) IsEmpty() bool {
	return len(r.Series) == 0
}
