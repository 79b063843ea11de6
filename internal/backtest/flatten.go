package backtest

// Flatten renders the metrics as the flat key/value map downstream report
// and summary consumers read. Undefined values are nil and +Inf is "+Inf".
func (m Metrics) Flatten() map[string]any {
	out := map[string]any{
		"periods":                    m.Periods,
		"total_return_strategy":      m.TotalReturnStrategy.flat(),
		"total_return_buy_hold":      m.TotalReturnBuyHold.flat(),
		"cagr_strategy":              m.CAGRStrategy.flat(),
		"cagr_buy_hold":              m.CAGRBuyHold.flat(),
		"max_drawdown_strategy":      m.MaxDrawdownStrategy.flat(),
		"max_drawdown_buy_hold":      m.MaxDrawdownBuyHold.flat(),
		"daily_mean":                 m.DailyMean.flat(),
		"daily_std":                  m.DailyStd.flat(),
		"annual_volatility_strategy": m.AnnualVolatility.flat(),
		"sharpe_ratio":               m.SharpeRatio.flat(),
		"sortino_ratio":              m.SortinoRatio.flat(),
		"calmar_ratio":               m.CalmarRatio.flat(),
		"annual_skew":                m.AnnualSkew.flat(),
		"annual_kurtosis":            m.AnnualKurtosis.flat(),
		"yearly_returns":             m.YearlyReturns,

		"trades_total_num":      m.Trades.TotalNum,
		"trades_pct_profitable": m.Trades.PctProfitable,
		"trades_avg_return":     m.Trades.AvgReturn.flat(),
		"trades_avg_win":        m.Trades.AvgWin,
		"trades_avg_loss":       m.Trades.AvgLoss,
		"trades_profit_factor":  m.Trades.ProfitFactor.flat(),
		"trades_max_win":        m.Trades.MaxWin,
		"trades_max_loss":       m.Trades.MaxLoss,
	}

	// Older report scripts read these names
	out["annual_return_estimate"] = out["cagr_strategy"]
	out["annual_volatility"] = out["annual_volatility_strategy"]
	out["max_drawdown"] = out["max_drawdown_strategy"]

	return out
}

// Flatten merges the full-sample keys with train_ and test_ prefixed copies
func (r Report) Flatten() map[string]any {
	out := r.Full.Flatten()
	if r.Train != nil {
		for k, v := range r.Train.Flatten() {
			out["train_"+k] = v
		}
	}
	if r.Test != nil {
		for k, v := range r.Test.Flatten() {
			out["test_"+k] = v
		}
	}
	return out
}
