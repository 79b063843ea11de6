package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/newthinker/riskon/internal/backtest"
	"github.com/olekukonko/tablewriter"
)

// maxTradeRows caps the trade list printed to the console
const maxTradeRows = 20

// Console renders snapshots as tables
type Console struct {
	out io.Writer
}

// NewConsole creates a console renderer writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{out: w}
}

// Render prints the header, the metrics table, yearly returns and trades
func (c *Console) Render(s *Snapshot) {
	fmt.Fprintf(c.out, "\n%s  %s  [%s]\n", s.Symbol, s.Signal, s.RunID)
	if s.Points == 0 {
		fmt.Fprintf(c.out, "  not enough data to backtest (need at least %d points)\n\n", max(2, s.Config.MinPoints))
		return
	}
	fmt.Fprintf(c.out, "  %s to %s (%d periods)\n",
		s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.Points)
	if s.Report.Split != nil {
		fmt.Fprintf(c.out, "  train/test split at %.0f%%, test from %s\n",
			s.Report.Split.Frac*100, s.Report.Split.TestStart.Format("2006-01-02"))
	}
	fmt.Fprintln(c.out)

	c.printMetrics(s.Report)
	c.printYearly(s.Report.Full.YearlyReturns)
	c.printTrades(s.Trades)
}

type metricRow struct {
	name   string
	format string
	scale  float64
	get    func(m *backtest.Metrics) backtest.Value
}

var metricRows = []metricRow{
	{"Total return", "%.2f%%", 100, func(m *backtest.Metrics) backtest.Value { return m.TotalReturnStrategy }},
	{"Total return (B&H)", "%.2f%%", 100, func(m *backtest.Metrics) backtest.Value { return m.TotalReturnBuyHold }},
	{"CAGR", "%.2f%%", 100, func(m *backtest.Metrics) backtest.Value { return m.CAGRStrategy }},
	{"CAGR (B&H)", "%.2f%%", 100, func(m *backtest.Metrics) backtest.Value { return m.CAGRBuyHold }},
	{"Max drawdown", "%.2f%%", 100, func(m *backtest.Metrics) backtest.Value { return m.MaxDrawdownStrategy }},
	{"Max drawdown (B&H)", "%.2f%%", 100, func(m *backtest.Metrics) backtest.Value { return m.MaxDrawdownBuyHold }},
	{"Annual volatility", "%.2f%%", 100, func(m *backtest.Metrics) backtest.Value { return m.AnnualVolatility }},
	{"Sharpe", "%.2f", 1, func(m *backtest.Metrics) backtest.Value { return m.SharpeRatio }},
	{"Sortino", "%.2f", 1, func(m *backtest.Metrics) backtest.Value { return m.SortinoRatio }},
	{"Calmar", "%.2f", 1, func(m *backtest.Metrics) backtest.Value { return m.CalmarRatio }},
	{"Skew", "%.2f", 1, func(m *backtest.Metrics) backtest.Value { return m.AnnualSkew }},
	{"Excess kurtosis", "%.2f", 1, func(m *backtest.Metrics) backtest.Value { return m.AnnualKurtosis }},
	{"Avg trade", "%.2f%%", 100, func(m *backtest.Metrics) backtest.Value { return m.Trades.AvgReturn }},
	{"Profit factor", "%.2f", 1, func(m *backtest.Metrics) backtest.Value { return m.Trades.ProfitFactor }},
}

func (c *Console) printMetrics(r backtest.Report) {
	samples := []*backtest.Metrics{&r.Full}
	header := []any{"Metric", "Full"}
	if r.Train != nil && r.Test != nil {
		samples = append(samples, r.Train, r.Test)
		header = append(header, "Train", "Test")
	}

	table := tablewriter.NewWriter(c.out)
	table.Header(header...)

	for _, row := range metricRows {
		cells := []any{row.name}
		for _, m := range samples {
			cells = append(cells, row.get(m).Render(row.format, row.scale))
		}
		table.Append(cells...)
	}

	trades := []any{"Trades"}
	winRate := []any{"Win rate"}
	for _, m := range samples {
		trades = append(trades, strconv.Itoa(m.Trades.TotalNum))
		winRate = append(winRate, fmt.Sprintf("%.1f%%", m.Trades.PctProfitable*100))
	}
	table.Append(trades...)
	table.Append(winRate...)

	table.Render()
	fmt.Fprintln(c.out, "  n/a = undefined for this sample | ∞ = no losing trades / no downside")
}

func (c *Console) printYearly(yearly map[int]float64) {
	if len(yearly) == 0 {
		return
	}
	years := make([]int, 0, len(yearly))
	for y := range yearly {
		years = append(years, y)
	}
	sort.Ints(years)

	fmt.Fprintf(c.out, "\n  --- YEARLY RETURNS ---\n")
	table := tablewriter.NewWriter(c.out)
	table.Header("Year", "Return")
	for _, y := range years {
		table.Append(strconv.Itoa(y), fmt.Sprintf("%.2f%%", yearly[y]*100))
	}
	table.Render()
}

func (c *Console) printTrades(trades []backtest.Trade) {
	if len(trades) == 0 {
		fmt.Fprintf(c.out, "\n  no trades\n")
		return
	}

	fmt.Fprintf(c.out, "\n  --- TRADES ---\n")
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Entry", "Exit", "Bars", "Return", "Status")

	shown := trades
	if len(shown) > maxTradeRows {
		shown = shown[len(shown)-maxTradeRows:]
	}
	for _, t := range shown {
		status := "open"
		if t.IsClosed() {
			status = "loss"
			if t.IsWin() {
				status = "win"
			}
		}
		table.Append(
			strconv.Itoa(t.ID),
			t.EntryTime.Format("2006-01-02"),
			t.ExitTime.Format("2006-01-02"),
			strconv.Itoa(t.Bars()),
			fmt.Sprintf("%.2f%%", t.Return*100),
			status,
		)
	}
	table.Render()

	if len(trades) > len(shown) {
		fmt.Fprintf(c.out, "  showing last %d of %d trades\n", len(shown), len(trades))
	}
}
