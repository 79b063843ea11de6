package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/newthinker/riskon/internal/app"
	"github.com/newthinker/riskon/internal/signal"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	sweepSource string
	sweepFrom   string
	sweepTo     string
	sweepMA     string
	sweepTop    int
	sweepJSON   bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <symbol>",
	Short: "Rank fast/slow window combinations",
	Long: `Backtest every fast/slow crossover in the configured grid in parallel and
rank them by test-sample profit factor, then Sharpe ratio.`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepSource, "source", "", "price source (csv or yahoo), overrides data.source")
	sweepCmd.Flags().StringVar(&sweepFrom, "from", "", "start date YYYY-MM-DD")
	sweepCmd.Flags().StringVar(&sweepTo, "to", "", "end date YYYY-MM-DD")
	sweepCmd.Flags().StringVar(&sweepMA, "ma", "", "moving average type (sma or ema)")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 10, "rows to print, 0 for all")
	sweepCmd.Flags().BoolVar(&sweepJSON, "json", false, "print ranked rows as JSON")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	start, end, err := parseRange(sweepFrom, sweepTo)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer flushMetrics(cfg, a, log)

	grid := a.GridFromConfig()
	if sweepMA != "" {
		grid.Type = signal.MAType(sweepMA)
	}

	ctx, cancel := signalContext()
	defer cancel()

	rows, err := a.Sweep(ctx, app.Job{Symbol: args[0], Source: sweepSource, Start: start, End: end}, grid)
	if err != nil {
		return err
	}
	if sweepTop > 0 && len(rows) > sweepTop {
		rows = rows[:sweepTop]
	}

	if sweepJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Signal", "Profit factor", "Sharpe", "CAGR", "Max DD", "Trades")
	for i, r := range rows {
		m := r.Ranked()
		table.Append(
			strconv.Itoa(i+1),
			r.Signal,
			m.Trades.ProfitFactor.Render("%.2f", 1),
			m.SharpeRatio.Render("%.2f", 1),
			m.CAGRStrategy.Render("%.2f%%", 100),
			m.MaxDrawdownStrategy.Render("%.2f%%", 100),
			strconv.Itoa(m.Trades.TotalNum),
		)
	}
	table.Render()
	fmt.Println("  metrics are from the test sample when a train/test split is configured")
	return nil
}
