package main

import (
	"fmt"
	"os"

	"github.com/newthinker/riskon/internal/app"
	"github.com/newthinker/riskon/internal/report"
	"github.com/newthinker/riskon/internal/signal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	backtestSource string
	backtestLabel  string
	backtestFrom   string
	backtestTo     string
	backtestMA     string
	backtestFast   int
	backtestSlow   int
	backtestOutput string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest <symbol>",
	Short: "Backtest a risk-on signal on one asset",
	Long: `Load the price history for a symbol, derive exposure from the moving-average
crossover (or the file's exposure column), and report performance.`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSource, "source", "", "price source (csv or yahoo), overrides data.source")
	backtestCmd.Flags().StringVar(&backtestLabel, "label", "", "archive label (default: symbol)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "end date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestMA, "ma", "", "moving average type (sma or ema)")
	backtestCmd.Flags().IntVar(&backtestFast, "fast", 0, "fast window, overrides signal.fast")
	backtestCmd.Flags().IntVar(&backtestSlow, "slow", 0, "slow window, overrides signal.slow")
	backtestCmd.Flags().StringVarP(&backtestOutput, "output", "o", report.FormatTable, "output format: table, json, flat or yaml")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	start, end, err := parseRange(backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer flushMetrics(cfg, a, log)

	job := app.Job{
		Label:  backtestLabel,
		Symbol: args[0],
		Source: backtestSource,
		Start:  start,
		End:    end,
	}

	// Explicit signal flags take precedence over a file's exposure column
	if backtestMA != "" || backtestFast > 0 || backtestSlow > 0 {
		maType, fast, slow := cfg.Signal.Type, cfg.Signal.Fast, cfg.Signal.Slow
		if backtestMA != "" {
			maType = backtestMA
		}
		if backtestFast > 0 {
			fast = backtestFast
		}
		if backtestSlow > 0 {
			slow = backtestSlow
		}
		sig, err := signal.NewCrossover(signal.MAType(maType), fast, slow)
		if err != nil {
			return err
		}
		job.Signal = sig
	}

	ctx, cancel := signalContext()
	defer cancel()

	out, err := a.RunBacktest(ctx, job)
	if err != nil {
		return err
	}

	if err := report.Write(os.Stdout, backtestOutput, out.Snapshot); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if out.ArchiveKey != "" {
		log.Info("snapshot archived", zap.String("key", out.ArchiveKey))
	}
	return nil
}
