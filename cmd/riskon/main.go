package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/riskon/internal/app"
	"github.com/newthinker/riskon/internal/config"
	"github.com/newthinker/riskon/internal/core"
	"github.com/newthinker/riskon/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "riskon",
	Short: "riskon - risk-on/risk-off backtester",
	Long: `riskon backtests long-only exposure signals on a single asset and reports
strategy vs buy-and-hold performance on the full sample and a train/test split.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// Exit codes
const (
	exitFailure     = 1
	exitInvalidData = 2
	exitConfig      = 3
)

// exitCode maps malformed input to 2 and config problems to 3
func exitCode(err error) int {
	switch {
	case core.IsInputError(err), errors.Is(err, core.ErrMalformedData):
		return exitInvalidData
	case errors.Is(err, core.ErrConfigInvalid), errors.Is(err, core.ErrConfigMissing):
		return exitConfig
	default:
		return exitFailure
	}
}

// setup loads and validates config and builds the logger
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	opts := logger.Options{Development: debug, Level: cfg.Log.Level, Encoding: cfg.Log.Encoding}
	if debug {
		opts.Level = "debug"
	}
	log, err := logger.New(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults and environment")
	}
	return cfg, log, nil
}

// newApp wires the application from config
func newApp(cfg *config.Config, log *zap.Logger) (*app.App, error) {
	a, err := app.FromConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// flushMetrics writes the textfile export when configured
func flushMetrics(cfg *config.Config, a *app.App, log *zap.Logger) {
	if a.Metrics() == nil || cfg.Metrics.Textfile == "" {
		return
	}
	if err := a.Metrics().WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warn("failed to write metrics textfile", zap.Error(err))
	}
}

func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date (expected YYYY-MM-DD): %w", flag, err)
	}
	return t, nil
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := parseDate("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}
