package app

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/newthinker/riskon/internal/backtest"
	"github.com/newthinker/riskon/internal/collector"
	"github.com/newthinker/riskon/internal/collector/csvfile"
	"github.com/newthinker/riskon/internal/collector/yahoo"
	"github.com/newthinker/riskon/internal/config"
	"github.com/newthinker/riskon/internal/core"
	"github.com/newthinker/riskon/internal/logger"
	"github.com/newthinker/riskon/internal/metrics"
	"github.com/newthinker/riskon/internal/report"
	"github.com/newthinker/riskon/internal/signal"
	"github.com/newthinker/riskon/internal/storage/archive"
	"go.uber.org/zap"
)

// SourceExposure names runs driven by the exposure column of the price file
const SourceExposure = "source_exposure"

// Job describes one backtest run
type Job struct {
	Label  string
	Symbol string
	Source string // price source name; empty uses data.source
	Start  time.Time
	End    time.Time

	// Signal derives exposure from prices. When nil the source's exposure
	// column is used if present, otherwise the configured crossover.
	Signal *signal.Crossover
}

// Outcome is the result of RunBacktest
type Outcome struct {
	Snapshot   *report.Snapshot
	Result     *backtest.Result
	ArchiveKey string // empty when archiving is disabled
}

// App is the main application orchestrator
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	sources *collector.Registry
	metrics *metrics.Registry
	archive archive.Storage
	now     func() time.Time
}

// New creates a new App instance with the built-in price sources registered
func New(cfg *config.Config, log *zap.Logger) *App {
	if cfg == nil {
		cfg = config.Defaults()
	}

	sources := collector.NewRegistry()
	sources.Register(csvfile.New(cfg.Data.Dir))
	sources.Register(yahoo.New())

	return &App{
		cfg:     cfg,
		logger:  logger.OrNop(log),
		sources: sources,
		now:     time.Now,
	}
}

// FromConfig creates an App and wires metrics and the archive as configured
func FromConfig(cfg *config.Config, log *zap.Logger) (*App, error) {
	a := New(cfg, log)
	if cfg.Metrics.Enabled {
		a.SetMetrics(metrics.NewRegistry())
	}
	if cfg.Archive.Enabled {
		store, err := archive.New(archive.Options{
			Type: cfg.Archive.Type,
			Path: cfg.Archive.Path,
			S3: archive.S3Config{
				Bucket:    cfg.Archive.S3.Bucket,
				Endpoint:  cfg.Archive.S3.Endpoint,
				Region:    cfg.Archive.S3.Region,
				AccessKey: cfg.Archive.S3.AccessKey,
				SecretKey: cfg.Archive.S3.SecretKey,
				Prefix:    cfg.Archive.S3.Prefix,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("creating archive: %w", err)
		}
		a.SetArchive(store)
	}
	return a, nil
}

// RegisterSource adds or replaces a price source
func (a *App) RegisterSource(s collector.PriceSource) {
	a.sources.Register(s)
}

// SetMetrics enables metric recording
func (a *App) SetMetrics(reg *metrics.Registry) {
	a.metrics = reg
}

// Metrics returns the metrics registry, nil when disabled
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// SetArchive enables snapshot archiving
func (a *App) SetArchive(s archive.Storage) {
	a.archive = s
}

// BacktestConfig converts the configured backtest section
func (a *App) BacktestConfig() backtest.Config {
	return backtest.Config{
		PeriodsPerYear: a.cfg.Backtest.PeriodsPerYear,
		TrainFrac:      a.cfg.Backtest.TrainFrac,
		MinPoints:      a.cfg.Backtest.MinPoints,
		Epsilon:        a.cfg.Backtest.Epsilon,
	}
}

// DefaultSignal builds the configured crossover
func (a *App) DefaultSignal() (*signal.Crossover, error) {
	return signal.NewCrossover(signal.MAType(a.cfg.Signal.Type), a.cfg.Signal.Fast, a.cfg.Signal.Slow)
}

func (a *App) fetch(ctx context.Context, job Job) ([]core.PricePoint, []float64, error) {
	name := job.Source
	if name == "" {
		name = a.cfg.Data.Source
	}
	src, err := a.sources.MustGet(name)
	if err != nil {
		return nil, nil, err
	}

	prices, exposure, err := src.FetchHistory(ctx, job.Symbol, job.Start, job.End)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching %s from %s: %w", job.Symbol, src.Name(), err)
	}
	return prices, exposure, nil
}

// RunBacktest fetches prices, derives exposure, runs the engine, records
// metrics and archives the snapshot.
func (a *App) RunBacktest(ctx context.Context, job Job) (*Outcome, error) {
	start := a.now()
	label := job.Label
	if label == "" {
		label = job.Symbol
	}

	prices, sourceExposure, err := a.fetch(ctx, job)
	if err != nil {
		a.record(metrics.StatusError, start, 0)
		return nil, err
	}

	cfg := a.BacktestConfig()
	sig := job.Signal
	var exposure []float64
	var signalName string

	switch {
	case sig == nil && sourceExposure != nil:
		exposure = sourceExposure
		signalName = SourceExposure
	default:
		if sig == nil {
			if sig, err = a.DefaultSignal(); err != nil {
				a.record(metrics.StatusError, start, 0)
				return nil, err
			}
		}
		exposure = sig.Exposure(prices)
		signalName = sig.Name()
		cfg.MinPoints = max(cfg.MinPoints, sig.RequiredPoints())
	}

	a.logger.Debug("running backtest",
		zap.String("symbol", job.Symbol),
		zap.String("signal", signalName),
		zap.Int("points", len(prices)),
	)

	result, err := backtest.Run(prices, exposure, cfg)
	if err != nil {
		a.record(metrics.StatusError, start, len(prices))
		return nil, fmt.Errorf("backtesting %s: %w", job.Symbol, err)
	}

	snap := report.NewSnapshot(label, job.Symbol, signalName, cfg, result, a.now())
	out := &Outcome{Snapshot: snap, Result: result}

	if result.IsEmpty() {
		a.logger.Warn("not enough data to backtest",
			zap.String("symbol", job.Symbol),
			zap.Int("points", len(prices)),
			zap.Int("min_points", max(2, cfg.MinPoints)),
		)
		a.record(metrics.StatusSkipped, start, len(prices))
	} else {
		a.record(metrics.StatusOK, start, len(prices))
		a.recordTrades(result.Report)
	}

	if a.archive != nil {
		key, err := a.Save(ctx, snap)
		if err != nil {
			return out, err
		}
		out.ArchiveKey = key
	}

	a.logger.Info("backtest finished",
		zap.String("symbol", job.Symbol),
		zap.String("signal", signalName),
		zap.String("run_id", snap.RunID),
		zap.Int("trades", result.Report.Full.Trades.TotalNum),
		zap.String("sharpe", result.Report.Full.SharpeRatio.String()),
		zap.Duration("elapsed", a.now().Sub(start)),
	)

	return out, nil
}

// Save archives a snapshot and returns its key
func (a *App) Save(ctx context.Context, snap *report.Snapshot) (string, error) {
	if a.archive == nil {
		return "", core.WrapError(core.ErrConfigMissing, errors.New("archive is disabled"))
	}
	data, err := snap.Encode()
	if err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, err)
	}
	key := snap.Key()
	if err := a.archive.Write(ctx, key, data); err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, fmt.Errorf("writing %s: %w", key, err))
	}
	a.logger.Debug("snapshot archived", zap.String("key", key))
	return key, nil
}

// LoadSnapshot reads an archived snapshot by key
func (a *App) LoadSnapshot(ctx context.Context, key string) (*report.Snapshot, error) {
	if a.archive == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("archive is disabled"))
	}
	data, err := a.archive.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	return report.Decode(data)
}

// LatestSnapshot returns the most recently created snapshot under a label
func (a *App) LatestSnapshot(ctx context.Context, label string) (*report.Snapshot, error) {
	if a.archive == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("archive is disabled"))
	}
	slug := report.Slug(label)
	// Object stores match prefixes as plain strings, so "btc" must not
	// pick up "btc-usd"
	keys, err := a.archive.List(ctx, path.Join(report.Prefix, slug)+"/")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	var latest *report.Snapshot
	for _, key := range keys {
		if path.Ext(key) != ".json" {
			continue
		}
		snap, err := a.LoadSnapshot(ctx, key)
		if err != nil {
			a.logger.Warn("skipping unreadable snapshot", zap.String("key", key), zap.Error(err))
			continue
		}
		if snap.Label != slug {
			continue
		}
		if latest == nil || snap.CreatedAt.After(latest.CreatedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no snapshots for label %q", label))
	}
	return latest, nil
}

func (a *App) record(status string, start time.Time, points int) {
	if a.metrics == nil {
		return
	}
	a.metrics.RecordBacktest(status, a.now().Sub(start).Seconds(), points)
}

func (a *App) recordTrades(r backtest.Report) {
	if a.metrics == nil {
		return
	}
	a.metrics.RecordTrades("full", r.Full.Trades.TotalNum)
	if r.Train != nil && r.Test != nil {
		a.metrics.RecordTrades("train", r.Train.Trades.TotalNum)
		a.metrics.RecordTrades("test", r.Test.Trades.TotalNum)
	}
}
