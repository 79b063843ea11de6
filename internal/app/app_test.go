package app

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/riskon/internal/backtest"
	"github.com/newthinker/riskon/internal/config"
	"github.com/newthinker/riskon/internal/core"
	"github.com/newthinker/riskon/internal/metrics"
	"github.com/newthinker/riskon/internal/signal"
	"github.com/newthinker/riskon/internal/storage/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	name     string
	prices   []core.PricePoint
	exposure []float64
	err      error

	mu    sync.Mutex
	calls int
}

func (m *mockSource) Name() string { return m.name }
func (m *mockSource) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PricePoint, []float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.prices, m.exposure, m.err
}

// wave produces a trending, oscillating close series
func wave(n int) []core.PricePoint {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]core.PricePoint, n)
	for i := range out {
		p := 100 + 0.2*float64(i) + 8*math.Sin(float64(i)/6)
		out[i] = core.PricePoint{Time: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func newTestApp(t *testing.T, src *mockSource) (*App, *archive.LocalFS) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Data.Source = src.name
	cfg.Signal.Fast, cfg.Signal.Slow = 5, 20
	cfg.Sweep.Parallelism = 3

	a := New(cfg, nil)
	a.RegisterSource(src)
	a.SetMetrics(metrics.NewRegistry())

	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	a.SetArchive(store)
	return a, store
}

func counter(t *testing.T, reg *metrics.Registry, name, label string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestApp_New(t *testing.T) {
	a := New(nil, nil)
	require.NotNil(t, a)

	assert.ElementsMatch(t, []string{"csv", "yahoo"}, a.sources.Names())
	assert.Nil(t, a.Metrics())
	assert.Equal(t, 365, a.BacktestConfig().PeriodsPerYear)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Archive.Enabled = true
	cfg.Archive.Path = t.TempDir()

	a, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, a.Metrics())
	assert.NotNil(t, a.archive)

	cfg.Archive.Type = "gcs"
	_, err = FromConfig(cfg, nil)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestApp_RunBacktestWithCrossover(t *testing.T) {
	src := &mockSource{name: "mock", prices: wave(300)}
	a, store := newTestApp(t, src)

	out, err := a.RunBacktest(context.Background(), Job{Symbol: "BTC-USD"})
	require.NoError(t, err)

	assert.Equal(t, "sma_crossover_5_20", out.Snapshot.Signal)
	assert.Equal(t, 20, out.Snapshot.Config.MinPoints)
	assert.Equal(t, "btc-usd", out.Snapshot.Label)
	assert.False(t, out.Result.IsEmpty())
	require.NotNil(t, out.Result.Report.Test)
	assert.Greater(t, out.Result.Report.Full.Trades.TotalNum, 0)

	// Archived and readable
	assert.Equal(t, out.Snapshot.Key(), out.ArchiveKey)
	exists, err := store.Exists(context.Background(), out.ArchiveKey)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := a.LoadSnapshot(context.Background(), out.ArchiveKey)
	require.NoError(t, err)
	assert.Equal(t, out.Snapshot.RunID, loaded.RunID)

	assert.Equal(t, 1.0, counter(t, a.Metrics(), "riskon_backtests_total", metrics.StatusOK))
	assert.Equal(t, float64(out.Result.Report.Full.Trades.TotalNum), counter(t, a.Metrics(), "riskon_trades_total", "full"))
}

func TestApp_RunBacktestWithSourceExposure(t *testing.T) {
	prices := wave(40)
	exposure := make([]float64, len(prices))
	for i := 10; i < 30; i++ {
		exposure[i] = 1
	}
	src := &mockSource{name: "mock", prices: prices, exposure: exposure}
	a, _ := newTestApp(t, src)

	out, err := a.RunBacktest(context.Background(), Job{Symbol: "X", Label: "manual"})
	require.NoError(t, err)

	assert.Equal(t, SourceExposure, out.Snapshot.Signal)
	assert.Equal(t, 1, out.Result.Report.Full.Trades.TotalNum)

	// An explicit signal wins over the file's exposure column
	sig, err := signal.NewCrossover(signal.MATypeEMA, 3, 8)
	require.NoError(t, err)
	out, err = a.RunBacktest(context.Background(), Job{Symbol: "X", Signal: sig})
	require.NoError(t, err)
	assert.Equal(t, "ema_crossover_3_8", out.Snapshot.Signal)
}

func TestApp_RunBacktestTooShort(t *testing.T) {
	src := &mockSource{name: "mock", prices: wave(10)}
	a, _ := newTestApp(t, src)

	out, err := a.RunBacktest(context.Background(), Job{Symbol: "X"})
	require.NoError(t, err)

	assert.True(t, out.Result.IsEmpty())
	assert.True(t, out.Snapshot.Report.Full.SharpeRatio.IsUndefined())
	assert.Equal(t, 1.0, counter(t, a.Metrics(), "riskon_backtests_total", metrics.StatusSkipped))
}

func TestApp_RunBacktestErrors(t *testing.T) {
	t.Run("fetch fails", func(t *testing.T) {
		src := &mockSource{name: "mock", err: core.WrapError(core.ErrNoData, errors.New("empty"))}
		a, _ := newTestApp(t, src)

		_, err := a.RunBacktest(context.Background(), Job{Symbol: "X"})
		assert.True(t, errors.Is(err, core.ErrNoData))
		assert.Equal(t, 1.0, counter(t, a.Metrics(), "riskon_backtests_total", metrics.StatusError))
	})

	t.Run("malformed prices", func(t *testing.T) {
		prices := wave(30)
		prices[5].Price = -1
		a, _ := newTestApp(t, &mockSource{name: "mock", prices: prices})

		_, err := a.RunBacktest(context.Background(), Job{Symbol: "X"})
		assert.True(t, errors.Is(err, core.ErrNonPositivePrice))
	})

	t.Run("unknown source", func(t *testing.T) {
		a, _ := newTestApp(t, &mockSource{name: "mock"})

		_, err := a.RunBacktest(context.Background(), Job{Symbol: "X", Source: "bloomberg"})
		assert.True(t, errors.Is(err, core.ErrConfigInvalid))
	})
}

func TestApp_LatestSnapshot(t *testing.T) {
	src := &mockSource{name: "mock", prices: wave(120)}
	a, _ := newTestApp(t, src)

	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return clock }

	first, err := a.RunBacktest(context.Background(), Job{Symbol: "X", Label: "daily"})
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	second, err := a.RunBacktest(context.Background(), Job{Symbol: "X", Label: "daily"})
	require.NoError(t, err)
	require.NotEqual(t, first.Snapshot.RunID, second.Snapshot.RunID)

	latest, err := a.LatestSnapshot(context.Background(), "daily")
	require.NoError(t, err)
	assert.Equal(t, second.Snapshot.RunID, latest.RunID)

	_, err = a.LatestSnapshot(context.Background(), "weekly")
	assert.True(t, errors.Is(err, core.ErrNoData))
}

// prefixStore lists keys by plain string prefix, the way S3 does
type prefixStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *prefixStore) Write(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *prefixStore) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, core.ErrNoData
	}
	return data, nil
}

func (s *prefixStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := []string{}
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *prefixStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *prefixStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func TestApp_LatestSnapshotIgnoresSiblingLabels(t *testing.T) {
	src := &mockSource{name: "mock", prices: wave(120)}
	a, _ := newTestApp(t, src)
	a.SetArchive(&prefixStore{objects: map[string][]byte{}})

	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return clock }

	btc, err := a.RunBacktest(context.Background(), Job{Symbol: "BTC", Label: "btc"})
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	_, err = a.RunBacktest(context.Background(), Job{Symbol: "BTC-USD", Label: "btc-usd"})
	require.NoError(t, err)

	latest, err := a.LatestSnapshot(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, btc.Snapshot.RunID, latest.RunID)
	assert.Equal(t, "btc", latest.Label)
	assert.Equal(t, "BTC", latest.Symbol)
}

func TestApp_ArchiveDisabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.Data.Source = "mock"
	a := New(cfg, nil)
	a.RegisterSource(&mockSource{name: "mock", prices: wave(250)})

	out, err := a.RunBacktest(context.Background(), Job{Symbol: "X"})
	require.NoError(t, err)
	assert.Empty(t, out.ArchiveKey)

	_, err = a.LatestSnapshot(context.Background(), "X")
	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}

func TestGrid_Combinations(t *testing.T) {
	combos, err := Grid{FastMin: 5, FastMax: 15, SlowMin: 10, SlowMax: 20, Step: 5}.Combinations()
	require.NoError(t, err)

	var names []string
	for _, c := range combos {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{
		"sma_crossover_5_10", "sma_crossover_5_15", "sma_crossover_5_20",
		"sma_crossover_10_15", "sma_crossover_10_20",
		"sma_crossover_15_20",
	}, names)

	_, err = Grid{FastMin: 5, FastMax: 10, SlowMin: 5, SlowMax: 10, Step: 0}.Combinations()
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))

	_, err = Grid{FastMin: 50, FastMax: 60, SlowMin: 10, SlowMax: 20, Step: 5}.Combinations()
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestApp_Sweep(t *testing.T) {
	src := &mockSource{name: "mock", prices: wave(400)}
	a, _ := newTestApp(t, src)

	grid := Grid{Type: signal.MATypeSMA, FastMin: 5, FastMax: 20, SlowMin: 20, SlowMax: 60, Step: 5}
	rows, err := a.Sweep(context.Background(), Job{Symbol: "X"}, grid)
	require.NoError(t, err)

	combos, _ := grid.Combinations()
	assert.Len(t, rows, len(combos))
	assert.Equal(t, 1, src.calls, "prices are fetched once per sweep")

	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1].Ranked().Trades.ProfitFactor, rows[i].Ranked().Trades.ProfitFactor
		assert.False(t, prev.Less(cur), "row %d ranked above a better profit factor", i)
	}

	mfs, err := a.Metrics().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "riskon_sweep_combinations_total" {
			assert.Equal(t, float64(len(rows)), mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestRank(t *testing.T) {
	row := func(name string, pf, sharpe backtest.Value) SweepRow {
		r := SweepRow{Signal: name}
		r.Report.Full.Trades.ProfitFactor = pf
		r.Report.Full.SharpeRatio = sharpe
		return r
	}

	rows := []SweepRow{
		row("undefined", backtest.Undefined(), backtest.Num(3)),
		row("low", backtest.Num(1.2), backtest.Num(0.5)),
		row("inf", backtest.Inf(), backtest.Num(0.1)),
		row("high-lowsharpe", backtest.Num(2), backtest.Num(0.2)),
		row("high-highsharpe", backtest.Num(2), backtest.Num(0.9)),
	}
	Rank(rows)

	var got []string
	for _, r := range rows {
		got = append(got, r.Signal)
	}
	assert.Equal(t, []string{"inf", "high-highsharpe", "high-lowsharpe", "low", "undefined"}, got)
}

func TestSweepRow_RankedPrefersTest(t *testing.T) {
	r := SweepRow{}
	r.Report.Full.Periods = 3
	assert.Equal(t, 3, r.Ranked().Periods)

	test := &backtest.Metrics{Periods: 7}
	r.Report.Test = test
	assert.Equal(t, 7, r.Ranked().Periods)
}
