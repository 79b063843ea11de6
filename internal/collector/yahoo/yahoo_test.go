package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/riskon/internal/collector"
	"github.com/newthinker/riskon/internal/core"
)

func TestYahoo_ImplementsPriceSource(t *testing.T) {
	var _ collector.PriceSource = (*Yahoo)(nil)
}

func TestYahoo_Name(t *testing.T) {
	y := New()
	if y.Name() != "yahoo" {
		t.Errorf("expected 'yahoo', got '%s'", y.Name())
	}
}

func TestYahoo_ToYahooSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"BTC-USD", "BTC-USD"},
		{"0700.HK", "0700.HK"},
		{"600519.SH", "600519.SS"}, // Shanghai -> SS for Yahoo
		{"000001.SZ", "000001.SZ"},
	}

	y := New()
	for _, tc := range tests {
		got := y.toYahooSymbol(tc.input)
		if got != tc.expected {
			t.Errorf("toYahooSymbol(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestYahoo_InvalidSymbol(t *testing.T) {
	for _, symbol := range []string{"", "BAD SYMBOL", "../etc/passwd"} {
		_, _, err := New().FetchHistory(context.Background(), symbol, time.Time{}, time.Time{})
		if !errors.Is(err, core.ErrConfigInvalid) {
			t.Errorf("symbol %q: expected ErrConfigInvalid, got %v", symbol, err)
		}
	}
}

func TestYahoo_FetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/BTC-USD" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("expected daily interval, got %s", r.URL.Query().Get("interval"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1704067200,1704153600,1704240000],
			"indicators":{"quote":[{"close":[100.5,null,102.25]}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	y := New().WithBaseURL(srv.URL).WithRateLimit(0, 0)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	prices, exposure, err := y.FetchHistory(context.Background(), "BTC-USD", start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exposure != nil {
		t.Errorf("expected no exposure column, got %v", exposure)
	}
	if len(prices) != 2 {
		t.Fatalf("expected 2 prices (null skipped), got %d", len(prices))
	}
	if prices[1].Price != 102.25 {
		t.Errorf("expected 102.25, got %f", prices[1].Price)
	}
	if !prices[0].Time.Equal(start) {
		t.Errorf("expected first bar at %s, got %s", start, prices[0].Time)
	}
}

func TestYahoo_OpenStartFromEpoch(t *testing.T) {
	var period1 string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		period1 = r.URL.Query().Get("period1")
		_, _ = w.Write([]byte(`{"chart":{"result":[{"timestamp":[1704067200],"indicators":{"quote":[{"close":[100]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	_, _, err := New().WithBaseURL(srv.URL).WithRateLimit(0, 0).FetchHistory(context.Background(), "AAPL", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if period1 != "0" {
		t.Errorf("expected period1=0 for an open start, got %s", period1)
	}
}

func TestYahoo_FetchHistoryErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{"bad status", http.StatusTooManyRequests, "", nil},
		{"bad json", http.StatusOK, "{", core.ErrMalformedData},
		{"no result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, core.ErrNoData},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, _, err := New().WithBaseURL(srv.URL).WithRateLimit(0, 0).FetchHistory(context.Background(), "AAPL", time.Time{}, time.Time{})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestYahoo_RateLimitHonoursContext(t *testing.T) {
	y := New().WithRateLimit(0.001, 1)
	// Drain the single token so the next request must wait
	y.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := y.FetchHistory(ctx, "AAPL", time.Time{}, time.Time{})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
