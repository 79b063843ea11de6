package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/riskon/internal/collector"
	"github.com/newthinker/riskon/internal/core"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

	// Requests per second against the public chart endpoint
	defaultRatePerSec = 2
)

// validSymbol matches symbols like AAPL, BTC-USD, 600519.SH, 0700.HK
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9^=-]{1,15}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("symbol cannot be empty"))
	}
	if len(symbol) > 20 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("symbol too long: %s", symbol))
	}
	if !validSymbol.MatchString(symbol) {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("invalid symbol format: %s", symbol))
	}
	return nil
}

// Yahoo fetches daily closes from the Yahoo Finance chart API
type Yahoo struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

var _ collector.PriceSource = (*Yahoo)(nil)

// New creates a new Yahoo source
func New() *Yahoo {
	return &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(defaultRatePerSec, 1),
	}
}

// WithRateLimit replaces the request limiter; rps <= 0 disables limiting
func (y *Yahoo) WithRateLimit(rps float64, burst int) *Yahoo {
	if rps <= 0 {
		y.limiter = rate.NewLimiter(rate.Inf, 0)
		return y
	}
	if burst < 1 {
		burst = 1
	}
	y.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return y
}

// WithBaseURL points the source at another chart endpoint
func (y *Yahoo) WithBaseURL(url string) *Yahoo {
	y.baseURL = strings.TrimRight(url, "/")
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchHistory fetches daily closes. Yahoo carries no exposure column.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PricePoint, []float64, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, nil, err
	}
	if end.IsZero() {
		end = time.Now()
	}
	// An open start means the full history, from the Unix epoch
	period1 := max(start.Unix(), 0)

	url := fmt.Sprintf("%s/%s?interval=1d&period1=%d&period2=%d",
		y.baseURL, y.toYahooSymbol(symbol), period1, end.Unix())

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("decoding response: %w", err))
	}

	if result.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}

	r := result.Chart.Result[0]
	closes := r.Indicators.Quote[0].Close

	data := make([]core.PricePoint, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // Skip missing data
		}
		t := time.Unix(ts, 0).UTC()
		if !collector.InRange(t, start, end) {
			continue
		}
		data = append(data, core.PricePoint{Time: t, Price: *closes[i]})
	}

	if len(data) == 0 {
		return nil, nil, core.WrapError(core.ErrNoData, fmt.Errorf("no closes for symbol: %s", symbol))
	}
	return data, nil, nil
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Close []*float64 `json:"close"`
}
