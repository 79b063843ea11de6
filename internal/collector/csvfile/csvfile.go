// Package csvfile reads a price history from a local CSV file with the
// columns date,close and an optional exposure column.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/riskon/internal/collector"
	"github.com/newthinker/riskon/internal/core"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Source resolves symbols to <Dir>/<symbol>.csv unless the symbol already
// names an existing file.
type Source struct {
	Dir string
}

var _ collector.PriceSource = (*Source)(nil)

// New creates a CSV source rooted at dir
func New(dir string) *Source {
	return &Source{Dir: dir}
}

func (s *Source) Name() string {
	return "csv"
}

// FetchHistory implements collector.PriceSource
func (s *Source) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PricePoint, []float64, error) {
	path := s.resolve(symbol)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, core.WrapError(core.ErrNoData, fmt.Errorf("no price file for %q at %s", symbol, path))
		}
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	prices, exposure, err := Parse(ctx, f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return filter(prices, exposure, start, end)
}

func (s *Source) resolve(symbol string) string {
	if strings.HasSuffix(strings.ToLower(symbol), ".csv") {
		if _, err := os.Stat(symbol); err == nil {
			return symbol
		}
	}
	return filepath.Join(s.Dir, symbol+".csv")
}

// Parse reads date,close[,exposure] rows. The header row is optional. The
// returned exposure is nil when no row carries a third column; once any row
// does, every row must.
func Parse(ctx context.Context, r io.Reader) ([]core.PricePoint, []float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var (
		prices     []core.PricePoint
		exposure   []float64
		line       int
		firstBlank int // first data line without an exposure cell
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, core.WrapError(core.ErrMalformedData, err)
		}
		line++

		if line == 1 && isHeader(record) {
			continue
		}
		if len(record) < 2 {
			return nil, nil, core.WrapError(core.ErrMalformedData,
				fmt.Errorf("line %d: expected at least 2 columns, got %d", line, len(record)))
		}

		ts, err := parseTime(record[0])
		if err != nil {
			return nil, nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("line %d: %w", line, err))
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("line %d: close: %w", line, err))
		}
		prices = append(prices, core.PricePoint{Time: ts, Price: price})

		if len(record) >= 3 && strings.TrimSpace(record[2]) != "" {
			if firstBlank > 0 {
				return nil, nil, core.WrapError(core.ErrMalformedData,
					fmt.Errorf("line %d: exposure missing while later rows carry one", firstBlank))
			}
			e, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
			if err != nil {
				return nil, nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("line %d: exposure: %w", line, err))
			}
			exposure = append(exposure, e)
		} else if exposure != nil {
			return nil, nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("line %d: exposure missing", line))
		} else if firstBlank == 0 {
			firstBlank = line
		}
	}

	if len(prices) == 0 {
		return nil, nil, core.WrapError(core.ErrNoData, errors.New("file contains no rows"))
	}
	return prices, exposure, nil
}

func filter(prices []core.PricePoint, exposure []float64, start, end time.Time) ([]core.PricePoint, []float64, error) {
	outPrices := make([]core.PricePoint, 0, len(prices))
	var outExposure []float64
	if exposure != nil {
		outExposure = make([]float64, 0, len(exposure))
	}

	for i, p := range prices {
		if !collector.InRange(p.Time, start, end) {
			continue
		}
		outPrices = append(outPrices, p)
		if exposure != nil {
			outExposure = append(outExposure, exposure[i])
		}
	}

	if len(outPrices) == 0 {
		return nil, nil, core.WrapError(core.ErrNoData, errors.New("no rows in requested date range"))
	}
	return outPrices, outExposure, nil
}

func isHeader(record []string) bool {
	if len(record) < 2 {
		return false
	}
	if _, err := parseTime(record[0]); err == nil {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	return err != nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
