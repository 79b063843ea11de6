package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/riskon/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PricesOnly(t *testing.T) {
	input := "date,close\n2024-01-01,100\n2024-01-02,101.5\n2024-01-03,99\n"

	prices, exposure, err := Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, prices, 3)
	assert.Nil(t, exposure)
	assert.Equal(t, 101.5, prices[1].Price)
	assert.True(t, prices[2].Time.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)))
}

func TestParse_WithExposure(t *testing.T) {
	input := strings.Join([]string{
		"2024-01-01T00:00:00Z,100,0",
		"2024-01-02T00:00:00Z,101,1",
		"2024-01-03T00:00:00Z,102,0.5",
		"2024-01-04T00:00:00Z,103,0",
	}, "\n")

	prices, exposure, err := Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, prices, 4)
	assert.Equal(t, []float64{0, 1, 0.5, 0}, exposure)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad date", "2024-13-45,100\n"},
		{"bad close", "2024-01-01,abc\n"},
		{"bad exposure", "2024-01-01,100,x\n"},
		{"single column", "2024-01-01\n"},
		{"leading blank exposure", "date,close,exposure\n2024-01-01,100,\n2024-01-02,101,1\n"},
		{"blank exposure after values", "2024-01-01,100,1\n2024-01-02,101,\n2024-01-03,102,1\n"},
		{"missing exposure column after values", "2024-01-01,100,1\n2024-01-02,101\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(context.Background(), strings.NewReader(tt.input))
			assert.True(t, errors.Is(err, core.ErrMalformedData), "got %v", err)
		})
	}
}

func TestParse_BlankExposureNamesLine(t *testing.T) {
	input := "date,close,exposure\n2024-01-01,100,\n2024-01-02,101,1\n2024-01-03,102,\n2024-01-04,103,1\n"

	_, exposure, err := Parse(context.Background(), strings.NewReader(input))
	require.Error(t, err)
	assert.Nil(t, exposure)
	assert.True(t, errors.Is(err, core.ErrMalformedData))
	assert.Contains(t, err.Error(), "line 2")
}

func TestParse_Empty(t *testing.T) {
	_, _, err := Parse(context.Background(), strings.NewReader("date,close\n"))
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestSource_FetchHistory(t *testing.T) {
	dir := t.TempDir()
	content := "date,close,exposure\n2024-01-01,100,0\n2024-01-02,101,1\n2024-01-03,102,1\n2024-01-04,103,0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BTC.csv"), []byte(content), 0o644))

	src := New(dir)
	assert.Equal(t, "csv", src.Name())

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	prices, exposure, err := src.FetchHistory(context.Background(), "BTC", start, end)
	require.NoError(t, err)

	require.Len(t, prices, 2)
	assert.Equal(t, 101.0, prices[0].Price)
	assert.Equal(t, []float64{1, 1}, exposure)
}

func TestSource_FetchHistoryByPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte("2024-01-01,100\n2024-01-02,101\n"), 0o644))

	prices, _, err := New("unused").FetchHistory(context.Background(), path, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, prices, 2)
}

func TestSource_Missing(t *testing.T) {
	_, _, err := New(t.TempDir()).FetchHistory(context.Background(), "NOPE", time.Time{}, time.Time{})
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestSource_EmptyRange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X.csv"), []byte("2024-01-01,100\n"), 0o644))

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := New(dir).FetchHistory(context.Background(), "X", start, time.Time{})
	assert.True(t, errors.Is(err, core.ErrNoData))
}
