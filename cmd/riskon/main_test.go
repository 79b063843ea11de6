package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/newthinker/riskon/internal/core"
)

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("2024-01-01", "2024-06-30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || end.Month() != time.June {
		t.Errorf("unexpected range %s - %s", start, end)
	}

	start, end, err = parseRange("", "")
	if err != nil || !start.IsZero() || !end.IsZero() {
		t.Errorf("empty flags should give an open range, got %s - %s, %v", start, end, err)
	}

	if _, _, err := parseRange("2024-06-30", "2024-01-01"); err == nil {
		t.Error("expected error for reversed range")
	}
	if _, _, err := parseRange("01/02/2024", ""); err == nil {
		t.Error("expected error for bad date format")
	}
}

func TestRootCommands(t *testing.T) {
	want := map[string]bool{"backtest": false, "sweep": false, "profiles": false, "summarize": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing %s command", name)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exposure range", core.WrapError(core.ErrExposureRange, errors.New("index 3")), exitInvalidData},
		{"wrapped mismatch", fmt.Errorf("backtesting X: %w", core.ErrLengthMismatch), exitInvalidData},
		{"malformed csv", core.WrapError(core.ErrMalformedData, errors.New("line 2")), exitInvalidData},
		{"bad config", fmt.Errorf("config validation failed: %w", core.ErrConfigInvalid), exitConfig},
		{"missing key", core.ErrConfigMissing, exitConfig},
		{"other", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
