package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/riskon/internal/core"
)

func series(prices ...float64) []core.PricePoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]core.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = core.PricePoint{Time: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func TestCrossover_Name(t *testing.T) {
	c, err := NewCrossover("", 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != "sma_crossover_5_10" {
		t.Errorf("expected 'sma_crossover_5_10', got '%s'", c.Name())
	}
	if c.RequiredPoints() != 10 {
		t.Errorf("expected 10 required points, got %d", c.RequiredPoints())
	}
}

func TestCrossover_Validate(t *testing.T) {
	tests := []struct {
		name   string
		maType MAType
		fast   int
		slow   int
	}{
		{"unknown type", "wma", 2, 4},
		{"zero fast", MATypeSMA, 0, 4},
		{"fast equals slow", MATypeSMA, 4, 4},
		{"fast above slow", MATypeEMA, 10, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCrossover(tt.maType, tt.fast, tt.slow)
			if !errors.Is(err, core.ErrConfigInvalid) {
				t.Errorf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}

func TestCrossover_ExposureSMA(t *testing.T) {
	c, _ := NewCrossover(MATypeSMA, 2, 4)

	// SMA2: -, 97.5, 92.5, 87.5, 82.5, 100, 125
	// SMA4: -, -, -, 92.5, 87.5, 93.75, 103.75
	got := c.Exposure(series(100, 95, 90, 85, 80, 120, 130))
	want := []float64{0, 0, 0, 0, 0, 1, 1}

	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("exposure[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCrossover_WarmupIsRiskOff(t *testing.T) {
	c, _ := NewCrossover(MATypeEMA, 3, 5)

	// Rising prices put fast above slow once both are ready
	got := c.Exposure(series(10, 11, 12, 13, 14, 15, 16))
	for i := 0; i < 4; i++ {
		if got[i] != 0 {
			t.Errorf("exposure[%d] = %v during warm-up, want 0", i, got[i])
		}
	}
	for i := 5; i < len(got); i++ {
		if got[i] != 1 {
			t.Errorf("exposure[%d] = %v, want 1", i, got[i])
		}
	}
}

func TestCrossover_Empty(t *testing.T) {
	c, _ := NewCrossover(MATypeSMA, 2, 4)
	if got := c.Exposure(nil); len(got) != 0 {
		t.Errorf("expected empty exposure, got %v", got)
	}
}
