package indicator

import (
	"math"
	"testing"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma := SMA(prices, 3)

	// SMA(3) for [10,11,12,13,14,15], aligned to the input:
	// [2] = (10+11+12)/3 = 11
	// [3] = (11+12+13)/3 = 12
	// [4] = 13, [5] = 14
	if len(sma) != len(prices) {
		t.Fatalf("expected %d values, got %d", len(prices), len(sma))
	}

	for i := 0; i < 2; i++ {
		if Ready(sma[i]) {
			t.Errorf("sma[%d] should still be warming up, got %f", i, sma[i])
		}
	}

	expected := []float64{11, 12, 13, 14}
	for i, v := range expected {
		if sma[i+2] != v {
			t.Errorf("sma[%d] = %f, want %f", i+2, sma[i+2], v)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	sma := SMA([]float64{10, 11}, 5)

	if len(sma) != 2 {
		t.Fatalf("expected aligned output, got %d values", len(sma))
	}
	for i, v := range sma {
		if Ready(v) {
			t.Errorf("sma[%d] = %f, expected warm-up", i, v)
		}
	}
}

func TestSMA_InvalidPeriod(t *testing.T) {
	for _, v := range SMA([]float64{1, 2, 3}, 0) {
		if Ready(v) {
			t.Error("zero period should never be ready")
		}
	}
}

func TestEMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}
	ema := EMA(prices, 3)

	if len(ema) != 6 {
		t.Fatalf("expected 6 values, got %d", len(ema))
	}

	// First EMA = SMA = 11
	if ema[2] != 11 {
		t.Errorf("first EMA should equal SMA, got %f", ema[2])
	}

	// Subsequent EMAs should trend upward
	for i := 3; i < len(ema); i++ {
		if ema[i] <= ema[i-1] {
			t.Errorf("EMA should be increasing, ema[%d]=%f <= ema[%d]=%f", i, ema[i], i-1, ema[i-1])
		}
	}

	// 11 + (13-11)*0.5 = 12
	if !almostEqual(ema[3], 12, 1e-12) {
		t.Errorf("ema[3] = %f, want 12", ema[3])
	}
}

func TestEMA_NotEnoughData(t *testing.T) {
	ema := EMA([]float64{10, 11}, 5)

	for i, v := range ema {
		if Ready(v) {
			t.Errorf("ema[%d] = %f, expected warm-up", i, v)
		}
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
