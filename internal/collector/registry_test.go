package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/riskon/internal/core"
)

// mockSource for testing
type mockSource struct {
	name string
}

func (m *mockSource) Name() string { return m.name }
func (m *mockSource) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PricePoint, []float64, error) {
	return nil, nil, nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockSource{name: "mock"}
	r.Register(mock)

	s, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered source")
	}

	if s.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", s.Name())
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockSource{name: "b"})
	r.Register(&mockSource{name: "a"})

	names := r.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("expected [a b], got %v", names)
	}
}

func TestRegistry_MustGetUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockSource{name: "csv"})

	_, err := r.MustGet("yahoo")
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestInRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name       string
		t          time.Time
		start, end time.Time
		want       bool
	}{
		{"open window", day(5), time.Time{}, time.Time{}, true},
		{"inside", day(5), day(1), day(10), true},
		{"on start", day(1), day(1), day(10), true},
		{"on end", day(10), day(1), day(10), true},
		{"before start", day(1), day(2), time.Time{}, false},
		{"after end", day(11), time.Time{}, day(10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InRange(tt.t, tt.start, tt.end); got != tt.want {
				t.Errorf("InRange() = %v, want %v", got, tt.want)
			}
		})
	}
}
