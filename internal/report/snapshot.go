// Package report renders backtest results and defines the archived
// snapshot of a run.
package report

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/riskon/internal/backtest"
	"github.com/newthinker/riskon/internal/core"
)

// Prefix is the archive directory holding snapshots
const Prefix = "reports"

// Snapshot is the archived, self-describing record of one backtest run
type Snapshot struct {
	RunID     string           `json:"run_id" yaml:"run_id"`
	Label     string           `json:"label" yaml:"label"`
	Symbol    string           `json:"symbol" yaml:"symbol"`
	Signal    string           `json:"signal,omitempty" yaml:"signal,omitempty"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at"`
	Config    backtest.Config  `json:"config" yaml:"config"`
	StartDate time.Time        `json:"start_date" yaml:"start_date"`
	EndDate   time.Time        `json:"end_date" yaml:"end_date"`
	Points    int              `json:"points" yaml:"points"`
	Report    backtest.Report  `json:"report" yaml:"report"`
	Trades    []backtest.Trade `json:"trades" yaml:"trades"`
}

// NewSnapshot captures a result under a fresh run id
func NewSnapshot(label, symbol, signal string, cfg backtest.Config, result *backtest.Result, now time.Time) *Snapshot {
	trades := result.Trades
	if trades == nil {
		trades = []backtest.Trade{}
	}
	return &Snapshot{
		RunID:     uuid.NewString(),
		Label:     Slug(label),
		Symbol:    symbol,
		Signal:    signal,
		CreatedAt: now.UTC(),
		Config:    cfg,
		StartDate: result.StartDate,
		EndDate:   result.EndDate,
		Points:    len(result.Series),
		Report:    result.Report,
		Trades:    trades,
	}
}

// Key is the archive path reports/<label>/<run-id>.json
func (s *Snapshot) Key() string {
	return path.Join(Prefix, s.Label, s.RunID+".json")
}

// Encode serialises the snapshot as indented JSON
func (s *Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Decode parses a snapshot previously produced by Encode
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("decoding snapshot: %w", err))
	}
	if s.RunID == "" {
		return nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("snapshot has no run id"))
	}
	return &s, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9._-]+`)

// Slug makes a label safe to use as a single archive path segment
func Slug(label string) string {
	s := slugUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "-")
	s = strings.Trim(s, "-.")
	if s == "" {
		return "default"
	}
	return s
}
