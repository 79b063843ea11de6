// Package summary asks an LLM for a short narrative of an archived run.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/newthinker/riskon/internal/core"
	"github.com/newthinker/riskon/internal/llm"
	riskonlog "github.com/newthinker/riskon/internal/logger"
	"github.com/newthinker/riskon/internal/report"
	"go.uber.org/zap"
)

const systemPrompt = `You are a quantitative analyst reviewing the backtest of a long-only
risk-on/risk-off strategy on a single asset. You receive the run as JSON.
Metrics set to null are undefined for that sample; "+Inf" means there were no
losing trades or no downside periods. Compare the strategy against buy-and-hold,
contrast the train and test samples when both are present, and call out
overfitting risk. Answer in at most five short paragraphs of plain text.`

// Summarizer turns snapshots into narrative text
type Summarizer struct {
	provider  llm.Provider
	logger    *zap.Logger
	maxTokens int
}

// New creates a summarizer backed by provider
func New(provider llm.Provider, logger *zap.Logger) *Summarizer {
	return &Summarizer{provider: provider, logger: riskonlog.OrNop(logger), maxTokens: 800}
}

// Summarize sends the flattened metrics and trade count to the provider
func (s *Summarizer) Summarize(ctx context.Context, snap *report.Snapshot) (string, error) {
	if snap == nil {
		return "", core.WrapError(core.ErrNoData, errors.New("nothing to summarize"))
	}

	payload := map[string]any{
		"symbol":     snap.Symbol,
		"signal":     snap.Signal,
		"start_date": snap.StartDate.Format("2006-01-02"),
		"end_date":   snap.EndDate.Format("2006-01-02"),
		"periods":    snap.Points,
		"trades":     len(snap.Trades),
		"metrics":    snap.Report.Flatten(),
	}
	if snap.Report.Split != nil {
		payload["split"] = snap.Report.Split
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	resp, err := s.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages:     llm.UserMessage(string(body)),
		MaxTokens:    s.maxTokens,
		Temperature:  0.2,
	})
	if err != nil {
		return "", fmt.Errorf("summarizing run %s: %w", snap.RunID, err)
	}

	s.logger.Debug("summary generated",
		zap.String("provider", s.provider.Name()),
		zap.String("run_id", snap.RunID),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", core.WrapError(core.ErrLLMFailed, fmt.Errorf("%s returned an empty summary", s.provider.Name()))
	}
	return text, nil
}
