package main

import (
	"fmt"

	"github.com/newthinker/riskon/internal/llm/factory"
	"github.com/newthinker/riskon/internal/report"
	"github.com/newthinker/riskon/internal/summary"
	"github.com/spf13/cobra"
)

var summarizeKey string

var summarizeCmd = &cobra.Command{
	Use:   "summarize <label>",
	Short: "Narrate the latest archived run for a label with an LLM",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeKey, "key", "", "archive key of a specific snapshot")

	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if summarizeKey == "" && len(args) == 0 {
		return fmt.Errorf("either a label or --key is required")
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	provider, err := factory.New(cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var snap *report.Snapshot
	if summarizeKey != "" {
		snap, err = a.LoadSnapshot(ctx, summarizeKey)
	} else {
		snap, err = a.LatestSnapshot(ctx, args[0])
	}
	if err != nil {
		return err
	}

	text, err := summary.New(provider, log).Summarize(ctx, snap)
	if err != nil {
		return err
	}

	fmt.Printf("%s  %s  [%s]\n\n%s\n", snap.Symbol, snap.Signal, snap.RunID, text)
	return nil
}
