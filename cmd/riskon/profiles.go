package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/newthinker/riskon/internal/app"
	"github.com/newthinker/riskon/internal/backtest"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	profilesFrom string
	profilesTo   string
	profilesJSON bool
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Backtest every configured asset profile and compare them",
	Long: `Run each entry of the profiles config section with its own symbol, source and
crossover windows, then print the full-sample results side by side.`,
	Args: cobra.NoArgs,
	RunE: runProfiles,
}

func init() {
	profilesCmd.Flags().StringVar(&profilesFrom, "from", "", "start date YYYY-MM-DD")
	profilesCmd.Flags().StringVar(&profilesTo, "to", "", "end date YYYY-MM-DD")
	profilesCmd.Flags().BoolVar(&profilesJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(profilesCmd)
}

// profileRow is the JSON form of one profile run
type profileRow struct {
	Profile    string           `json:"profile"`
	Symbol     string           `json:"symbol"`
	Status     string           `json:"status"`
	Error      string           `json:"error,omitempty"`
	Signal     string           `json:"signal,omitempty"`
	RunID      string           `json:"run_id,omitempty"`
	ArchiveKey string           `json:"archive_key,omitempty"`
	Report     *backtest.Report `json:"report,omitempty"`
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	start, end, err := parseRange(profilesFrom, profilesTo)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer flushMetrics(cfg, a, log)

	ctx, cancel := signalContext()
	defer cancel()

	runs, err := a.RunProfiles(ctx, start, end)
	if err != nil {
		return err
	}

	if profilesJSON {
		rows := make([]profileRow, len(runs))
		for i, r := range runs {
			rows[i] = toProfileRow(r)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Profile", "Symbol", "Signal", "Periods", "CAGR", "CAGR (B&H)", "Max DD", "Sharpe", "Profit factor", "Trades", "Status")
	for _, r := range runs {
		row := toProfileRow(r)
		if row.Report == nil {
			table.Append(r.Name, r.Symbol, row.Signal, "-", "-", "-", "-", "-", "-", "-", row.Status)
			continue
		}
		m := row.Report.Full
		table.Append(
			r.Name,
			r.Symbol,
			row.Signal,
			strconv.Itoa(m.Periods),
			m.CAGRStrategy.Render("%.2f%%", 100),
			m.CAGRBuyHold.Render("%.2f%%", 100),
			m.MaxDrawdownStrategy.Render("%.2f%%", 100),
			m.SharpeRatio.Render("%.2f", 1),
			m.Trades.ProfitFactor.Render("%.2f", 1),
			strconv.Itoa(m.Trades.TotalNum),
			row.Status,
		)
	}
	table.Render()

	for _, r := range runs {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", r.Name, r.Err)
		}
	}
	return nil
}

func toProfileRow(r app.ProfileRun) profileRow {
	row := profileRow{Profile: r.Name, Symbol: r.Symbol}
	switch {
	case r.Err != nil:
		row.Status = "error"
		row.Error = r.Err.Error()
	case r.Skipped():
		row.Status = "skipped"
	default:
		row.Status = "ok"
	}
	if r.Outcome != nil {
		row.Signal = r.Outcome.Snapshot.Signal
		row.RunID = r.Outcome.Snapshot.RunID
		row.ArchiveKey = r.Outcome.ArchiveKey
		if !r.Skipped() {
			row.Report = &r.Outcome.Snapshot.Report
		}
	}
	return row
}
