// Package report writes a completed BacktestResult to disk, generalized
// from the teacher's WriteJSON/WriteCSV pair in internal/report/report.go
// (itself written against the old flat engine.Result/Trade shapes) onto
// the new aggregate.BacktestResult/engine.Trade shapes.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/contactkeval/option-replay/internal/aggregate"
)

// WriteJSON writes the full result, including per-trade detail, as
// indented JSON to <outdir>/result.json.
func WriteJSON(res *aggregate.BacktestResult, outdir string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "result.json"), b, 0644)
}

// WriteCSV writes the trade ledger as a flat CSV to <outdir>/trades.csv.
func WriteCSV(res *aggregate.BacktestResult, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "trades.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{"id", "entry_time", "exit_time", "strike", "combined_entry_premium", "pnl_points", "pnl_amount", "exit_reason", "was_restarted"}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, t := range res.Trades {
		row := []string{
			t.ID,
			t.EntryTime.Format("2006-01-02 15:04"),
			t.ExitTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", t.Strike),
			t.CombinedEntryPremium.StringFixed(2),
			fmt.Sprintf("%.2f", t.PnLPoints),
			t.PnLAmount.StringFixed(2),
			string(t.ExitReason),
			fmt.Sprintf("%t", t.WasRestarted),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
