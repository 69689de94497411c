package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintSyncReport outputs per-repo sync outcomes and run totals, dispatching based on the output format configured.
func PrintSyncReport(r schema.SyncReport, cfg *contract.Config, duration time.Duration) error {
	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, r)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSyncCSV(w, r)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSyncTable(w, r, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// syncStatusLabel renders a per-repo outcome for table output, colored
// when the user asked for colors.
func syncStatusLabel(o schema.RepoSyncOutcome, useColors bool) string {
	var text string
	switch {
	case o.Skipped:
		text = "skipped"
	case o.Synced:
		text = "synced"
	default:
		text = "failed"
	}
	if !useColors {
		return text
	}
	switch text {
	case "synced":
		return contract.ExcellentColor.Sprint(text)
	case "skipped":
		return contract.ModerateColor.Sprint(text)
	default:
		return contract.LowColor.Sprint(text)
	}
}

// writeSyncTable generates and writes the human-readable outcome table.
func writeSyncTable(w io.Writer, r schema.SyncReport, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	// 1. Define Headers
	table.Header([]string{"Repo", "Status", "Last Synced", "Error"})

	// 2. Right-align for consistency with the analysis tables
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	var data [][]string
	for _, o := range r.Outcomes {
		errText := o.Error
		if errText == "" {
			errText = "-"
		}
		data = append(data, []string{
			contract.TruncatePath(o.Repo, GetMaxTableNameWidth(cfg)), // Repo
			syncStatusLabel(o, cfg.UseColors),                        // Status
			formatTimePtr(o.LastSyncedAt),                            // Last Synced
			errText,                                                  // Error
		})
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Compute summary stats
	var synced, skipped, failed int
	for _, o := range r.Outcomes {
		switch {
		case o.Skipped:
			skipped++
		case o.Synced:
			synced++
		default:
			failed++
		}
	}
	if _, err := fmt.Fprintf(w, "Synced %d repos (%d skipped, %d failed) with %d events inserted\n", synced, skipped, failed, r.Totals.EventsInserted); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Fetched %d events over %d API calls\n", r.Totals.EventsFetched, r.Totals.APICalls); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sync completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeSyncCSV writes one CSV record per repository outcome.
func writeSyncCSV(w io.Writer, r schema.SyncReport) error {
	header := []string{
		"repo",
		"status",
		"error",
		"last_synced_at",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, o := range r.Outcomes {
			rec := []string{
				o.Repo,                    // Repo
				syncStatusLabel(o, false), // Status, always plain in CSV
				o.Error,                   // Error
				formatTimePtr(o.LastSyncedAt),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
