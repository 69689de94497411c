package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
)

// PrintHealth outputs the repository health summary, dispatching based on the output format configured.
// Health reuses the insights model but renders the composite view instead of the per-contributor table.
func PrintHealth(o *schema.InsightsOutput, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHealthJSON(w, o)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHealthCSV(w, o, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable summary
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHealthText(w, o, cfg, fmtFloat, duration)
		}, "Wrote text")
	}
	return nil
}

// writeHealthText displays the health summary in human-readable text format.
func writeHealthText(w io.Writer, o *schema.InsightsOutput, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	title := fmt.Sprintf("Repository Health: %s", o.Repo)
	if cfg.UseEmojis {
		title = "💪 " + title
	}

	lines := []string{
		title,
		"========================",
		"",
		fmt.Sprintf("Score: %s/100", fmtFloat(o.HealthScore)),
		"",
		fmt.Sprintf("Team: %d contributors over %d days", len(o.Contributors), o.WindowDays),
		fmt.Sprintf("Activity: %d events in window", o.TotalEvents),
		fmt.Sprintf("Spread: %s gini (0 = even, 1 = concentrated)", fmtFloat(o.Gini)),
		fmt.Sprintf("Bus factor: top two carry %s%% of PR activity", fmtFloat(o.LotteryFactor*100)),
		"",
		fmt.Sprintf("Analysis completed in %v with %d workers. Cache backend: %s", duration, cfg.Workers, cfg.CacheBackend),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writeHealthCSV writes the health summary as a single CSV record.
func writeHealthCSV(w io.Writer, o *schema.InsightsOutput, fmtFloat func(float64) string) error {
	header := []string{
		"repo",
		"health_score",
		"window_days",
		"total_events",
		"contributors",
		"gini",
		"lottery_factor",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		rec := []string{
			o.Repo,
			fmtFloat(o.HealthScore),
			strconv.Itoa(o.WindowDays),
			strconv.Itoa(o.TotalEvents),
			strconv.Itoa(len(o.Contributors)),
			fmtFloat(o.Gini),
			fmtFloat(o.LotteryFactor),
		}
		return cw.Write(rec)
	})
}

// writeHealthJSON writes the health summary in JSON format.
func writeHealthJSON(w io.Writer, o *schema.InsightsOutput) error {
	// 1. Prepare the flattened summary structure for JSON
	type JSONHealthResult struct {
		Repo          string  `json:"repo"`
		HealthScore   float64 `json:"health_score"`
		WindowDays    int     `json:"window_days"`
		TotalEvents   int     `json:"total_events"`
		Contributors  int     `json:"contributors"`
		Gini          float64 `json:"gini"`
		LotteryFactor float64 `json:"lottery_factor"`
	}

	output := JSONHealthResult{
		Repo:          o.Repo,
		HealthScore:   o.HealthScore,
		WindowDays:    o.WindowDays,
		TotalEvents:   o.TotalEvents,
		Contributors:  len(o.Contributors),
		Gini:          o.Gini,
		LotteryFactor: o.LotteryFactor,
	}

	// 2. Use the generic JSON writer
	return writeJSON(w, output)
}
