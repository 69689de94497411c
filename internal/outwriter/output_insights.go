package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/internal/parquet"
	"github.com/repopulse/repopulse/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintInsights outputs the contributor insights, dispatching based on the output format configured.
func PrintInsights(o *schema.InsightsOutput, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeInsightsJSON(w, o)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeInsightsCSV(w, o, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeInsightsParquet(o, cfg); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeInsightsTable(w, o, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

// writeInsightsTable generates and writes the human-readable contributor table.
func writeInsightsTable(w io.Writer, o *schema.InsightsOutput, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	// 1. Define Headers
	headers := []string{"Rank", "Login", "PRs", "Share"}
	if cfg.Detail {
		headers = append(headers, "Merged", "Reviews", "Comments", "Issues", "Active")
	}
	table.Header(headers)

	// 2. Right-align the numeric columns
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	var data [][]string
	for i, s := range o.Contributors {
		row := []string{
			strconv.Itoa(i + 1), // Rank
			contract.TruncatePath(s.Login, GetMaxTableNameWidth(cfg)), // Login
			fmt.Sprintf(intFmt, s.PullRequests),                       // PRs
			fmtFloat(s.Share*100) + "%",                               // Share
		}
		if cfg.Detail {
			row = append(
				row,
				fmt.Sprintf(intFmt, s.MergedPRs), // Merged
				fmt.Sprintf(intFmt, s.Reviews),   // Reviews
				fmt.Sprintf(intFmt, s.Comments),  // Comments
				fmt.Sprintf(intFmt, s.Issues),    // Issues
				formatActiveSpan(s.FirstSeen, s.LastSeen), // Active
			)
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Summary lines below the table
	if _, err := fmt.Fprintf(w, "Showing top %d contributors over %d days (total events: %d)\n", len(o.Contributors), o.WindowDays, o.TotalEvents); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Gini: %s | Lottery factor: %s | Health: %s\n", fmtFloat(o.Gini), fmtFloat(o.LotteryFactor), fmtFloat(o.HealthScore)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeInsightsCSV writes one CSV record per ranked contributor.
func writeInsightsCSV(w io.Writer, o *schema.InsightsOutput, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"rank",
		"login",
		"pull_requests",
		"merged_prs",
		"reviews",
		"comments",
		"issues",
		"share_pct",
		"first_seen",
		"last_seen",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, s := range o.Contributors {
			rec := []string{
				strconv.Itoa(i + 1),                  // Rank
				s.Login,                              // Login
				fmt.Sprintf(intFmt, s.PullRequests),  // Pull Requests
				fmt.Sprintf(intFmt, s.MergedPRs),     // Merged PRs
				fmt.Sprintf(intFmt, s.Reviews),       // Reviews
				fmt.Sprintf(intFmt, s.Comments),      // Comments
				fmt.Sprintf(intFmt, s.Issues),        // Issues
				fmtFloat(s.Share * 100),              // Share of PR activity
				s.FirstSeen.Format(contract.DateTimeFormat), // First Seen
				s.LastSeen.Format(contract.DateTimeFormat),  // Last Seen
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeInsightsJSON writes the insights in JSON format with ranks added.
func writeInsightsJSON(w io.Writer, o *schema.InsightsOutput) error {
	// 1. Prepare the data structure for JSON with ranked contributors
	type JSONInsightsResult struct {
		Repo          string                           `json:"repo"`
		WindowDays    int                              `json:"window_days"`
		TotalEvents   int                              `json:"total_events"`
		Gini          float64                          `json:"gini"`
		LotteryFactor float64                          `json:"lottery_factor"`
		HealthScore   float64                          `json:"health_score"`
		Contributors  []schema.EnrichedContributorStat `json:"contributors"`
	}

	output := JSONInsightsResult{
		Repo:          o.Repo,
		WindowDays:    o.WindowDays,
		TotalEvents:   o.TotalEvents,
		Gini:          o.Gini,
		LotteryFactor: o.LotteryFactor,
		HealthScore:   o.HealthScore,
		Contributors:  schema.EnrichContributors(o.Contributors),
	}

	// 2. Use the generic JSON writer
	return writeJSON(w, output)
}

// writeInsightsParquet exports the ranked contributors as Parquet rows.
// The Parquet writer owns the destination file, so an explicit path is required.
func writeInsightsParquet(o *schema.InsightsOutput, cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return errors.New("parquet output requires --output-file. Pass a destination path")
	}
	rows := parquet.ConvertContributorStats(o.Repo, o.Contributors)
	if err := parquet.WriteContributorStatsParquet(rows, cfg.OutputFile); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	return nil
}

// formatActiveSpan renders the days between a contributor's first and
// last activity in the window.
func formatActiveSpan(first, last time.Time) string {
	if first.IsZero() || last.IsZero() {
		return "-"
	}
	days := int(last.Sub(first).Hours() / 24)
	return fmt.Sprintf("%dd", days)
}
