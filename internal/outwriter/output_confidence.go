package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintConfidence outputs the confidence breakdown, dispatching based on the output format configured.
func PrintConfidence(b schema.ConfidenceBreakdown, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeConfidenceJSON(w, b, cfg)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeConfidenceCSV(w, b, cfg, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeConfidenceTable(w, b, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// confidenceFactorRows pairs each factor with its normalized component
// in a stable display order.
func confidenceFactorRows(b schema.ConfidenceBreakdown) []struct {
	Key   schema.FactorKey
	Value float64
} {
	return []struct {
		Key   schema.FactorKey
		Value float64
	}{
		{schema.FactorStarFork, b.StarForkConfidence},
		{schema.FactorEngagement, b.EngagementConfidence},
		{schema.FactorRetention, b.RetentionConfidence},
		{schema.FactorQuality, b.QualityConfidence},
	}
}

// writeConfidenceTable generates and writes the human-readable factor table.
func writeConfidenceTable(w io.Writer, b schema.ConfidenceBreakdown, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	// 1. Define Headers
	table.Header([]string{"Factor", "Confidence", "Weight", "Weighted"})

	// 2. Right-align the numeric columns
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	var data [][]string
	for _, row := range confidenceFactorRows(b) {
		data = append(data, []string{
			string(row.Key),
			fmtFloat(row.Value),
			fmt.Sprintf("%.2f", cfg.ComputedWeights[row.Key]),
			fmtFloat(b.Factors[row.Key]),
		})
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Summary lines below the table
	label := labelFor(cfg)
	if _, err := fmt.Fprintf(w, "Confidence for %s: %s (%s) from %d stargazers and %d forkers vs %d contributors\n",
		b.Repo, fmtFloat(b.Score), label(b.Score), b.TotalStargazers, b.TotalForkers, b.ContributorCount); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Conversion: %s%% of observers came back to contribute\n", fmtFloat(b.ConversionRate)); err != nil {
		return err
	}
	if cfg.Explain {
		if _, err := fmt.Fprintf(w, "Driven by: %s\n", formatTopFactors(b.Factors)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeConfidenceCSV writes the breakdown as a single CSV record.
func writeConfidenceCSV(w io.Writer, b schema.ConfidenceBreakdown, cfg *contract.Config, fmtFloat func(float64) string) error {
	header := []string{
		"repo",
		"score",
		"label",
		"star_fork",
		"engagement",
		"retention",
		"quality",
		"stargazers",
		"forkers",
		"contributors",
		"conversion_rate",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		rec := []string{
			b.Repo,
			fmtFloat(b.Score),
			schema.GetPlainLabel(b.Score, cfg.Bands),
			fmtFloat(b.StarForkConfidence),
			fmtFloat(b.EngagementConfidence),
			fmtFloat(b.RetentionConfidence),
			fmtFloat(b.QualityConfidence),
			strconv.Itoa(b.TotalStargazers),
			strconv.Itoa(b.TotalForkers),
			strconv.Itoa(b.ContributorCount),
			fmtFloat(b.ConversionRate),
		}
		return cw.Write(rec)
	})
}

// writeConfidenceJSON writes the breakdown in JSON format with the band label added.
func writeConfidenceJSON(w io.Writer, b schema.ConfidenceBreakdown, cfg *contract.Config) error {
	// 1. Prepare the data structure for JSON with the label added
	type JSONConfidenceResult struct {
		Label string `json:"label"`
		schema.ConfidenceBreakdown
	}

	output := JSONConfidenceResult{
		Label:               schema.GetPlainLabel(b.Score, cfg.Bands),
		ConfidenceBreakdown: b,
	}

	// 2. Use the generic JSON writer
	return writeJSON(w, output)
}
