package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	return nil
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}

// labelFor returns the band label renderer for the configured thresholds,
// colored when the user asked for colors.
func labelFor(cfg *contract.Config) func(float64) string {
	if cfg.UseColors {
		return func(score float64) string {
			return contract.GetColorLabel(score, cfg.Bands)
		}
	}
	return func(score float64) string {
		return schema.GetPlainLabel(score, cfg.Bands)
	}
}

// formatTimeOrDash renders a timestamp, or "-" when it is unset.
func formatTimeOrDash(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(contract.DateTimeFormat)
}

// formatTimePtr renders an optional timestamp, or "-" when it is absent.
func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTimeOrDash(*t)
}

// formatByteSize renders a byte count in human-readable binary units.
func formatByteSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatHitRate renders cache effectiveness as a percentage of lookups.
func formatHitRate(hits, misses int64) string {
	total := hits + misses
	if total == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(hits)/float64(total))
}

// factorContribution holds one factor's weighted share of the final score.
type factorContribution struct {
	Name  string
	Value float64
}

const (
	factorContribMinimum = 0.5
	topNFactors          = 3
)

// formatTopFactors lists the factors that contribute the most weighted
// points to the final score, strongest first.
func formatTopFactors(factors map[schema.FactorKey]float64) string {
	var contribs []factorContribution

	// 1. Filter and Convert Map to Slice
	for k, v := range factors {
		// Only include meaningful contributions
		if v >= factorContribMinimum {
			contribs = append(contribs, factorContribution{
				Name:  string(k),
				Value: v,
			})
		}
	}

	if len(contribs) == 0 {
		return "Not applicable"
	}

	// 2. Sort by weighted contribution in descending order
	sort.Slice(contribs, func(i, j int) bool {
		return math.Abs(contribs[i].Value) > math.Abs(contribs[j].Value)
	})

	// 3. Limit to the top entries and format the output
	var parts []string
	limit := min(len(contribs), topNFactors)

	for i := range limit {
		parts = append(parts, contribs[i].Name)
	}

	return strings.Join(parts, " > ")
}
