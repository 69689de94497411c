// Package outwriter renders analysis results as tables, JSON, CSV and
// Parquet. Every Print entry point dispatches on the configured output
// format and delegates to a per-format writer that takes an io.Writer,
// so tests can render into buffers.
package outwriter

import (
	"fmt"
	"os"

	"github.com/repopulse/repopulse/internal/contract"
	"golang.org/x/term"
)

// LogAnalysisHeader prints a concise, 2-line header for each analysis phase.
func LogAnalysisHeader(cfg *contract.Config) {
	repo := cfg.PrimaryRepo()
	name := repo.String()
	if repo.IsZero() {
		name = "unknown"
	}

	// Line 1: The analysis summary (Repo and Mode)
	// Line 2: The actual date range being analyzed
	if cfg.UseEmojis {
		fmt.Printf("🔎 Repo: %s (Mode: %s)\n", name, cfg.Mode)
		fmt.Printf("📅 Range: %s → %s\n",
			cfg.GetAnalysisStartTime().Format(contract.DateTimeFormat),
			cfg.GetAnalysisEndTime().Format(contract.DateTimeFormat))
		return
	}
	fmt.Printf("Repo: %s (Mode: %s)\n", name, cfg.Mode)
	fmt.Printf("Range: %s to %s\n",
		cfg.GetAnalysisStartTime().Format(contract.DateTimeFormat),
		cfg.GetAnalysisEndTime().Format(contract.DateTimeFormat))
}

// LogSyncHeader prints a header for a sync run across repositories.
func LogSyncHeader(cfg *contract.Config) {
	if cfg.UseEmojis {
		fmt.Printf("🔄 Sync: %d repos (Workers: %d)\n", len(cfg.Repos), cfg.Workers)
		fmt.Printf("📅 Lookback: %v (Backend: %s)\n", cfg.Lookback, cfg.CacheBackend)
		return
	}
	fmt.Printf("Sync: %d repos (Workers: %d)\n", len(cfg.Repos), cfg.Workers)
	fmt.Printf("Lookback: %v (Backend: %s)\n", cfg.Lookback, cfg.CacheBackend)
}

// GetMaxTableNameWidth calculates the maximum width for repo and login
// columns in table output based on terminal width and table configuration.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		// Get terminal width
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for fixed columns with table formatting
	baseWidth := 25 // Rank + PRs + Share with borders/padding

	// Add detail columns with formatting
	if cfg.Detail {
		baseWidth += 45 // All detail columns (Merged + Reviews + Comments + Issues + Active) with formatting
	}

	// Add explain column
	if cfg.Explain {
		baseWidth += 35 // Explain column with formatting
	}

	// Reserve generous space for table borders, separators, and padding
	baseWidth += 20

	// Calculate available space for the name column
	available := termWidth - baseWidth
	if available < 15 {
		// Minimum reasonable name width
		return 15
	}
	if available > 70 {
		// Maximum name width to prevent overly wide tables
		return 70
	}
	return available
}
