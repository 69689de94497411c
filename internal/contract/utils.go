package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/repopulse/repopulse/schema"
)

// Confidence band label constants.
const (
	ExcellentValue = "Excellent" // Excellent value
	GoodValue      = "Good"      // Good value
	ModerateValue  = "Moderate"  // Moderate value
	LowValue       = "Low"       // Low value
)

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold) // excellentColor represents strong conversion.
	GoodColor      = color.New(color.FgCyan)              // goodColor represents healthy, above-typical signal.
	ModerateColor  = color.New(color.FgYellow)            // moderateColor represents typical conversion, not bold.
	LowColor       = color.New(color.FgRed, color.Bold)   // lowColor represents a project intimidating to newcomers.
)

// GetColorLabel returns a colored text label for console output (table).
// It uses schema.GetPlainLabel to determine the string, and then applies
// the appropriate color.
func GetColorLabel(score float64, bands schema.ConfidenceBands) string {
	text := schema.GetPlainLabel(score, bands)

	switch text {
	case ExcellentValue:
		return ExcellentColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	default: // "Low"
		return LowColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given repo string matches any of the
// exclude patterns. It supports simple glob patterns (using filepath.Match)
// when the pattern contains wildcard characters (*, ?, [ ]). Patterns ending
// with '/' match an owner prefix. Other patterns match as substrings.
// A user can provide patterns like "archived-org/", "*/fork-*", "-mirror".
func ShouldIgnore(repo string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		// If the pattern contains glob characters, try filepath.Match.
		if strings.ContainsAny(ex, "*?[") {
			if ok, err := filepath.Match(ex, repo); err == nil && ok {
				return true
			}
			// Also try matching against the bare repo name (e.g. fork-*)
			if ok, err := filepath.Match(ex, filepath.Base(repo)); err == nil && ok {
				return true
			}
			continue
		}

		// Handle owner-prefix or substring matches
		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(repo, ex) {
				return true
			}
		case strings.Contains(repo, ex):
			return true
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the event cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".repopulse_cache.db"
	}
	return filepath.Join(homeDir, ".repopulse_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for sync-run tracking.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".repopulse_runs.db"
	}
	return filepath.Join(homeDir, ".repopulse_runs.db")
}

// TruncatePath truncates a repo path or URL to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at
// least one character of content. Without this check, small maxWidth values could
// cause slice bounds errors in the truncation calculation.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
