// Package cmd defines the command-line interface for repopulse.
package cmd

import (
	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(confidenceCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("repo", "r", "", "Comma-separated list of repositories as owner/name")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of repo patterns to skip during sync")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of contributors to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("start", "", "Start date in ISO8601 or time ago")
	rootCmd.PersistentFlags().String("end", "", "End date in ISO8601 or time ago")
	rootCmd.PersistentFlags().String("lookback", "30 days", "Time duration of activity to analyze")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent sync workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().Bool("detail", false, "Print per-contributor metadata (first/last seen, review counts)")
	rootCmd.PersistentFlags().String("github-token", "", "GitHub API token (prefer REPOPULSE_GITHUB_TOKEN env var)")
	rootCmd.PersistentFlags().String("github-api-url", "", "GitHub API base URL override for GitHub Enterprise")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Event cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Sync-run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().Int("max-entries", 10, "Maximum snapshots held in the in-memory cache")
	rootCmd.PersistentFlags().String("ttl", "5 minutes", "Lifetime of an in-memory cache entry")
	rootCmd.PersistentFlags().String("debounce-delay", "300ms", "Delay before a background refresh fires (0 = immediate)")
	rootCmd.PersistentFlags().String("auto-sync", "yes", "Fetch from GitHub automatically when the cache window is empty (yes/no)")
	rootCmd.PersistentFlags().String("max-stale", "60 minutes", "Warn when cached events are older than this")
	rootCmd.PersistentFlags().String("emoji", "yes", "Enable emojis in output headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of confidenceCmd to Viper
	confidenceCmd.Flags().Bool("explain", false, "Print per-factor score breakdown")
	confidenceCmd.Flags().String("weights-override", "", "Confidence factor weights (format: 'starfork:0.35,engagement:0.25,retention:0.25,quality:0.15')")
	confidenceCmd.Flags().String("bands-override", "", "Confidence band thresholds (format: 'low:10,moderate:25,good:40')")
	if err := viper.BindPFlags(confidenceCmd.Flags()); err != nil {
		contract.LogFatal("Error binding confidence flags", err)
	}

	// Bind all flags of cacheMigrateCmd to Viper
	cacheMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(cacheMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache migrate flags", err)
	}
}
