package cmd

import (
	"github.com/repopulse/repopulse/core"
	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
	"github.com/spf13/cobra"
)

// insightsCmd ranks contributors within the analysis window.
var insightsCmd = &cobra.Command{
	Use:   "insights [owner/repo]",
	Short: "Show the top contributors ranked by activity.",
	Long: `Rank the people behind a repository's recent activity.

Aggregates cached GitHub events into per-contributor statistics, helping you:
- See who actually drives the project (PRs, reviews, comments, issues)
- Spot knowledge concentration through the lottery factor
- Measure how evenly work is spread with the Gini coefficient
- Track the composite health score of the community

Bot accounts are excluded, and watchers or forkers who never contributed
do not appear in the ranking.

Examples:
  # Top contributors over the default 30 day window
  repopulse insights golang/go

  # A longer window with more rows
  repopulse insights golang/go --lookback "6 months" --limit 50

  # Include first/last seen and review counts per contributor
  repopulse insights rust-lang/rust --detail

  # Export the ranking for notebooks or DuckDB
  repopulse insights golang/go --output parquet --output-file contributors.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		cfg.Mode = schema.InsightsMode
		if err := core.ExecuteInsights(rootCtx, cfg, eng); err != nil {
			contract.LogFatal("Cannot run insights analysis", err)
		}
	},
}
