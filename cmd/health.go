package cmd

import (
	"github.com/repopulse/repopulse/core"
	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
	"github.com/spf13/cobra"
)

// healthCmd summarizes community health for a repository.
var healthCmd = &cobra.Command{
	Use:   "health [owner/repo]",
	Short: "Summarize repository community health in one view.",
	Long: `Condense contributor analysis into a single health summary.

Reports:
- Composite health score (0-100) from activity, spread, and retention
- Contributor count and window activity volume
- Gini coefficient of contribution concentration
- Bus factor exposure via the lottery factor

Use this for a quick pulse check before digging into the full
insights ranking.

Examples:
  # Health summary over the default 30 day window
  repopulse health golang/go

  # Quarterly view
  repopulse health golang/go --lookback "3 months"

  # JSON for automated reporting
  repopulse health golang/go --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		cfg.Mode = schema.HealthMode
		if err := core.ExecuteHealth(rootCtx, cfg, eng); err != nil {
			contract.LogFatal("Cannot run health analysis", err)
		}
	},
}
