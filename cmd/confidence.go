package cmd

import (
	"github.com/repopulse/repopulse/core"
	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
	"github.com/spf13/cobra"
)

// confidenceCmd scores how likely observers are to become contributors.
var confidenceCmd = &cobra.Command{
	Use:   "confidence [owner/repo]",
	Short: "Score how likely stargazers and forkers are to become contributors.",
	Long: `Estimate the conversion potential of a repository's audience.

Combines four weighted factors computed from cached GitHub activity:
- Star/fork conversion: how many stargazers and forkers opened a PR or issue
- Engagement: comment and review activity relative to audience size
- Retention: contributors who come back after their first contribution
- Quality: merged pull requests as a share of opened ones

The weighted score lands on a 0-100 scale and maps to a label
(Low, Moderate, Good, Excellent) using configurable band thresholds.

Examples:
  # Score a repository over the default 30 day window
  repopulse confidence golang/go

  # Widen the window and show the per-factor breakdown
  repopulse confidence golang/go --lookback "90 days" --explain

  # Custom factor weights for an engagement-heavy community
  repopulse confidence kubernetes/kubernetes --weights-override 'starfork:0.25,engagement:0.35,retention:0.25,quality:0.15'

  # Machine-readable output for dashboards
  repopulse confidence golang/go --output json --output-file confidence.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		cfg.Mode = schema.ConfidenceMode
		if err := core.ExecuteConfidence(rootCtx, cfg, eng); err != nil {
			contract.LogFatal("Cannot run confidence analysis", err)
		}
	},
}
