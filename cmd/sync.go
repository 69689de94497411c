package cmd

import (
	"github.com/repopulse/repopulse/core"
	"github.com/repopulse/repopulse/internal/contract"
	"github.com/spf13/cobra"
)

// syncCmd fetches GitHub activity into the local event cache.
var syncCmd = &cobra.Command{
	Use:   "sync [owner/repo ...]",
	Short: "Fetch recent GitHub activity into the local event cache.",
	Long: `Pull events, pull requests, and issues from the GitHub API into the cache.

Each repository syncs on its own worker, so multi-repo pulls overlap
network time. Repositories matching an --exclude pattern are skipped
and reported as such. A per-repo failure does not stop the others;
the report marks it and the command exits non-zero afterwards.

Analysis commands trigger this automatically when --auto-sync is on,
but an explicit sync is useful for:
- Warming the cache ahead of a batch of analyses
- Scheduled refreshes from cron or CI
- Pulling several repositories in one pass

Examples:
  # Sync one repository
  repopulse sync golang/go

  # Sync several at once with more workers
  repopulse sync golang/go kubernetes/kubernetes rust-lang/rust --workers 8

  # Skip archived mirrors while syncing an org list from config
  repopulse sync --exclude "acme/archived-*,acme/mirror-*"

  # Wider backfill window
  repopulse sync golang/go --lookback "90 days"`,
	Args:    cobra.ArbitraryArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSync(rootCtx, cfg, eng); err != nil {
			contract.LogFatal("Cannot sync repositories", err)
		}
	},
}
