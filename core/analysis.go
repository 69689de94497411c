package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/repopulse/repopulse/core/agg"
	"github.com/repopulse/repopulse/core/algo"
	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/internal/outwriter"
	"github.com/repopulse/repopulse/schema"
)

// runRepoAnalysisCore performs the common Load, Auto-Sync and Staleness steps.
// Every analysis mode funnels through here so they share one freshness story.
func runRepoAnalysisCore(ctx context.Context, cfg *contract.Config, eng *Engine, repo schema.RepoRef) (*schema.RepoSnapshot, error) {
	if !shouldSuppressHeader(ctx) {
		outwriter.LogAnalysisHeader(cfg)
	}

	// --- 1. Snapshot Phase (with caching) ---
	snap, err := cachedSnapshot(eng, cfg, repo)
	if err != nil {
		return nil, err
	}

	// --- 2. Auto-Sync Phase ---
	// An empty local window triggers at most one synchronous backfill,
	// then the window is read again.
	if snap.IsEmpty() {
		eng.Trigger.AutoSyncIfEmpty(ctx, repo, true)
		if snap, err = refreshSnapshot(eng, cfg, repo); err != nil {
			return nil, err
		}
	}
	if snap.IsEmpty() {
		return nil, fmt.Errorf("no cached events for %s. Run 'repopulse sync %s' first or enable auto-sync", repo, repo)
	}

	// --- 3. Staleness Advisory ---
	warnIfStale(eng, cfg, repo)

	// --- 4. Background Refresh (debounced) ---
	scheduleBackgroundRefresh(ctx, eng, repo)

	return snap, nil
}

// scheduleBackgroundRefresh coalesces rapid repeated requests for the
// same repo into one deferred sync. It only arms when the trigger deems
// the repo stale. A one-shot CLI run exits and disposes the debouncer
// before the delay elapses; the long-lived MCP server is the consumer
// that actually benefits.
func scheduleBackgroundRefresh(ctx context.Context, eng *Engine, repo schema.RepoRef) {
	if eng.Debounce == nil || !eng.Trigger.NeedsSync(repo) {
		return
	}
	bg := context.WithoutCancel(ctx)
	eng.Debounce.Schedule(repo.String(), func() {
		if err := eng.Trigger.Sync(bg, repo); err != nil {
			contract.LogWarn(fmt.Sprintf("Background refresh for %s failed", repo), err)
		}
	})
}

// buildInsights aggregates a snapshot into ranked contributor insights.
func buildInsights(cfg *contract.Config, repo schema.RepoRef, snap *schema.RepoSnapshot) *schema.InsightsOutput {
	stats := agg.CollectContributors(snap)

	gini := algo.Gini(agg.ContributionValues(stats))
	lottery := algo.LotteryFactor(stats)
	health := algo.HealthScore(len(stats), len(snap.Activities), gini, lottery)

	window := cfg.GetAnalysisEndTime().Sub(cfg.GetAnalysisStartTime())

	return &schema.InsightsOutput{
		Repo:          repo.String(),
		WindowDays:    int(window.Hours() / 24),
		TotalEvents:   len(snap.Activities),
		Contributors:  algo.RankContributors(stats, cfg.ResultLimit),
		LotteryFactor: lottery,
		HealthScore:   health,
		Gini:          gini,
	}
}

// buildConfidence derives the confidence breakdown for a snapshot.
func buildConfidence(cfg *contract.Config, snap *schema.RepoSnapshot, overview schema.RepoOverview) schema.ConfidenceBreakdown {
	stats := agg.CollectContributors(snap)
	inputs := agg.CollectConfidenceInputs(snap, overview, stats)
	return algo.ComputeConfidence(inputs, cfg.ComputedWeights)
}

// requireRepo extracts the primary repository or explains how to
// provide one.
func requireRepo(cfg *contract.Config) (schema.RepoRef, error) {
	repo := cfg.PrimaryRepo()
	if repo.Owner == "" || repo.Name == "" {
		return schema.RepoRef{}, errors.New("no repository given. Pass owner/repo as an argument or set repos in the config file")
	}
	return repo, nil
}
