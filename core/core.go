// Package core has core logic for analysis, scoring and sync coordination.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/internal/memcache"
	"github.com/repopulse/repopulse/internal/outwriter"
	"github.com/repopulse/repopulse/internal/syncer"
	"github.com/repopulse/repopulse/schema"
)

// ExecutorFunc defines the function signature for executing different analysis modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, eng *Engine) error

// Engine bundles the long-lived pieces every command shares: the event
// source, the store manager, the in-memory snapshot cache, the refresh
// debouncer and the sync trigger. One engine serves a whole process;
// the MCP server reuses it across requests.
type Engine struct {
	Source    contract.EventSource
	Mgr       contract.StoreManager
	Snapshots *memcache.Store[*schema.RepoSnapshot]
	Debounce  *memcache.Debouncer
	Trigger   *syncer.Trigger

	mu      sync.Mutex
	derived map[string]derivedResult
}

// NewEngine wires an engine from the resolved configuration.
func NewEngine(cfg *contract.Config, source contract.EventSource, mgr contract.StoreManager) *Engine {
	return &Engine{
		Source: source,
		Mgr:    mgr,
		Snapshots: memcache.New[*schema.RepoSnapshot](
			memcache.WithMaxEntries(cfg.MaxEntries),
			memcache.WithTTL(cfg.TTL),
		),
		Debounce: memcache.NewDebouncer(memcache.WithDelay(cfg.DebounceDelay)),
		Trigger: syncer.New(source, mgr,
			syncer.WithMaxStale(cfg.MaxStale),
			syncer.WithLookback(cfg.Lookback),
			syncer.WithAutoSync(cfg.AutoSync),
			syncer.WithWorkers(cfg.Workers),
		),
		derived: make(map[string]derivedResult),
	}
}

// Dispose cancels pending background refreshes and disables the trigger.
// Refreshes already in flight finish; their status writes still apply.
func (e *Engine) Dispose() {
	if e.Debounce != nil {
		e.Debounce.Dispose()
	}
	if e.Trigger != nil {
		e.Trigger.Dispose()
	}
}

// GetConfidenceResult runs the contributor confidence analysis and returns
// the scored breakdown for programmatic consumers. Repository totals come
// from the live API, so this needs the source reachable.
func GetConfidenceResult(ctx context.Context, cfg *contract.Config, eng *Engine) (schema.ConfidenceBreakdown, time.Duration, error) {
	start := time.Now()
	repo, err := requireRepo(cfg)
	if err != nil {
		return schema.ConfidenceBreakdown{}, 0, err
	}

	snap, err := runRepoAnalysisCore(ctx, cfg, eng, repo)
	if err != nil {
		return schema.ConfidenceBreakdown{}, 0, err
	}

	overview, err := eng.Source.GetRepoOverview(ctx, repo)
	if err != nil {
		return schema.ConfidenceBreakdown{}, 0, fmt.Errorf("repository overview for %s unavailable: %w. Check the network and github-token, then retry", repo, err)
	}

	return buildConfidence(cfg, snap, overview), time.Since(start), nil
}

// ExecuteConfidence runs the contributor confidence analysis and prints
// the scored breakdown. It serves as the main entry point for the
// 'confidence' mode.
func ExecuteConfidence(ctx context.Context, cfg *contract.Config, eng *Engine) error {
	breakdown, duration, err := GetConfidenceResult(ctx, cfg, eng)
	if err != nil {
		return err
	}
	return outwriter.PrintConfidence(breakdown, cfg, duration)
}

// GetInsightsResult runs the contributor insights analysis and returns the
// ranked result for programmatic consumers. Works entirely from the local
// event cache.
func GetInsightsResult(ctx context.Context, cfg *contract.Config, eng *Engine) (*schema.InsightsOutput, time.Duration, error) {
	start := time.Now()
	repo, err := requireRepo(cfg)
	if err != nil {
		return nil, 0, err
	}

	snap, err := runRepoAnalysisCore(ctx, cfg, eng, repo)
	if err != nil {
		return nil, 0, err
	}

	return cachedInsights(eng, cfg, repo, snap), time.Since(start), nil
}

// ExecuteInsights runs the contributor insights analysis and prints the
// ranked table. It serves as the main entry point for the 'insights' mode.
func ExecuteInsights(ctx context.Context, cfg *contract.Config, eng *Engine) error {
	insights, duration, err := GetInsightsResult(ctx, cfg, eng)
	if err != nil {
		return err
	}
	return outwriter.PrintInsights(insights, cfg, duration)
}

// ExecuteHealth runs the repository health analysis and prints the
// composite summary. It serves as the main entry point for the 'health'
// mode. Health reuses the insights aggregation.
func ExecuteHealth(ctx context.Context, cfg *contract.Config, eng *Engine) error {
	insights, duration, err := GetInsightsResult(ctx, cfg, eng)
	if err != nil {
		return err
	}
	return outwriter.PrintHealth(insights, cfg, duration)
}

// GetSyncReport refreshes the event cache for every configured repository
// and returns per-repo outcomes plus aggregated run stats. Excluded repos
// are reported as skipped rather than silently dropped. A non-nil error
// alongside a populated report means at least one repository failed.
func GetSyncReport(ctx context.Context, cfg *contract.Config, eng *Engine) (schema.SyncReport, time.Duration, error) {
	start := time.Now()
	report := schema.SyncReport{}

	if len(cfg.Repos) == 0 {
		return report, 0, errors.New("no repositories given. Pass owner/repo arguments or set repos in the config file")
	}

	if !shouldSuppressHeader(ctx) {
		outwriter.LogSyncHeader(cfg)
	}

	targets := make([]schema.RepoRef, 0, len(cfg.Repos))
	for _, repo := range cfg.Repos {
		if contract.ShouldIgnore(repo.String(), cfg.Excludes) {
			report.Outcomes = append(report.Outcomes, schema.RepoSyncOutcome{
				Repo:    repo.String(),
				Skipped: true,
			})
			continue
		}
		targets = append(targets, repo)
	}
	if len(targets) == 0 {
		return schema.SyncReport{}, 0, errors.New("every repository matched an exclude pattern")
	}

	totals, syncErr := eng.Trigger.SyncAll(ctx, targets)
	report.Totals = totals

	for _, repo := range targets {
		st := eng.Trigger.Status(repo)
		report.Outcomes = append(report.Outcomes, schema.RepoSyncOutcome{
			Repo:         repo.String(),
			Synced:       st.IsComplete,
			Error:        st.ErrorMessage(),
			LastSyncedAt: st.LastSyncedAt,
		})
	}

	return report, time.Since(start), syncErr
}

// ExecuteSync refreshes the event cache and prints the per-repo report.
// Partial failures still print before the first error is returned.
func ExecuteSync(ctx context.Context, cfg *contract.Config, eng *Engine) error {
	report, duration, err := GetSyncReport(ctx, cfg, eng)
	if len(report.Outcomes) == 0 {
		return err
	}
	if printErr := outwriter.PrintSyncReport(report, cfg, duration); printErr != nil {
		return printErr
	}
	return err
}

// GetStatusReport gathers the persistent stores and the in-memory cache
// state in one place.
func GetStatusReport(_ context.Context, _ *contract.Config, eng *Engine) (schema.CacheStatusReport, time.Duration, error) {
	start := time.Now()
	report := schema.CacheStatusReport{}

	if store := eng.Mgr.GetEventStore(); store != nil {
		status, err := store.GetStatus()
		if err != nil {
			return report, 0, fmt.Errorf("event store status unavailable: %w", err)
		}
		report.Events = status
	} else {
		report.Events.Backend = string(schema.NoneBackend)
	}

	if runs := eng.Mgr.GetSyncRunStore(); runs != nil {
		status, err := runs.GetStatus()
		if err != nil {
			return report, 0, fmt.Errorf("sync-run store status unavailable: %w", err)
		}
		report.SyncRuns = status
	} else {
		report.SyncRuns.Backend = string(schema.NoneBackend)
	}

	if eng.Snapshots != nil {
		stats := eng.Snapshots.Stats()
		report.Memory = schema.MemoryCacheStats{
			Entries:   stats.Entries,
			Hits:      stats.Hits,
			Misses:    stats.Misses,
			Evictions: stats.Evictions,
		}
	}

	return report, time.Since(start), nil
}

// ExecuteStatus reports the store and cache state. It backs both
// 'cache status' and the MCP cache_status tool.
func ExecuteStatus(ctx context.Context, cfg *contract.Config, eng *Engine) error {
	report, duration, err := GetStatusReport(ctx, cfg, eng)
	if err != nil {
		return err
	}
	return outwriter.PrintCacheStatus(report, cfg, duration)
}
