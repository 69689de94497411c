package core

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/internal/memcache"
	"github.com/repopulse/repopulse/schema"
)

// cachedSnapshot retrieves the analysis-window snapshot through the
// in-memory cache, hitting the event store only on a miss.
func cachedSnapshot(eng *Engine, cfg *contract.Config, repo schema.RepoRef) (*schema.RepoSnapshot, error) {
	store := eng.Mgr.GetEventStore()
	if store == nil {
		return nil, fmt.Errorf("event store is not configured. Check that cache-backend is not none")
	}

	if eng.Snapshots == nil {
		// Fallback to direct load
		return store.SnapshotSince(repo, cfg.GetAnalysisStartTime())
	}

	key := snapshotCacheKey(cfg, repo)

	// Check for cache hit
	if snap, ok := eng.Snapshots.Get(key); ok {
		return snap, nil
	}

	// Cache miss: load and store
	snap, err := store.SnapshotSince(repo, cfg.GetAnalysisStartTime())
	if err != nil {
		return nil, &memcache.ComputationError{Key: key, Cause: err}
	}
	eng.Snapshots.Set(key, snap)
	return snap, nil
}

// refreshSnapshot re-reads the window from the event store and replaces
// the cached entry. Used after a sync lands new rows.
func refreshSnapshot(eng *Engine, cfg *contract.Config, repo schema.RepoRef) (*schema.RepoSnapshot, error) {
	store := eng.Mgr.GetEventStore()
	if store == nil {
		return nil, fmt.Errorf("event store is not configured. Check that cache-backend is not none")
	}
	snap, err := store.SnapshotSince(repo, cfg.GetAnalysisStartTime())
	if err != nil {
		return nil, err
	}
	if eng.Snapshots != nil {
		eng.Snapshots.Set(snapshotCacheKey(cfg, repo), snap)
	}
	return snap, nil
}

// snapshotCacheKey creates a unique key based on analysis parameters
func snapshotCacheKey(cfg *contract.Config, repo schema.RepoRef) string {
	// Use canonical helpers from contract.Config to ensure consistent time granularity
	startHour := cfg.GetAnalysisStartTime()
	endHour := cfg.GetAnalysisEndTime()

	key := fmt.Sprintf("%s:%s:%d:%d:%s",
		repo.String(),
		cfg.Lookback,
		startHour.Unix(),
		endHour.Unix(),
		cfg.CacheBackend,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// derivedResult remembers the last aggregation for a key so an
// unchanged snapshot skips recomputation.
type derivedResult struct {
	hash     schema.ContentHash
	insights *schema.InsightsOutput
}

// cachedInsights rebuilds contributor insights only when the snapshot
// content hash moved since the last computation for this key. The
// result limit is part of the key because it changes the ranked slice.
func cachedInsights(eng *Engine, cfg *contract.Config, repo schema.RepoRef, snap *schema.RepoSnapshot) *schema.InsightsOutput {
	hash := memcache.HashSnapshot(snap.PullRequests, snap.Issues, snap.Activities)
	key := fmt.Sprintf("%s:%d", snapshotCacheKey(cfg, repo), cfg.ResultLimit)

	eng.mu.Lock()
	prev, ok := eng.derived[key]
	eng.mu.Unlock()
	if ok && prev.hash.Equal(hash) {
		return prev.insights
	}

	insights := buildInsights(cfg, repo, snap)

	eng.mu.Lock()
	eng.derived[key] = derivedResult{hash: hash, insights: insights}
	eng.mu.Unlock()

	return insights
}

// warnIfStale logs an advisory when served data is past the soft
// staleness threshold. An in-process sync time is the preferred age
// signal; otherwise the newest cached event stands in. The stale value
// is still served.
func warnIfStale(eng *Engine, cfg *contract.Config, repo schema.RepoRef) {
	if cfg.MaxStale <= 0 {
		return
	}

	var freshAsOf time.Time
	if st := eng.Trigger.Status(repo); st.LastSyncedAt != nil {
		freshAsOf = *st.LastSyncedAt
	} else if store := eng.Mgr.GetEventStore(); store != nil {
		if last, err := store.LastEventTime(repo); err == nil {
			freshAsOf = last
		}
	}
	if freshAsOf.IsZero() {
		return
	}

	if age := time.Since(freshAsOf); age > cfg.MaxStale {
		contract.LogWarn("Serving cached data", &memcache.StaleDataWarning{
			Key:     repo.String(),
			Age:     age.Truncate(time.Second),
			SoftTTL: cfg.MaxStale,
		})
	}
}
