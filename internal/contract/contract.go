// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/repopulse/repopulse/schema"
)

// EventSource defines the necessary operations for pulling repository
// activity from GitHub. This allows the sync and analysis logic to be
// tested without touching the network.
type EventSource interface {
	// --- Timeline ---

	// ListEvents returns one page of the repository event timeline, newest
	// first. Pages are 1-based; the API serves at most ten pages.
	ListEvents(ctx context.Context, repo schema.RepoRef, page int) ([]schema.ActivityEvent, error)

	// --- Pull requests / Issues ---

	// ListPullRequests returns pull requests updated at or after since.
	ListPullRequests(ctx context.Context, repo schema.RepoRef, since time.Time) ([]schema.PullRequest, error)

	// ListIssues returns issues updated at or after since. Pull requests
	// surfaced by the issues endpoint are filtered out.
	ListIssues(ctx context.Context, repo schema.RepoRef, since time.Time) ([]schema.Issue, error)

	// --- Repository state ---

	// GetRepoOverview returns repository-level totals (stars, forks).
	GetRepoOverview(ctx context.Context, repo schema.RepoRef) (schema.RepoOverview, error)

	// APICalls returns the number of HTTP requests made so far, counting
	// conditional requests answered from the local ETag cache.
	APICalls() int
}

// StoreManager defines the interface for managing persistence stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetEventStore() EventStore
	GetSyncRunStore() SyncRunStore
}

// EventStore defines the interface for the persistent event cache.
// This allows mocking the store for testing.
type EventStore interface {
	// UpsertEvents inserts or replaces events keyed by (event_id, created_at)
	// and returns the number of rows written. Re-syncing the same window is
	// idempotent.
	UpsertEvents(events []schema.ActivityEvent) (int, error)

	// UpsertPullRequests inserts or replaces pull request rows for a repository.
	UpsertPullRequests(repo schema.RepoRef, prs []schema.PullRequest) (int, error)

	// UpsertIssues inserts or replaces issue rows for a repository.
	UpsertIssues(repo schema.RepoRef, issues []schema.Issue) (int, error)

	// SnapshotSince assembles everything cached for a repository at or after
	// the given time.
	SnapshotSince(repo schema.RepoRef, since time.Time) (*schema.RepoSnapshot, error)

	// AllEvents returns every cached event across repositories, oldest first.
	AllEvents() ([]schema.ActivityEvent, error)

	// LastEventTime returns the creation time of the newest cached event for
	// a repository, or the zero time when nothing is cached.
	LastEventTime(repo schema.RepoRef) (time.Time, error)

	// GetStatus returns status information about the event store.
	GetStatus() (schema.EventStoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// SyncRunStore defines the interface for tracking sync runs and per-repo stats.
type SyncRunStore interface {
	// BeginRun creates a new sync run and returns its unique ID.
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the sync run with completion data.
	EndRun(runID int64, endTime time.Time, stats schema.RunStats) error

	// RecordRepoStats stores per-repository stats for a run.
	RecordRepoStats(runID int64, repo schema.RepoRef, stats schema.RunStats) error

	// GetAllSyncRuns retrieves every recorded sync run, oldest first.
	GetAllSyncRuns() ([]schema.SyncRunRecord, error)

	// GetAllRepoSyncStats retrieves every per-repository stat row, oldest first.
	GetAllRepoSyncStats() ([]schema.RepoSyncRecord, error)

	// GetStatus returns status information about the sync-run store.
	GetStatus() (schema.SyncRunStatus, error)

	// Close closes the underlying connection.
	Close() error
}
