package schema

import "time"

// EventStoreStatus represents the status of the event cache store.
type EventStoreStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEvents     int       `json:"total_events"`
	TotalRepos      int       `json:"total_repos"`
	LastEventTime   time.Time `json:"last_event_time"`
	OldestEventTime time.Time `json:"oldest_event_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// SyncRunStatus represents the status of the sync-run store.
type SyncRunStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	TotalRuns      int              `json:"total_runs"`
	LastRunID      int64            `json:"last_run_id"`
	LastRunTime    time.Time        `json:"last_run_time"`
	OldestRunTime  time.Time        `json:"oldest_run_time"`
	EventsInserted int              `json:"events_inserted"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}

// MemoryCacheStats mirrors the in-memory snapshot cache counters for
// status reporting.
type MemoryCacheStats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// CacheStatusReport combines the persistent store and in-memory cache
// state for the status command and the MCP cache_status tool.
type CacheStatusReport struct {
	Events   EventStoreStatus `json:"events"`
	SyncRuns SyncRunStatus    `json:"sync_runs"`
	Memory   MemoryCacheStats `json:"memory"`
}
