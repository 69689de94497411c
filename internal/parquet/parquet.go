// Package parquet provides data structures and functions for exporting
// cached repository activity and sync history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/repopulse/repopulse/schema"
)

// ActivityEventRow represents a single cached timeline event.
// This struct maps to the repopulse_activity_events database table.
type ActivityEventRow struct {
	// Repo is the owner/name the event belongs to
	Repo string `parquet:"repo,snappy"`

	// EventID is the GitHub event identifier
	EventID string `parquet:"event_id,snappy"`

	// EventType is the timeline event type (WatchEvent, ForkEvent, ...)
	EventType string `parquet:"event_type,snappy"`

	// Actor is the login that triggered the event
	Actor string `parquet:"actor,snappy"`

	// CreatedAt is when the event happened (stored as TIMESTAMP with nanosecond precision)
	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// ContributorStatRow represents one contributor's windowed aggregates.
type ContributorStatRow struct {
	// Repo is the owner/name the aggregates were computed for
	Repo string `parquet:"repo,snappy"`

	// Login is the contributor's GitHub login
	Login string `parquet:"login,snappy"`

	// PullRequests is the number of pull requests opened in the window
	PullRequests int32 `parquet:"pull_requests,snappy"`

	// MergedPRs is the number of those pull requests that were merged
	MergedPRs int32 `parquet:"merged_prs,snappy"`

	// Reviews is the number of review events in the window
	Reviews int32 `parquet:"reviews,snappy"`

	// Comments is the number of comment events in the window
	Comments int32 `parquet:"comments,snappy"`

	// Issues is the number of issues opened in the window
	Issues int32 `parquet:"issues,snappy"`

	// FirstSeen is the contributor's earliest activity in the window
	FirstSeen time.Time `parquet:"first_seen,snappy"`

	// LastSeen is the contributor's latest activity in the window
	LastSeen time.Time `parquet:"last_seen,snappy"`

	// Share is the contributor's fraction of total PR activity (0-1)
	Share float64 `parquet:"share,snappy"`
}

// SyncRunRow represents a single sync run with metadata.
// This struct maps to the repopulse_sync_runs database table.
type SyncRunRow struct {
	// RunID is the unique identifier for this sync run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the external identifier reported in run stats
	RunUUID string `parquet:"run_uuid,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable, stored as TIMESTAMP with nanosecond precision)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// ReposProcessed is the number of repositories refreshed in this run
	ReposProcessed int32 `parquet:"repos_processed,snappy"`

	// EventsInserted is the number of new events stored by this run
	EventsInserted int32 `parquet:"events_inserted,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RepoSyncStatRow represents the per-repository stats of a sync run.
// This struct maps to the repopulse_repo_sync_stats database table.
type RepoSyncStatRow struct {
	// RunID references the parent sync run
	RunID int64 `parquet:"run_id,snappy"`

	// Repo is the owner/name that was refreshed
	Repo string `parquet:"repo,snappy"`

	// SyncTime is when this repository was refreshed (stored as TIMESTAMP with nanosecond precision)
	SyncTime time.Time `parquet:"sync_time,snappy"`

	// EventsFetched is the number of events pulled from the API
	EventsFetched int32 `parquet:"events_fetched,snappy"`

	// EventsInserted is the number of events newly stored
	EventsInserted int32 `parquet:"events_inserted,snappy"`

	// APICalls is the number of API requests spent on this repository
	APICalls int32 `parquet:"api_calls,snappy"`

	// Errors is the number of failures recorded for this repository
	Errors int32 `parquet:"errors,snappy"`
}

// writeParquetFile writes any row slice to a Parquet file, inferring the
// schema from the row struct tags.
func writeParquetFile[T any](data []T, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	writer := parquet.NewGenericWriter[T](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteActivityEventsParquet writes a slice of ActivityEventRow structs to a Parquet file.
func WriteActivityEventsParquet(data []ActivityEventRow, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// WriteContributorStatsParquet writes a slice of ContributorStatRow structs to a Parquet file.
func WriteContributorStatsParquet(data []ContributorStatRow, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// WriteSyncRunsParquet writes a slice of SyncRunRow structs to a Parquet file.
func WriteSyncRunsParquet(data []SyncRunRow, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// WriteRepoSyncStatsParquet writes a slice of RepoSyncStatRow structs to a Parquet file.
func WriteRepoSyncStatsParquet(data []RepoSyncStatRow, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// MockFetchSyncRuns generates sample SyncRunRow data for demonstration.
func MockFetchSyncRuns() []SyncRunRow {
	now := time.Now()
	startTime1 := now.Add(-2 * time.Hour)
	endTime1 := now.Add(-2*time.Hour + 45*time.Second)
	durationMs1 := int32(endTime1.Sub(startTime1).Milliseconds())
	configParams1 := `{"mode":"confidence","lookback":"30 days","workers":4}`

	startTime2 := now.Add(-24 * time.Hour)
	endTime2 := now.Add(-24*time.Hour + 3*time.Minute)
	durationMs2 := int32(endTime2.Sub(startTime2).Milliseconds())
	configParams2 := `{"mode":"insights","lookback":"90 days","workers":8}`

	startTime3 := now.Add(-10 * time.Second)
	// Note: endTime3, durationMs3, configParams3 are nil to demonstrate nullable fields

	return []SyncRunRow{
		{
			RunID:          1,
			RunUUID:        "9f2c1d7e-8a4b-4c3d-9e0f-1a2b3c4d5e6f",
			StartTime:      startTime1,
			EndTime:        &endTime1,
			RunDurationMs:  &durationMs1,
			ReposProcessed: 3,
			EventsInserted: 240,
			ConfigParams:   &configParams1,
		},
		{
			RunID:          2,
			RunUUID:        "4b1a9c3e-2d5f-4a6b-8c7d-0e9f8a7b6c5d",
			StartTime:      startTime2,
			EndTime:        &endTime2,
			RunDurationMs:  &durationMs2,
			ReposProcessed: 12,
			EventsInserted: 1850,
			ConfigParams:   &configParams2,
		},
		{
			RunID:          3,
			RunUUID:        "7e6d5c4b-3a2f-4e1d-9c0b-8a7f6e5d4c3b",
			StartTime:      startTime3,
			EndTime:        nil, // Still running - nullable field
			RunDurationMs:  nil, // Not yet calculated - nullable field
			ReposProcessed: 0,
			EventsInserted: 0,
			ConfigParams:   nil, // No config stored - nullable field
		},
	}
}

// MockFetchActivityEvents generates sample ActivityEventRow data for demonstration.
func MockFetchActivityEvents() []ActivityEventRow {
	now := time.Now()

	return []ActivityEventRow{
		{
			Repo:      "golang/go",
			EventID:   "32001845102",
			EventType: string(schema.WatchEvent),
			Actor:     "gopher-fan",
			CreatedAt: now.Add(-36 * time.Hour),
		},
		{
			Repo:      "golang/go",
			EventID:   "32001847331",
			EventType: string(schema.ForkEvent),
			Actor:     "curious-dev",
			CreatedAt: now.Add(-30 * time.Hour),
		},
		{
			Repo:      "golang/go",
			EventID:   "32001912480",
			EventType: string(schema.PullRequestEvent),
			Actor:     "curious-dev",
			CreatedAt: now.Add(-4 * time.Hour),
		},
		{
			Repo:      "kubernetes/kubernetes",
			EventID:   "32002004917",
			EventType: string(schema.PullRequestReviewEvent),
			Actor:     "sig-reviewer",
			CreatedAt: now.Add(-2 * time.Hour),
		},
	}
}

// ConvertActivityEvents converts schema.ActivityEvent to ActivityEventRow for Parquet export.
func ConvertActivityEvents(events []schema.ActivityEvent) []ActivityEventRow {
	result := make([]ActivityEventRow, len(events))
	for i, event := range events {
		result[i] = ActivityEventRow{
			Repo:      event.Repo.String(),
			EventID:   event.ID,
			EventType: string(event.Type),
			Actor:     event.Actor,
			CreatedAt: event.CreatedAt,
		}
	}
	return result
}

// ConvertContributorStats converts schema.ContributorStat to ContributorStatRow for Parquet export.
func ConvertContributorStats(repo string, stats []schema.ContributorStat) []ContributorStatRow {
	result := make([]ContributorStatRow, len(stats))
	for i, stat := range stats {
		result[i] = ContributorStatRow{
			Repo:         repo,
			Login:        stat.Login,
			PullRequests: int32(stat.PullRequests),
			MergedPRs:    int32(stat.MergedPRs),
			Reviews:      int32(stat.Reviews),
			Comments:     int32(stat.Comments),
			Issues:       int32(stat.Issues),
			FirstSeen:    stat.FirstSeen,
			LastSeen:     stat.LastSeen,
			Share:        stat.Share,
		}
	}
	return result
}

// ConvertSyncRunRecords converts schema.SyncRunRecord to SyncRunRow for Parquet export.
func ConvertSyncRunRecords(records []schema.SyncRunRecord) []SyncRunRow {
	result := make([]SyncRunRow, len(records))
	for i, record := range records {
		result[i] = SyncRunRow{
			RunID:          record.RunID,
			RunUUID:        record.RunUUID,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			RunDurationMs:  record.RunDurationMs,
			ReposProcessed: record.ReposProcessed,
			EventsInserted: record.EventsInserted,
			ConfigParams:   record.ConfigParams,
		}
	}
	return result
}

// ConvertRepoSyncRecords converts schema.RepoSyncRecord to RepoSyncStatRow for Parquet export.
func ConvertRepoSyncRecords(records []schema.RepoSyncRecord) []RepoSyncStatRow {
	result := make([]RepoSyncStatRow, len(records))
	for i, record := range records {
		result[i] = RepoSyncStatRow{
			RunID:          record.RunID,
			Repo:           record.Repo,
			SyncTime:       record.SyncTime,
			EventsFetched:  record.EventsFetched,
			EventsInserted: record.EventsInserted,
			APICalls:       record.APICalls,
			Errors:         record.Errors,
		}
	}
	return result
}
