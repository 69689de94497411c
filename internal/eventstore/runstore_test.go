package eventstore

import (
	"testing"
	"time"

	"github.com/repopulse/repopulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncRunStore_NoneBackend(t *testing.T) {
	store, err := NewSyncRunStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	// BeginRun should return 0 for NoneBackend
	runID, err := store.BeginRun(time.Now(), map[string]any{"repo": "octocat/hello-world"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	// Other operations should not error
	err = store.EndRun(1, time.Now(), schema.RunStats{})
	assert.NoError(t, err)

	err = store.RecordRepoStats(1, schema.RepoRef{Owner: "octocat", Name: "hello-world"}, schema.RunStats{})
	assert.NoError(t, err)

	runs, err := store.GetAllSyncRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	err = store.Close()
	assert.NoError(t, err)
}

func TestSyncRunStore_SQLite(t *testing.T) {
	// Use in-memory SQLite for testing
	store, err := NewSyncRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	// Test BeginRun
	startTime := time.Now()
	configParams := map[string]any{
		"run_uuid": "1b671a64-40d5-491e-99b0-da01ff1f3341",
		"repo":     "octocat/hello-world",
		"lookback": "720h0m0s",
	}
	runID, err := store.BeginRun(startTime, configParams)
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	// Test RecordRepoStats
	stats := schema.RunStats{
		ReposProcessed: 1,
		EventsFetched:  130,
		EventsInserted: 128,
		APICalls:       4,
		Errors:         0,
		StartedAt:      startTime,
		FinishedAt:     startTime.Add(2 * time.Second),
	}
	err = store.RecordRepoStats(runID, schema.RepoRef{Owner: "octocat", Name: "hello-world"}, stats)
	assert.NoError(t, err)

	// Test EndRun
	err = store.EndRun(runID, startTime.Add(2*time.Second), stats)
	assert.NoError(t, err)
}

func TestSyncRunStore_RuntimeCapture(t *testing.T) {
	store, err := NewSyncRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	t.Run("runtime calculation", func(t *testing.T) {
		startTime := time.Now().Add(-100 * time.Millisecond)
		runID, err := store.BeginRun(startTime, map[string]any{"repo": "octocat/hello-world"})
		require.NoError(t, err)

		endTime := startTime.Add(250 * time.Millisecond)
		err = store.EndRun(runID, endTime, schema.RunStats{ReposProcessed: 1, EventsInserted: 10})
		assert.NoError(t, err)

		// Query the database to verify runtime was captured
		db := store.(*SyncRunStoreImpl).db
		var storedStartTime, storedEndTime string
		var storedDurationMs int64

		row := db.QueryRow("SELECT start_time, end_time, run_duration_ms FROM repopulse_sync_runs WHERE run_id = ?", runID)
		err = row.Scan(&storedStartTime, &storedEndTime, &storedDurationMs)
		assert.NoError(t, err)

		// Parse stored times
		storedStart, err := time.Parse(time.RFC3339Nano, storedStartTime)
		assert.NoError(t, err)
		storedEnd, err := time.Parse(time.RFC3339Nano, storedEndTime)
		assert.NoError(t, err)

		// Verify duration calculation: should be approximately end - start
		expectedDurationMs := storedEnd.Sub(storedStart).Milliseconds()
		assert.Equal(t, expectedDurationMs, storedDurationMs)
		assert.Equal(t, int64(250), storedDurationMs)
	})

	t.Run("zero duration edge case", func(t *testing.T) {
		startTime := time.Now()
		runID, err := store.BeginRun(startTime, map[string]any{"repo": "octocat/hello-world"})
		require.NoError(t, err)

		// End immediately with same time
		err = store.EndRun(runID, startTime, schema.RunStats{})
		assert.NoError(t, err)

		db := store.(*SyncRunStoreImpl).db
		var storedDurationMs int64
		row := db.QueryRow("SELECT run_duration_ms FROM repopulse_sync_runs WHERE run_id = ?", runID)
		err = row.Scan(&storedDurationMs)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), storedDurationMs)
	})
}

func TestSyncRunStore_MultipleRuns(t *testing.T) {
	store, err := NewSyncRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	// Create multiple sync runs
	var runIDs []int64
	for i := range 3 {
		id, err := store.BeginRun(time.Now(), map[string]any{"run": i})
		require.NoError(t, err)
		runIDs = append(runIDs, id)

		err = store.EndRun(id, time.Now().Add(time.Second), schema.RunStats{ReposProcessed: 1, EventsInserted: i * 10})
		assert.NoError(t, err)
	}

	// Verify all IDs are unique
	assert.Equal(t, 3, len(runIDs))
	assert.NotEqual(t, runIDs[0], runIDs[1])
	assert.NotEqual(t, runIDs[1], runIDs[2])
}

func TestSyncRunStore_GetAllSyncRuns(t *testing.T) {
	store, err := NewSyncRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	// Test empty store
	runs, err := store.GetAllSyncRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	// Add some sync runs
	startTime := time.Now()
	configs := []map[string]any{
		{"run_uuid": "aaaaaaaa-0000-0000-0000-000000000001", "repo": "octocat/hello-world"},
		{"run_uuid": "aaaaaaaa-0000-0000-0000-000000000002", "repo": "octocat/spoon-knife"},
	}

	var runIDs []int64
	for i, config := range configs {
		id, err := store.BeginRun(startTime, config)
		require.NoError(t, err)
		runIDs = append(runIDs, id)

		err = store.EndRun(id, startTime.Add(time.Minute), schema.RunStats{ReposProcessed: 1, EventsInserted: 10 * (i + 1)})
		assert.NoError(t, err)
	}

	// Get all runs
	runs, err = store.GetAllSyncRuns()
	assert.NoError(t, err)
	assert.Len(t, runs, 2)

	// Verify the runs
	for i, run := range runs {
		assert.Equal(t, runIDs[i], run.RunID)
		assert.Equal(t, configs[i]["run_uuid"], run.RunUUID)
		assert.Equal(t, int32(1), run.ReposProcessed)
		assert.Equal(t, int32(10*(i+1)), run.EventsInserted)
		require.NotNil(t, run.RunDurationMs)
		assert.Greater(t, *run.RunDurationMs, int32(0))
		require.NotNil(t, run.ConfigParams)
		assert.Contains(t, *run.ConfigParams, "octocat/")
	}
}

func TestSyncRunStore_GetAllRepoSyncStats(t *testing.T) {
	store, err := NewSyncRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	// Test empty store
	records, err := store.GetAllRepoSyncStats()
	assert.NoError(t, err)
	assert.Empty(t, records)

	// Add a run with per-repo stats
	runID, err := store.BeginRun(time.Now(), map[string]any{"repo": "multiple"})
	require.NoError(t, err)

	syncTime := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	stats := schema.RunStats{
		EventsFetched:  130,
		EventsInserted: 128,
		APICalls:       4,
		Errors:         1,
		FinishedAt:     syncTime,
	}
	err = store.RecordRepoStats(runID, schema.RepoRef{Owner: "octocat", Name: "hello-world"}, stats)
	assert.NoError(t, err)

	// Get all records
	records, err = store.GetAllRepoSyncStats()
	assert.NoError(t, err)
	assert.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, runID, record.RunID)
	assert.Equal(t, "octocat/hello-world", record.Repo)
	assert.True(t, record.SyncTime.Equal(syncTime))
	assert.Equal(t, int32(130), record.EventsFetched)
	assert.Equal(t, int32(128), record.EventsInserted)
	assert.Equal(t, int32(4), record.APICalls)
	assert.Equal(t, int32(1), record.Errors)
}

func TestSyncRunStore_GetStatus(t *testing.T) {
	store, err := NewSyncRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRuns)

	// Record two completed runs
	first, err := store.BeginRun(time.Now().Add(-time.Hour), map[string]any{"repo": "a/b"})
	require.NoError(t, err)
	require.NoError(t, store.EndRun(first, time.Now().Add(-59*time.Minute), schema.RunStats{EventsInserted: 10}))

	second, err := store.BeginRun(time.Now(), map[string]any{"repo": "c/d"})
	require.NoError(t, err)
	require.NoError(t, store.EndRun(second, time.Now().Add(time.Minute), schema.RunStats{EventsInserted: 32}))
	require.NoError(t, store.RecordRepoStats(second, schema.RepoRef{Owner: "c", Name: "d"}, schema.RunStats{EventsInserted: 32}))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, second, status.LastRunID)
	assert.Equal(t, 42, status.EventsInserted)
	assert.True(t, status.OldestRunTime.Before(status.LastRunTime))
	assert.Equal(t, int64(2), status.TableSizes[syncRunsTable])
	assert.Equal(t, int64(1), status.TableSizes[repoSyncStatsTable])
}
