package eventstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
)

// Table names for sync-run tracking.
const (
	syncRunsTable      = "repopulse_sync_runs"
	repoSyncStatsTable = "repopulse_repo_sync_stats"
)

// SyncRunStoreImpl implements the SyncRunStore interface.
type SyncRunStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.SyncRunStore = &SyncRunStoreImpl{} // Compile-time check

// NewSyncRunStore creates a new SyncRunStore with the specified backend.
func NewSyncRunStore(backend schema.DatabaseBackend, connStr string) (contract.SyncRunStore, error) {
	if backend == schema.NoneBackend {
		// Run tracking disabled, every store method becomes a no-op
		return &SyncRunStoreImpl{backend: backend}, nil
	}

	db, driverName, err := openBackendDB(backend, connStr, GetRunsDBFilePath(), "sync run store")
	if err != nil {
		return nil, err
	}

	if err := createSyncRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sync-run tables: %w", err)
	}

	return &SyncRunStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
	}, nil
}

// createSyncRunTables creates the sync-run tracking tables.
func createSyncRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{syncRunsTable, getCreateSyncRunsQuery(backend)},
		{repoSyncStatsTable, getCreateRepoSyncStatsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateSyncRunsQuery returns the CREATE TABLE query for repopulse_sync_runs.
func getCreateSyncRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(syncRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid VARCHAR(36),
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				repos_processed INT,
				events_inserted INT,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				repos_processed INT,
				events_inserted INT,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				repos_processed INTEGER,
				events_inserted INTEGER,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateRepoSyncStatsQuery returns the CREATE TABLE query for repopulse_repo_sync_stats.
func getCreateRepoSyncStatsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(repoSyncStatsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				repo VARCHAR(255) NOT NULL,
				sync_time DATETIME(6) NOT NULL,
				events_fetched INT NOT NULL,
				events_inserted INT NOT NULL,
				api_calls INT NOT NULL,
				errors INT NOT NULL,
				PRIMARY KEY (run_id, repo)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				repo TEXT NOT NULL,
				sync_time TIMESTAMPTZ NOT NULL,
				events_fetched INT NOT NULL,
				events_inserted INT NOT NULL,
				api_calls INT NOT NULL,
				errors INT NOT NULL,
				PRIMARY KEY (run_id, repo)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				repo TEXT NOT NULL,
				sync_time TEXT NOT NULL,
				events_fetched INTEGER NOT NULL,
				events_inserted INTEGER NOT NULL,
				api_calls INTEGER NOT NULL,
				errors INTEGER NOT NULL,
				PRIMARY KEY (run_id, repo)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new sync run and returns its unique ID.
func (rs *SyncRunStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	// Serialize config params to JSON
	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to encode config params: %w", err)
	}

	// The caller-generated run UUID rides along in the params
	var runUUID string
	if v, ok := configParams["run_uuid"].(string); ok {
		runUUID = v
	}

	quotedTableName := quoteTableName(syncRunsTable, rs.backend)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, runUUID, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, runUUID, formatTime(startTime, rs.backend), string(configJSON))
		if err != nil {
			return 0, err
		}
		runID, err = result.LastInsertId()
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert sync run: %w", err)
	}

	return runID, nil
}

// EndRun updates the sync run with completion data.
func (rs *SyncRunStoreImpl) EndRun(runID int64, endTime time.Time, stats schema.RunStats) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	// First, get the start_time to calculate duration
	quotedTableName := quoteTableName(syncRunsTable, rs.backend)

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = $1`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quotedTableName)
	}

	row := rs.db.QueryRow(query, runID)

	var startRaw any
	if err := row.Scan(&startRaw); err != nil {
		return fmt.Errorf("failed to read start_time for run %d: %w", runID, err)
	}
	startTime, err := scanTimeValue(startRaw, rs.backend)
	if err != nil {
		return fmt.Errorf("failed to parse start_time for run %d: %w", runID, err)
	}

	// Calculate duration in milliseconds
	durationMs := endTime.Sub(startTime).Milliseconds()

	// Update the sync run with completion data
	var updateQuery string
	var args []any

	switch rs.backend {
	case schema.PostgreSQLBackend:
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, repos_processed = $3, events_inserted = $4 WHERE run_id = $5`, quotedTableName)
		args = []any{endTime, durationMs, stats.ReposProcessed, stats.EventsInserted, runID}
	default: // SQLite and MySQL
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, repos_processed = ?, events_inserted = ? WHERE run_id = ?`, quotedTableName)
		args = []any{formatTime(endTime, rs.backend), durationMs, stats.ReposProcessed, stats.EventsInserted, runID}
	}

	if _, err := rs.db.Exec(updateQuery, args...); err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	return nil
}

// RecordRepoStats stores per-repository stats for a run.
func (rs *SyncRunStoreImpl) RecordRepoStats(runID int64, repo schema.RepoRef, stats schema.RunStats) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	syncTime := stats.FinishedAt
	if syncTime.IsZero() {
		syncTime = time.Now()
	}

	quotedTableName := quoteTableName(repoSyncStatsTable, rs.backend)

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`
			INSERT INTO %s (run_id, repo, sync_time, events_fetched, events_inserted, api_calls, errors)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`
			INSERT INTO %s (run_id, repo, sync_time, events_fetched, events_inserted, api_calls, errors)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, quotedTableName)
	}

	_, err := rs.db.Exec(query,
		runID, repo.String(), formatTime(syncTime, rs.backend),
		stats.EventsFetched, stats.EventsInserted, stats.APICalls, stats.Errors)
	if err != nil {
		return fmt.Errorf("failed to insert repo sync stats: %w", err)
	}

	return nil
}

// GetAllSyncRuns retrieves all sync runs from the store.
func (rs *SyncRunStoreImpl) GetAllSyncRuns() ([]schema.SyncRunRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(syncRunsTable, rs.backend)
	query := fmt.Sprintf("SELECT run_id, run_uuid, start_time, end_time, run_duration_ms, repos_processed, events_inserted, config_params FROM %s ORDER BY run_id", quotedTableName)

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SyncRunRecord
	for rows.Next() {
		var (
			record     schema.SyncRunRecord
			runUUID    sql.NullString
			startRaw   any
			endRaw     any
			durationMs sql.NullInt32
			repos      sql.NullInt32
			inserted   sql.NullInt32
			params     sql.NullString
		)
		if err := rows.Scan(&record.RunID, &runUUID, &startRaw, &endRaw, &durationMs, &repos, &inserted, &params); err != nil {
			return nil, fmt.Errorf("failed to scan sync run row: %w", err)
		}

		record.RunUUID = runUUID.String
		if record.StartTime, err = scanTimeValue(startRaw, rs.backend); err != nil {
			return nil, err
		}
		if endRaw != nil {
			endTime, err := scanTimeValue(endRaw, rs.backend)
			if err != nil {
				return nil, err
			}
			record.EndTime = &endTime
		}
		if durationMs.Valid {
			record.RunDurationMs = &durationMs.Int32
		}
		record.ReposProcessed = repos.Int32
		record.EventsInserted = inserted.Int32
		if params.Valid {
			record.ConfigParams = &params.String
		}

		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}

	return results, nil
}

// GetAllRepoSyncStats retrieves all per-repository stat rows from the store.
func (rs *SyncRunStoreImpl) GetAllRepoSyncStats() ([]schema.RepoSyncRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(repoSyncStatsTable, rs.backend)
	query := fmt.Sprintf("SELECT run_id, repo, sync_time, events_fetched, events_inserted, api_calls, errors FROM %s ORDER BY run_id, repo", quotedTableName)

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query repo sync stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RepoSyncRecord
	for rows.Next() {
		var (
			record  schema.RepoSyncRecord
			syncRaw any
		)
		if err := rows.Scan(&record.RunID, &record.Repo, &syncRaw,
			&record.EventsFetched, &record.EventsInserted, &record.APICalls, &record.Errors); err != nil {
			return nil, fmt.Errorf("failed to scan repo sync stats row: %w", err)
		}

		if record.SyncTime, err = scanTimeValue(syncRaw, rs.backend); err != nil {
			return nil, err
		}

		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repo sync stats: %w", err)
	}

	return results, nil
}

// GetStatus returns status information about the sync-run store.
func (rs *SyncRunStoreImpl) GetStatus() (schema.SyncRunStatus, error) {
	status := schema.SyncRunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	runsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(syncRunsTable, rs.backend))
	row := rs.db.QueryRow(runsQuery)
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to count sync runs: %w", err)
	}

	if status.TotalRuns > 0 {
		// Newest and oldest runs bound the tracked history
		lastRunQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoteTableName(syncRunsTable, rs.backend))
		row = rs.db.QueryRow(lastRunQuery)

		var lastRaw any
		if err := row.Scan(&status.LastRunID, &lastRaw); err != nil {
			return status, fmt.Errorf("failed to read latest sync run: %w", err)
		}
		lastRunTime, err := scanTimeValue(lastRaw, rs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to parse latest run timestamp: %w", err)
		}
		status.LastRunTime = lastRunTime

		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoteTableName(syncRunsTable, rs.backend))
		row = rs.db.QueryRow(oldestRunQuery)

		var oldestRaw any
		if err := row.Scan(&oldestRaw); err != nil {
			return status, fmt.Errorf("failed to read oldest sync run: %w", err)
		}
		oldestRunTime, err := scanTimeValue(oldestRaw, rs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to parse oldest run timestamp: %w", err)
		}
		status.OldestRunTime = oldestRunTime

		insertedQuery := fmt.Sprintf("SELECT COALESCE(SUM(events_inserted), 0) FROM %s", quoteTableName(syncRunsTable, rs.backend))
		row = rs.db.QueryRow(insertedQuery)
		if err := row.Scan(&status.EventsInserted); err != nil {
			return status, fmt.Errorf("failed to sum inserted events: %w", err)
		}
	}

	tables := []string{syncRunsTable, repoSyncStatsTable}
	for _, table := range tables {
		quotedTable := quoteTableName(table, rs.backend)
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTable)
		row = rs.db.QueryRow(countQuery)
		var count int64
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to count rows in %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// Close closes the underlying connection.
func (rs *SyncRunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
