package eventstore

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetEventsDBFilePath returns the path to the SQLite DB file for the event cache.
func GetEventsDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetRunsDBFilePath returns the path to the SQLite DB file for sync-run tracking.
func GetRunsDBFilePath() string {
	return contract.GetRunsDBFilePath()
}

// InitStores initializes the global store manager with separate event and
// sync-run stores. eventBackend and eventConnStr can be empty to disable the
// event cache. runsBackend and runsConnStr can be empty to disable run
// tracking.
func InitStores(eventBackend schema.DatabaseBackend, eventConnStr string, runsBackend schema.DatabaseBackend, runsConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		var err error

		// Initialize the event store only if a backend is configured
		var eventStore contract.EventStore
		if eventBackend != "" {
			eventStore, err = NewEventStore(eventBackend, eventConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize event cache: %w", err)
				return
			}
		}

		// Initialize the sync-run store only if a backend is configured
		var runStore contract.SyncRunStore
		if runsBackend != "" {
			runStore, err = NewSyncRunStore(runsBackend, runsConnStr)
			if err != nil {
				if eventStore != nil {
					_ = eventStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize sync-run store: %w", err)
				return
			}
		}

		// Assign to global manager
		Manager.events = eventStore
		Manager.syncRuns = runStore
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.events != nil {
			_ = Manager.events.Close()
		}
		if Manager.syncRuns != nil {
			_ = Manager.syncRuns.Close()
		}
	})
}

// ClearEvents clears the event cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tables.
// For NoneBackend, it does nothing.
func ClearEvents(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return clearTables("mysql", connStr, eventsTable, pullRequestsTable, issuesTable)

	case schema.PostgreSQLBackend:
		return clearTables("pgx", connStr, eventsTable, pullRequestsTable, issuesTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// ClearSyncRuns clears the sync-run history for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tracking tables.
// For NoneBackend, it does nothing.
func ClearSyncRuns(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return clearTables("mysql", connStr, syncRunsTable, repoSyncStatsTable)

	case schema.PostgreSQLBackend:
		return clearTables("pgx", connStr, syncRunsTable, repoSyncStatsTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearTables connects to the SQL database and drops each table if it exists.
func clearTables(driverName, connStr string, tableNames ...string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, tableName := range tableNames {
		if err := validateTableName(tableName); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", tableName, err)
		}
	}

	return nil
}
