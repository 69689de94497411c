package cmd

import (
	"fmt"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/internal/eventstore"
	"github.com/repopulse/repopulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need store access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get store-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")
	runsBackendStr := viper.GetString("runs-backend")
	runsConnStr := viper.GetString("runs-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}
	runsBackend := schema.DatabaseBackend(runsBackendStr)
	if runsBackend != "" {
		if err := contract.ValidateDatabaseConnectionString(runsBackend, runsConnStr); err != nil {
			return err
		}
	}

	// Initialize stores with the loaded config (no engine for cache commands)
	if err := eventstore.InitStores(backend, connStr, runsBackend, runsConnStr); err != nil {
		return fmt.Errorf("failed to initialize stores: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	cfg.RunsBackend = runsBackend
	cfg.RunsDBConnect = runsConnStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func cacheMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get run-tracking config values; migrations apply to the tracking tables
	backendStr := viper.GetString("runs-backend")
	connStr := viper.GetString("runs-db-connect")

	// Handle empty backend as NoneBackend
	var backend schema.DatabaseBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.DatabaseBackend(backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetRunsDBFilePath()
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr

	return nil
}

// cacheMigrateSetupWrapper wraps cacheMigrateSetup to provide PreRunE for the migrate command.
func cacheMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheMigrateSetup()
}

// cacheCmd focused on event cache and sync-run data management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by analysis commands. This avoids GitHub token
// handling and complex config processing for simple store operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the GitHub activity cache and sync-run history",
	Long: `Manage the local stores that back repopulse analyses.

Repopulse caches GitHub events, pull requests, and issues so repeated
analyses do not burn API quota, and optionally tracks every sync run
for longitudinal reporting.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show store statistics and connection info
  clear   - Remove all cached data
  export  - Export cached data to Parquet for analytics
  migrate - Run database schema migrations for run tracking

Examples:
  # Check store status
  repopulse cache status

  # Clear the cache after a long break from a repository
  repopulse cache clear

  # Export for analysis in pandas/DuckDB
  repopulse cache export --output-file repopulse-data.parquet`,
}

// cacheStatusCmd shows store status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show detailed information about the event cache and sync-run stores.

Displays:
- Backend type and connection status
- Total cached events and repositories
- Last and oldest cached event timestamps
- Sync run counts and table sizes

Use this to:
- Verify the cache is working and connected
- Monitor cache growth over time
- Check when a repository was last synced
- Debug store-related issues

Examples:
  # Check store status
  repopulse cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := eventstore.Manager.GetEventStore()
		if store == nil {
			fmt.Println("Event cache is not configured.")
		} else {
			status, err := store.GetStatus()
			if err != nil {
				contract.LogFatal("Failed to get event cache status", err)
			}
			eventstore.PrintEventStoreStatus(status)
		}

		runs := eventstore.Manager.GetSyncRunStore()
		if runs == nil {
			fmt.Println("\nSync-run tracking is not configured.")
			return
		}
		status, err := runs.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get sync-run status", err)
		}
		fmt.Println()
		eventstore.PrintSyncRunStatus(status)
	},
}

// cacheClearCmd clears the cached data.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached GitHub activity data",
	Long: `Delete all cached events, pull requests, and issues from the configured backend.

Use this when:
- A repository's history changed significantly (transfer, rename)
- Cache may be stale or corrupted
- Testing behavior without cached data
- Reclaiming disk space

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache tables

Run-tracking data is kept; clear it separately by removing the runs
database if needed.

Examples:
  # Clear SQLite cache (default)
  repopulse cache clear

  # Clear MySQL cache (set connection string via env variable)
  REPOPULSE_CACHE_BACKEND=mysql REPOPULSE_CACHE_DB_CONNECT="..." repopulse cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := eventstore.ClearEvents(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheExportCmd exports cached data to Parquet files.
var cacheExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached data to Parquet for BI tools and analytics",
	Long: `Export cached activity and sync history to Parquet format.

Exports up to three datasets:
- Activity events - every cached GitHub event across repositories
- Sync runs - metadata about each sync execution
- Repo sync stats - per-repository totals for each run

Parquet format enables:
- Fast querying with DuckDB, Apache Spark, pandas
- Efficient storage with columnar compression
- Direct import into BI tools (Tableau, Metabase, etc.)

Requires: --output-file parameter

Use cases:
- Contributor trend analysis across sync runs
- Custom dashboards and visualizations
- Archiving activity before clearing the cache

Examples:
  # Export all data
  repopulse cache export --output-file repopulse-data.parquet

  # Use with DuckDB for analysis
  repopulse cache export --output-file data.parquet
  duckdb -c "SELECT * FROM read_parquet('data.parquet.events.parquet') LIMIT 10"`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := eventstore.ExecuteCacheExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export cached data", err)
		}
	},
}

// cacheMigrateCmd runs database migrations for the sync-run store.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the sync-run tracking store.

Migrations allow:
- Upgrading to new schema versions when repopulse is updated
- Safely modifying database structure without data loss
- Rolling back schema changes if needed

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  repopulse cache migrate

  # Migrate to specific version
  repopulse cache migrate --target-version 2

  # Rollback to previous version
  repopulse cache migrate --target-version 0`,
	PreRunE: cacheMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := eventstore.MigrateSyncRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
