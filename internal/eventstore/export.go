package eventstore

import (
	"errors"
	"fmt"

	"github.com/repopulse/repopulse/internal/parquet"
)

// ExecuteCacheExport performs the actual export of cached data to Parquet files.
func ExecuteCacheExport(outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetEventStore()
	runs := Manager.GetSyncRunStore()
	if store == nil && runs == nil {
		return errors.New("no store configured to export from")
	}

	exported := 0

	// Export cached activity events
	if store != nil {
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get event cache status: %w", err)
		}
		fmt.Printf("Exporting data from %s backend...\n", status.Backend)
		fmt.Printf("Total cached events: %d across %d repositories\n", status.TotalEvents, status.TotalRepos)

		events, err := store.AllEvents()
		if err != nil {
			return fmt.Errorf("failed to retrieve cached events: %w", err)
		}
		if len(events) > 0 {
			eventRows := parquet.ConvertActivityEvents(events)
			eventsFile := outputFile + ".events.parquet"
			if err := parquet.WriteActivityEventsParquet(eventRows, eventsFile); err != nil {
				return fmt.Errorf("failed to write events: %w", err)
			}
			fmt.Printf("Exported %d events to: %s\n", len(eventRows), eventsFile)
			exported += len(eventRows)
		}
	}

	// Export sync run history
	if runs != nil {
		syncRuns, err := runs.GetAllSyncRuns()
		if err != nil {
			return fmt.Errorf("failed to retrieve sync runs: %w", err)
		}
		repoStats, err := runs.GetAllRepoSyncStats()
		if err != nil {
			return fmt.Errorf("failed to retrieve repo sync stats: %w", err)
		}

		if len(syncRuns) > 0 {
			runRows := parquet.ConvertSyncRunRecords(syncRuns)
			runsFile := outputFile + ".sync_runs.parquet"
			if err := parquet.WriteSyncRunsParquet(runRows, runsFile); err != nil {
				return fmt.Errorf("failed to write sync runs: %w", err)
			}
			fmt.Printf("Exported %d sync runs to: %s\n", len(runRows), runsFile)
			exported += len(runRows)
		}

		if len(repoStats) > 0 {
			statRows := parquet.ConvertRepoSyncRecords(repoStats)
			statsFile := outputFile + ".repo_sync_stats.parquet"
			if err := parquet.WriteRepoSyncStatsParquet(statRows, statsFile); err != nil {
				return fmt.Errorf("failed to write repo sync stats: %w", err)
			}
			fmt.Printf("Exported %d repo stat rows to: %s\n", len(statRows), statsFile)
			exported += len(statRows)
		}
	}

	if exported == 0 {
		return errors.New("no cached data found to export")
	}

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
