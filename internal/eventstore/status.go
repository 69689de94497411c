package eventstore

import (
	"fmt"

	"github.com/repopulse/repopulse/schema"
)

// PrintEventStoreStatus prints event cache status information.
func PrintEventStoreStatus(status schema.EventStoreStatus) {
	fmt.Printf("Event Cache Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Events: %d\n", status.TotalEvents)
	fmt.Printf("Total Repositories: %d\n", status.TotalRepos)
	if status.TotalEvents > 0 {
		fmt.Printf("Last Event: %s\n", status.LastEventTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Oldest Event: %s\n", status.OldestEventTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintSyncRunStatus prints sync-run status information.
func PrintSyncRunStatus(status schema.SyncRunStatus) {
	fmt.Printf("Sync Run Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		fmt.Printf("Last Run ID: %d\n", status.LastRunID)
		fmt.Printf("Last Run: %s\n", status.LastRunTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Oldest Run: %s\n", status.OldestRunTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Total Events Inserted: %d\n", status.EventsInserted)
	}
	fmt.Println("Table Sizes:")
	for table, size := range status.TableSizes {
		fmt.Printf("  %s: %d rows\n", table, size)
	}
}
