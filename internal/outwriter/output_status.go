package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
)

// PrintCacheStatus outputs the combined store and memory cache status, dispatching based on the output format configured.
func PrintCacheStatus(r schema.CacheStatusReport, cfg *contract.Config, duration time.Duration) error {
	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, r)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusCSV(w, r)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable summary
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusText(w, r, cfg, duration)
		}, "Wrote text")
	}
	return nil
}

// writeStatusText displays the status report in human-readable text format.
func writeStatusText(w io.Writer, r schema.CacheStatusReport, cfg *contract.Config, duration time.Duration) error {
	section := func(emoji, name string) string {
		if cfg.UseEmojis {
			return emoji + " " + name
		}
		return name
	}

	var lines []string

	// --- 1. Event Cache Section ---
	lines = append(lines, fmt.Sprintf("%s (%s)", section("🗃️", "Event Cache"), r.Events.Backend))
	if r.Events.Connected {
		lines = append(lines,
			fmt.Sprintf("  Events: %d across %d repos", r.Events.TotalEvents, r.Events.TotalRepos),
			fmt.Sprintf("  Range: %s to %s", formatTimeOrDash(r.Events.OldestEventTime), formatTimeOrDash(r.Events.LastEventTime)),
			fmt.Sprintf("  Size: %s", formatByteSize(r.Events.TableSizeBytes)),
		)
	} else {
		lines = append(lines, "  Not connected")
	}

	// --- 2. Sync Runs Section ---
	lines = append(lines, fmt.Sprintf("%s (%s)", section("📒", "Sync Runs"), r.SyncRuns.Backend))
	if r.SyncRuns.Connected {
		lines = append(lines,
			fmt.Sprintf("  Runs: %d (last run %d at %s)", r.SyncRuns.TotalRuns, r.SyncRuns.LastRunID, formatTimeOrDash(r.SyncRuns.LastRunTime)),
			fmt.Sprintf("  Events inserted: %d", r.SyncRuns.EventsInserted),
		)
	} else {
		lines = append(lines, "  Not connected")
	}

	// --- 3. Memory Cache Section ---
	lines = append(lines,
		section("🧠", "Memory Cache"),
		fmt.Sprintf("  Entries: %d", r.Memory.Entries),
		fmt.Sprintf("  Hits: %d, Misses: %d, Evictions: %d (hit rate: %s)",
			r.Memory.Hits, r.Memory.Misses, r.Memory.Evictions, formatHitRate(r.Memory.Hits, r.Memory.Misses)),
		fmt.Sprintf("Status gathered in %v. Cache backend: %s", duration, cfg.CacheBackend),
	)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writeStatusCSV writes the status report as section/field/value records.
func writeStatusCSV(w io.Writer, r schema.CacheStatusReport) error {
	header := []string{"section", "field", "value"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		rows := [][]string{
			{"events", "backend", r.Events.Backend},
			{"events", "connected", strconv.FormatBool(r.Events.Connected)},
			{"events", "total_events", strconv.Itoa(r.Events.TotalEvents)},
			{"events", "total_repos", strconv.Itoa(r.Events.TotalRepos)},
			{"events", "oldest_event_time", formatTimeOrDash(r.Events.OldestEventTime)},
			{"events", "last_event_time", formatTimeOrDash(r.Events.LastEventTime)},
			{"events", "table_size_bytes", strconv.FormatInt(r.Events.TableSizeBytes, 10)},
			{"sync_runs", "backend", r.SyncRuns.Backend},
			{"sync_runs", "connected", strconv.FormatBool(r.SyncRuns.Connected)},
			{"sync_runs", "total_runs", strconv.Itoa(r.SyncRuns.TotalRuns)},
			{"sync_runs", "last_run_id", strconv.FormatInt(r.SyncRuns.LastRunID, 10)},
			{"sync_runs", "last_run_time", formatTimeOrDash(r.SyncRuns.LastRunTime)},
			{"sync_runs", "events_inserted", strconv.Itoa(r.SyncRuns.EventsInserted)},
			{"memory", "entries", strconv.Itoa(r.Memory.Entries)},
			{"memory", "hits", strconv.FormatInt(r.Memory.Hits, 10)},
			{"memory", "misses", strconv.FormatInt(r.Memory.Misses, 10)},
			{"memory", "evictions", strconv.FormatInt(r.Memory.Evictions, 10)},
		}
		for _, rec := range rows {
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
