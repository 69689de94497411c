// Package main provides a performance benchmarking tool for the repopulse cache primitives.
// It exercises the content hasher, the in-memory snapshot store and the debounced scheduler
// under single-threaded and contended load, generating CSV output for performance analysis
// and documentation.
//
// The harness runs in-process against synthetic snapshot data, so it needs no network
// access and no GitHub token.
//
// Usage: go run benchmark/main.go [-iterations N] [-entries N] [-workers N]
//
//	iterations: Number of operations per scenario
//	entries: Size of the synthetic data set and the store capacity
//	workers: Number of goroutines for the contended scenarios
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/repopulse/repopulse/internal/memcache"
	"github.com/repopulse/repopulse/schema"
)

// BenchmarkResult holds the outcome of one benchmark scenario.
type BenchmarkResult struct {
	Component  string
	Scenario   string
	Operations int
	Elapsed    time.Duration
}

// OpsPerSec derives the throughput of the scenario.
func (r BenchmarkResult) OpsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Operations) / r.Elapsed.Seconds()
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Iterations int
	Entries    int
	Workers    int
}

var benchRepo = schema.RepoRef{Owner: "bench", Name: "workload"}

func main() {
	iterations := flag.Int("iterations", 100000, "number of operations per scenario")
	entries := flag.Int("entries", 1000, "synthetic data set size and store capacity")
	workers := flag.Int("workers", 8, "goroutines for contended scenarios")
	flag.Parse()

	config := BenchmarkConfig{
		Iterations: *iterations,
		Entries:    *entries,
		Workers:    *workers,
	}
	if config.Iterations < 1 || config.Entries < 1 || config.Workers < 1 {
		fmt.Printf("Usage: %s [-iterations N] [-entries N] [-workers N], all values must be >= 1\n", os.Args[0])
		os.Exit(1)
	}

	fmt.Printf("Starting benchmark: %d iterations, %d entries, %d workers\n",
		config.Iterations, config.Entries, config.Workers)

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks executes all benchmark scenarios.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Benchmarking hasher\n")
	results = append(results, benchmarkHasher(config))

	fmt.Printf("Benchmarking store\n")
	results = append(results,
		benchmarkStoreWrites(config),
		benchmarkStoreReads(config),
		benchmarkStoreContended(config),
	)

	fmt.Printf("Benchmarking debouncer\n")
	results = append(results, benchmarkDebouncer(config))

	return results
}

// benchmarkHasher times repeated content hashing of a full synthetic snapshot.
func benchmarkHasher(config BenchmarkConfig) BenchmarkResult {
	prs := makePullRequests(config.Entries)
	issues := makeIssues(config.Entries)
	activities := makeActivities(config.Entries)

	start := time.Now()
	var last schema.ContentHash
	for i := 0; i < config.Iterations; i++ {
		last = memcache.HashSnapshot(prs, issues, activities)
	}
	elapsed := time.Since(start)

	fmt.Printf("  hash of %d+%d+%d records: %v (last: %s)\n",
		len(prs), len(issues), len(activities), elapsed, last)

	return BenchmarkResult{
		Component:  "hasher",
		Scenario:   "full snapshot",
		Operations: config.Iterations,
		Elapsed:    elapsed,
	}
}

// benchmarkStoreWrites times Set calls with twice as many keys as the store
// holds, forcing the eviction path on every other write once warm.
func benchmarkStoreWrites(config BenchmarkConfig) BenchmarkResult {
	store := memcache.New[*schema.RepoSnapshot](
		memcache.WithMaxEntries(config.Entries),
		memcache.WithTTL(time.Minute),
	)
	snapshot := makeSnapshot(config.Entries)
	keySpace := config.Entries * 2

	start := time.Now()
	for i := 0; i < config.Iterations; i++ {
		store.Set(fmt.Sprintf("repo-%d", i%keySpace), snapshot)
	}
	elapsed := time.Since(start)

	stats := store.Stats()
	fmt.Printf("  writes: %v, evictions: %d\n", elapsed, stats.Evictions)

	return BenchmarkResult{
		Component:  "store",
		Scenario:   "writes with eviction",
		Operations: config.Iterations,
		Elapsed:    elapsed,
	}
}

// benchmarkStoreReads times Get calls over a prefilled store with a key space
// twice the capacity, yielding a roughly even hit/miss mix.
func benchmarkStoreReads(config BenchmarkConfig) BenchmarkResult {
	store := memcache.New[*schema.RepoSnapshot](
		memcache.WithMaxEntries(config.Entries),
		memcache.WithTTL(time.Minute),
	)
	snapshot := makeSnapshot(config.Entries)
	for i := 0; i < config.Entries; i++ {
		store.Set(fmt.Sprintf("repo-%d", i), snapshot)
	}
	keySpace := config.Entries * 2

	start := time.Now()
	for i := 0; i < config.Iterations; i++ {
		store.Get(fmt.Sprintf("repo-%d", i%keySpace))
	}
	elapsed := time.Since(start)

	stats := store.Stats()
	fmt.Printf("  reads: %v, hits: %d, misses: %d\n", elapsed, stats.Hits, stats.Misses)

	return BenchmarkResult{
		Component:  "store",
		Scenario:   "mixed hit/miss reads",
		Operations: config.Iterations,
		Elapsed:    elapsed,
	}
}

// benchmarkStoreContended times concurrent Get/Set traffic from the configured
// number of workers sharing one store.
func benchmarkStoreContended(config BenchmarkConfig) BenchmarkResult {
	store := memcache.New[*schema.RepoSnapshot](
		memcache.WithMaxEntries(config.Entries),
		memcache.WithTTL(time.Minute),
	)
	snapshot := makeSnapshot(config.Entries)
	perWorker := config.Iterations / config.Workers

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("repo-%d", (seed+i)%config.Entries)
				if i%4 == 0 {
					store.Set(key, snapshot)
				} else {
					store.Get(key)
				}
			}
		}(w * perWorker)
	}
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("  contended: %v across %d workers\n", elapsed, config.Workers)

	return BenchmarkResult{
		Component:  "store",
		Scenario:   "contended read/write",
		Operations: perWorker * config.Workers,
		Elapsed:    elapsed,
	}
}

// benchmarkDebouncer times Schedule calls spread over a limited key space and
// reports how many callbacks actually fired after the bursts collapse.
func benchmarkDebouncer(config BenchmarkConfig) BenchmarkResult {
	delay := 5 * time.Millisecond
	debouncer := memcache.NewDebouncer(memcache.WithDelay(delay))
	defer debouncer.Dispose()

	var fired atomic.Int64

	start := time.Now()
	for i := 0; i < config.Iterations; i++ {
		debouncer.Schedule(fmt.Sprintf("repo-%d", i%config.Entries), func() {
			fired.Add(1)
		})
	}
	scheduleElapsed := time.Since(start)

	// Wait for the trailing timers to drain
	deadline := time.Now().Add(5 * time.Second)
	for debouncer.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(delay)
	}

	fmt.Printf("  scheduled %d calls in %v, %d callbacks fired across %d keys\n",
		config.Iterations, scheduleElapsed, fired.Load(), config.Entries)

	return BenchmarkResult{
		Component:  "debouncer",
		Scenario:   "burst collapse",
		Operations: config.Iterations,
		Elapsed:    scheduleElapsed,
	}
}

// makeActivities builds n synthetic timeline events spread over the past month.
func makeActivities(n int) []schema.ActivityEvent {
	base := time.Now().Add(-30 * 24 * time.Hour)
	events := make([]schema.ActivityEvent, n)
	for i := range events {
		events[i] = schema.ActivityEvent{
			ID:        fmt.Sprintf("bench-event-%d", i),
			Repo:      benchRepo,
			Type:      schema.WatchEvent,
			Actor:     fmt.Sprintf("user-%d", i%97),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return events
}

// makePullRequests builds n synthetic pull requests.
func makePullRequests(n int) []schema.PullRequest {
	base := time.Now().Add(-30 * 24 * time.Hour)
	prs := make([]schema.PullRequest, n)
	for i := range prs {
		prs[i] = schema.PullRequest{
			ID:        int64(i + 1),
			Number:    i + 1,
			Title:     fmt.Sprintf("Benchmark change %d", i),
			Author:    fmt.Sprintf("user-%d", i%97),
			State:     "open",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i+1) * time.Minute),
		}
	}
	return prs
}

// makeIssues builds n synthetic issues.
func makeIssues(n int) []schema.Issue {
	base := time.Now().Add(-30 * 24 * time.Hour)
	issues := make([]schema.Issue, n)
	for i := range issues {
		issues[i] = schema.Issue{
			ID:        int64(i + 1),
			Number:    i + 1,
			Title:     fmt.Sprintf("Benchmark report %d", i),
			Author:    fmt.Sprintf("user-%d", i%97),
			State:     "open",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i+1) * time.Minute),
		}
	}
	return issues
}

// makeSnapshot builds one synthetic snapshot holding n of each record kind.
func makeSnapshot(n int) *schema.RepoSnapshot {
	return &schema.RepoSnapshot{
		Repo:         benchRepo,
		PullRequests: makePullRequests(n),
		Issues:       makeIssues(n),
		Activities:   makeActivities(n),
		FetchedAt:    time.Now(),
	}
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/repopulse_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"component", "scenario", "operations", "elapsed_seconds", "ops_per_sec"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		record := []string{
			result.Component,
			result.Scenario,
			fmt.Sprintf("%d", result.Operations),
			fmt.Sprintf("%.6f", result.Elapsed.Seconds()),
			fmt.Sprintf("%.0f", result.OpsPerSec()),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printComponentSummary(results, "hasher", "Hasher:")
	printComponentSummary(results, "store", "Store:")
	printComponentSummary(results, "debouncer", "Debouncer:")

	fmt.Printf("Benchmark run completed successfully\n")
}

// printComponentSummary displays results for a specific component.
func printComponentSummary(results []BenchmarkResult, component, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Component == component {
			fmt.Printf("  %-24s: %d ops in %v (%.0f ops/sec)\n",
				result.Scenario, result.Operations, result.Elapsed, result.OpsPerSec())
		}
	}
}
