package schema

import "time"

// SyncStatus is the externally visible state of a repository refresh.
// While a refresh is in flight, callers see the loading flags rather
// than a half-written previous value.
type SyncStatus struct {
	IsTriggering bool
	IsInProgress bool
	IsComplete   bool
	Error        error
	LastSyncedAt *time.Time
}

// Busy reports whether a refresh is currently owned by this key.
func (s SyncStatus) Busy() bool {
	return s.IsTriggering || s.IsInProgress
}

// ErrorMessage returns the error text, or "" when there is none.
func (s SyncStatus) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return s.Error.Error()
}

// RunStats tracks totals across one sync run.
type RunStats struct {
	RunID          string    `json:"run_id"`
	ReposProcessed int       `json:"repos_processed"`
	EventsFetched  int       `json:"events_fetched"`
	EventsInserted int       `json:"events_inserted"`
	APICalls       int       `json:"api_calls"`
	Errors         int       `json:"errors"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Merge adds another run's totals into this one.
func (s *RunStats) Merge(other RunStats) {
	s.ReposProcessed += other.ReposProcessed
	s.EventsFetched += other.EventsFetched
	s.EventsInserted += other.EventsInserted
	s.APICalls += other.APICalls
	s.Errors += other.Errors
}

// RepoSyncOutcome is the per-repository result of a sync command.
type RepoSyncOutcome struct {
	Repo         string     `json:"repo"`
	Skipped      bool       `json:"skipped"`
	Synced       bool       `json:"synced"`
	Error        string     `json:"error,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// SyncReport is the full result of a sync command across repositories.
type SyncReport struct {
	Outcomes []RepoSyncOutcome `json:"outcomes"`
	Totals   RunStats          `json:"totals"`
}

// SyncRunRecord represents a row from the repopulse_sync_runs table.
type SyncRunRecord struct {
	RunID          int64
	RunUUID        string
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int32
	ReposProcessed int32
	EventsInserted int32
	ConfigParams   *string
}

// RepoSyncRecord represents a row from the repopulse_repo_sync_stats table.
type RepoSyncRecord struct {
	RunID          int64
	Repo           string
	SyncTime       time.Time
	EventsFetched  int32
	EventsInserted int32
	APICalls       int32
	Errors         int32
}
