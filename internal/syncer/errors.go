package syncer

import (
	"fmt"
	"time"

	"github.com/repopulse/repopulse/schema"
)

// Phases of a sync run, recorded on SyncError so status output can say
// where a refresh died.
const (
	PhaseStore   = "store"
	PhaseFetch   = "fetch"
	PhasePersist = "persist"
)

// SyncError reports a failed refresh for one repository. It stays attached
// to the repo's SyncStatus until a caller acknowledges it through Retry;
// until then further Sync calls for the key refuse to run.
type SyncError struct {
	Repo    schema.RepoRef
	Phase   string
	Cause   error
	Time    time.Time
	Retries int
}

func (e *SyncError) Error() string {
	if e.Retries > 0 {
		return fmt.Sprintf("sync %s failed during %s (retry %d): %v", e.Repo, e.Phase, e.Retries, e.Cause)
	}
	return fmt.Sprintf("sync %s failed during %s: %v", e.Repo, e.Phase, e.Cause)
}

func (e *SyncError) Unwrap() error {
	return e.Cause
}
