package memcache

import (
	"fmt"
	"time"
)

// ComputationError reports that the computation backing a cache entry
// failed. The result is surfaced to the caller and never cached, and no
// automatic retry happens on its behalf.
type ComputationError struct {
	Key   string
	Cause error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation for %q failed: %v", e.Key, e.Cause)
}

func (e *ComputationError) Unwrap() error {
	return e.Cause
}

// StaleDataWarning is advisory: the entry is still within the hard TTL but
// older than the soft staleness threshold. Callers log it and serve the data
// anyway; it never blocks a result.
type StaleDataWarning struct {
	Key     string
	Age     time.Duration
	SoftTTL time.Duration
}

func (e *StaleDataWarning) Error() string {
	return fmt.Sprintf("cached data for %q is %s old (soft limit %s)", e.Key, e.Age, e.SoftTTL)
}
