// Package syncer decides when a repository's cached events are too old to
// trust and owns the refresh that follows. Each repo key moves through
// Idle -> Triggering -> InProgress -> Complete or Error, with at most one
// refresh in flight per key no matter how many callers ask.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
)

// DefaultMaxStale is how old cached data may get before NeedsSync reports
// a refresh is due.
const DefaultMaxStale = 60 * time.Minute

// ErrDisposed is returned by Sync and Retry after Dispose.
var ErrDisposed = errors.New("sync trigger is disposed")

// triggerConfig holds the resolved construction options for a Trigger.
type triggerConfig struct {
	maxStale time.Duration
	lookback time.Duration
	autoSync bool
	workers  int
	clock    clockwork.Clock
}

// Option configures a Trigger.
type Option func(*triggerConfig)

// WithMaxStale sets the staleness threshold consulted by NeedsSync.
// Non-positive values are ignored. Defaults to DefaultMaxStale.
func WithMaxStale(d time.Duration) Option {
	return func(c *triggerConfig) {
		if d > 0 {
			c.maxStale = d
		}
	}
}

// WithLookback bounds how far back the ingest pipeline pages through the
// event timeline. Defaults to contract.DefaultLookbackDays days.
func WithLookback(d time.Duration) Option {
	return func(c *triggerConfig) {
		if d > 0 {
			c.lookback = d
		}
	}
}

// WithAutoSync enables AutoSyncIfEmpty. Off by default so tests and batch
// commands never refresh behind the caller's back.
func WithAutoSync(enabled bool) Option {
	return func(c *triggerConfig) { c.autoSync = enabled }
}

// WithWorkers bounds the SyncAll worker pool. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(c *triggerConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithClock injects the clock used for staleness decisions and run
// timestamps. Tests pass a clockwork fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *triggerConfig) { c.clock = clock }
}

// Trigger coordinates refreshes for a set of repositories. All methods are
// safe for concurrent use.
type Trigger struct {
	source contract.EventSource
	mgr    contract.StoreManager
	cfg    triggerConfig

	mu        sync.Mutex
	statuses  map[string]schema.SyncStatus
	autoFired map[string]bool
	retries   map[string]int
	disposed  bool

	// flight serializes refreshes per key and collapses callers that slip
	// past the status check together, such as a Sync racing the moment
	// Retry clears an error. Joining an in-flight refresh is safe because
	// all state transitions happen inside the flight function.
	flight singleflight.Group
}

// New returns a Trigger with every repository Idle.
func New(source contract.EventSource, mgr contract.StoreManager, opts ...Option) *Trigger {
	cfg := triggerConfig{
		maxStale: DefaultMaxStale,
		lookback: contract.DefaultLookbackDays * 24 * time.Hour,
		workers:  contract.DefaultWorkers,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Trigger{
		source:    source,
		mgr:       mgr,
		cfg:       cfg,
		statuses:  make(map[string]schema.SyncStatus),
		autoFired: make(map[string]bool),
		retries:   make(map[string]int),
	}
}

// Status returns a snapshot of the repo's sync state. Unknown repos read
// as Idle.
func (t *Trigger) Status(repo schema.RepoRef) schema.SyncStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statuses[repo.String()]
}

// NeedsSync reports whether the repo has never been synced or its last
// sync is older than the staleness threshold.
func (t *Trigger) NeedsSync(repo schema.RepoRef) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.statuses[repo.String()]
	if st.LastSyncedAt == nil {
		return true
	}
	return t.cfg.clock.Now().Sub(*st.LastSyncedAt) > t.cfg.maxStale
}

// Sync refreshes the repo's cached events. A refresh already in flight for
// the key makes this a no-op; an unacknowledged failure makes it an error
// until Retry clears it.
func (t *Trigger) Sync(ctx context.Context, repo schema.RepoRef) error {
	key := repo.String()

	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return ErrDisposed
	}
	st := t.statuses[key]
	if st.Busy() {
		t.mu.Unlock()
		return nil
	}
	if st.Error != nil {
		t.mu.Unlock()
		return fmt.Errorf("sync for %s previously failed: %w. Check that the failure is resolved, then retry explicitly", repo, st.Error)
	}
	t.mu.Unlock()

	_, err := t.run(ctx, repo, key)
	return err
}

// Retry acknowledges a failed sync and runs the refresh again. Retrying a
// repo that never failed behaves like Sync. A busy key is a no-op.
func (t *Trigger) Retry(ctx context.Context, repo schema.RepoRef) error {
	key := repo.String()

	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return ErrDisposed
	}
	st := t.statuses[key]
	if st.Busy() {
		t.mu.Unlock()
		return nil
	}
	if st.Error != nil {
		t.retries[key]++
		st.Error = nil
		t.statuses[key] = st
	}
	t.mu.Unlock()

	_, err := t.run(ctx, repo, key)
	return err
}

// AutoSyncIfEmpty refreshes the repo when its local window came up empty.
// It fires at most once per key for the lifetime of this Trigger, only
// when auto-sync is enabled, and never while a refresh is in flight or an
// unacknowledged failure is pending. Failures land in Status rather than
// being returned; the automatic path has no caller to hand them to.
func (t *Trigger) AutoSyncIfEmpty(ctx context.Context, repo schema.RepoRef, empty bool) {
	if !t.cfg.autoSync || !empty {
		return
	}
	key := repo.String()

	t.mu.Lock()
	if t.disposed || t.autoFired[key] {
		t.mu.Unlock()
		return
	}
	t.autoFired[key] = true

	st := t.statuses[key]
	if st.Busy() || st.Error != nil {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	if _, err := t.run(ctx, repo, key); err != nil {
		contract.LogWarn(fmt.Sprintf("Automatic sync for %s failed", repo), err)
	}
}

// Dispose permanently disables the trigger. Refreshes already in flight
// finish and their status writes still apply; new Sync and Retry calls
// return ErrDisposed. Idempotent.
func (t *Trigger) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disposed = true
}

// run executes the refresh inside the per-key flight. Callers that arrive
// while a flight for the key is active share its outcome instead of
// refreshing a second time.
func (t *Trigger) run(ctx context.Context, repo schema.RepoRef, key string) (schema.RunStats, error) {
	v, err, _ := t.flight.Do(key, func() (any, error) {
		// Double check under the lock now that we own the flight: the
		// world may have moved between the caller's status check and here.
		t.mu.Lock()
		st := t.statuses[key]
		if t.disposed || st.Busy() || st.Error != nil {
			t.mu.Unlock()
			return schema.RunStats{}, nil
		}
		st.IsTriggering = true
		st.IsComplete = false
		t.statuses[key] = st
		retries := t.retries[key]
		t.mu.Unlock()

		t.mu.Lock()
		st = t.statuses[key]
		st.IsTriggering = false
		st.IsInProgress = true
		t.statuses[key] = st
		t.mu.Unlock()

		stats, runErr := t.runSync(ctx, repo, retries)

		t.mu.Lock()
		defer t.mu.Unlock()
		now := t.cfg.clock.Now()
		if runErr != nil {
			t.statuses[key] = schema.SyncStatus{
				Error:        runErr,
				LastSyncedAt: st.LastSyncedAt,
			}
			return stats, runErr
		}
		t.retries[key] = 0
		t.statuses[key] = schema.SyncStatus{
			IsComplete:   true,
			LastSyncedAt: &now,
		}
		return stats, nil
	})

	stats, _ := v.(schema.RunStats)
	return stats, err
}
