package memcache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultDelay is the quiet window a scheduled computation waits out before
// running. Sized to absorb the cadence of interactive refresh requests.
const DefaultDelay = 300 * time.Millisecond

// debounceConfig holds the resolved construction options for a Debouncer.
type debounceConfig struct {
	delay time.Duration
	clock clockwork.Clock
}

// DebounceOption configures a Debouncer.
type DebounceOption func(*debounceConfig)

// WithDelay sets the quiet window. Negative values are ignored; zero means
// fire on the next clock tick. Defaults to DefaultDelay.
func WithDelay(d time.Duration) DebounceOption {
	return func(c *debounceConfig) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithDebounceClock injects the clock used to arm timers. Tests pass a
// clockwork fake clock; production code uses the default real clock.
func WithDebounceClock(clock clockwork.Clock) DebounceOption {
	return func(c *debounceConfig) { c.clock = clock }
}

// Debouncer coalesces rapid repeated requests per key: of all the functions
// scheduled for a key within one quiet window, only the last one runs.
// Instances own their timers and must be disposed on teardown so pending
// callbacks do not outlive their owner.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]clockwork.Timer
	cfg      debounceConfig
	disposed bool
}

// NewDebouncer returns a Debouncer with no pending work.
func NewDebouncer(opts ...DebounceOption) *Debouncer {
	cfg := debounceConfig{
		delay: DefaultDelay,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Debouncer{
		pending: make(map[string]clockwork.Timer),
		cfg:     cfg,
	}
}

// Schedule arms (or re-arms) the timer for key so fn runs once the quiet
// window elapses with no further Schedule calls for the same key. The last
// scheduled fn wins. Scheduling on a disposed instance is a no-op.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return
	}
	if t, ok := d.pending[key]; ok {
		t.Stop()
	}

	// The callback runs in its own goroutine and only proceeds while it is
	// still the registered timer for the key. A timer that fired while being
	// replaced loses that check and stays silent, preserving last-wins.
	var timer clockwork.Timer
	timer = d.cfg.clock.AfterFunc(d.cfg.delay, func() {
		d.mu.Lock()
		current := !d.disposed && d.pending[key] == timer
		if current {
			delete(d.pending, key)
		}
		d.mu.Unlock()

		if current {
			fn()
		}
	})
	d.pending[key] = timer
}

// Cancel stops the pending computation for key, reporting whether one was
// pending. Cancellation is best effort: a callback that already started
// runs to completion.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.pending[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(d.pending, key)
	return true
}

// Dispose cancels all pending work and permanently disables the instance.
// Idempotent.
func (d *Debouncer) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.disposed = true
	for key, t := range d.pending {
		t.Stop()
		delete(d.pending, key)
	}
}

// Pending returns the number of keys with an armed timer.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
