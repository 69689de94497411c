package memcache

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitSignal receives one value from ch or fails the test. Debounced
// callbacks run in their own goroutines, so tests synchronize through
// channels instead of sleeping.
func waitSignal(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced function to run")
		return ""
	}
}

func TestDebouncerCoalescesRapidCalls(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(WithDebounceClock(clock))
	defer d.Dispose()

	var calls atomic.Int64
	done := make(chan string, 8)
	for i := range 5 {
		id := fmt.Sprintf("call-%d", i)
		d.Schedule("octocat/hello-world", func() {
			calls.Add(1)
			done <- id
		})
	}
	assert.Equal(t, 1, d.Pending())

	clock.Advance(DefaultDelay)

	// Exactly one invocation, and it is the last scheduled one.
	assert.Equal(t, "call-4", waitSignal(t, done))
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncerReArmExtendsQuietWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(WithDebounceClock(clock))
	defer d.Dispose()

	var calls atomic.Int64
	done := make(chan string, 1)
	fn := func() {
		calls.Add(1)
		done <- "ran"
	}

	d.Schedule("k", fn)
	clock.Advance(200 * time.Millisecond)
	d.Schedule("k", fn)
	clock.Advance(200 * time.Millisecond)

	// 400ms after the first call, but only 200ms after the re-arm: the
	// replaced timer was stopped before it could fire.
	assert.Equal(t, int64(0), calls.Load())
	assert.Equal(t, 1, d.Pending())

	clock.Advance(100 * time.Millisecond)
	waitSignal(t, done)
	assert.Equal(t, int64(1), calls.Load())
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(WithDebounceClock(clock))
	defer d.Dispose()

	done := make(chan string, 2)
	d.Schedule("octocat/hello-world", func() { done <- "first" })
	d.Schedule("acme/widget", func() { done <- "second" })
	assert.Equal(t, 2, d.Pending())

	clock.Advance(DefaultDelay)

	got := map[string]bool{waitSignal(t, done): true, waitSignal(t, done): true}
	assert.True(t, got["first"])
	assert.True(t, got["second"])
}

func TestDebouncerCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(WithDebounceClock(clock))
	defer d.Dispose()

	var calls atomic.Int64
	done := make(chan string, 1)
	d.Schedule("k", func() { calls.Add(1) })
	d.Schedule("other", func() { done <- "other" })

	assert.True(t, d.Cancel("k"))
	assert.False(t, d.Cancel("k"), "second cancel finds nothing pending")
	assert.False(t, d.Cancel("never-scheduled"))
	assert.Equal(t, 1, d.Pending())

	// Only the surviving key fires.
	clock.Advance(DefaultDelay)
	waitSignal(t, done)
	assert.Equal(t, int64(0), calls.Load())
}

func TestDebouncerDispose(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(WithDebounceClock(clock))

	var calls atomic.Int64
	d.Schedule("a", func() { calls.Add(1) })
	d.Schedule("b", func() { calls.Add(1) })
	require.Equal(t, 2, d.Pending())

	d.Dispose()
	assert.Equal(t, 0, d.Pending())

	// Disposed instances reject new work and never run the old.
	d.Schedule("c", func() { calls.Add(1) })
	assert.Equal(t, 0, d.Pending())

	clock.Advance(10 * DefaultDelay)
	assert.Equal(t, int64(0), calls.Load())

	// Idempotent.
	d.Dispose()
}

func TestDebouncerCustomDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(WithDelay(time.Second), WithDebounceClock(clock))
	defer d.Dispose()

	var calls atomic.Int64
	done := make(chan string, 1)
	d.Schedule("k", func() {
		calls.Add(1)
		done <- "ran"
	})

	// The default window passing is not enough with a longer delay.
	clock.Advance(DefaultDelay)
	assert.Equal(t, int64(0), calls.Load())

	clock.Advance(time.Second - DefaultDelay)
	waitSignal(t, done)
	assert.Equal(t, int64(1), calls.Load())
}

func TestDebouncerRealClock(t *testing.T) {
	d := NewDebouncer(WithDelay(10 * time.Millisecond))
	defer d.Dispose()

	done := make(chan string, 1)
	d.Schedule("k", func() { done <- "ran" })
	assert.Equal(t, "ran", waitSignal(t, done))
}
