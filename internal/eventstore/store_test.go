package eventstore

import (
	"testing"
	"time"

	"github.com/repopulse/repopulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeTestRepo = schema.RepoRef{Owner: "octocat", Name: "hello-world"}

// testEvent builds an event with a deterministic creation time.
func testEvent(id string, eventType schema.EventType, created time.Time) schema.ActivityEvent {
	return schema.ActivityEvent{
		ID:        id,
		Repo:      storeTestRepo,
		Type:      eventType,
		Actor:     "octocat",
		CreatedAt: created,
	}
}

func TestEventStore_NoneBackend(t *testing.T) {
	store, err := NewEventStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	// Writes should report zero rows for NoneBackend
	written, err := store.UpsertEvents([]schema.ActivityEvent{testEvent("1", schema.WatchEvent, time.Now())})
	assert.NoError(t, err)
	assert.Equal(t, 0, written)

	written, err = store.UpsertPullRequests(storeTestRepo, []schema.PullRequest{{Number: 1}})
	assert.NoError(t, err)
	assert.Equal(t, 0, written)

	written, err = store.UpsertIssues(storeTestRepo, []schema.Issue{{Number: 1}})
	assert.NoError(t, err)
	assert.Equal(t, 0, written)

	// Reads should come back empty
	snapshot, err := store.SnapshotSince(storeTestRepo, time.Time{})
	assert.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.True(t, snapshot.IsEmpty())

	last, err := store.LastEventTime(storeTestRepo)
	assert.NoError(t, err)
	assert.True(t, last.IsZero())

	all, err := store.AllEvents()
	assert.NoError(t, err)
	assert.Empty(t, all)

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.False(t, status.Connected)

	err = store.Close()
	assert.NoError(t, err)
}

func TestEventStore_SnapshotRoundtrip(t *testing.T) {
	store, err := NewEventStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	merged := base.Add(2 * time.Hour)

	events := []schema.ActivityEvent{
		{
			ID:        "ev-1",
			Repo:      storeTestRepo,
			Type:      schema.PullRequestEvent,
			Actor:     "alice",
			CreatedAt: base,
			Payload:   []byte(`{"action":"opened"}`),
		},
		testEvent("ev-2", schema.WatchEvent, base.Add(time.Hour)),
	}
	written, err := store.UpsertEvents(events)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	prs := []schema.PullRequest{
		{
			ID: 1001, Number: 42, Title: "Add pagination", Author: "alice", State: "closed",
			CreatedAt: base, UpdatedAt: base.Add(time.Hour), MergedAt: &merged,
			Additions: 120, Deletions: 30, ReviewCount: 2, CommentCount: 5,
		},
		{
			ID: 1002, Number: 43, Title: "Fix typo", Author: "bob", State: "open",
			CreatedAt: base, UpdatedAt: base.Add(30 * time.Minute),
		},
	}
	written, err = store.UpsertPullRequests(storeTestRepo, prs)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	closed := base.Add(3 * time.Hour)
	issues := []schema.Issue{
		{ID: 2001, Number: 7, Title: "Crash on empty input", Author: "carol", State: "closed",
			CreatedAt: base, UpdatedAt: base.Add(time.Hour), ClosedAt: &closed, CommentCount: 3},
	}
	written, err = store.UpsertIssues(storeTestRepo, issues)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	snapshot, err := store.SnapshotSince(storeTestRepo, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, storeTestRepo, snapshot.Repo)
	assert.False(t, snapshot.IsEmpty())
	assert.False(t, snapshot.FetchedAt.IsZero())

	// Events come back newest first with payloads intact
	require.Len(t, snapshot.Activities, 2)
	assert.Equal(t, "ev-2", snapshot.Activities[0].ID)
	assert.Equal(t, "ev-1", snapshot.Activities[1].ID)
	assert.Equal(t, storeTestRepo, snapshot.Activities[0].Repo)
	assert.True(t, snapshot.Activities[1].CreatedAt.Equal(base))
	assert.JSONEq(t, `{"action":"opened"}`, string(snapshot.Activities[1].Payload))
	assert.Empty(t, snapshot.Activities[0].Payload)

	// Pull requests come back most recently updated first
	require.Len(t, snapshot.PullRequests, 2)
	assert.Equal(t, 42, snapshot.PullRequests[0].Number)
	assert.Equal(t, "Add pagination", snapshot.PullRequests[0].Title)
	require.NotNil(t, snapshot.PullRequests[0].MergedAt)
	assert.True(t, snapshot.PullRequests[0].MergedAt.Equal(merged))
	assert.True(t, snapshot.PullRequests[0].Merged())
	assert.Equal(t, 120, snapshot.PullRequests[0].Additions)
	assert.Nil(t, snapshot.PullRequests[1].MergedAt)

	require.Len(t, snapshot.Issues, 1)
	assert.Equal(t, 7, snapshot.Issues[0].Number)
	require.NotNil(t, snapshot.Issues[0].ClosedAt)
	assert.True(t, snapshot.Issues[0].ClosedAt.Equal(closed))
	assert.Equal(t, 3, snapshot.Issues[0].CommentCount)
}

func TestEventStore_UpsertIsIdempotent(t *testing.T) {
	store, err := NewEventStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	events := []schema.ActivityEvent{
		testEvent("ev-1", schema.WatchEvent, base),
		testEvent("ev-2", schema.ForkEvent, base.Add(time.Minute)),
	}

	// Re-syncing the same window writes the same rows again
	for range 3 {
		written, err := store.UpsertEvents(events)
		require.NoError(t, err)
		assert.Equal(t, 2, written)
	}

	db := store.(*EventStoreImpl).db
	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM repopulse_events")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 2, count)

	// Same key with fresher metadata replaces the row
	updated := testEvent("ev-1", schema.WatchEvent, base)
	updated.Actor = "renamed-octocat"
	written, err := store.UpsertEvents([]schema.ActivityEvent{updated})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	snapshot, err := store.SnapshotSince(storeTestRepo, time.Time{})
	require.NoError(t, err)
	require.Len(t, snapshot.Activities, 2)
	assert.Equal(t, "renamed-octocat", snapshot.Activities[1].Actor)
}

func TestEventStore_PullRequestUpsertByNumber(t *testing.T) {
	store, err := NewEventStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	pr := schema.PullRequest{ID: 1001, Number: 42, Title: "WIP", Author: "alice", State: "open",
		CreatedAt: base, UpdatedAt: base}
	_, err = store.UpsertPullRequests(storeTestRepo, []schema.PullRequest{pr})
	require.NoError(t, err)

	// A later sync sees the same PR number with fresher state
	pr.Title = "Add pagination"
	pr.State = "closed"
	pr.UpdatedAt = base.Add(time.Hour)
	_, err = store.UpsertPullRequests(storeTestRepo, []schema.PullRequest{pr})
	require.NoError(t, err)

	snapshot, err := store.SnapshotSince(storeTestRepo, time.Time{})
	require.NoError(t, err)
	require.Len(t, snapshot.PullRequests, 1)
	assert.Equal(t, "Add pagination", snapshot.PullRequests[0].Title)
	assert.Equal(t, "closed", snapshot.PullRequests[0].State)
}

func TestEventStore_SnapshotSinceFiltersWindow(t *testing.T) {
	store, err := NewEventStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	events := []schema.ActivityEvent{
		testEvent("old", schema.WatchEvent, base.AddDate(0, 0, -40)),
		testEvent("edge", schema.WatchEvent, base),
		testEvent("new", schema.WatchEvent, base.AddDate(0, 0, 5)),
	}
	_, err = store.UpsertEvents(events)
	require.NoError(t, err)

	prs := []schema.PullRequest{
		{ID: 1, Number: 1, Title: "stale", Author: "a", State: "closed",
			CreatedAt: base.AddDate(0, -3, 0), UpdatedAt: base.AddDate(0, 0, -10)},
		{ID: 2, Number: 2, Title: "fresh", Author: "b", State: "open",
			CreatedAt: base, UpdatedAt: base.AddDate(0, 0, 3)},
	}
	_, err = store.UpsertPullRequests(storeTestRepo, prs)
	require.NoError(t, err)

	snapshot, err := store.SnapshotSince(storeTestRepo, base)
	require.NoError(t, err)

	// Rows exactly at the window boundary are included
	require.Len(t, snapshot.Activities, 2)
	assert.Equal(t, "new", snapshot.Activities[0].ID)
	assert.Equal(t, "edge", snapshot.Activities[1].ID)

	require.Len(t, snapshot.PullRequests, 1)
	assert.Equal(t, "fresh", snapshot.PullRequests[0].Title)
}

func TestEventStore_SnapshotSeparatesRepos(t *testing.T) {
	store, err := NewEventStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	otherRepo := schema.RepoRef{Owner: "octocat", Name: "spoon-knife"}
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err = store.UpsertEvents([]schema.ActivityEvent{testEvent("mine", schema.WatchEvent, base)})
	require.NoError(t, err)

	other := schema.ActivityEvent{ID: "theirs", Repo: otherRepo, Type: schema.ForkEvent, Actor: "bob", CreatedAt: base}
	_, err = store.UpsertEvents([]schema.ActivityEvent{other})
	require.NoError(t, err)

	_, err = store.UpsertPullRequests(otherRepo, []schema.PullRequest{
		{ID: 9, Number: 9, Title: "other repo", Author: "bob", State: "open", CreatedAt: base, UpdatedAt: base},
	})
	require.NoError(t, err)

	snapshot, err := store.SnapshotSince(storeTestRepo, time.Time{})
	require.NoError(t, err)
	require.Len(t, snapshot.Activities, 1)
	assert.Equal(t, "mine", snapshot.Activities[0].ID)
	assert.Empty(t, snapshot.PullRequests)

	otherSnapshot, err := store.SnapshotSince(otherRepo, time.Time{})
	require.NoError(t, err)
	require.Len(t, otherSnapshot.Activities, 1)
	assert.Equal(t, "theirs", otherSnapshot.Activities[0].ID)
	require.Len(t, otherSnapshot.PullRequests, 1)
}

func TestEventStore_AllEvents(t *testing.T) {
	store, err := NewEventStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// Nothing cached yet
	events, err := store.AllEvents()
	require.NoError(t, err)
	assert.Empty(t, events)

	otherRepo := schema.RepoRef{Owner: "octocat", Name: "spoon-knife"}
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err = store.UpsertEvents([]schema.ActivityEvent{
		testEvent("newer", schema.WatchEvent, base.Add(time.Hour)),
		testEvent("older", schema.PullRequestEvent, base),
	})
	require.NoError(t, err)
	_, err = store.UpsertEvents([]schema.ActivityEvent{
		{ID: "theirs", Repo: otherRepo, Type: schema.ForkEvent, Actor: "bob", CreatedAt: base.Add(2 * time.Hour)},
	})
	require.NoError(t, err)

	events, err = store.AllEvents()
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Oldest first, with repositories restored from the cached rows
	assert.Equal(t, "older", events[0].ID)
	assert.Equal(t, storeTestRepo, events[0].Repo)
	assert.Equal(t, "newer", events[1].ID)
	assert.Equal(t, "theirs", events[2].ID)
	assert.Equal(t, otherRepo, events[2].Repo)
}

func TestEventStore_LastEventTime(t *testing.T) {
	store, err := NewEventStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// Nothing cached yet
	last, err := store.LastEventTime(storeTestRepo)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	newest := base.Add(48 * time.Hour)
	_, err = store.UpsertEvents([]schema.ActivityEvent{
		testEvent("a", schema.WatchEvent, base),
		testEvent("b", schema.WatchEvent, newest),
		testEvent("c", schema.WatchEvent, base.Add(time.Hour)),
	})
	require.NoError(t, err)

	last, err = store.LastEventTime(storeTestRepo)
	require.NoError(t, err)
	assert.True(t, last.Equal(newest))

	// Another repository does not leak into the answer
	last, err = store.LastEventTime(schema.RepoRef{Owner: "octocat", Name: "spoon-knife"})
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestEventStore_GetStatus(t *testing.T) {
	store, err := NewEventStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalEvents)
	assert.Equal(t, 0, status.TotalRepos)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	otherRepo := schema.RepoRef{Owner: "octocat", Name: "spoon-knife"}
	_, err = store.UpsertEvents([]schema.ActivityEvent{
		testEvent("a", schema.WatchEvent, base),
		testEvent("b", schema.ForkEvent, base.Add(time.Hour)),
		{ID: "x", Repo: otherRepo, Type: schema.StarEvent, Actor: "bob", CreatedAt: base.Add(2 * time.Hour)},
	})
	require.NoError(t, err)

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalEvents)
	assert.Equal(t, 2, status.TotalRepos)
	assert.True(t, status.OldestEventTime.Equal(base))
	assert.True(t, status.LastEventTime.Equal(base.Add(2*time.Hour)))
	assert.Greater(t, status.TableSizeBytes, int64(0))
}
