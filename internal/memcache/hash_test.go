package memcache

import (
	"strconv"
	"testing"
	"time"

	"github.com/repopulse/repopulse/schema"
	"github.com/stretchr/testify/assert"
)

func mkPR(updated time.Time) schema.PullRequest {
	return schema.PullRequest{Number: 1, Author: "alice", UpdatedAt: updated}
}

func mkIssue(updated time.Time) schema.Issue {
	return schema.Issue{Number: 1, Author: "bob", UpdatedAt: updated}
}

func mkActivity(created time.Time) schema.ActivityEvent {
	return schema.ActivityEvent{ID: "e1", Type: schema.StarEvent, Actor: "carol", CreatedAt: created}
}

func TestHashSnapshotEmpty(t *testing.T) {
	got := HashSnapshot(nil, nil, nil)
	assert.Equal(t, schema.ContentHash("0-0-0-0-0-0"), got)

	// Empty non-nil slices hash the same as nil ones.
	got = HashSnapshot([]schema.PullRequest{}, []schema.Issue{}, []schema.ActivityEvent{})
	assert.Equal(t, schema.ContentHash("0-0-0-0-0-0"), got)
}

func TestHashSnapshotFormat(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	prs := []schema.PullRequest{mkPR(t1), mkPR(t2)}
	issues := []schema.Issue{mkIssue(t3)}
	activities := []schema.ActivityEvent{mkActivity(t1), mkActivity(t2), mkActivity(t3)}

	want := schema.ContentHash("2-1-3-" +
		formatMillis(t2) + "-" + formatMillis(t3) + "-" + formatMillis(t3))
	assert.Equal(t, want, HashSnapshot(prs, issues, activities))
}

func TestHashSnapshotStability(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prs := []schema.PullRequest{mkPR(t1)}

	// Same logical content always hashes the same, call after call.
	first := HashSnapshot(prs, nil, nil)
	for range 10 {
		assert.True(t, first.Equal(HashSnapshot(prs, nil, nil)))
	}

	// Slice order does not matter, only counts and maxima do.
	t2 := t1.Add(time.Minute)
	forward := HashSnapshot([]schema.PullRequest{mkPR(t1), mkPR(t2)}, nil, nil)
	backward := HashSnapshot([]schema.PullRequest{mkPR(t2), mkPR(t1)}, nil, nil)
	assert.True(t, forward.Equal(backward))
}

func TestHashSnapshotSensitivity(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prs := []schema.PullRequest{mkPR(base)}
	issues := []schema.Issue{mkIssue(base)}
	activities := []schema.ActivityEvent{mkActivity(base)}
	reference := HashSnapshot(prs, issues, activities)

	tests := []struct {
		name       string
		prs        []schema.PullRequest
		issues     []schema.Issue
		activities []schema.ActivityEvent
	}{
		// Count changes
		{"extra pr", []schema.PullRequest{mkPR(base), mkPR(base)}, issues, activities},
		{"dropped issue", prs, nil, activities},
		{"extra activity", prs, issues, []schema.ActivityEvent{mkActivity(base), mkActivity(base)}},

		// Timestamp changes at equal cardinality
		{"newer pr update", []schema.PullRequest{mkPR(base.Add(time.Millisecond))}, issues, activities},
		{"newer issue update", prs, []schema.Issue{mkIssue(base.Add(time.Second))}, activities},
		{"newer activity", prs, issues, []schema.ActivityEvent{mkActivity(base.Add(time.Minute))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HashSnapshot(tt.prs, tt.issues, tt.activities)
			assert.False(t, reference.Equal(got), "hash should differ from %s", reference)
		})
	}
}

func TestHashSnapshotZeroTimes(t *testing.T) {
	// Records carrying a zero timestamp contribute 0, not a negative epoch.
	prs := []schema.PullRequest{{Number: 7, Author: "alice"}}
	got := HashSnapshot(prs, nil, nil)
	assert.Equal(t, schema.ContentHash("1-0-0-0-0-0"), got)
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
