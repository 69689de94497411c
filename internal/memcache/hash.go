package memcache

import (
	"fmt"
	"time"

	"github.com/repopulse/repopulse/schema"
)

// HashSnapshot derives a content hash for one repository's data window.
// The hash folds together the record counts and the most recent modification
// timestamp of each record kind, so a grouping cache keyed on it is
// invalidated both when records are added or removed and when an existing
// record is touched (a PR merged, an issue closed) without the counts moving.
//
// The format is "{prs}-{issues}-{activities}-{maxPR}-{maxIssue}-{maxActivity}"
// with timestamps in epoch milliseconds and 0 standing in for an empty slice.
// Single pass over each slice, no sorting, no allocation beyond the result.
func HashSnapshot(prs []schema.PullRequest, issues []schema.Issue, activities []schema.ActivityEvent) schema.ContentHash {
	var maxPR, maxIssue, maxActivity int64

	for i := range prs {
		if ms := epochMillis(prs[i].UpdatedAt); ms > maxPR {
			maxPR = ms
		}
	}
	for i := range issues {
		if ms := epochMillis(issues[i].UpdatedAt); ms > maxIssue {
			maxIssue = ms
		}
	}
	for i := range activities {
		if ms := epochMillis(activities[i].CreatedAt); ms > maxActivity {
			maxActivity = ms
		}
	}

	return schema.ContentHash(fmt.Sprintf("%d-%d-%d-%d-%d-%d",
		len(prs), len(issues), len(activities), maxPR, maxIssue, maxActivity))
}

// epochMillis converts a timestamp to epoch milliseconds. Zero times map to
// 0 so records with missing timestamps hash the same as an empty window.
func epochMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
