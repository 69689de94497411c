package algo

import (
	"testing"

	"github.com/repopulse/repopulse/schema"
	"github.com/stretchr/testify/assert"
)

// TestRankContributors verifies descending activity order and limit
// truncation.
func TestRankContributors(t *testing.T) {
	stats := []schema.ContributorStat{
		{Login: "carol", PullRequests: 2, Comments: 1},
		{Login: "alice", PullRequests: 10, Reviews: 5},
		{Login: "bob", PullRequests: 4, Issues: 2},
	}

	ranked := RankContributors(stats, 2)

	assert.Len(t, ranked, 2)
	assert.Equal(t, "alice", ranked[0].Login)
	assert.Equal(t, "bob", ranked[1].Login)
}

// TestRankContributorsLimitExceedsLen returns everything when the limit
// is larger than the input.
func TestRankContributorsLimitExceedsLen(t *testing.T) {
	stats := []schema.ContributorStat{
		{Login: "alice", PullRequests: 1},
		{Login: "bob", PullRequests: 3},
	}

	ranked := RankContributors(stats, 100)

	assert.Len(t, ranked, 2)
	assert.Equal(t, "bob", ranked[0].Login)
	assert.Equal(t, "alice", ranked[1].Login)
}

// TestRankContributorsTieBreak keeps ties deterministic by login.
func TestRankContributorsTieBreak(t *testing.T) {
	stats := []schema.ContributorStat{
		{Login: "zoe", PullRequests: 3},
		{Login: "amy", PullRequests: 3},
		{Login: "mia", PullRequests: 3},
	}

	ranked := RankContributors(stats, 10)

	assert.Equal(t, "amy", ranked[0].Login)
	assert.Equal(t, "mia", ranked[1].Login)
	assert.Equal(t, "zoe", ranked[2].Login)
}

// TestRankContributorsEmpty handles an empty input without panicking.
func TestRankContributorsEmpty(t *testing.T) {
	ranked := RankContributors(nil, 5)
	assert.Empty(t, ranked)
}
