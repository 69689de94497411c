package algo

import (
	"sort"

	"github.com/repopulse/repopulse/schema"
)

// totalActivity is the sort key for contributor ranking.
func totalActivity(s schema.ContributorStat) int {
	return s.PullRequests + s.Reviews + s.Comments + s.Issues
}

// RankContributors sorts contributors by total activity in descending
// order and returns the top 'limit' entries. Ties break alphabetically
// by login so output is stable across runs. If limit is greater than
// the number of contributors, all are returned in sorted order.
func RankContributors(stats []schema.ContributorStat, limit int) []schema.ContributorStat {
	sort.Slice(stats, func(i, j int) bool {
		ti, tj := totalActivity(stats[i]), totalActivity(stats[j])
		if ti != tj {
			return ti > tj
		}
		return stats[i].Login < stats[j].Login
	})
	if len(stats) > limit {
		return stats[:limit]
	}
	return stats
}
