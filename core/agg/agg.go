// Package agg has aggregation logic for cached repository activity.
package agg

import (
	"sort"
	"time"

	"github.com/repopulse/repopulse/schema"
)

// returningAfter is the minimum span between a contributor's first and
// last touch before they count as returning rather than drive-by.
const returningAfter = 24 * time.Hour

// CollectContributors rolls a snapshot up into per-contributor stats.
// Pull request and issue authorship comes from the derived rows; review
// and comment counts come from timeline events. Bot accounts are
// excluded. Results are sorted by login; ranking happens later.
func CollectContributors(snap *schema.RepoSnapshot) []schema.ContributorStat {
	if snap == nil {
		return nil
	}

	byLogin := make(map[string]*schema.ContributorStat)

	touch := func(login string, at time.Time) *schema.ContributorStat {
		if login == "" || schema.IsBot(login) {
			return nil
		}
		s, ok := byLogin[login]
		if !ok {
			s = &schema.ContributorStat{Login: login}
			byLogin[login] = s
		}
		if !at.IsZero() {
			if s.FirstSeen.IsZero() || at.Before(s.FirstSeen) {
				s.FirstSeen = at
			}
			if at.After(s.LastSeen) {
				s.LastSeen = at
			}
		}
		return s
	}

	// 1. Pull request authorship (derived rows, one per PR number).
	for i := range snap.PullRequests {
		pr := &snap.PullRequests[i]
		s := touch(pr.Author, pr.CreatedAt)
		if s == nil {
			continue
		}
		s.PullRequests++
		if pr.Merged() {
			s.MergedPRs++
		}
	}

	// 2. Issue authorship.
	for i := range snap.Issues {
		issue := &snap.Issues[i]
		if s := touch(issue.Author, issue.CreatedAt); s != nil {
			s.Issues++
		}
	}

	// 3. Review and comment activity from the raw timeline. PR and
	// issue open events are already covered by the derived rows above;
	// star, fork and watch events count as observation, not
	// contribution.
	for i := range snap.Activities {
		ev := &snap.Activities[i]
		switch ev.Type {
		case schema.PullRequestReviewEvent:
			if s := touch(ev.Actor, ev.CreatedAt); s != nil {
				s.Reviews++
			}
		case schema.IssueCommentEvent:
			if s := touch(ev.Actor, ev.CreatedAt); s != nil {
				s.Comments++
			}
		}
	}

	// 4. Finalize: PR share plus stable ordering.
	var totalPRs int
	for _, s := range byLogin {
		totalPRs += s.PullRequests
	}

	stats := make([]schema.ContributorStat, 0, len(byLogin))
	for _, s := range byLogin {
		if totalPRs > 0 {
			s.Share = float64(s.PullRequests) / float64(totalPRs)
		}
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Login < stats[j].Login
	})

	return stats
}

// CollectConfidenceInputs derives the aggregates the confidence score
// needs. Stargazer and forker totals prefer the repository overview;
// when the overview is empty (offline run) distinct watch and fork
// actors from the window stand in.
func CollectConfidenceInputs(snap *schema.RepoSnapshot, overview schema.RepoOverview, stats []schema.ContributorStat) schema.ConfidenceInputs {
	var in schema.ConfidenceInputs
	if snap != nil {
		in.Repo = snap.Repo.String()
		in.WindowEvents = len(snap.Activities)
	}

	in.TotalStargazers = overview.Stargazers
	in.TotalForkers = overview.Forks
	if in.TotalStargazers == 0 && in.TotalForkers == 0 && snap != nil {
		in.TotalStargazers, in.TotalForkers = countObservers(snap.Activities)
	}

	in.ContributorCount = len(stats)
	for _, s := range stats {
		in.TotalPRs += s.PullRequests
		in.MergedPRs += s.MergedPRs
		if !s.FirstSeen.IsZero() && s.LastSeen.Sub(s.FirstSeen) >= returningAfter {
			in.ReturningContributors++
		}
	}

	return in
}

// ContributionValues extracts each contributor's total activity for
// spread metrics.
func ContributionValues(stats []schema.ContributorStat) []float64 {
	values := make([]float64, len(stats))
	for i, s := range stats {
		values[i] = float64(s.PullRequests + s.Reviews + s.Comments + s.Issues)
	}
	return values
}

// countObservers counts distinct stargazer and forker logins in the
// window events.
func countObservers(events []schema.ActivityEvent) (stars, forks int) {
	starSet := make(map[string]struct{})
	forkSet := make(map[string]struct{})
	for i := range events {
		ev := &events[i]
		if ev.Actor == "" {
			continue
		}
		switch ev.Type {
		case schema.WatchEvent, schema.StarEvent:
			starSet[ev.Actor] = struct{}{}
		case schema.ForkEvent:
			forkSet[ev.Actor] = struct{}{}
		}
	}
	return len(starSet), len(forkSet)
}
