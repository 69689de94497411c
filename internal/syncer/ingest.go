package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
)

// Event timeline paging limits. GitHub serves at most ten pages of repo
// events regardless of parameters, so fetching stops there even when the
// lookback window is not exhausted.
const (
	maxEventPages = 10
	eventsPerPage = 100
)

// runSync fetches one repository's recent activity and persists it. Pages
// through the event timeline newest-first until the lookback cutoff, the
// page cap, or a short page; keeps only event types the analyses consume;
// derives pull request and issue rows from event payloads; upserts
// everything keyed so that re-syncing the same window is idempotent.
func (t *Trigger) runSync(ctx context.Context, repo schema.RepoRef, retries int) (schema.RunStats, error) {
	now := t.cfg.clock.Now()
	stats := schema.RunStats{
		RunID:     uuid.NewString(),
		StartedAt: now,
	}
	fail := func(phase string, cause error) (schema.RunStats, error) {
		stats.Errors++
		stats.FinishedAt = t.cfg.clock.Now()
		return stats, &SyncError{Repo: repo, Phase: phase, Cause: cause, Time: stats.FinishedAt, Retries: retries}
	}

	store := t.mgr.GetEventStore()
	if store == nil {
		return fail(PhaseStore, fmt.Errorf("event store is not configured. Check that cache-backend is not none"))
	}

	// --- 1. Begin Run Tracking (if configured) ---
	var runID int64
	runStore := t.mgr.GetSyncRunStore()
	if runStore != nil {
		configParams := map[string]any{
			"run_uuid": stats.RunID,
			"repo":     repo.String(),
			"lookback": t.cfg.lookback.String(),
			"retries":  retries,
		}
		var err error
		runID, err = runStore.BeginRun(now, configParams)
		if err != nil {
			contract.LogWarn("Sync run tracking initialization failed", err)
			runID = 0
		}
	}

	// --- 2. Fetch Phase ---
	cutoff := now.Add(-t.cfg.lookback)
	apiCallsBefore := t.source.APICalls()

	var batch []schema.ActivityEvent
	for page := 1; page <= maxEventPages; page++ {
		events, err := t.source.ListEvents(ctx, repo, page)
		if err != nil {
			stats.APICalls = t.source.APICalls() - apiCallsBefore
			return fail(PhaseFetch, err)
		}
		stats.EventsFetched += len(events)

		reachedCutoff := false
		for _, ev := range events {
			if ev.CreatedAt.Before(cutoff) {
				// Pages are newest-first, so everything after this point
				// is older still.
				reachedCutoff = true
				break
			}
			if _, ok := schema.ValidEventTypes[ev.Type]; !ok {
				continue
			}
			ev.Repo = repo
			batch = append(batch, ev)
		}

		if reachedCutoff || len(events) < eventsPerPage {
			break
		}
	}
	stats.APICalls = t.source.APICalls() - apiCallsBefore

	// --- 3. Persist Phase ---
	inserted, err := store.UpsertEvents(batch)
	if err != nil {
		return fail(PhasePersist, err)
	}
	stats.EventsInserted = inserted

	prs, issues := deriveRecords(batch)
	if _, err := store.UpsertPullRequests(repo, prs); err != nil {
		return fail(PhasePersist, err)
	}
	if _, err := store.UpsertIssues(repo, issues); err != nil {
		return fail(PhasePersist, err)
	}

	// --- 4. End Run Tracking ---
	stats.ReposProcessed = 1
	stats.FinishedAt = t.cfg.clock.Now()
	if runStore != nil && runID > 0 {
		if err := runStore.RecordRepoStats(runID, repo, stats); err != nil {
			contract.LogWarn("Failed to record per-repo sync stats", err)
		}
		if err := runStore.EndRun(runID, stats.FinishedAt, stats); err != nil {
			contract.LogWarn("Failed to finalize sync run tracking", err)
		}
	}

	return stats, nil
}

// SyncAll refreshes every given repository over a bounded worker pool.
// One repo failing does not stop the others; the first error is returned
// after all workers drain, and per-repo failures stay visible in Status.
// The aggregated stats count only refreshes that actually ran.
func (t *Trigger) SyncAll(ctx context.Context, repos []schema.RepoRef) (schema.RunStats, error) {
	total := schema.RunStats{
		RunID:     uuid.NewString(),
		StartedAt: t.cfg.clock.Now(),
	}

	var mu sync.Mutex
	var firstErr error

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.workers)
	for _, repo := range repos {
		g.Go(func() error {
			stats, err := t.syncOne(ctx, repo)

			mu.Lock()
			defer mu.Unlock()
			total.Merge(stats)
			if err != nil {
				if stats.Errors == 0 {
					// Gatekeeping refusals carry no stats of their own.
					total.Errors++
				}
				if firstErr == nil {
					firstErr = err
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	total.FinishedAt = t.cfg.clock.Now()
	return total, firstErr
}

// syncOne is the SyncAll per-repo body: the same gatekeeping as Sync, but
// keeping the run stats for aggregation.
func (t *Trigger) syncOne(ctx context.Context, repo schema.RepoRef) (schema.RunStats, error) {
	key := repo.String()

	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return schema.RunStats{}, ErrDisposed
	}
	st := t.statuses[key]
	if st.Busy() {
		t.mu.Unlock()
		return schema.RunStats{}, nil
	}
	if st.Error != nil {
		t.mu.Unlock()
		return schema.RunStats{}, fmt.Errorf("sync for %s previously failed: %w. Check that the failure is resolved, then retry explicitly", repo, st.Error)
	}
	t.mu.Unlock()

	return t.run(ctx, repo, key)
}

// prEventPayload is the slice of a PullRequestEvent payload the ingest
// cares about.
type prEventPayload struct {
	PullRequest struct {
		ID        int64      `json:"id"`
		Number    int        `json:"number"`
		Title     string     `json:"title"`
		State     string     `json:"state"`
		CreatedAt time.Time  `json:"created_at"`
		UpdatedAt time.Time  `json:"updated_at"`
		MergedAt  *time.Time `json:"merged_at"`
		User      struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"pull_request"`
}

// issueEventPayload is the slice of an IssuesEvent payload the ingest
// cares about.
type issueEventPayload struct {
	Issue struct {
		ID        int64      `json:"id"`
		Number    int        `json:"number"`
		Title     string     `json:"title"`
		State     string     `json:"state"`
		CreatedAt time.Time  `json:"created_at"`
		UpdatedAt time.Time  `json:"updated_at"`
		ClosedAt  *time.Time `json:"closed_at"`
		User      struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"issue"`
}

// deriveRecords extracts pull request and issue rows from event payloads,
// keeping the most recently updated row per number. Events with payloads
// that do not parse are skipped; the event row itself was already kept.
func deriveRecords(events []schema.ActivityEvent) ([]schema.PullRequest, []schema.Issue) {
	prByNumber := make(map[int]schema.PullRequest)
	issueByNumber := make(map[int]schema.Issue)

	for _, ev := range events {
		switch ev.Type {
		case schema.PullRequestEvent:
			var payload prEventPayload
			if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.PullRequest.Number == 0 {
				continue
			}
			pr := schema.PullRequest{
				ID:        payload.PullRequest.ID,
				Number:    payload.PullRequest.Number,
				Title:     payload.PullRequest.Title,
				Author:    payload.PullRequest.User.Login,
				State:     payload.PullRequest.State,
				CreatedAt: payload.PullRequest.CreatedAt,
				UpdatedAt: payload.PullRequest.UpdatedAt,
				MergedAt:  payload.PullRequest.MergedAt,
			}
			if prev, ok := prByNumber[pr.Number]; !ok || pr.UpdatedAt.After(prev.UpdatedAt) {
				prByNumber[pr.Number] = pr
			}
		case schema.IssuesEvent:
			var payload issueEventPayload
			if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.Issue.Number == 0 {
				continue
			}
			issue := schema.Issue{
				ID:        payload.Issue.ID,
				Number:    payload.Issue.Number,
				Title:     payload.Issue.Title,
				Author:    payload.Issue.User.Login,
				State:     payload.Issue.State,
				CreatedAt: payload.Issue.CreatedAt,
				UpdatedAt: payload.Issue.UpdatedAt,
				ClosedAt:  payload.Issue.ClosedAt,
			}
			if prev, ok := issueByNumber[issue.Number]; !ok || issue.UpdatedAt.After(prev.UpdatedAt) {
				issueByNumber[issue.Number] = issue
			}
		}
	}

	prs := make([]schema.PullRequest, 0, len(prByNumber))
	for _, pr := range prByNumber {
		prs = append(prs, pr)
	}
	issues := make([]schema.Issue, 0, len(issueByNumber))
	for _, issue := range issueByNumber {
		issues = append(issues, issue)
	}
	return prs, issues
}
