package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/internal/eventstore"
	"github.com/repopulse/repopulse/schema"
)

func TestRequireRepo(t *testing.T) {
	cfg := engineConfig()
	repo, err := requireRepo(cfg)
	require.NoError(t, err)
	assert.Equal(t, testRepo, repo)

	cfg.Repos = nil
	_, err = requireRepo(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no repository given")
}

func TestSuppressHeaderContext(t *testing.T) {
	ctx := context.Background()
	assert.False(t, shouldSuppressHeader(ctx))
	assert.True(t, shouldSuppressHeader(WithSuppressHeader(ctx)))
}

func TestExecuteInsightsEndToEnd(t *testing.T) {
	cfg := engineConfig()
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "insights.json")

	eng, _, store := newTestEngine(cfg)
	defer eng.Dispose()
	store.On("SnapshotSince", testRepo, mock.Anything).Return(snapshotFixture(), nil)

	ctx := WithSuppressHeader(context.Background())
	require.NoError(t, ExecuteInsights(ctx, cfg, eng))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	var result struct {
		Repo         string `json:"repo"`
		WindowDays   int    `json:"window_days"`
		Contributors []struct {
			Rank  int    `json:"rank"`
			Login string `json:"login"`
		} `json:"contributors"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "octocat/hello-world", result.Repo)
	assert.Equal(t, 30, result.WindowDays)
	require.Len(t, result.Contributors, 2)
	assert.Equal(t, 1, result.Contributors[0].Rank)
	assert.Equal(t, "alice", result.Contributors[0].Login)
}

func TestExecuteInsightsAutoSyncOnEmptyWindow(t *testing.T) {
	cfg := engineConfig()
	cfg.AutoSync = true
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "insights.json")

	eng, source, store := newTestEngine(cfg)
	defer eng.Dispose()

	// The first window read comes up empty, the second sees synced rows.
	store.On("SnapshotSince", testRepo, mock.Anything).
		Return(&schema.RepoSnapshot{Repo: testRepo}, nil).Once()
	store.On("SnapshotSince", testRepo, mock.Anything).
		Return(snapshotFixture(), nil).Once()

	source.On("APICalls").Return(0)
	source.On("ListEvents", mock.Anything, testRepo, 1).
		Return([]schema.ActivityEvent{
			{ID: "1", Type: schema.StarEvent, Actor: "carol", CreatedAt: time.Now()},
		}, nil)
	store.On("UpsertEvents", mock.Anything).Return(1, nil)
	store.On("UpsertPullRequests", testRepo, mock.Anything).Return(0, nil)
	store.On("UpsertIssues", testRepo, mock.Anything).Return(0, nil)

	ctx := WithSuppressHeader(context.Background())
	require.NoError(t, ExecuteInsights(ctx, cfg, eng))

	source.AssertNumberOfCalls(t, "ListEvents", 1)
	store.AssertNumberOfCalls(t, "SnapshotSince", 2)
	assert.True(t, eng.Trigger.Status(testRepo).IsComplete)
}

func TestExecuteInsightsEmptyAfterRefresh(t *testing.T) {
	cfg := engineConfig()

	eng, _, store := newTestEngine(cfg)
	defer eng.Dispose()
	store.On("SnapshotSince", testRepo, mock.Anything).
		Return(&schema.RepoSnapshot{Repo: testRepo}, nil)

	ctx := WithSuppressHeader(context.Background())
	err := ExecuteInsights(ctx, cfg, eng)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached events")
}

func TestExecuteConfidenceEndToEnd(t *testing.T) {
	cfg := engineConfig()
	cfg.Mode = schema.ConfidenceMode
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "confidence.json")

	eng, source, store := newTestEngine(cfg)
	defer eng.Dispose()
	store.On("SnapshotSince", testRepo, mock.Anything).Return(snapshotFixture(), nil)
	source.On("GetRepoOverview", mock.Anything, testRepo).
		Return(schema.RepoOverview{Repo: testRepo, Stargazers: 80, Forks: 20}, nil)

	ctx := WithSuppressHeader(context.Background())
	require.NoError(t, ExecuteConfidence(ctx, cfg, eng))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "octocat/hello-world", result["repo"])
	assert.NotEmpty(t, result["label"])
	assert.EqualValues(t, 80, result["total_stargazers"])
	assert.Greater(t, result["score"], 0.0)
}

func TestExecuteConfidenceOverviewError(t *testing.T) {
	cfg := engineConfig()
	cfg.Mode = schema.ConfidenceMode

	eng, source, store := newTestEngine(cfg)
	defer eng.Dispose()
	store.On("SnapshotSince", testRepo, mock.Anything).Return(snapshotFixture(), nil)
	source.On("GetRepoOverview", mock.Anything, testRepo).
		Return(schema.RepoOverview{}, errors.New("connection refused"))

	ctx := WithSuppressHeader(context.Background())
	err := ExecuteConfidence(ctx, cfg, eng)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository overview")
}

func TestExecuteHealthEndToEnd(t *testing.T) {
	cfg := engineConfig()
	cfg.Mode = schema.HealthMode
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "health.json")

	eng, _, store := newTestEngine(cfg)
	defer eng.Dispose()
	store.On("SnapshotSince", testRepo, mock.Anything).Return(snapshotFixture(), nil)

	ctx := WithSuppressHeader(context.Background())
	require.NoError(t, ExecuteHealth(ctx, cfg, eng))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "octocat/hello-world", result["repo"])
	assert.EqualValues(t, 2, result["contributors"])
	assert.Contains(t, result, "health_score")
}

func TestExecuteSyncSkipsExcludedRepos(t *testing.T) {
	other := schema.RepoRef{Owner: "octocat", Name: "spoon-knife"}
	cfg := engineConfig()
	cfg.Repos = []schema.RepoRef{testRepo, other}
	cfg.Excludes = []string{"spoon-knife"}
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "sync.json")

	eng, source, store := newTestEngine(cfg)
	defer eng.Dispose()
	source.On("APICalls").Return(0)
	source.On("ListEvents", mock.Anything, testRepo, 1).
		Return([]schema.ActivityEvent{
			{ID: "1", Type: schema.ForkEvent, Actor: "dave", CreatedAt: time.Now()},
		}, nil)
	store.On("UpsertEvents", mock.Anything).Return(1, nil)
	store.On("UpsertPullRequests", testRepo, mock.Anything).Return(0, nil)
	store.On("UpsertIssues", testRepo, mock.Anything).Return(0, nil)

	ctx := WithSuppressHeader(context.Background())
	require.NoError(t, ExecuteSync(ctx, cfg, eng))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	var report schema.SyncReport
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Outcomes, 2)

	byRepo := make(map[string]schema.RepoSyncOutcome)
	for _, o := range report.Outcomes {
		byRepo[o.Repo] = o
	}
	assert.True(t, byRepo["octocat/spoon-knife"].Skipped)
	assert.True(t, byRepo["octocat/hello-world"].Synced)
	assert.Equal(t, 1, report.Totals.ReposProcessed)

	// The excluded repo never reaches the source.
	source.AssertNumberOfCalls(t, "ListEvents", 1)
}

func TestExecuteSyncNoRepos(t *testing.T) {
	cfg := engineConfig()
	cfg.Repos = nil

	eng, _, _ := newTestEngine(cfg)
	defer eng.Dispose()

	err := ExecuteSync(context.Background(), cfg, eng)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no repositories given")
}

func TestExecuteSyncEverythingExcluded(t *testing.T) {
	cfg := engineConfig()
	cfg.Excludes = []string{"octocat/"}

	eng, _, _ := newTestEngine(cfg)
	defer eng.Dispose()

	ctx := WithSuppressHeader(context.Background())
	err := ExecuteSync(ctx, cfg, eng)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched an exclude pattern")
}

func TestExecuteStatus(t *testing.T) {
	cfg := engineConfig()
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "status.json")

	eng, _, store := newTestEngine(cfg)
	defer eng.Dispose()
	store.On("GetStatus").Return(schema.EventStoreStatus{
		Backend:     "sqlite",
		Connected:   true,
		TotalEvents: 1234,
		TotalRepos:  5,
	}, nil)

	require.NoError(t, ExecuteStatus(context.Background(), cfg, eng))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	var report schema.CacheStatusReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 1234, report.Events.TotalEvents)
	assert.Equal(t, string(schema.NoneBackend), report.SyncRuns.Backend)
	assert.Equal(t, 0, report.Memory.Entries)
}

func TestExecuteStatusStoreError(t *testing.T) {
	cfg := engineConfig()

	eng, _, store := newTestEngine(cfg)
	defer eng.Dispose()
	store.On("GetStatus").Return(schema.EventStoreStatus{}, errors.New("db locked"))

	err := ExecuteStatus(context.Background(), cfg, eng)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event store status unavailable")
}
