package contract

import (
	"context"
	"time"

	"github.com/repopulse/repopulse/schema"
	"github.com/stretchr/testify/mock"
)

// MockEventSource is a mock type for the EventSource type.
type MockEventSource struct {
	mock.Mock
}

var _ EventSource = &MockEventSource{} // Compile-time check

// ListEvents implements the contract.EventSource interface.
func (m *MockEventSource) ListEvents(ctx context.Context, repo schema.RepoRef, page int) ([]schema.ActivityEvent, error) {
	ret := m.Called(ctx, repo, page)
	events, _ := ret.Get(0).([]schema.ActivityEvent)
	return events, ret.Error(1)
}

// ListPullRequests implements the contract.EventSource interface.
func (m *MockEventSource) ListPullRequests(ctx context.Context, repo schema.RepoRef, since time.Time) ([]schema.PullRequest, error) {
	ret := m.Called(ctx, repo, since)
	prs, _ := ret.Get(0).([]schema.PullRequest)
	return prs, ret.Error(1)
}

// ListIssues implements the contract.EventSource interface.
func (m *MockEventSource) ListIssues(ctx context.Context, repo schema.RepoRef, since time.Time) ([]schema.Issue, error) {
	ret := m.Called(ctx, repo, since)
	issues, _ := ret.Get(0).([]schema.Issue)
	return issues, ret.Error(1)
}

// GetRepoOverview implements the contract.EventSource interface.
func (m *MockEventSource) GetRepoOverview(ctx context.Context, repo schema.RepoRef) (schema.RepoOverview, error) {
	ret := m.Called(ctx, repo)
	overview, _ := ret.Get(0).(schema.RepoOverview)
	return overview, ret.Error(1)
}

// APICalls implements the contract.EventSource interface.
func (m *MockEventSource) APICalls() int {
	ret := m.Called()
	n, _ := ret.Get(0).(int)
	return n
}
