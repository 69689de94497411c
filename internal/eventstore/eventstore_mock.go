package eventstore

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetEventStore implements the StoreManager interface.
func (m *MockStoreManager) GetEventStore() contract.EventStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.EventStore)
	return store
}

// GetSyncRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetSyncRunStore() contract.SyncRunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SyncRunStore)
	return store
}

// MockEventStore is a mock implementation of EventStore for testing.
type MockEventStore struct {
	mock.Mock
}

var _ contract.EventStore = &MockEventStore{} // Compile-time check

// UpsertEvents implements the EventStore interface.
func (m *MockEventStore) UpsertEvents(events []schema.ActivityEvent) (int, error) {
	args := m.Called(events)
	return args.Int(0), args.Error(1)
}

// UpsertPullRequests implements the EventStore interface.
func (m *MockEventStore) UpsertPullRequests(repo schema.RepoRef, prs []schema.PullRequest) (int, error) {
	args := m.Called(repo, prs)
	return args.Int(0), args.Error(1)
}

// UpsertIssues implements the EventStore interface.
func (m *MockEventStore) UpsertIssues(repo schema.RepoRef, issues []schema.Issue) (int, error) {
	args := m.Called(repo, issues)
	return args.Int(0), args.Error(1)
}

// SnapshotSince implements the EventStore interface.
func (m *MockEventStore) SnapshotSince(repo schema.RepoRef, since time.Time) (*schema.RepoSnapshot, error) {
	args := m.Called(repo, since)
	snapshot, _ := args.Get(0).(*schema.RepoSnapshot)
	return snapshot, args.Error(1)
}

// AllEvents implements the EventStore interface.
func (m *MockEventStore) AllEvents() ([]schema.ActivityEvent, error) {
	args := m.Called()
	events, _ := args.Get(0).([]schema.ActivityEvent)
	return events, args.Error(1)
}

// LastEventTime implements the EventStore interface.
func (m *MockEventStore) LastEventTime(repo schema.RepoRef) (time.Time, error) {
	args := m.Called(repo)
	ts, _ := args.Get(0).(time.Time)
	return ts, args.Error(1)
}

// GetStatus implements the EventStore interface.
func (m *MockEventStore) GetStatus() (schema.EventStoreStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.EventStoreStatus)
	return status, args.Error(1)
}

// Close implements the EventStore interface.
func (m *MockEventStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSyncRunStore is a mock implementation of SyncRunStore for testing.
type MockSyncRunStore struct {
	mock.Mock
}

var _ contract.SyncRunStore = &MockSyncRunStore{} // Compile-time check

// BeginRun implements the SyncRunStore interface.
func (m *MockSyncRunStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the SyncRunStore interface.
func (m *MockSyncRunStore) EndRun(runID int64, endTime time.Time, stats schema.RunStats) error {
	args := m.Called(runID, endTime, stats)
	return args.Error(0)
}

// RecordRepoStats implements the SyncRunStore interface.
func (m *MockSyncRunStore) RecordRepoStats(runID int64, repo schema.RepoRef, stats schema.RunStats) error {
	args := m.Called(runID, repo, stats)
	return args.Error(0)
}

// GetAllSyncRuns implements the SyncRunStore interface.
func (m *MockSyncRunStore) GetAllSyncRuns() ([]schema.SyncRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.SyncRunRecord)
	return runs, args.Error(1)
}

// GetAllRepoSyncStats implements the SyncRunStore interface.
func (m *MockSyncRunStore) GetAllRepoSyncStats() ([]schema.RepoSyncRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.RepoSyncRecord)
	return records, args.Error(1)
}

// GetStatus implements the SyncRunStore interface.
func (m *MockSyncRunStore) GetStatus() (schema.SyncRunStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.SyncRunStatus)
	return status, args.Error(1)
}

// Close implements the SyncRunStore interface.
func (m *MockSyncRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
