// Package eventstore persists fetched repository activity and sync-run
// history across database backends.
package eventstore

import (
	"sync"

	"github.com/repopulse/repopulse/internal/contract"
)

// StoreManagerImpl manages the event store and sync-run store instances.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	events       contract.EventStore
	syncRuns     contract.SyncRunStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetEventStore returns the persistent EventStore.
func (mgr *StoreManagerImpl) GetEventStore() contract.EventStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.events
}

// GetSyncRunStore returns the SyncRunStore.
func (mgr *StoreManagerImpl) GetSyncRunStore() contract.SyncRunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.syncRuns
}
