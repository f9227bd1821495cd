// Package store holds the canonical in-memory state: one collection
// per entity type plus the config singleton. All mutations run under a
// single lock so no two mutations ever interleave; persistence is a
// separate, asynchronous concern notified through the change channel.
package store

import (
	"sync"
	"time"

	"github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/backup"
	"github.com/bizmob/backend/internal/domain/catalog"
	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/settings"
	"github.com/bizmob/backend/internal/domain/trade"
)

// State is the full mutable state guarded by the store's lock.
// Services receive it inside Mutate/View closures and must not retain
// references past the closure.
type State struct {
	Products  Collection[catalog.Product, *catalog.Product]
	Sales     Collection[trade.Sale, *trade.Sale]
	Purchases Collection[trade.Purchase, *trade.Purchase]
	Clients   Collection[partner.Client, *partner.Client]
	Debts     Collection[partner.Debt, *partner.Debt]
	AuditLogs Collection[audit.Log, *audit.Log]

	Config *settings.AppConfig

	// SnapshotVersion is the global backup/sync counter, advanced by
	// each merge.
	SnapshotVersion   int
	LastSyncTimestamp *time.Time
}

// UserName returns the configured actor name for audit entries.
func (s *State) UserName() string {
	if s.Config == nil {
		return "unknown"
	}
	return s.Config.UserName
}

// Snapshot assembles the full interchange document from the current
// state, tombstones included.
func (s *State) Snapshot() *backup.Data {
	return &backup.Data{
		Products:          s.Products.Raw(),
		Sales:             s.Sales.Raw(),
		Purchases:         s.Purchases.Raw(),
		Clients:           s.Clients.Raw(),
		Debts:             s.Debts.Raw(),
		Config:            s.Config,
		AuditLogs:         s.AuditLogs.Raw(),
		LastSyncTimestamp: s.LastSyncTimestamp,
		Version:           s.SnapshotVersion,
	}
}

// Load replaces the entire state from a snapshot document.
func (s *State) Load(data *backup.Data) {
	s.Products.Replace(data.Products)
	s.Sales.Replace(data.Sales)
	s.Purchases.Replace(data.Purchases)
	s.Clients.Replace(data.Clients)
	s.Debts.Replace(data.Debts)
	s.AuditLogs.Replace(data.AuditLogs)
	s.Config = data.Config
	s.SnapshotVersion = data.Version
	s.LastSyncTimestamp = data.LastSyncTimestamp
}

// Reset clears every collection and the config.
func (s *State) Reset() {
	s.Load(backup.Empty())
	s.Config = nil
	s.SnapshotVersion = 0
	s.LastSyncTimestamp = nil
}

// MarkAllSynced flags every record in every collection as reconciled
// with the remote, called after a successful push.
func (s *State) MarkAllSynced(at time.Time) {
	s.Products.MarkSynced(at)
	s.Sales.MarkSynced(at)
	s.Purchases.MarkSynced(at)
	s.Clients.MarkSynced(at)
	s.Debts.MarkSynced(at)
	s.AuditLogs.MarkSynced(at)
}

// Compact garbage-collects synced tombstones across all collections,
// returning the total removed.
func (s *State) Compact() int {
	return s.Products.Compact() +
		s.Sales.Compact() +
		s.Purchases.Compact() +
		s.Clients.Compact() +
		s.Debts.Compact() +
		s.AuditLogs.Compact()
}

// Store serializes access to the state and signals changes for the
// background persister.
type Store struct {
	mu      sync.RWMutex
	state   State
	changes chan struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		changes: make(chan struct{}, 1),
	}
}

// Mutate runs fn with exclusive access to the state and then signals
// the change channel.
func (s *Store) Mutate(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.notify()
}

// View runs fn with shared read access to the state.
func (s *Store) View(fn func(*State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// Changes delivers at most one pending signal per flush; the persister
// drains it with its own debounce.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
