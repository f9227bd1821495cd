// Package sync reconciles the local snapshot with a remote peer using
// last-write-wins: per record, the higher version wins, a later
// modification time breaks version ties, and a remote tombstone always
// wins. The merge is deterministic and idempotent; merging the same
// pair twice yields the same records.
package sync

import (
	"time"

	"github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/backup"
	"github.com/bizmob/backend/internal/domain/catalog"
	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/settings"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/domain/trade"
)

// MergeCollection merges one entity collection. Records only known
// remotely are inserted and marked synced at the given time; records
// known on both sides are resolved by remoteWins.
func MergeCollection[T any, P shared.RecordPtr[T]](local, remote []T, now time.Time) []T {
	remoteByID := make(map[string]int, len(remote))
	for i := range remote {
		remoteByID[P(&remote[i]).RecordID()] = i
	}

	merged := make([]T, 0, len(local)+len(remote))
	seen := make(map[string]bool, len(local))
	for i := range local {
		id := P(&local[i]).RecordID()
		seen[id] = true
		j, ok := remoteByID[id]
		if ok && remoteWins(P(&local[i]), P(&remote[j])) {
			merged = append(merged, remote[j])
			continue
		}
		merged = append(merged, local[i])
	}

	for i := range remote {
		if seen[P(&remote[i]).RecordID()] {
			continue
		}
		item := remote[i]
		P(&item).MarkSynced(now)
		merged = append(merged, item)
	}
	return merged
}

// remoteWins resolves a record present on both sides.
func remoteWins(local, remote shared.Syncable) bool {
	if remote.Tombstoned() {
		return true
	}
	if remote.RecordVersion() != local.RecordVersion() {
		return remote.RecordVersion() > local.RecordVersion()
	}
	return remote.ModifiedAt().After(local.ModifiedAt())
}

// MergeSnapshot merges two full snapshots. The merged snapshot's
// global version is one past the higher of the two inputs so a
// re-merge on either side sees it as newer.
func MergeSnapshot(local, remote *backup.Data, now time.Time) *backup.Data {
	version := local.Version
	if remote.Version > version {
		version = remote.Version
	}

	return &backup.Data{
		Products:          MergeCollection[catalog.Product, *catalog.Product](local.Products, remote.Products, now),
		Sales:             MergeCollection[trade.Sale, *trade.Sale](local.Sales, remote.Sales, now),
		Purchases:         MergeCollection[trade.Purchase, *trade.Purchase](local.Purchases, remote.Purchases, now),
		Clients:           MergeCollection[partner.Client, *partner.Client](local.Clients, remote.Clients, now),
		Debts:             MergeCollection[partner.Debt, *partner.Debt](local.Debts, remote.Debts, now),
		AuditLogs:         MergeCollection[audit.Log, *audit.Log](local.AuditLogs, remote.AuditLogs, now),
		Config:            mergeConfig(local.Config, remote.Config),
		LastSyncTimestamp: &now,
		Version:           version + 1,
	}
}

// mergeConfig resolves the config singleton by its own version
// counter, local winning ties.
func mergeConfig(local, remote *settings.AppConfig) *settings.AppConfig {
	switch {
	case local == nil:
		return remote
	case remote == nil:
		return local
	case remote.Version > local.Version:
		return remote
	default:
		return local
	}
}
