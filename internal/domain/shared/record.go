package shared

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus tracks whether a record has been reconciled with the remote.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Record provides the common fields shared by every syncable entity.
// Deletion is a tombstone: records are never removed in place, only
// marked and later compacted.
type Record struct {
	ID                string     `json:"id"`
	Version           int        `json:"version"`
	IsDeleted         bool       `json:"isDeleted"`
	SyncStatus        SyncStatus `json:"syncStatus"`
	LastSyncTimestamp *time.Time `json:"lastSyncTimestamp,omitempty"`
}

// NewRecord creates a record with a fresh id at version 1.
func NewRecord() Record {
	return Record{
		ID:         uuid.NewString(),
		Version:    1,
		SyncStatus: SyncPending,
	}
}

// RecordID returns the opaque unique identifier.
func (r *Record) RecordID() string { return r.ID }

// RecordVersion returns the per-record version counter.
func (r *Record) RecordVersion() int { return r.Version }

// Tombstoned reports whether the record is soft-deleted.
func (r *Record) Tombstoned() bool { return r.IsDeleted }

// Synced reports whether the remote has seen this record state.
func (r *Record) Synced() bool { return r.SyncStatus == SyncSynced }

// Touch bumps the version and flags the record as awaiting sync.
func (r *Record) Touch() {
	r.Version++
	r.SyncStatus = SyncPending
}

// MarkDeleted tombstones the record.
func (r *Record) MarkDeleted() {
	if r.IsDeleted {
		return
	}
	r.IsDeleted = true
	r.Touch()
}

// MarkSynced records a successful reconciliation with the remote.
func (r *Record) MarkSynced(at time.Time) {
	r.SyncStatus = SyncSynced
	t := at
	r.LastSyncTimestamp = &t
}

// Syncable is implemented by every entity that participates in the
// snapshot merge. ModifiedAt is the timestamp used as the fallback
// tie-break when versions are equal.
type Syncable interface {
	RecordID() string
	RecordVersion() int
	Tombstoned() bool
	Synced() bool
	ModifiedAt() time.Time
	Touch()
	MarkDeleted()
	MarkSynced(at time.Time)
}

// RecordPtr constrains a pointer to an entity value to the Syncable
// surface, so collections and the merge can stay generic over the
// concrete entity types.
type RecordPtr[T any] interface {
	*T
	Syncable
}
