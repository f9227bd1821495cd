package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	appaudit "github.com/bizmob/backend/internal/application/audit"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/backup"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/store"
)

// Result summarizes one sync run.
type Result struct {
	Version  int       `json:"version"`
	MergedAt time.Time `json:"mergedAt"`
	Pushed   bool      `json:"pushed"`
}

// Service runs the pull, merge, apply, push cycle against the remote
// peer. There is no retry and no rollback: a failed push leaves the
// merged snapshot applied locally, to be pushed by the next run.
type Service struct {
	store  *store.Store
	remote *Client
	rec    *appaudit.Recorder
	log    *zap.Logger
}

// NewService creates a sync service. A nil remote means sync has not
// been configured.
func NewService(store *store.Store, remote *Client, rec *appaudit.Recorder, log *zap.Logger) *Service {
	return &Service{store: store, remote: remote, rec: rec, log: log}
}

// Sync pulls the remote snapshot, merges it with the local one,
// applies the result and pushes it back.
func (s *Service) Sync(ctx context.Context) (*Result, error) {
	if s.remote == nil {
		return nil, shared.ErrNotConfigured
	}

	var local *backup.Data
	s.store.View(func(st *store.State) {
		local = st.Snapshot()
	})

	remote, err := s.remote.Fetch(ctx)
	if err != nil {
		s.store.Mutate(func(st *store.State) {
			s.rec.Failure(st, auditlog.EventError, auditlog.EntityData, "",
				"Synchronization failed while fetching the remote snapshot", err.Error())
		})
		return nil, err
	}

	now := time.Now()
	merged := MergeSnapshot(local, remote, now)
	if merged.Config != nil {
		merged.Config.MarkSynced(now)
	}

	s.store.Mutate(func(st *store.State) {
		st.Load(merged)
		s.rec.Success(st, auditlog.EventExport, auditlog.EntityData, "",
			"Data synchronized with remote")
	})
	s.log.Info("snapshot merged",
		zap.Int("version", merged.Version),
		zap.Int("products", len(merged.Products)),
		zap.Int("sales", len(merged.Sales)),
	)

	if err := s.remote.Push(ctx, merged); err != nil {
		s.store.Mutate(func(st *store.State) {
			s.rec.Failure(st, auditlog.EventError, auditlog.EntityData, "",
				"Push to remote failed, merged snapshot kept locally", err.Error())
		})
		return &Result{Version: merged.Version, MergedAt: now}, err
	}

	s.store.Mutate(func(st *store.State) {
		st.MarkAllSynced(now)
	})
	return &Result{Version: merged.Version, MergedAt: now, Pushed: true}, nil
}

// Compact garbage-collects tombstones the remote has already seen.
func (s *Service) Compact(ctx context.Context) int {
	removed := 0
	s.store.Mutate(func(st *store.State) {
		removed = st.Compact()
	})
	if removed > 0 {
		s.log.Info("tombstones compacted", zap.Int("removed", removed))
	}
	return removed
}
