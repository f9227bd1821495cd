// Package backup implements snapshot export, import and the full
// application reset.
package backup

import (
	"context"

	"go.uber.org/zap"

	appaudit "github.com/bizmob/backend/internal/application/audit"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/backup"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/store"
)

// Storage is the persisted key space backing the store, cleared on a
// full reset.
type Storage interface {
	Clear(ctx context.Context) error
}

// Service exports, imports and resets the whole data set.
type Service struct {
	store   *store.Store
	storage Storage
	rec     *appaudit.Recorder
	log     *zap.Logger
}

// NewService creates a backup service. Storage may be nil when the
// store is purely in-memory.
func NewService(store *store.Store, storage Storage, rec *appaudit.Recorder, log *zap.Logger) *Service {
	return &Service{store: store, storage: storage, rec: rec, log: log}
}

// Export returns the full snapshot and records the export.
func (s *Service) Export(ctx context.Context) *backup.Data {
	var data *backup.Data
	s.store.Mutate(func(st *store.State) {
		s.rec.Success(st, auditlog.EventExport, auditlog.EntityBackup, "", "Data exported")
		data = st.Snapshot()
	})
	return data
}

// Import replaces the entire state with the given snapshot. A snapshot
// without a config is rejected, since it cannot have come from a
// configured device.
func (s *Service) Import(ctx context.Context, data *backup.Data) error {
	if data == nil || data.Config == nil {
		s.store.Mutate(func(st *store.State) {
			s.rec.Failure(st, auditlog.EventImport, auditlog.EntityBackup, "",
				"Import rejected", "snapshot is missing its configuration")
		})
		return shared.ErrInvalidInput
	}

	s.store.Mutate(func(st *store.State) {
		st.Load(data)
		s.rec.Success(st, auditlog.EventImport, auditlog.EntityBackup, "", "Data imported from backup")
	})
	s.log.Info("snapshot imported",
		zap.Int("version", data.Version),
		zap.Int("products", len(data.Products)),
	)
	return nil
}

// Reset wipes the in-memory state and the persisted key space. The
// audit trail does not survive a reset.
func (s *Service) Reset(ctx context.Context) error {
	s.store.Mutate(func(st *store.State) {
		st.Reset()
	})
	if s.storage != nil {
		if err := s.storage.Clear(ctx); err != nil {
			return err
		}
	}
	s.log.Warn("application reset: all data erased")
	return nil
}
