package backup_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appaudit "github.com/bizmob/backend/internal/application/audit"
	appbackup "github.com/bizmob/backend/internal/application/backup"
	"github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/backup"
	"github.com/bizmob/backend/internal/domain/catalog"
	"github.com/bizmob/backend/internal/domain/settings"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/store"
)

type memStorage struct {
	cleared bool
}

func (m *memStorage) Clear(ctx context.Context) error {
	m.cleared = true
	return nil
}

func newService(t *testing.T) (*appbackup.Service, *store.Store, *memStorage) {
	t.Helper()
	st := store.New()
	storage := &memStorage{}
	log := zap.NewNop()
	return appbackup.NewService(st, storage, appaudit.NewRecorder(log), log), st, storage
}

func testConfig(t *testing.T) *settings.AppConfig {
	t.Helper()
	config, err := settings.NewAppConfig("Shop", "Awa", "franc CFA", "XOF", "F", settings.LanguageFrench, "hash")
	require.NoError(t, err)
	return config
}

func TestExportRecordsEntry(t *testing.T) {
	svc, st, _ := newService(t)

	p, err := catalog.NewProduct("soap", decimal.NewFromInt(10), decimal.NewFromInt(15), 5, "")
	require.NoError(t, err)
	st.Mutate(func(s *store.State) {
		s.Products.Add(*p)
	})

	data := svc.Export(context.Background())
	require.Len(t, data.Products, 1)
	// The export entry itself is part of the exported trail.
	require.Len(t, data.AuditLogs, 1)
	assert.Equal(t, audit.EventExport, data.AuditLogs[0].EventType)
}

func TestImportReplacesState(t *testing.T) {
	svc, st, _ := newService(t)

	p, err := catalog.NewProduct("soap", decimal.NewFromInt(10), decimal.NewFromInt(15), 5, "")
	require.NoError(t, err)
	snapshot := backup.Empty()
	snapshot.Products = append(snapshot.Products, *p)
	snapshot.Config = testConfig(t)
	snapshot.Version = 9

	require.NoError(t, svc.Import(context.Background(), snapshot))

	st.View(func(s *store.State) {
		assert.Equal(t, 1, s.Products.Len())
		assert.Equal(t, 9, s.SnapshotVersion)
		require.NotNil(t, s.Config)

		imports := s.AuditLogs.Where(func(l *audit.Log) bool { return l.EventType == audit.EventImport })
		require.Len(t, imports, 1)
		assert.Equal(t, audit.StatusSuccess, imports[0].Status)
	})
}

func TestImportRejectsSnapshotWithoutConfig(t *testing.T) {
	svc, st, _ := newService(t)

	err := svc.Import(context.Background(), backup.Empty())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	st.View(func(s *store.State) {
		failures := s.AuditLogs.Where(func(l *audit.Log) bool { return l.Status == audit.StatusFailure })
		require.Len(t, failures, 1)
		assert.Equal(t, audit.EventImport, failures[0].EventType)
	})
}

func TestResetWipesEverything(t *testing.T) {
	svc, st, storage := newService(t)

	st.Mutate(func(s *store.State) {
		s.Config = testConfig(t)
		s.SnapshotVersion = 3
	})

	require.NoError(t, svc.Reset(context.Background()))
	assert.True(t, storage.cleared)

	st.View(func(s *store.State) {
		assert.Nil(t, s.Config)
		assert.Equal(t, 0, s.SnapshotVersion)
		assert.Equal(t, 0, s.AuditLogs.Len())
	})
}
