package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bizmob/backend/internal/domain/backup"
	"github.com/bizmob/backend/internal/domain/catalog"
	"github.com/bizmob/backend/internal/domain/settings"
	"github.com/bizmob/backend/internal/store"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

func (m *memKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) Close() error { return nil }

func testSnapshot(t *testing.T) *backup.Data {
	t.Helper()
	p, err := catalog.NewProduct("soap", decimal.NewFromInt(10), decimal.NewFromInt(15), 5, "acme")
	require.NoError(t, err)
	config, err := settings.NewAppConfig("Shop", "Awa", "franc CFA", "XOF", "F", settings.LanguageFrench, "hash")
	require.NoError(t, err)

	data := backup.Empty()
	data.Products = append(data.Products, *p)
	data.Config = config
	data.Version = 4
	return data
}

func TestSnapshotSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	snaps := NewSnapshotStore(newMemKV(), zap.NewNop())

	saved := testSnapshot(t)
	require.NoError(t, snaps.Save(ctx, saved))

	loaded, err := snaps.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Products, 1)
	assert.Equal(t, saved.Products[0].ID, loaded.Products[0].ID)
	assert.True(t, loaded.Products[0].PurchasePrice.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, loaded.Config)
	assert.Equal(t, "Shop", loaded.Config.BusinessName)
	assert.Equal(t, 4, loaded.Version)
}

func TestSnapshotLoadEmptyBackend(t *testing.T) {
	snaps := NewSnapshotStore(newMemKV(), zap.NewNop())

	loaded, err := snaps.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded.Products)
	assert.Nil(t, loaded.Config)
	assert.Equal(t, 0, loaded.Version)
}

func TestSnapshotClearAndAuthFlag(t *testing.T) {
	ctx := context.Background()
	snaps := NewSnapshotStore(newMemKV(), zap.NewNop())

	require.NoError(t, snaps.Save(ctx, testSnapshot(t)))
	require.NoError(t, snaps.SetAuthenticated(ctx, true))

	authenticated, err := snaps.Authenticated(ctx)
	require.NoError(t, err)
	assert.True(t, authenticated)

	require.NoError(t, snaps.Clear(ctx))

	loaded, err := snaps.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Products)
	assert.Nil(t, loaded.Config)

	authenticated, err = snaps.Authenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authenticated)
}

func TestPersisterFlushesOnChangeAndShutdown(t *testing.T) {
	kv := newMemKV()
	snaps := NewSnapshotStore(kv, zap.NewNop())
	st := store.New()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	persister := NewPersister(st, snaps, 10*time.Millisecond, zap.NewNop())
	go func() {
		persister.Run(ctx)
		close(done)
	}()

	p, err := catalog.NewProduct("soap", decimal.NewFromInt(10), decimal.NewFromInt(15), 5, "")
	require.NoError(t, err)
	st.Mutate(func(s *store.State) {
		s.Products.Add(*p)
	})

	require.Eventually(t, func() bool {
		loaded, lerr := snaps.Load(context.Background())
		return lerr == nil && len(loaded.Products) == 1
	}, time.Second, 10*time.Millisecond)

	// A mutation right before shutdown is flushed on the way out.
	st.Mutate(func(s *store.State) {
		s.SnapshotVersion = 7
	})
	cancel()
	<-done

	loaded, err := snaps.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Version)
}
