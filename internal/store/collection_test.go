package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmob/backend/internal/domain/catalog"
)

func newTestProduct(t *testing.T, name string) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, decimal.NewFromInt(10), decimal.NewFromInt(15), 5, "acme")
	require.NoError(t, err)
	return *p
}

func TestCollectionAddAndGet(t *testing.T) {
	var c Collection[catalog.Product, *catalog.Product]

	p := newTestProduct(t, "soap")
	c.Add(p)

	got, ok := c.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, "soap", got.Name)
	assert.Equal(t, 1, got.Version)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCollectionUpdateReplacesWholesale(t *testing.T) {
	var c Collection[catalog.Product, *catalog.Product]

	p := newTestProduct(t, "soap")
	c.Add(p)

	p.Name = "soap bar"
	p.Touch()
	require.True(t, c.Update(p))

	got, ok := c.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, "soap bar", got.Name)
	assert.Equal(t, 2, got.Version)

	unknown := newTestProduct(t, "ghost")
	assert.False(t, c.Update(unknown))
}

func TestCollectionDeleteTombstones(t *testing.T) {
	var c Collection[catalog.Product, *catalog.Product]

	p := newTestProduct(t, "soap")
	c.Add(p)

	before, ok := c.Delete(p.ID)
	require.True(t, ok)
	assert.False(t, before.IsDeleted, "returned copy is the pre-delete state")

	// Gone from live reads, still present in the raw slice.
	_, ok = c.Get(p.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	require.Len(t, c.Raw(), 1)
	assert.True(t, c.Raw()[0].IsDeleted)
	assert.Equal(t, 2, c.Raw()[0].Version, "tombstoning bumps the version")

	// Deleting again is a no-op.
	_, ok = c.Delete(p.ID)
	assert.False(t, ok)
}

func TestCollectionWhereFiltersTombstones(t *testing.T) {
	var c Collection[catalog.Product, *catalog.Product]

	a := newTestProduct(t, "soap")
	b := newTestProduct(t, "soda")
	c.Add(a)
	c.Add(b)
	c.Delete(a.ID)

	got := c.Where(func(p *catalog.Product) bool { return p.Supplier == "acme" })
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
}

func TestCollectionCompactKeepsPendingTombstones(t *testing.T) {
	var c Collection[catalog.Product, *catalog.Product]

	synced := newTestProduct(t, "soap")
	pending := newTestProduct(t, "soda")
	live := newTestProduct(t, "salt")
	c.Add(synced)
	c.Add(pending)
	c.Add(live)

	c.Delete(synced.ID)
	c.Delete(pending.ID)

	// Only the first tombstone has been seen by the remote.
	raw := c.Raw()
	for i := range raw {
		if raw[i].ID == synced.ID {
			raw[i].MarkSynced(time.Now())
		}
	}
	c.Replace(raw)

	assert.Equal(t, 1, c.Compact())
	require.Len(t, c.Raw(), 2)
	assert.Equal(t, 1, c.Len())

	// The unsynced tombstone survives so the deletion still propagates.
	ids := []string{c.Raw()[0].ID, c.Raw()[1].ID}
	assert.Contains(t, ids, pending.ID)
	assert.NotContains(t, ids, synced.ID)
}

func TestStoreMutateSignalsChange(t *testing.T) {
	s := New()

	s.Mutate(func(st *State) {
		st.Products.Add(newTestProduct(t, "soap"))
	})

	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a change signal after Mutate")
	}

	s.View(func(st *State) {
		assert.Equal(t, 1, st.Products.Len())
	})
}

func TestStateSnapshotRoundTrip(t *testing.T) {
	s := New()

	s.Mutate(func(st *State) {
		st.Products.Add(newTestProduct(t, "soap"))
		st.Products.Add(newTestProduct(t, "soda"))
		st.SnapshotVersion = 3
	})

	var snap *State
	s.View(func(st *State) {
		data := st.Snapshot()
		other := &State{}
		other.Load(data)
		snap = other
	})

	assert.Equal(t, 2, snap.Products.Len())
	assert.Equal(t, 3, snap.SnapshotVersion)
	assert.Equal(t, "unknown", snap.UserName())
}
