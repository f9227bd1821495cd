package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bizmob/backend/internal/domain/backup"
	"github.com/bizmob/backend/internal/store"
)

// Persister watches the store's change channel and writes the snapshot
// after a quiet period, coalescing bursts of mutations into one write.
// Writes are fire-and-forget: a failed flush is logged and retried on
// the next change.
type Persister struct {
	store    *store.Store
	snaps    *SnapshotStore
	debounce time.Duration
	log      *zap.Logger
}

// NewPersister creates a persister.
func NewPersister(st *store.Store, snaps *SnapshotStore, debounce time.Duration, log *zap.Logger) *Persister {
	return &Persister{store: st, snaps: snaps, debounce: debounce, log: log}
}

// Run blocks until ctx is done, flushing once more on the way out so
// shutdown never loses the latest state.
func (p *Persister) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.flush(context.Background())
			return
		case <-p.store.Changes():
			select {
			case <-time.After(p.debounce):
				p.flush(ctx)
			case <-ctx.Done():
				p.flush(context.Background())
				return
			}
		}
	}
}

func (p *Persister) flush(ctx context.Context) {
	var data *backup.Data
	p.store.View(func(st *store.State) {
		data = st.Snapshot()
	})
	if err := p.snaps.Save(ctx, data); err != nil {
		p.log.Error("persist snapshot", zap.Error(err))
		return
	}
	p.log.Debug("snapshot persisted", zap.Int("version", data.Version))
}
