package store

import (
	"time"

	"github.com/bizmob/backend/internal/domain/shared"
)

// Collection holds one entity type keyed by record id. Deletes are
// tombstones: the record stays in the slice with IsDeleted set, reads
// filter it out, and Compact garbage-collects it once synced.
type Collection[T any, P shared.RecordPtr[T]] struct {
	items []T
}

// Add appends a record. No dedup check is performed on the id; a
// colliding add is shadowed by the earlier record on lookup.
func (c *Collection[T, P]) Add(item T) {
	c.items = append(c.items, item)
}

// Update replaces the record with a matching id wholesale, no partial
// patch merge. Version bumping is the caller's concern. Returns false
// when no live record has the id.
func (c *Collection[T, P]) Update(item T) bool {
	id := P(&item).RecordID()
	for i := range c.items {
		p := P(&c.items[i])
		if p.RecordID() == id && !p.Tombstoned() {
			c.items[i] = item
			return true
		}
	}
	return false
}

// Delete tombstones the record with the given id. Returns the record
// as it was before deletion.
func (c *Collection[T, P]) Delete(id string) (T, bool) {
	var zero T
	for i := range c.items {
		p := P(&c.items[i])
		if p.RecordID() == id && !p.Tombstoned() {
			before := c.items[i]
			p.MarkDeleted()
			return before, true
		}
	}
	return zero, false
}

// Get returns a copy of the live record with the given id. Absence is
// not an error.
func (c *Collection[T, P]) Get(id string) (T, bool) {
	var zero T
	for i := range c.items {
		p := P(&c.items[i])
		if p.RecordID() == id && !p.Tombstoned() {
			return c.items[i], true
		}
	}
	return zero, false
}

// All returns copies of every live record in insertion order.
func (c *Collection[T, P]) All() []T {
	out := make([]T, 0, len(c.items))
	for i := range c.items {
		if !P(&c.items[i]).Tombstoned() {
			out = append(out, c.items[i])
		}
	}
	return out
}

// Where returns copies of the live records matching the predicate.
func (c *Collection[T, P]) Where(pred func(*T) bool) []T {
	var out []T
	for i := range c.items {
		if !P(&c.items[i]).Tombstoned() && pred(&c.items[i]) {
			out = append(out, c.items[i])
		}
	}
	return out
}

// Len counts live records.
func (c *Collection[T, P]) Len() int {
	n := 0
	for i := range c.items {
		if !P(&c.items[i]).Tombstoned() {
			n++
		}
	}
	return n
}

// Raw returns every record including tombstones, for snapshots and the
// merge engine.
func (c *Collection[T, P]) Raw() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Replace swaps the whole collection, used when applying a merged or
// imported snapshot.
func (c *Collection[T, P]) Replace(items []T) {
	c.items = make([]T, len(items))
	copy(c.items, items)
}

// MarkSynced flags every record, tombstones included, as reconciled
// with the remote at the given time.
func (c *Collection[T, P]) MarkSynced(at time.Time) {
	for i := range c.items {
		P(&c.items[i]).MarkSynced(at)
	}
}

// Compact removes tombstones that have been synced, returning how many
// were collected. Pending tombstones are kept so the deletion still
// propagates on the next sync.
func (c *Collection[T, P]) Compact() int {
	kept := c.items[:0]
	removed := 0
	for i := range c.items {
		p := P(&c.items[i])
		if p.Tombstoned() && p.Synced() {
			removed++
			continue
		}
		kept = append(kept, c.items[i])
	}
	c.items = kept
	return removed
}
