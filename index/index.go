// Package index provides the secondary index: a per-field mapping from
// canonical field value to the set of record ids holding that value.
//
// The index is derived data. It is rebuilt from the full snapshot after every
// successful persisted write and is never patched incrementally, so it cannot
// diverge from the snapshot across partial updates.
package index

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/docstore/record"
)

// Inverted maps field -> canonical value key -> id bitmap for the configured
// indexed fields. It is safe for concurrent use.
type Inverted struct {
	fields []string

	mu       sync.RWMutex
	postings map[string]map[string]*roaring64.Bitmap
}

// New creates an empty index over the given fields.
func New(fields ...string) *Inverted {
	return &Inverted{
		fields:   fields,
		postings: make(map[string]map[string]*roaring64.Bitmap),
	}
}

// Fields returns the indexed field names.
func (ix *Inverted) Fields() []string { return ix.fields }

// Has reports whether the field is indexed.
func (ix *Inverted) Has(field string) bool {
	for _, f := range ix.fields {
		if f == field {
			return true
		}
	}
	return false
}

// Rebuild derives the index from a full snapshot pass, replacing all
// previous postings.
func (ix *Inverted) Rebuild(snap record.Snapshot) {
	postings := make(map[string]map[string]*roaring64.Bitmap, len(ix.fields))
	for _, field := range ix.fields {
		postings[field] = make(map[string]*roaring64.Bitmap)
	}

	for id, rec := range snap {
		for _, field := range ix.fields {
			v, ok := rec[field]
			if !ok {
				continue
			}
			key, ok := record.CanonicalKey(v)
			if !ok {
				continue
			}
			bm, ok := postings[field][key]
			if !ok {
				bm = roaring64.New()
				postings[field][key] = bm
			}
			bm.Add(uint64(id))
		}
	}

	ix.mu.Lock()
	ix.postings = postings
	ix.mu.Unlock()
}

// Lookup resolves the candidate id set for field == value in ascending id
// order. ok is false if the field is not indexed or the value is not an
// indexable scalar, in which case the caller must fall back to a full scan.
func (ix *Inverted) Lookup(field string, value any) ([]record.ID, bool) {
	if !ix.Has(field) {
		return nil, false
	}
	key, ok := record.CanonicalKey(value)
	if !ok {
		return nil, false
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	bm, ok := ix.postings[field][key]
	if !ok {
		return nil, true
	}
	raw := bm.ToArray()
	ids := make([]record.ID, len(raw))
	for i, u := range raw {
		ids[i] = record.ID(u)
	}
	return ids, true
}

// Cardinality returns the number of ids indexed under field == value.
func (ix *Inverted) Cardinality(field string, value any) uint64 {
	key, ok := record.CanonicalKey(value)
	if !ok {
		return 0
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	bm, ok := ix.postings[field][key]
	if !ok {
		return 0
	}
	return bm.GetCardinality()
}
