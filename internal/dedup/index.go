// Package dedup implements the multi-key lookup used to reject duplicate records.
package dedup

import (
	"github.com/lepinkainen/catalogue/internal/fingerprint"
	"github.com/lepinkainen/catalogue/internal/record"
)

// Index maps identity keys to the id of the record that owns them.
// It is built per merge run and is not safe for concurrent use.
type Index struct {
	keys map[string]int64
}

// New builds an index from an existing collection.
func New(existing []record.Record) *Index {
	idx := &Index{keys: make(map[string]int64, len(existing)*4)}
	for _, r := range existing {
		idx.Add(r)
	}
	return idx
}

// Add inserts every identity key of r. Keys already present keep their
// original owner.
func (idx *Index) Add(r record.Record) {
	id := r.ID.Int()
	for _, k := range fingerprint.Keys(r) {
		if _, ok := idx.keys[k]; !ok {
			idx.keys[k] = id
		}
	}
}

// Contains reports whether any key of r is already indexed.
func (idx *Index) Contains(r record.Record) bool {
	_, _, ok := idx.Match(r)
	return ok
}

// Match returns the first key of r found in the index and the id that owns it.
func (idx *Index) Match(r record.Record) (key string, id int64, ok bool) {
	for _, k := range fingerprint.Keys(r) {
		if owner, found := idx.keys[k]; found {
			return k, owner, true
		}
	}
	return "", 0, false
}

// Has reports whether key is indexed.
func (idx *Index) Has(key string) bool {
	_, ok := idx.keys[key]
	return ok
}

// Len returns the number of indexed keys.
func (idx *Index) Len() int {
	return len(idx.keys)
}
