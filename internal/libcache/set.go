// Package libcache builds, persists and loads the precomputed symbols of the Jaiva standard library.
package libcache

import (
	"slices"

	"jaivals/internal/symbols"
	"jaivals/internal/token"
)

// Set holds normalized library indexes keyed by absolute path.
type Set struct {
	paths   []string
	indexes map[string]*symbols.Index
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{indexes: make(map[string]*symbols.Index)}
}

// Put stores idx under path, replacing any previous index for it.
func (s *Set) Put(path string, idx *symbols.Index) {
	if _, ok := s.indexes[path]; !ok {
		s.paths = append(s.paths, path)
	}
	s.indexes[path] = idx
}

// Lookup implements symbols.Table.
func (s *Set) Lookup(path string) (*symbols.Index, bool) {
	if s == nil {
		return nil, false
	}
	idx, ok := s.indexes[path]
	return idx, ok
}

// Paths returns the library paths in insertion order.
func (s *Set) Paths() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.paths)
}

// Len returns the number of libraries.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.paths)
}

// Prelude unions every library index in path order. Files merge it as their globals.
// Its records are marked Library so importers do not merge them a second time.
func (s *Set) Prelude() *symbols.Index {
	out := symbols.NewIndex()
	if s == nil {
		return out
	}
	for _, p := range s.paths {
		for name, records := range s.indexes[p].All() {
			for i := range records {
				records[i].Library = true
			}
			out.Add(name, records...)
		}
	}
	return out
}

// Normalize reduces idx to its persisted form: only exported, non-parameter records,
// all rescoped to the global range with the global declaration line and no node.
// Empty names are dropped.
func Normalize(idx *symbols.Index) *symbols.Index {
	out := symbols.NewIndex()
	for name, records := range idx.All() {
		if name == "" {
			continue
		}
		kept := records[:0]
		for _, r := range records {
			if !r.Exportable() {
				continue
			}
			r.Range = symbols.Global
			r.DeclLine = token.GlobalLine
			r.Node = nil
			kept = append(kept, r)
		}
		if len(kept) > 0 {
			out.Add(name, kept...)
		}
	}
	return out
}
