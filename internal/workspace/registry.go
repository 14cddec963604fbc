// Package workspace keeps the published symbol index of every file and drives
// indexing of whole projects.
package workspace

import (
	"slices"
	"sync"

	"jaivals/internal/libcache"
	projectpkg "jaivals/internal/project"
	"jaivals/internal/symbols"
)

// Entry is the published state of one file. Index must not be mutated once published.
type Entry struct {
	Path    string
	Index   *symbols.Index
	Digest  projectpkg.Digest // of the raw token tree the index was built from
	Imports []string          // resolved absolute paths of non-reserved imports
	Library bool
}

// Registry maps absolute file paths to their published entries. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	files map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{files: make(map[string]Entry)}
}

// Publish replaces the entry for e.Path as a whole.
func (r *Registry) Publish(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[e.Path] = e
}

// PublishLibraries publishes every index of set as a library entry.
func (r *Registry) PublishLibraries(set *libcache.Set) {
	for _, p := range set.Paths() {
		idx, _ := set.Lookup(p)
		r.Publish(Entry{Path: p, Index: idx, Library: true})
	}
}

// Lookup implements symbols.Table.
func (r *Registry) Lookup(path string) (*symbols.Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.files[path]
	if !ok || e.Index == nil {
		return nil, false
	}
	return e.Index, true
}

// Entry returns the published entry for path.
func (r *Registry) Entry(path string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.files[path]
	return e, ok
}

// Remove drops path and reports whether it was present.
func (r *Registry) Remove(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.files[path]
	delete(r.files, path)
	return ok
}

// Paths returns the published source paths, sorted. Libraries are left out.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.files))
	for p, e := range r.files {
		if !e.Library {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

// Importers returns the sorted source paths whose imports include any of paths,
// followed transitively.
func (r *Registry) Importers(paths ...string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(paths))
	queue := slices.Clone(paths)
	for _, p := range paths {
		seen[p] = true
	}
	var out []string
	for len(queue) > 0 {
		target := queue[0]
		queue = queue[1:]
		for p, e := range r.files {
			if seen[p] || e.Library || !slices.Contains(e.Imports, target) {
				continue
			}
			seen[p] = true
			out = append(out, p)
			queue = append(queue, p)
		}
	}
	slices.Sort(out)
	return out
}
