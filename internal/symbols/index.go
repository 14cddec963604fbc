// Package symbols builds the flat, line-range scoped symbol index of a Jaiva file
// and answers visibility queries against it.
package symbols

import (
	"slices"

	"golang.org/x/text/unicode/norm"

	"jaivals/internal/mmap"
)

// Index maps a name to its records in discovery order.
type Index = mmap.MultiMap[string, Record]

// NewIndex returns an empty index.
func NewIndex() *Index {
	return mmap.New[string, Record]()
}

// Table looks up the published index of another file by absolute path.
type Table interface {
	Lookup(path string) (*Index, bool)
}

// MapTable is a Table backed by a plain map. It is not safe for concurrent writes.
type MapTable map[string]*Index

// Lookup implements Table.
func (t MapTable) Lookup(path string) (*Index, bool) {
	idx, ok := t[path]
	return idx, ok && idx != nil
}

// Normalize canonicalizes a symbol name before it is stored or looked up.
func Normalize(name string) string {
	return norm.NFC.String(name)
}

// Exports returns a new index holding, for every name with at least one exportable
// record, the first such record. allow restricts the names when non-empty.
// Returned records keep their original range; callers decide how to rescope them.
func Exports(idx *Index, allow []string) *Index {
	filtered := idx.Filter(func(name string, records []Record) bool {
		if len(allow) > 0 && !slices.Contains(allow, name) {
			return false
		}
		return slices.ContainsFunc(records, Record.Exportable)
	})
	out := NewIndex()
	for name, records := range filtered.All() {
		first := records[slices.IndexFunc(records, Record.Exportable)]
		out.Set(name, first)
	}
	return out
}

// Globalize returns a copy of idx with every record rescoped to Global.
func Globalize(idx *Index) *Index {
	out := NewIndex()
	for name, records := range idx.All() {
		for i := range records {
			records[i].Range = Global
		}
		out.Add(name, records...)
	}
	return out
}

// Count returns the total number of records in idx.
func Count(idx *Index) int {
	total := 0
	for _, records := range idx.All() {
		total += len(records)
	}
	return total
}
