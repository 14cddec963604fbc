package symbols

// Resolve returns the first record in list order that is visible at line.
// It does not prefer narrower scopes.
func Resolve(records []Record, line int) (Record, bool) {
	for _, r := range records {
		if r.VisibleAt(line) {
			return r, true
		}
	}
	return Record{}, false
}

// Lookup resolves name in idx at line.
func Lookup(idx *Index, name string, line int) (Record, bool) {
	if idx == nil {
		return Record{}, false
	}
	return Resolve(idx.Get(Normalize(name)), line)
}

// Visible returns, for every name in idx, the record Resolve picks at line.
// Names are visited in index order.
func Visible(idx *Index, line int) []Record {
	if idx == nil {
		return nil
	}
	out := make([]Record, 0, idx.Len())
	for _, records := range idx.All() {
		if r, ok := Resolve(records, line); ok {
			out = append(out, r)
		}
	}
	return out
}
