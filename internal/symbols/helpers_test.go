package symbols

import (
	"testing"

	"jaivals/internal/token"
)

func decodeTree(t *testing.T, src string) []token.Node {
	t.Helper()
	nodes, err := token.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return nodes
}

func buildIndex(t *testing.T, file string, table Table, src string) *Index {
	t.Helper()
	return Build(decodeTree(t, src), BuilderOptions{File: file, Table: table})
}

func mustOne(t *testing.T, idx *Index, name string) Record {
	t.Helper()
	records := idx.Get(name)
	if len(records) != 1 {
		t.Fatalf("expected exactly one %q record, got %d: %+v", name, len(records), records)
	}
	return records[0]
}

func block(line, end int, lines ...token.Node) *token.Block {
	return &token.Block{Header: token.Header{Type: token.TCodeblock, Line: line}, LineEnd: end, Lines: lines}
}

func numVar(name string, line int, n float64) *token.Var {
	return &token.Var{Header: token.Header{Type: token.TNumberVar, Name: name, Line: line}, Value: token.Number(n)}
}
