package completion

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"jaivals/internal/symbols"
	"jaivals/internal/token"
)

func labels(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Label
	}
	return out
}

func findItem(items []Item, label string) (Item, bool) {
	for _, item := range items {
		if item.Label == label {
			return item, true
		}
	}
	return Item{}, false
}

func functionIndex(t *testing.T) *symbols.Index {
	t.Helper()
	nodes := []token.Node{
		&token.Var{Header: token.Header{Type: token.TNumberVar, Name: "top", Line: 1}, Value: token.Number(1)},
		&token.Function{
			Header: token.Header{Type: token.TFunction, Name: "F~add", Line: 2},
			Params: []token.Param{{Name: "a"}, {Name: "b", Optional: true}},
			Body: &token.Block{
				Header:  token.Header{Type: token.TCodeblock, Line: 2},
				LineEnd: 10,
				Lines: []token.Node{
					&token.WhileLoop{
						Header: token.Header{Type: token.TWhileLoop, Line: 4},
						Body: &token.Block{
							Header:  token.Header{Type: token.TCodeblock, Line: 4},
							LineEnd: 6,
							Lines: []token.Node{
								&token.Var{Header: token.Header{Type: token.TStringVar, Name: "inner", Line: 5}, Value: token.String("x")},
							},
						},
					},
				},
			},
		},
	}
	return symbols.Build(nodes, symbols.BuilderOptions{File: "/src/main.jiv"})
}

func TestFunctionSnippet(t *testing.T) {
	items := Symbols(functionIndex(t), 3)
	add, ok := findItem(items, "add")
	if !ok {
		t.Fatalf("expected add in %v", labels(items))
	}
	if add.Kind != KindFunction || add.Format != SnippetText {
		t.Fatalf("unexpected function item %+v", add)
	}
	if add.InsertText != "add(${1:a}, ${2:b})" {
		t.Fatalf("unexpected snippet %q", add.InsertText)
	}
	if add.Detail != "Inserts add function" {
		t.Fatalf("unexpected detail %q", add.Detail)
	}

	a, ok := findItem(items, "a")
	if !ok || a.Kind != KindVariable || a.InsertText != "a" || a.Detail != "Inserts a variable/parameter" {
		t.Fatalf("parameters should be plain insertions, got %+v", a)
	}
}

func TestSymbolsNarrowestWidthFirst(t *testing.T) {
	items := Symbols(functionIndex(t), 5)
	// Globals have width 0 and keep their index order ahead of ranged scopes.
	want := []string{"top", "add", "inner", "a", "b"}
	if diff := cmp.Diff(want, labels(items)); diff != "" {
		t.Fatalf("ranking (-want +got):\n%s", diff)
	}
	for i, item := range items {
		if item.SortText != sortKey(0, i) {
			t.Fatalf("item %d has sort text %q", i, item.SortText)
		}
	}
}

func TestSymbolsRespectVisibility(t *testing.T) {
	items := Symbols(functionIndex(t), 11)
	if diff := cmp.Diff([]string{"top", "add"}, labels(items)); diff != "" {
		t.Fatalf("outside the function only globals remain (-want +got):\n%s", diff)
	}

	items = Symbols(functionIndex(t), 4)
	if _, ok := findItem(items, "inner"); ok {
		t.Fatalf("inner is declared on line 5 and must not be offered on line 4")
	}
}

func TestSymbolsDeduplicateLabels(t *testing.T) {
	idx := symbols.NewIndex()
	idx.Add("x", symbols.Record{Name: "x", Range: symbols.Global, Hover: "global x"})
	idx.Add("y", symbols.Record{Name: "y", Range: symbols.Range{Start: 1, End: 3}})
	items := Symbols(idx, 2)
	if diff := cmp.Diff([]string{"x", "y"}, labels(items)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestCandidatesGlobalBeforeRanged(t *testing.T) {
	idx := symbols.NewIndex()
	idx.Add("y", symbols.Record{Name: "y", Range: symbols.Range{Start: 1, End: 3}, DeclLine: 1})
	idx.Add("g", symbols.Record{Name: "g", Range: symbols.Global})
	var got []string
	for _, r := range Candidates(idx, 2) {
		got = append(got, r.Name)
	}
	if diff := cmp.Diff([]string{"g", "y"}, got); diff != "" {
		t.Fatalf("global width is 0 (-want +got):\n%s", diff)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		params []string
		want   string
	}{
		{nil, ""},
		{[]string{"a"}, "${1:a}"},
		{[]string{"a", "b"}, "${1:a}, ${2:b}"},
		{[]string{"we$ird}"}, `${1:we\$ird\}}`},
	}
	for _, tt := range tests {
		if got := Placeholders(tt.params); got != tt.want {
			t.Fatalf("Placeholders(%v) = %q, want %q", tt.params, got, tt.want)
		}
	}
}

func TestKeywordsFromLibraryArray(t *testing.T) {
	idx := symbols.NewIndex()
	if got := Keywords(idx); len(got) != 0 {
		t.Fatalf("no keyword array means no keyword items, got %v", labels(got))
	}
	idx.Add(KeywordsSymbol, symbols.Record{Name: KeywordsSymbol, Range: symbols.Global, Elements: []string{"maak", "kwenza", "if"}})
	items := Keywords(idx)
	if diff := cmp.Diff([]string{"maak", "kwenza", "if"}, labels(items)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if items[0].Kind != KindKeyword || items[0].Detail != "Inserts keyword" {
		t.Fatalf("unexpected keyword item %+v", items[0])
	}
}

func TestAtMergesWithSymbolsFirst(t *testing.T) {
	idx := symbols.NewIndex()
	idx.Add(KeywordsSymbol, symbols.Record{Name: KeywordsSymbol, Range: symbols.Global, Elements: []string{"if", "maak"}})
	idx.Add("maak", symbols.Record{Name: "maak", Range: symbols.Global})

	items := At(idx, 1)
	maak, _ := findItem(items, "maak")
	if maak.Kind != KindVariable {
		t.Fatalf("symbol items must win label conflicts, got %+v", maak)
	}
	ifItem, _ := findItem(items, "if")
	if ifItem.Kind != KindKeyword {
		t.Fatalf("keyword items come before snippets with the same label, got %+v", ifItem)
	}
	seen := map[string]bool{}
	for _, item := range items {
		if seen[item.Label] {
			t.Fatalf("duplicate label %q", item.Label)
		}
		seen[item.Label] = true
	}
	if _, ok := findItem(items, "zama zama"); !ok {
		t.Fatalf("expected fixed snippets to be merged")
	}
}
