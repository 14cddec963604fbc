package symbols

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"jaivals/internal/token"
)

func TestBuildTopLevelVariablesAreGlobal(t *testing.T) {
	idx := buildIndex(t, "/src/main.jiv", nil, `[
		{"type":"TStringVar","name":"s","lineNumber":1,"toolTip":"a greeting","exportSymbol":true,"value":"hi"},
		{"type":"TArrayVar","name":"xs","lineNumber":2,"value":["a","b"]}
	]`)

	s := mustOne(t, idx, "s")
	want := Record{
		Name:     "s",
		Type:     token.TStringVar,
		Kind:     KindVariable,
		Range:    Global,
		DeclLine: 1,
		Hover:    `s <- "hi"`,
		Doc:      "a greeting",
		Exported: true,
	}
	if diff := cmp.Diff(want, s, cmpopts.IgnoreFields(Record{}, "Node")); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	xs := mustOne(t, idx, "xs")
	if xs.Hover != `xs <-| ["a", "b"]` {
		t.Fatalf("unexpected array hover %q", xs.Hover)
	}
	if diff := cmp.Diff([]string{"a", "b"}, xs.Elements); diff != "" {
		t.Fatalf("elements (-want +got):\n%s", diff)
	}
}

func TestBuildFunctionParams(t *testing.T) {
	idx := buildIndex(t, "/src/main.jiv", nil, `[
		{"type":"TFunction","name":"F~add","lineNumber":3,"exportSymbol":true,
		 "args":["a","b"],"isArgOptional":[false,true],
		 "body":{"type":"TCodeblock","lineNumber":3,"lineEnd":6,"lines":[
			{"type":"TNumberVar","name":"sum","lineNumber":4,"value":0}
		 ]}}
	]`)

	fn := mustOne(t, idx, "add")
	if fn.Kind != KindFunction || fn.Hover != "add(a, b)" || !fn.Range.IsGlobal() {
		t.Fatalf("unexpected function record %+v", fn)
	}
	if diff := cmp.Diff([]Param{{Name: "a", Required: true}, {Name: "b", Required: false}}, fn.Params); diff != "" {
		t.Fatalf("params (-want +got):\n%s", diff)
	}

	a := mustOne(t, idx, "a")
	b := mustOne(t, idx, "b")
	body := Range{Start: 3, End: 6}
	if a.Range != body || b.Range != body {
		t.Fatalf("params should be scoped to the body: %v %v", a.Range, b.Range)
	}
	if a.Kind != KindParameter || b.Kind != KindOptionalParameter || !a.IsParam || a.DeclLine != 3 {
		t.Fatalf("unexpected parameter records %+v %+v", a, b)
	}
	if a.Hover != "[parameter] a" {
		t.Fatalf("unexpected parameter hover %q", a.Hover)
	}

	sum := mustOne(t, idx, "sum")
	if sum.Range != body {
		t.Fatalf("body locals should use the body range, got %v", sum.Range)
	}

	if diff := cmp.Diff([]string{"add", "a", "b", "sum"}, idx.Keys()); diff != "" {
		t.Fatalf("discovery order (-want +got):\n%s", diff)
	}
}

func TestBuildFunctionRefParam(t *testing.T) {
	idx := buildIndex(t, "/src/main.jiv", nil, `[
		{"type":"TFunction","name":"apply","lineNumber":1,
		 "args":["F~cb"],"isArgOptional":["false"],
		 "body":{"type":"TCodeblock","lineNumber":1,"lineEnd":2,"lines":[]}}
	]`)
	cb := mustOne(t, idx, "cb")
	if !cb.ParamIsFuncRef || cb.Hover != "[parameter] cb(...)" {
		t.Fatalf("unexpected function reference param %+v", cb)
	}
	if fn := mustOne(t, idx, "apply"); fn.Hover != "apply(cb)" {
		t.Fatalf("unexpected hover %q", fn.Hover)
	}
}

func TestBuildLibraryFunctionHasNoParamRecords(t *testing.T) {
	idx := buildIndex(t, "/lib/convert.jiv", nil, `[
		{"type":"TFunction","name":"F~numToString","lineNumber":-1,"exportSymbol":"true",
		 "args":["string"],"isArgOptional":[false],"body":{"type":"TCodeblock","lineNumber":-1,"lineEnd":-1,"lines":[]}}
	]`)
	if idx.Has("string") {
		t.Fatalf("library function parameters must not be indexed")
	}
	if fn := mustOne(t, idx, "numToString"); fn.Hover != "numToString(string) (global)" {
		t.Fatalf("unexpected hover %q", fn.Hover)
	}
}

func TestBuildControlFlowScopes(t *testing.T) {
	nodes := []token.Node{
		&token.If{
			Header:   token.Header{Type: token.TIfStatement, Line: 1},
			Body:     block(1, 3, numVar("inIf", 2, 1)),
			ElseIfs:  []*token.If{{Header: token.Header{Type: token.TIfStatement, Line: 3}, Body: block(3, 5, numVar("inElseIf", 4, 1))}},
			ElseBody: block(5, 7, numVar("inElse", 6, 1)),
		},
		&token.WhileLoop{Header: token.Header{Type: token.TWhileLoop, Line: 8}, Body: block(8, 10, numVar("inWhile", 9, 1))},
		&token.ForLoop{
			Header:   token.Header{Type: token.TForLoop, Line: 11},
			Body:     block(11, 13, numVar("inFor", 12, 1)),
			Variable: numVar("i", 11, 0),
		},
		&token.ForLoop{
			Header:        token.Header{Type: token.TForLoop, Line: 14},
			Body:          block(14, 16),
			Variable:      &token.Var{Header: token.Header{Type: token.TUnknownVar, Name: "el", Line: 14}},
			ArrayVariable: &token.VarRef{Header: token.Header{Type: token.TVarRef, Name: "xs"}},
		},
		&token.TryCatch{
			Header: token.Header{Type: token.TTryCatchStatement, Line: 17},
			Try:    block(17, 19, numVar("inTry", 18, 1)),
			Catch:  block(19, 21),
		},
		&token.Unknown{Header: token.Header{Type: "TSomethingNew", Name: "ignored", Line: 22}},
		&token.Throw{Header: token.Header{Type: token.TThrowError, Line: 23}},
	}
	idx := Build(nodes, BuilderOptions{File: "/src/main.jiv"})

	wantRanges := map[string]Range{
		"inIf":     {1, 3},
		"inElseIf": {3, 5},
		"inElse":   {5, 7},
		"inWhile":  {8, 10},
		"inFor":    {11, 13},
		"i":        {11, 13},
		"el":       {14, 16},
		"inTry":    {17, 19},
		"error":    {19, 21},
	}
	for name, want := range wantRanges {
		if got := mustOne(t, idx, name).Range; got != want {
			t.Fatalf("%s: range %v, want %v", name, got, want)
		}
	}
	if idx.Has("ignored") {
		t.Fatalf("unknown constructs must not produce records")
	}

	// The if body is walked before the else body, which comes before the else-if chain.
	if diff := cmp.Diff([]string{"inIf", "inElse", "inElseIf"}, idx.Keys()[:3]); diff != "" {
		t.Fatalf("walk order (-want +got):\n%s", diff)
	}
	if got := mustOne(t, idx, "i").Hover; got != "[index] i <- 0" {
		t.Fatalf("unexpected index hover %q", got)
	}
	if got := mustOne(t, idx, "el").Hover; got != "[element] el <- ???" {
		t.Fatalf("unexpected element hover %q", got)
	}
	errRec := mustOne(t, idx, "error")
	if errRec.Hover != `[chaai error] error <- ("error message")` || errRec.DeclLine != 19 {
		t.Fatalf("unexpected error record %+v", errRec)
	}
}

func TestBuildReassignPromotesInPlace(t *testing.T) {
	scope := block(1, 10,
		numVar("x", 1, 1),
		&token.Reassign{Header: token.Header{Type: token.TVarReassign, Name: "x", Line: 5}, Value: token.Number(2)},
	)
	idx := NewBuilder(BuilderOptions{}).BuildBlock(scope.Lines, scope)

	x := mustOne(t, idx, "x")
	if x.Kind != KindReassigned {
		t.Fatalf("expected reassigned kind, got %v", x.Kind)
	}
	if x.Range != (Range{1, 10}) || x.DeclLine != 1 {
		t.Fatalf("reassignment must not move the record: %+v", x)
	}
}

func TestBuildReassignOnlyMatchesSameBlock(t *testing.T) {
	nodes := []token.Node{
		numVar("x", 1, 1),
		&token.WhileLoop{
			Header: token.Header{Type: token.TWhileLoop, Line: 2},
			Body: block(2, 4,
				&token.Reassign{Header: token.Header{Type: token.TVarReassign, Name: "x", Line: 3}, Value: token.Number(2)},
				&token.Reassign{Header: token.Header{Type: token.TVarReassign, Name: "ghost", Line: 3}, Value: token.Number(2)},
			),
		},
	}
	idx := Build(nodes, BuilderOptions{})

	if x := mustOne(t, idx, "x"); x.Kind != KindVariable {
		t.Fatalf("outer declaration should keep its kind, got %v", x.Kind)
	}
	if idx.Has("ghost") {
		t.Fatalf("reassignment without declaration must not add a record")
	}
}

func TestBuildReassignFirstOfSeveral(t *testing.T) {
	nodes := []token.Node{
		numVar("x", 1, 1),
		numVar("x", 2, 2),
		&token.Reassign{Header: token.Header{Type: token.TVarReassign, Name: "x", Line: 3}},
	}
	idx := Build(nodes, BuilderOptions{})
	records := idx.Get("x")
	if len(records) != 2 || records[0].Kind != KindReassigned || records[1].Kind != KindVariable {
		t.Fatalf("expected only the first record promoted, got %+v", records)
	}
}

func TestBuildImportMerge(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "lib.jiv")
	mainPath := filepath.Join(dir, "main.jiv")

	lib := buildIndex(t, libPath, nil, `[
		{"type":"TNumberVar","name":"foo","lineNumber":1,"exportSymbol":true,"value":1},
		{"type":"TNumberVar","name":"foo","lineNumber":2,"exportSymbol":true,"value":2},
		{"type":"TNumberVar","name":"bar","lineNumber":3,"exportSymbol":true,"value":3},
		{"type":"TNumberVar","name":"hidden","lineNumber":4,"exportSymbol":false,"value":4}
	]`)
	table := MapTable{libPath: lib}

	idx := buildIndex(t, mainPath, table, `[
		{"type":"TImport","name":"","lineNumber":1,"symbols":["foo"],"filePath":"./lib.jiv"}
	]`)
	foo := mustOne(t, idx, "foo")
	if !foo.Range.IsGlobal() || foo.Hover != "foo <- 1" {
		t.Fatalf("expected first foo rescoped to global, got %+v", foo)
	}
	if idx.Has("bar") || idx.Has("hidden") {
		t.Fatalf("allow-list not honoured: %v", idx.Keys())
	}

	all := buildIndex(t, mainPath, table, `[
		{"type":"TImport","name":"","lineNumber":1,"symbols":[],"filePath":"`+filepath.ToSlash(libPath)+`"}
	]`)
	if diff := cmp.Diff([]string{"foo", "bar"}, all.Keys()); diff != "" {
		t.Fatalf("unrestricted import keys (-want +got):\n%s", diff)
	}
	if len(lib.Get("foo")) != 2 {
		t.Fatalf("import merge must not mutate the published index")
	}
}

func TestBuildImportSkipsParamsAndReserved(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "jaiva", "arrays.jiv")
	table := MapTable{
		libPath: buildIndex(t, libPath, nil, `[{"type":"TNumberVar","name":"x","lineNumber":1,"exportSymbol":true,"value":1}]`),
	}
	idx := buildIndex(t, filepath.Join(dir, "main.jiv"), table, `[
		{"type":"TImport","name":"","lineNumber":1,"symbols":[],"filePath":"jaiva/arrays.jiv"}
	]`)
	if idx.Len() != 0 {
		t.Fatalf("reserved namespace import should be skipped, got %v", idx.Keys())
	}

	withParam := NewIndex()
	withParam.Add("p", Record{Name: "p", Exported: true, IsParam: true, Kind: KindParameter})
	table[filepath.Join(dir, "p.jiv")] = withParam
	idx = buildIndex(t, filepath.Join(dir, "main.jiv"), table, `[
		{"type":"TImport","name":"","lineNumber":1,"symbols":[],"filePath":"p.jiv"}
	]`)
	if idx.Has("p") {
		t.Fatalf("parameter records must never be imported")
	}
}

func TestBuildImportUnindexedTarget(t *testing.T) {
	idx := buildIndex(t, "/src/main.jiv", MapTable{}, `[
		{"type":"TImport","name":"","lineNumber":1,"symbols":["foo"],"filePath":"missing.jiv"},
		{"type":"TNumberVar","name":"after","lineNumber":2,"value":1}
	]`)
	if diff := cmp.Diff([]string{"after"}, idx.Keys()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
