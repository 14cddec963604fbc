package hover

import (
	"testing"

	"jaivals/internal/token"
)

func TestHoverText(t *testing.T) {
	boolStmt := token.Nested(&token.Statement{StatementType: 0})
	numStmt := token.Nested(&token.Statement{StatementType: 1})

	tests := []struct {
		name string
		in   Input
		want string
	}{
		{
			name: "number assignment",
			in:   Input{Case: Assign, Name: "x", Value: token.Number(3)},
			want: "x <- 3",
		},
		{
			name: "fractional number",
			in:   Input{Case: Assign, Name: "pi", Value: token.Number(3.25)},
			want: "pi <- 3.25",
		},
		{
			name: "boolean uses language literals",
			in:   Input{Case: Assign, Name: "ok", Value: token.Bool(false)},
			want: "ok <- aowa",
		},
		{
			name: "string literal in boolean var",
			in:   Input{Case: Assign, Name: "ok", Value: token.String("true"), ValueType: token.TBooleanVar},
			want: "ok <- yebo",
		},
		{
			name: "string literal in number var",
			in:   Input{Case: Assign, Name: "n", Value: token.String("12"), ValueType: token.TNumberVar},
			want: "n <- 12",
		},
		{
			name: "array",
			in:   Input{Case: ArrayAssign, Name: "xs", Value: token.Array(token.Number(1), token.String("a"), token.Array(token.Bool(true)))},
			want: `xs <-| [1, "a", [yebo]]`,
		},
		{
			name: "global suffix",
			in:   Input{Case: Assign, Name: "g", Value: token.Number(1), Global: true},
			want: "g <- 1 (global)",
		},
		{
			name: "function",
			in:   Input{Case: Function, Name: "add", Params: []string{"a", "b"}},
			want: "add(a, b)",
		},
		{
			name: "global function",
			in:   Input{Case: Function, Name: "numToString", Params: []string{"string"}, Global: true},
			want: "numToString(string) (global)",
		},
		{
			name: "parameter",
			in:   Input{Case: Parameter, Name: "a"},
			want: "[parameter] a",
		},
		{
			name: "function reference parameter",
			in:   Input{Case: Parameter, Name: "cb", FuncRef: true},
			want: "[parameter] cb(...)",
		},
		{
			name: "loop index",
			in:   Input{Case: LoopIndex, Name: "i", Value: token.Number(0)},
			want: "[index] i <- 0",
		},
		{
			name: "loop element",
			in:   Input{Case: LoopElement, Name: "el", Value: token.Value{}},
			want: "[element] el <- ???",
		},
		{
			name: "caught error",
			in:   Input{Case: CaughtError, Name: CaughtErrorName},
			want: `[chaai error] error <- ("error message")`,
		},
		{
			name: "boolean statement guess",
			in:   Input{Case: Assign, Name: "b", Value: boolStmt},
			want: "(boolean?) b <- ???",
		},
		{
			name: "arithmetic statement guess",
			in:   Input{Case: Assign, Name: "n", Value: numStmt},
			want: "(number?, string?) n <- ???",
		},
		{
			name: "unknown payload",
			in:   Input{Case: Assign, Name: "u", Value: token.Value{Kind: token.ValueOther}},
			want: "u <- ???",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Fatalf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStringTruncation(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyz"
	got := Text(Input{Case: Assign, Name: "s", Value: token.String(long), ValueType: token.TStringVar})
	want := `s <- "abcdefghijklmnopqrst..."`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	short := Text(Input{Case: Assign, Name: "s", Value: token.String("hi")})
	if short != `s <- "hi"` {
		t.Fatalf("short string should not be truncated, got %q", short)
	}

	exact := Text(Input{Case: Assign, Name: "s", Value: token.String(long[:20])})
	if exact != `s <- "abcdefghijklmnopqrst"` {
		t.Fatalf("string at the limit should not be truncated, got %q", exact)
	}
}

func TestRendererCustomLimit(t *testing.T) {
	r := Renderer{MaxStringLength: 4}
	if got := r.Value(token.String("abcdef"), token.TStringVar); got != `"abcd..."` {
		t.Fatalf("got %q", got)
	}
}
