// Package hover renders the one-line hover text shown for a Jaiva symbol.
//
// Every function here is total: malformed payloads render as UnknownValue instead of failing.
package hover

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"jaivals/internal/token"
)

// Case selects the hover layout.
type Case uint8

const (
	Assign Case = iota
	ArrayAssign
	Function
	Parameter
	LoopIndex
	LoopElement
	CaughtError
)

func (c Case) String() string {
	switch c {
	case Assign:
		return "assign"
	case ArrayAssign:
		return "array"
	case Function:
		return "function"
	case Parameter:
		return "parameter"
	case LoopIndex:
		return "index"
	case LoopElement:
		return "element"
	case CaughtError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	// DefaultMaxStringLength is the display width after which string values are cut.
	DefaultMaxStringLength = 20
	// UnknownValue replaces payloads that cannot be rendered.
	UnknownValue = "???"
	// GlobalSuffix is appended to constructs declared outside user source.
	GlobalSuffix = " (global)"
	// CaughtErrorName is the binding introduced in every catch block.
	CaughtErrorName = "error"

	ellipsis = "..."
	yebo     = "yebo"
	aowa     = "aowa"
)

// Input describes what to render.
type Input struct {
	Case Case
	Name string
	// Value is the assigned payload for assignment and loop cases.
	Value token.Value
	// ValueType is the declaring construct's type; it drives literal parsing of string payloads.
	ValueType token.Type
	// Params are the function's parameter names for the Function case.
	Params []string
	// FuncRef marks a parameter that refers to a function.
	FuncRef bool
	// Global marks a construct whose declaration line is token.GlobalLine.
	Global bool
}

// Renderer renders hover text. The zero value uses DefaultMaxStringLength.
type Renderer struct {
	MaxStringLength int
}

// Text renders in with the default renderer.
func Text(in Input) string {
	return Renderer{}.Text(in)
}

// Text renders in.
func (r Renderer) Text(in Input) string {
	var b strings.Builder
	switch in.Case {
	case Assign, ArrayAssign:
		b.WriteString(typeGuess(in.Value))
		b.WriteString(in.Name)
		if in.Case == ArrayAssign {
			b.WriteString(" <-| ")
		} else {
			b.WriteString(" <- ")
		}
		b.WriteString(r.Value(in.Value, in.ValueType))
		if in.Global {
			b.WriteString(GlobalSuffix)
		}
	case Function:
		b.WriteString(in.Name)
		b.WriteByte('(')
		b.WriteString(strings.Join(in.Params, ", "))
		b.WriteByte(')')
		if in.Global {
			b.WriteString(GlobalSuffix)
		}
	case Parameter:
		b.WriteString("[parameter] ")
		b.WriteString(in.Name)
		if in.FuncRef {
			b.WriteString("(...)")
		}
	case LoopIndex, LoopElement:
		if in.Case == LoopIndex {
			b.WriteString("[index] ")
		} else {
			b.WriteString("[element] ")
		}
		b.WriteString(typeGuess(in.Value))
		b.WriteString(in.Name)
		b.WriteString(" <- ")
		b.WriteString(r.Value(in.Value, in.ValueType))
	case CaughtError:
		b.WriteString("[chaai error] ")
		b.WriteString(in.Name)
		b.WriteString(` <- ("error message")`)
	}
	return b.String()
}

// Value renders a payload. typ is the declaring construct's type and may be empty.
func (r Renderer) Value(v token.Value, typ token.Type) string {
	switch v.Kind {
	case token.ValueNumber:
		return formatNumber(v.Num)
	case token.ValueBool:
		return formatBool(v.Bool)
	case token.ValueString:
		switch typ {
		case token.TNumberVar:
			if n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
				return formatNumber(n)
			}
		case token.TBooleanVar:
			if lit, ok := boolLiteral(v.Str); ok {
				return lit
			}
		}
		return r.quote(v.Str)
	case token.ValueArray:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = r.Value(item, "")
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return UnknownValue
	}
}

func (r Renderer) quote(s string) string {
	limit := r.MaxStringLength
	if limit <= 0 {
		limit = DefaultMaxStringLength
	}
	if runewidth.StringWidth(s) > limit {
		s = runewidth.Truncate(s, limit, "") + ellipsis
	}
	return `"` + s + `"`
}

func typeGuess(v token.Value) string {
	st, ok := v.Statement()
	if !ok {
		return ""
	}
	if st.IsBoolean() {
		return "(boolean?) "
	}
	return "(number?, string?) "
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return yebo
	}
	return aowa
}

func boolLiteral(s string) (string, bool) {
	switch strings.TrimSpace(s) {
	case "true", yebo:
		return yebo, true
	case "false", aowa:
		return aowa, true
	}
	return "", false
}
