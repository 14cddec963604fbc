package symbols

import (
	"encoding/json"
	"fmt"

	"jaivals/internal/token"
)

// Kind classifies how a record was introduced.
type Kind uint8

const (
	KindVariable Kind = iota
	KindFunction
	KindParameter
	KindOptionalParameter
	KindReassigned
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "var"
	case KindFunction:
		return "func"
	case KindParameter:
		return "param"
	case KindOptionalParameter:
		return "param?"
	case KindReassigned:
		return "reassigned"
	default:
		return "invalid"
	}
}

// MarshalText encodes the kind with the labels used by lib.json.
func (k Kind) MarshalText() ([]byte, error) {
	s := k.String()
	if s == "invalid" {
		return nil, fmt.Errorf("invalid symbol kind %d", k)
	}
	return []byte(s), nil
}

// UnmarshalText decodes a lib.json kind label.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "var":
		*k = KindVariable
	case "func":
		*k = KindFunction
	case "param":
		*k = KindParameter
	case "param?":
		*k = KindOptionalParameter
	case "reassigned":
		*k = KindReassigned
	default:
		return fmt.Errorf("unknown symbol kind %q", b)
	}
	return nil
}

// IsParam reports whether the kind denotes a function parameter.
func (k Kind) IsParam() bool {
	return k == KindParameter || k == KindOptionalParameter
}

// Range is an inclusive line interval. Global is visible everywhere.
type Range struct {
	Start int
	End   int
}

// Global is the sentinel range of library and imported symbols.
var Global = Range{Start: -1, End: -1}

// IsGlobal reports whether r is the global sentinel.
func (r Range) IsGlobal() bool { return r == Global }

// Width is End-Start. Callers ranking by tightness must special-case Global.
func (r Range) Width() int { return r.End - r.Start }

// Contains reports whether line lies inside r. Global contains every line.
func (r Range) Contains(line int) bool {
	return r.IsGlobal() || (r.Start <= line && line <= r.End)
}

func (r Range) String() string {
	if r.IsGlobal() {
		return "global"
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// MarshalJSON encodes r as a two element array.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

// UnmarshalJSON decodes a two element array.
func (r *Range) UnmarshalJSON(b []byte) error {
	var pair [2]int
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("range: %w", err)
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

// Param is a declared function parameter as seen by completion.
type Param struct {
	Name     string `json:"paramName" msgpack:"name"`
	Required bool   `json:"required" msgpack:"required"`
}

// Record is one visibility-scoped occurrence of a name.
// Everything except Node survives serialization.
type Record struct {
	Name     string     `json:"name" msgpack:"name"`
	Type     token.Type `json:"type" msgpack:"type"`
	Kind     Kind       `json:"kind" msgpack:"kind"`
	Range    Range      `json:"range" msgpack:"range"`
	DeclLine int        `json:"lineNumber" msgpack:"line"`
	Hover    string     `json:"hoverMsg" msgpack:"hover"`
	Doc      string     `json:"tooltip,omitempty" msgpack:"doc,omitempty"`
	Exported bool       `json:"exportSymbol" msgpack:"export"`
	IsParam  bool       `json:"isParam,omitempty" msgpack:"param,omitempty"`
	// ParamIsFuncRef marks a parameter declared with the function-reference prefix.
	ParamIsFuncRef bool `json:"paramIsFuncRef,omitempty" msgpack:"funcRef,omitempty"`
	// Params lists a function's parameters in declaration order.
	Params []Param `json:"fParams,omitempty" msgpack:"params,omitempty"`
	// Elements holds the string items of an array declaration.
	Elements []string `json:"elements,omitempty" msgpack:"elements,omitempty"`
	// Library marks a prelude copy of a library record. Such records are never re-exported.
	Library bool `json:"library,omitempty" msgpack:"lib,omitempty"`

	Node token.Node `json:"-" msgpack:"-"`
}

// VisibleAt reports whether r can be referenced from line.
// Non-global records are hidden before their declaration line.
func (r Record) VisibleAt(line int) bool {
	if r.Range.IsGlobal() {
		return true
	}
	return r.Range.Contains(line) && line >= r.DeclLine
}

// Exportable reports whether r may be merged into an importing file.
func (r Record) Exportable() bool {
	return r.Exported && !r.IsParam && !r.Library
}

// IsFunction reports whether r names a callable declaration.
func (r Record) IsFunction() bool {
	return r.Kind == KindFunction
}

// ParamNames returns the parameter names in declaration order.
func (r Record) ParamNames() []string {
	names := make([]string, len(r.Params))
	for i, p := range r.Params {
		names[i] = p.Name
	}
	return names
}
