package token

// ValueKind classifies a literal payload.
type ValueKind uint8

const (
	// ValueNone is an absent payload (JSON null or missing field).
	ValueNone ValueKind = iota
	ValueNumber
	ValueString
	ValueBool
	ValueArray
	// ValueNode is a nested atomic construct (statement, variable reference, call, void).
	ValueNode
	// ValueOther is any JSON shape that is none of the above.
	ValueOther
)

func (k ValueKind) String() string {
	switch k {
	case ValueNone:
		return "none"
	case ValueNumber:
		return "number"
	case ValueString:
		return "string"
	case ValueBool:
		return "bool"
	case ValueArray:
		return "array"
	case ValueNode:
		return "node"
	default:
		return "other"
	}
}

// Value is the payload of variables, conditions and arguments.
type Value struct {
	Kind  ValueKind
	Num   float64
	Str   string
	Bool  bool
	Items []Value
	Node  Node
}

// Number builds a numeric value.
func Number(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// String builds a string value.
func String(s string) Value { return Value{Kind: ValueString, Str: s} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// Array builds an array value.
func Array(items ...Value) Value { return Value{Kind: ValueArray, Items: items} }

// Nested wraps a construct as a value.
func Nested(n Node) Value {
	if n == nil {
		return Value{}
	}
	return Value{Kind: ValueNode, Node: n}
}

// Statement returns the nested statement, if the value is one.
func (v Value) Statement() (*Statement, bool) {
	if v.Kind != ValueNode {
		return nil, false
	}
	st, ok := v.Node.(*Statement)
	return st, ok
}

// Strings returns the string elements of an array value, skipping everything else.
func (v Value) Strings() []string {
	if v.Kind != ValueArray {
		return nil
	}
	out := make([]string, 0, len(v.Items))
	for _, item := range v.Items {
		if item.Kind == ValueString {
			out = append(out, item.Str)
		}
	}
	return out
}
