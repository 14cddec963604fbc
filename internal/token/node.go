package token

import "strings"

// Type is the parser's discriminator for a construct.
type Type string

const (
	TVoidValue         Type = "TVoidValue"
	TCodeblock         Type = "TCodeblock"
	TUnknownVar        Type = "TUnknownVar"
	TVarReassign       Type = "TVarReassign"
	TStringVar         Type = "TStringVar"
	TNumberVar         Type = "TNumberVar"
	TBooleanVar        Type = "TBooleanVar"
	TArrayVar          Type = "TArrayVar"
	TFuncReturn        Type = "TFuncReturn"
	TFunction          Type = "TFunction"
	TForLoop           Type = "TForLoop"
	TWhileLoop         Type = "TWhileLoop"
	TIfStatement       Type = "TIfStatement"
	TTryCatchStatement Type = "TTryCatchStatement"
	TThrowError        Type = "TThrowError"
	TFuncCall          Type = "TFuncCall"
	TVarRef            Type = "TVarRef"
	TLoopControl       Type = "TLoopControl"
	TStatement         Type = "TStatement"
	TImport            Type = "TImport"
)

// GlobalLine is the declaration line of library constructs.
const GlobalLine = -1

// DefaultToolTip is the generic tooltip the parser attaches when a construct has no docs.
const DefaultToolTip = "Jaiva Construct"

// FuncRefPrefix marks a function name or a parameter that refers to a function.
const FuncRefPrefix = "F~"

// IsVariable reports whether t declares a value-bearing variable.
func (t Type) IsVariable() bool {
	switch t {
	case TUnknownVar, TStringVar, TNumberVar, TBooleanVar, TArrayVar:
		return true
	}
	return false
}

// Header holds the fields shared by every construct.
type Header struct {
	Type    Type   `json:"type" msgpack:"type"`
	Name    string `json:"name" msgpack:"name"`
	Line    int    `json:"lineNumber" msgpack:"lineNumber"`
	ToolTip string `json:"toolTip,omitempty" msgpack:"toolTip,omitempty"`
	Export  bool   `json:"exportSymbol" msgpack:"exportSymbol"`
}

// Head returns the header itself so embedding structs satisfy Node.
func (h *Header) Head() *Header { return h }

// Doc returns the tooltip unless it is the parser's generic placeholder.
func (h *Header) Doc() string {
	if h.ToolTip == DefaultToolTip {
		return ""
	}
	return h.ToolTip
}

// Node is one construct of the tree. The set of implementations is closed.
type Node interface {
	Head() *Header
	node()
}

// Block is a code block with its own line span.
type Block struct {
	Header
	Lines   []Node
	LineEnd int
}

// Span returns the inclusive [start, end] line interval of the block.
func (b *Block) Span() (int, int) { return b.Line, b.LineEnd }

// Var declares a variable. Header.Type tells which flavour it is.
type Var struct {
	Header
	Value Value
}

// Reassign assigns a new value to an existing variable.
type Reassign struct {
	Header
	Value Value
}

// Param is a declared function parameter.
type Param struct {
	Name     string
	Optional bool
}

// Function declares a function. Name may carry FuncRefPrefix.
type Function struct {
	Header
	Body   *Block
	Params []Param
}

// DisplayName returns the function name without the reference prefix.
func (f *Function) DisplayName() string { return StripFuncRef(f.Name) }

// ForLoop covers both the counting and the "with array" loop forms.
type ForLoop struct {
	Header
	Body          *Block
	Variable      *Var
	ArrayVariable Node
	Condition     Value
	Increment     string
}

// WhileLoop is a condition-controlled loop.
type WhileLoop struct {
	Header
	Body      *Block
	Condition Value
}

// If is an if statement with its else-if chain and optional else block.
type If struct {
	Header
	Body      *Block
	Condition Value
	ElseIfs   []*If
	ElseBody  *Block
}

// TryCatch is a try/catch statement. It has no body of its own.
type TryCatch struct {
	Header
	Try   *Block
	Catch *Block
}

// Throw raises an error.
type Throw struct {
	Header
	Message string
}

// FuncCall calls a function.
type FuncCall struct {
	Header
	Function  Value
	Args      []Value
	GetLength bool
}

// VarRef references a variable, optionally indexed.
type VarRef struct {
	Header
	VarName   Value
	Index     Value
	GetLength bool
}

// LoopControl is a break or continue.
type LoopControl struct {
	Header
	LoopType string
}

// Statement is a binary or unary expression.
type Statement struct {
	Header
	LHS           Value
	Op            string
	RHS           Value
	StatementType int
	Text          string
}

// IsBoolean reports whether the parser classified the statement as boolean.
func (s *Statement) IsBoolean() bool { return s.StatementType == 0 }

// Import brings symbols of another file into scope.
type Import struct {
	Header
	Symbols  []string
	FilePath string
	FileName string
}

// FuncReturn returns from a function.
type FuncReturn struct {
	Header
	Value Value
}

// Void is the parser's empty value.
type Void struct {
	Header
}

// Unknown is a construct whose type tag this package does not know.
type Unknown struct {
	Header
	Raw []byte
}

func (*Block) node()       {}
func (*Var) node()         {}
func (*Reassign) node()    {}
func (*Function) node()    {}
func (*ForLoop) node()     {}
func (*WhileLoop) node()   {}
func (*If) node()          {}
func (*TryCatch) node()    {}
func (*Throw) node()       {}
func (*FuncCall) node()    {}
func (*VarRef) node()      {}
func (*LoopControl) node() {}
func (*Statement) node()   {}
func (*Import) node()      {}
func (*FuncReturn) node()  {}
func (*Void) node()        {}
func (*Unknown) node()     {}

// StripFuncRef removes the function-reference prefix from name.
func StripFuncRef(name string) string {
	return strings.TrimPrefix(name, FuncRefPrefix)
}

// IsFuncRef reports whether name carries the function-reference prefix.
func IsFuncRef(name string) bool {
	return strings.HasPrefix(name, FuncRefPrefix)
}
