package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrTooDeep is returned when the tree nests deeper than maxDepth.
var ErrTooDeep = errors.New("token tree nested too deeply")

const maxDepth = 512

// flexBool accepts true/false as JSON booleans or as the strings "true"/"false".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = false
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", s)
		}
		*b = flexBool(v)
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

type rawNode struct {
	Type          Type            `json:"type"`
	Name          string          `json:"name"`
	LineNumber    int             `json:"lineNumber"`
	ToolTip       string          `json:"toolTip"`
	ExportSymbol  flexBool        `json:"exportSymbol"`
	Value         json.RawMessage `json:"value"`
	Body          json.RawMessage `json:"body"`
	Lines         json.RawMessage `json:"lines"`
	LineEnd       int             `json:"lineEnd"`
	Args          json.RawMessage `json:"args"`
	IsArgOptional []flexBool      `json:"isArgOptional"`
	Variable      json.RawMessage `json:"variable"`
	ArrayVariable json.RawMessage `json:"arrayVariable"`
	Condition     json.RawMessage `json:"condition"`
	Increment     *string         `json:"increment"`
	ElseIfs       json.RawMessage `json:"elseIfs"`
	ElseBody      json.RawMessage `json:"elseBody"`
	Try           json.RawMessage `json:"try"`
	Catch         json.RawMessage `json:"catch"`
	ErrorMessage  string          `json:"errorMessage"`
	FunctionName  json.RawMessage `json:"functionName"`
	GetLength     bool            `json:"getLength"`
	GetLenght     bool            `json:"getLenght"`
	VarName       json.RawMessage `json:"varName"`
	Index         json.RawMessage `json:"index"`
	LoopType      string          `json:"loopType"`
	LHS           json.RawMessage `json:"lhs"`
	Op            string          `json:"op"`
	RHS           json.RawMessage `json:"rhs"`
	StatementType int             `json:"statementType"`
	Statement     string          `json:"statement"`
	Symbols       []string        `json:"symbols"`
	FilePath      string          `json:"filePath"`
	FileName      string          `json:"fileName"`
}

// Decode parses the parser's JSON output into a node sequence.
// A JSON null decodes to an empty sequence.
func Decode(data []byte) ([]Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Node{}, nil
	}
	if data[0] != '[' {
		return nil, fmt.Errorf("token tree must be a JSON array, got %q", preview(data))
	}
	return decodeList(data, 0)
}

// DecodeLenient is Decode that degrades every failure to an empty sequence.
func DecodeLenient(data []byte) []Node {
	nodes, err := Decode(data)
	if err != nil {
		return []Node{}
	}
	return nodes
}

func decodeList(data json.RawMessage, depth int) ([]Node, error) {
	if isNull(data) {
		return []Node{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(items))
	for i, item := range items {
		if isNull(item) {
			continue
		}
		n, err := decodeNode(item, depth+1)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeNode(data json.RawMessage, depth int) (Node, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	h := Header{
		Type:    raw.Type,
		Name:    raw.Name,
		Line:    raw.LineNumber,
		ToolTip: raw.ToolTip,
		Export:  bool(raw.ExportSymbol),
	}
	d := depth + 1

	switch raw.Type {
	case TUnknownVar, TStringVar, TNumberVar, TBooleanVar, TArrayVar:
		v, err := decodeValue(raw.Value, d)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", raw.Type, raw.Name, err)
		}
		return &Var{Header: h, Value: v}, nil
	case TVarReassign:
		v, err := decodeValue(raw.Value, d)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", raw.Type, raw.Name, err)
		}
		return &Reassign{Header: h, Value: v}, nil
	case TFuncReturn:
		v, err := decodeValue(raw.Value, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", raw.Type, err)
		}
		return &FuncReturn{Header: h, Value: v}, nil
	case TCodeblock:
		lines, err := decodeList(raw.Lines, d)
		if err != nil {
			return nil, fmt.Errorf("code block at line %d: %w", raw.LineNumber, err)
		}
		return &Block{Header: h, Lines: lines, LineEnd: raw.LineEnd}, nil
	case TFunction:
		return decodeFunction(h, &raw, d)
	case TForLoop:
		return decodeForLoop(h, &raw, d)
	case TWhileLoop:
		body, err := decodeBlock(raw.Body, d)
		if err != nil {
			return nil, err
		}
		cond, err := decodeValue(raw.Condition, d)
		if err != nil {
			return nil, err
		}
		return &WhileLoop{Header: h, Body: body, Condition: cond}, nil
	case TIfStatement:
		return decodeIf(h, &raw, d)
	case TTryCatchStatement:
		try, err := decodeBlock(raw.Try, d)
		if err != nil {
			return nil, fmt.Errorf("try block: %w", err)
		}
		catch, err := decodeBlock(raw.Catch, d)
		if err != nil {
			return nil, fmt.Errorf("catch block: %w", err)
		}
		return &TryCatch{Header: h, Try: try, Catch: catch}, nil
	case TThrowError:
		return &Throw{Header: h, Message: raw.ErrorMessage}, nil
	case TFuncCall:
		fn, err := decodeValue(raw.FunctionName, d)
		if err != nil {
			return nil, err
		}
		args, err := decodeValues(raw.Args, d)
		if err != nil {
			return nil, err
		}
		return &FuncCall{Header: h, Function: fn, Args: args, GetLength: raw.GetLength || raw.GetLenght}, nil
	case TVarRef:
		name, err := decodeValue(raw.VarName, d)
		if err != nil {
			return nil, err
		}
		idx, err := decodeValue(raw.Index, d)
		if err != nil {
			return nil, err
		}
		return &VarRef{Header: h, VarName: name, Index: idx, GetLength: raw.GetLength || raw.GetLenght}, nil
	case TLoopControl:
		return &LoopControl{Header: h, LoopType: raw.LoopType}, nil
	case TStatement:
		lhs, err := decodeValue(raw.LHS, d)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeValue(raw.RHS, d)
		if err != nil {
			return nil, err
		}
		return &Statement{Header: h, LHS: lhs, Op: raw.Op, RHS: rhs, StatementType: raw.StatementType, Text: raw.Statement}, nil
	case TImport:
		return &Import{Header: h, Symbols: raw.Symbols, FilePath: raw.FilePath, FileName: raw.FileName}, nil
	case TVoidValue:
		return &Void{Header: h}, nil
	default:
		return &Unknown{Header: h, Raw: bytes.Clone(data)}, nil
	}
}

func decodeFunction(h Header, raw *rawNode, depth int) (Node, error) {
	body, err := decodeBlock(raw.Body, depth)
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", raw.Name, err)
	}
	var names []string
	if !isNull(raw.Args) {
		if err := json.Unmarshal(raw.Args, &names); err != nil {
			return nil, fmt.Errorf("function %q args: %w", raw.Name, err)
		}
	}
	params := make([]Param, len(names))
	for i, name := range names {
		params[i] = Param{Name: name}
		if i < len(raw.IsArgOptional) {
			params[i].Optional = bool(raw.IsArgOptional[i])
		}
	}
	return &Function{Header: h, Body: body, Params: params}, nil
}

func decodeForLoop(h Header, raw *rawNode, depth int) (Node, error) {
	body, err := decodeBlock(raw.Body, depth)
	if err != nil {
		return nil, fmt.Errorf("for loop: %w", err)
	}
	loop := &ForLoop{Header: h, Body: body}
	if !isNull(raw.Variable) {
		n, err := decodeNode(raw.Variable, depth)
		if err != nil {
			return nil, fmt.Errorf("for loop variable: %w", err)
		}
		if v, ok := n.(*Var); ok {
			loop.Variable = v
		} else {
			loop.Variable = &Var{Header: *n.Head()}
		}
	}
	if !isNull(raw.ArrayVariable) {
		n, err := decodeNode(raw.ArrayVariable, depth)
		if err != nil {
			return nil, fmt.Errorf("for loop array: %w", err)
		}
		loop.ArrayVariable = n
	}
	if loop.Condition, err = decodeValue(raw.Condition, depth); err != nil {
		return nil, err
	}
	if raw.Increment != nil {
		loop.Increment = *raw.Increment
	}
	return loop, nil
}

func decodeIf(h Header, raw *rawNode, depth int) (Node, error) {
	body, err := decodeBlock(raw.Body, depth)
	if err != nil {
		return nil, fmt.Errorf("if body: %w", err)
	}
	elseBody, err := decodeBlock(raw.ElseBody, depth)
	if err != nil {
		return nil, fmt.Errorf("else body: %w", err)
	}
	cond, err := decodeValue(raw.Condition, depth)
	if err != nil {
		return nil, err
	}
	stmt := &If{Header: h, Body: body, Condition: cond, ElseBody: elseBody}
	chain, err := decodeList(raw.ElseIfs, depth)
	if err != nil {
		return nil, fmt.Errorf("else-if chain: %w", err)
	}
	for _, n := range chain {
		if elseIf, ok := n.(*If); ok {
			stmt.ElseIfs = append(stmt.ElseIfs, elseIf)
		}
	}
	return stmt, nil
}

func decodeBlock(data json.RawMessage, depth int) (*Block, error) {
	if isNull(data) {
		return nil, nil
	}
	n, err := decodeNode(data, depth)
	if err != nil {
		return nil, err
	}
	if b, ok := n.(*Block); ok {
		return b, nil
	}
	return nil, fmt.Errorf("expected %s, got %s", TCodeblock, n.Head().Type)
}

func decodeValues(data json.RawMessage, depth int) ([]Value, error) {
	if isNull(data) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	out := make([]Value, 0, len(items))
	for _, item := range items {
		v, err := decodeValue(item, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeValue(data json.RawMessage, depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, ErrTooDeep
	}
	data = bytes.TrimSpace(data)
	if isNull(data) {
		return Value{}, nil
	}
	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Value{}, err
		}
		return String(s), nil
	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case c == '-' || (c >= '0' && c <= '9'):
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return Value{}, err
		}
		return Number(n), nil
	case c == '[':
		items, err := decodeValues(data, depth+1)
		if err != nil {
			return Value{}, err
		}
		return Array(items...), nil
	case c == '{':
		var tagged struct {
			Type Type `json:"type"`
		}
		if err := json.Unmarshal(data, &tagged); err != nil {
			return Value{}, err
		}
		if tagged.Type == "" {
			return Value{Kind: ValueOther}, nil
		}
		n, err := decodeNode(data, depth+1)
		if err != nil {
			return Value{}, err
		}
		return Nested(n), nil
	default:
		return Value{Kind: ValueOther}, nil
	}
}

func isNull(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

func preview(data []byte) string {
	const limit = 32
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
