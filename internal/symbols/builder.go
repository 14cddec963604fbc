package symbols

import (
	"slices"

	"github.com/rs/zerolog"

	"jaivals/internal/hover"
	"jaivals/internal/token"
)

// ErrorToolTip documents the binding synthesized in catch blocks.
const ErrorToolTip = "The error message that was caught (hopefully a string)"

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// File is the absolute path of the file being indexed; relative imports resolve against it.
	File string
	// Table provides the published indexes of imported files. Nil disables import merging.
	Table Table
	// Policy decides which imports are skipped. Nil means DefaultImportPolicy.
	Policy *ImportPolicy
	// Hover renders hover text.
	Hover hover.Renderer
	// Logger receives debug events about skipped constructs. Nil disables logging.
	Logger *zerolog.Logger
}

// Builder walks a token tree into a flat, range-tagged Index.
// A Builder is not safe for concurrent use; build each file with its own Builder.
type Builder struct {
	opts BuilderOptions
	out  *Index
}

// NewBuilder returns a Builder for one file.
func NewBuilder(opts BuilderOptions) *Builder {
	if opts.Policy == nil {
		opts.Policy = DefaultImportPolicy()
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	return &Builder{opts: opts}
}

// Build indexes a top-level node sequence. Top-level records are global.
func (b *Builder) Build(nodes []token.Node) *Index {
	return b.BuildBlock(nodes, nil)
}

// BuildBlock indexes nodes that live inside block. A nil block means global scope.
func (b *Builder) BuildBlock(nodes []token.Node, block *token.Block) *Index {
	b.out = NewIndex()
	rng := Global
	if block != nil {
		rng = blockRange(block)
	}
	b.walk(nodes, rng)
	out := b.out
	b.out = nil
	return out
}

// Build is a convenience wrapper around NewBuilder(opts).Build(nodes).
func Build(nodes []token.Node, opts BuilderOptions) *Index {
	return NewBuilder(opts).Build(nodes)
}

func blockRange(block *token.Block) Range {
	return Range{Start: block.Line, End: block.LineEnd}
}

func (b *Builder) walk(nodes []token.Node, rng Range) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		switch n := n.(type) {
		case *token.Var:
			b.addVar(n, rng)
		case *token.Reassign:
			b.reassign(n, rng)
		case *token.Function:
			b.addFunction(n, rng)
		case *token.If:
			b.walkIf(n)
		case *token.WhileLoop:
			b.walkBlock(n.Body)
		case *token.ForLoop:
			b.walkFor(n)
		case *token.TryCatch:
			b.walkTryCatch(n)
		case *token.Import:
			b.mergeImport(n)
		default:
			b.opts.Logger.Trace().
				Str("type", string(n.Head().Type)).
				Int("line", n.Head().Line).
				Msg("construct declares nothing")
		}
	}
}

func (b *Builder) walkBlock(block *token.Block) {
	if block == nil {
		return
	}
	b.walk(block.Lines, blockRange(block))
}

func (b *Builder) add(r Record) {
	r.Name = Normalize(r.Name)
	b.out.Add(r.Name, r)
}

func (b *Builder) addVar(v *token.Var, rng Range) {
	c := hover.Assign
	if v.Type == token.TArrayVar {
		c = hover.ArrayAssign
	}
	r := Record{
		Name:     v.Name,
		Type:     v.Type,
		Kind:     KindVariable,
		Range:    rng,
		DeclLine: v.Line,
		Doc:      v.Doc(),
		Exported: v.Export,
		Node:     v,
		Hover: b.opts.Hover.Text(hover.Input{
			Case:      c,
			Name:      v.Name,
			Value:     v.Value,
			ValueType: v.Type,
			Global:    v.Line == token.GlobalLine,
		}),
	}
	if v.Type == token.TArrayVar {
		r.Elements = v.Value.Strings()
	}
	b.add(r)
}

// reassign flips the first record declared in exactly this block to KindReassigned.
// A reassignment without such a record changes nothing.
func (b *Builder) reassign(n *token.Reassign, rng Range) {
	name := Normalize(n.Name)
	records := b.out.Get(name)
	sameBlock := func(r Record) bool { return r.Range == rng }
	i := slices.IndexFunc(records, sameBlock)
	if i < 0 {
		b.opts.Logger.Debug().
			Str("name", name).
			Int("line", n.Line).
			Msg("reassignment without declaration in the same block")
		return
	}
	updated := records[i]
	updated.Kind = KindReassigned
	b.out.ReplaceWhere(name, sameBlock, updated)
}

func (b *Builder) addFunction(fn *token.Function, rng Range) {
	name := fn.DisplayName()
	params := make([]Param, len(fn.Params))
	display := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		display[i] = token.StripFuncRef(p.Name)
		params[i] = Param{Name: display[i], Required: !p.Optional}
	}
	b.add(Record{
		Name:     name,
		Type:     fn.Type,
		Kind:     KindFunction,
		Range:    rng,
		DeclLine: fn.Line,
		Doc:      fn.Doc(),
		Exported: fn.Export,
		Params:   params,
		Node:     fn,
		Hover: b.opts.Hover.Text(hover.Input{
			Case:   hover.Function,
			Name:   name,
			Params: display,
			Global: fn.Line == token.GlobalLine,
		}),
	})
	if fn.Body == nil {
		return
	}
	// Library functions have no user source, so their parameters get no records.
	if fn.Line != token.GlobalLine {
		body := blockRange(fn.Body)
		for i, p := range fn.Params {
			kind := KindParameter
			if p.Optional {
				kind = KindOptionalParameter
			}
			funcRef := token.IsFuncRef(p.Name)
			b.add(Record{
				Name:           display[i],
				Type:           fn.Type,
				Kind:           kind,
				Range:          body,
				DeclLine:       fn.Line,
				Doc:            fn.Doc(),
				IsParam:        true,
				ParamIsFuncRef: funcRef,
				Node:           fn,
				Hover: b.opts.Hover.Text(hover.Input{
					Case:    hover.Parameter,
					Name:    display[i],
					FuncRef: funcRef,
				}),
			})
		}
	}
	b.walkBlock(fn.Body)
}

func (b *Builder) walkIf(n *token.If) {
	b.walkBlock(n.Body)
	b.walkBlock(n.ElseBody)
	for _, elseIf := range n.ElseIfs {
		if elseIf != nil {
			b.walkBlock(elseIf.Body)
		}
	}
}

func (b *Builder) walkFor(n *token.ForLoop) {
	if n.Body == nil {
		return
	}
	b.walkBlock(n.Body)
	if n.Variable == nil || n.Variable.Name == "" {
		return
	}
	c := hover.LoopIndex
	if n.ArrayVariable != nil {
		c = hover.LoopElement
	}
	v := n.Variable
	b.add(Record{
		Name:     v.Name,
		Type:     n.Type,
		Kind:     KindVariable,
		Range:    Range{Start: n.Line, End: n.Body.LineEnd},
		DeclLine: v.Line,
		Doc:      v.Doc(),
		Node:     n,
		Hover: b.opts.Hover.Text(hover.Input{
			Case:      c,
			Name:      v.Name,
			Value:     v.Value,
			ValueType: token.TNumberVar,
		}),
	})
}

func (b *Builder) walkTryCatch(n *token.TryCatch) {
	b.walkBlock(n.Try)
	if n.Catch == nil {
		return
	}
	b.walkBlock(n.Catch)
	b.add(Record{
		Name:     hover.CaughtErrorName,
		Type:     token.TStringVar,
		Kind:     KindVariable,
		Range:    blockRange(n.Catch),
		DeclLine: n.Catch.Line,
		Doc:      ErrorToolTip,
		Node:     n,
		Hover: b.opts.Hover.Text(hover.Input{
			Case: hover.CaughtError,
			Name: hover.CaughtErrorName,
		}),
	})
}

// mergeImport unions the exported records of an already published file as globals.
func (b *Builder) mergeImport(imp *token.Import) {
	if b.opts.Policy.Reserved(imp.FilePath) {
		return
	}
	target := ResolveImportPath(b.opts.File, imp.FilePath)
	if target == "" || b.opts.Table == nil {
		return
	}
	idx, ok := b.opts.Table.Lookup(target)
	if !ok {
		b.opts.Logger.Debug().
			Str("import", target).
			Str("file", b.opts.File).
			Msg("import target not indexed yet")
		return
	}
	allow := make([]string, len(imp.Symbols))
	for i, s := range imp.Symbols {
		allow[i] = Normalize(s)
	}
	b.out.AddAll(Globalize(Exports(idx, allow)))
}
