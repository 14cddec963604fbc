// Package completion turns the symbols visible at a line into insertable suggestions.
package completion

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"jaivals/internal/symbols"
)

// Kind is the presentation category of an item.
type Kind uint8

const (
	KindVariable Kind = iota
	KindFunction
	KindKeyword
	KindSnippet
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	case KindKeyword:
		return "keyword"
	case KindSnippet:
		return "snippet"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Format tells the client how to interpret InsertText.
type Format uint8

const (
	PlainText Format = iota
	SnippetText
)

// Item is one suggestion.
type Item struct {
	Label         string
	Kind          Kind
	Detail        string
	Documentation string
	InsertText    string
	Format        Format
	// SortText keeps the synthesized order in clients that sort by it.
	SortText string
}

// Candidates returns the first visible record of every name at line, ordered by
// ascending scope width. The global range has width 0, so globals sort with the
// tightest scopes; ties keep index order.
func Candidates(idx *symbols.Index, line int) []symbols.Record {
	visible := symbols.Visible(idx, line)
	slices.SortStableFunc(visible, func(a, b symbols.Record) int {
		return cmp.Compare(a.Range.Width(), b.Range.Width())
	})
	return visible
}

// Symbols synthesizes the suggestions for every name visible at line.
// Labels are unique; the tightest-scoped record of a label wins.
func Symbols(idx *symbols.Index, line int) []Item {
	candidates := Candidates(idx, line)
	items := make([]Item, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, r := range candidates {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		item := FromRecord(r)
		item.SortText = sortKey(0, len(items))
		items = append(items, item)
	}
	return items
}

// FromRecord converts one record into a suggestion. Only function declarations become
// call templates; parameters that reference functions are inserted as plain names.
func FromRecord(r symbols.Record) Item {
	if r.IsFunction() {
		return Item{
			Label:         r.Name,
			Kind:          KindFunction,
			Detail:        "Inserts " + r.Name + " function",
			Documentation: r.Doc,
			InsertText:    r.Name + "(" + Placeholders(r.ParamNames()) + ")",
			Format:        SnippetText,
		}
	}
	return Item{
		Label:         r.Name,
		Kind:          KindVariable,
		Detail:        "Inserts " + r.Name + " variable/parameter",
		Documentation: r.Doc,
		InsertText:    r.Name,
		Format:        PlainText,
	}
}

// Placeholders renders positional snippet tab stops: "${1:a}, ${2:b}".
func Placeholders(params []string) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = "${" + strconv.Itoa(i+1) + ":" + escapePlaceholder(p) + "}"
	}
	return strings.Join(parts, ", ")
}

func escapePlaceholder(s string) string {
	return strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`).Replace(s)
}

// Merge concatenates groups, dropping any item whose label already appeared.
func Merge(groups ...[]Item) []Item {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	out := make([]Item, 0, total)
	seen := make(map[string]struct{}, total)
	for _, g := range groups {
		for _, item := range g {
			if _, ok := seen[item.Label]; ok {
				continue
			}
			seen[item.Label] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// At returns symbol suggestions followed by keyword and snippet suggestions.
func At(idx *symbols.Index, line int) []Item {
	return Merge(Symbols(idx, line), Keywords(idx), Snippets())
}

func sortKey(group, rank int) string {
	return fmt.Sprintf("%d_%05d", group, rank)
}
