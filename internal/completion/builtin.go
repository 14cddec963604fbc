package completion

import (
	"jaivals/internal/symbols"
)

// KeywordsSymbol is the library array listing the language keywords.
const KeywordsSymbol = "reservedKeywords"

// Keywords builds keyword items from the first reservedKeywords array visible anywhere in idx.
func Keywords(idx *symbols.Index) []Item {
	if idx == nil {
		return nil
	}
	var words []string
	for _, r := range idx.Get(KeywordsSymbol) {
		if len(r.Elements) > 0 {
			words = r.Elements
			break
		}
	}
	items := make([]Item, 0, len(words))
	for i, w := range words {
		items = append(items, Item{
			Label:      w,
			Kind:       KindKeyword,
			Detail:     "Inserts keyword",
			InsertText: w,
			Format:     PlainText,
			SortText:   sortKey(1, i),
		})
	}
	return items
}

type snippet struct {
	label  string
	detail string
	body   string
}

var snippets = []snippet{
	{
		label:  "kwenza",
		detail: "Function Declaration",
		body:   "kwenza ${1:functionName}(${2:paramName}) ->\n\t@ Functions.\n\tkhutla ${3:returnValue}\n<~",
	},
	{
		label:  "maak",
		detail: "Variable Declaration.",
		body:   "maak ${1:variableName} <- ${2:value}!",
	},
	{
		label:  "maak array",
		detail: "Variable Array Declaration.",
		body:   "maak ${1:variableName} <-| ${2:value1}, ${3:value2}! @ More , separated values.",
	},
	{
		label:  "if",
		detail: "If Statement",
		body:   "if (${1:condition}) ->\n\t@TODO: Write horrible code.\n\tkhuluma(\"wus good world\")\n<~",
	},
	{
		label:  "mara if",
		detail: "Mara If Statement",
		body:   "mara if (${1:condition}) ->\n\t@TODO: Write horrible code.\n\tkhuluma(\"wus good world\")\n<~",
	},
	{
		label:  "mara",
		detail: "Mara Statement",
		body:   "mara ->\n\t@TODO: Write horrible code.\n<~",
	},
	{
		label:  "nikhil",
		detail: "Nikhil Statement",
		body:   "nikhil (${1:condition}) ->\n\t@ shout out to all da nikhils\n<~",
	},
	{
		label:  "colonize",
		detail: "Colonize Statement",
		body:   "colonize i <- ${1:value} | ${2:condition} | ${3:increment} ->\n\tkhuluma(i)!\n\t@ my favourite loop\n<~",
	},
	{
		label:  "colonize with",
		detail: "Colonize With Statement",
		body:   "colonize ${1:variable} with ${2:arrayVariable} ->\n\t@ my favourite loop\n<~",
	},
	{
		label:  "zama zama",
		detail: "Zama zama Statement",
		body:   "zama zama ->\n\tcima <== ${1:Message}! @ This line will trigger the error handler.\n<~ chaai ->\n\t@ if an error is thrown it's chaai.\n\tkhuluma(error)!\n<~",
	},
}

// Snippets returns the fixed statement templates.
func Snippets() []Item {
	items := make([]Item, len(snippets))
	for i, s := range snippets {
		items[i] = Item{
			Label:      s.label,
			Kind:       KindSnippet,
			Detail:     s.detail,
			InsertText: s.body,
			Format:     SnippetText,
			SortText:   sortKey(2, i),
		}
	}
	return items
}
