package lsp

import (
	"encoding/json"

	"jaivals/internal/completion"
	"jaivals/internal/symbols"
)

const (
	completionItemKindFunction = 3
	completionItemKindVariable = 6
	completionItemKindKeyword  = 14
	completionItemKindSnippet  = 15

	insertTextFormatPlain   = 1
	insertTextFormatSnippet = 2
)

func (s *Server) handleCompletion(msg *rpcMessage) error {
	var params completionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return s.sendResponse(msg.ID, completionList{Items: []completionItem{}})
	}
	return s.sendResponse(msg.ID, buildCompletion(s.indexFor(uri), params.Position))
}

// buildCompletion lists everything visible at pos. A nil index still yields
// keywords and snippets.
func buildCompletion(idx *symbols.Index, pos position) completionList {
	items := completion.At(idx, pos.Line+1)
	out := make([]completionItem, 0, len(items))
	for _, it := range items {
		out = append(out, toLSPItem(it))
	}
	return completionList{IsIncomplete: false, Items: out}
}

func toLSPItem(it completion.Item) completionItem {
	item := completionItem{
		Label:            it.Label,
		Kind:             lspItemKind(it.Kind),
		Detail:           it.Detail,
		InsertText:       it.InsertText,
		InsertTextFormat: insertTextFormatPlain,
		SortText:         it.SortText,
	}
	if it.Format == completion.SnippetText {
		item.InsertTextFormat = insertTextFormatSnippet
	}
	if it.Documentation != "" {
		item.Documentation = &markupContent{Kind: "markdown", Value: it.Documentation}
	}
	return item
}

func lspItemKind(k completion.Kind) int {
	switch k {
	case completion.KindFunction:
		return completionItemKindFunction
	case completion.KindKeyword:
		return completionItemKindKeyword
	case completion.KindSnippet:
		return completionItemKindSnippet
	default:
		return completionItemKindVariable
	}
}
