package lsp

import (
	"context"
	"encoding/json"
	"strings"

	"jaivals/internal/symbols"
)

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return s.sendResponse(msg.ID, nil)
	}
	idx := s.indexFor(uri)
	if idx == nil {
		return s.sendResponse(msg.ID, nil)
	}
	text, ok := s.documentText(uri)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, buildHover(idx, text, params.Position))
}

// buildHover resolves the word under pos against idx. LSP lines are 0-based,
// index lines 1-based.
func buildHover(idx *symbols.Index, text string, pos position) *hover {
	word, rng, ok := wordAt(text, pos)
	if !ok {
		return nil
	}
	rec, ok := symbols.Lookup(idx, symbols.Normalize(word), pos.Line+1)
	if !ok || rec.Hover == "" {
		return nil
	}
	parts := []string{"```jaiva\n" + rec.Hover + "\n```"}
	if doc := strings.TrimSpace(rec.Doc); doc != "" {
		parts = append(parts, doc)
	}
	return &hover{
		Contents: markupContent{Kind: "markdown", Value: strings.Join(parts, "\n\n")},
		Range:    &rng,
	}
}

// indexFor returns the published index for uri, indexing the file and its
// imports synchronously when nothing has been published yet.
func (s *Server) indexFor(uri string) *symbols.Index {
	path := uriToPath(uri)
	if path == "" {
		return nil
	}
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	root := s.currentRoot()
	if root == "" {
		root = path
	}
	ix := s.indexerFor(ctx, root)
	if ix == nil {
		return nil
	}
	if idx, ok := ix.Lookup(path); ok {
		return idx
	}
	if _, err := ix.IndexWithImports(context.WithoutCancel(ctx), path); err != nil {
		s.log.Warn().Err(err).Str("file", path).Msg("on-demand indexing failed")
		return nil
	}
	idx, _ := ix.Lookup(path)
	return idx
}
