package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	hoverpkg "jaivals/internal/hover"
	"jaivals/internal/workspace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// SetupFunc prepares the indexer for a workspace root. It runs once, on first use.
type SetupFunc func(ctx context.Context, root string) (*workspace.Indexer, error)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// Debounce delays re-indexing after open and save notifications.
	Debounce time.Duration
	Setup    SetupFunc
	// IndexOnStart indexes the whole workspace after "initialized".
	IndexOnStart bool
	Version      string
	Logger       *zerolog.Logger
}

// Server handles stdio JSON-RPC for the Jaiva language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	mu     sync.Mutex

	// flushMu runs debounced batches one at a time.
	flushMu sync.Mutex

	openDocs map[string]string
	versions map[string]int
	pending  map[string]struct{}

	workspaceRoot     string
	shutdownRequested bool
	debounce          time.Duration
	debounceTimer     *time.Timer
	indexOnStart      bool
	version           string
	traceLSP          bool
	// hoverOverride is the renderer set through settings; applied to the indexer once it exists.
	hoverOverride *hoverpkg.Renderer

	setupMu  sync.Mutex
	setup    SetupFunc
	setupErr error
	indexer  *workspace.Indexer
	baseCtx  context.Context
	bg       sync.WaitGroup
	log      zerolog.Logger
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	s := &Server{
		in:           bufio.NewReader(in),
		out:          bufio.NewWriter(out),
		openDocs:     make(map[string]string),
		versions:     make(map[string]int),
		pending:      make(map[string]struct{}),
		debounce:     debounce,
		indexOnStart: opts.IndexOnStart,
		version:      opts.Version,
		setup:        opts.Setup,
		baseCtx:      context.Background(),
		log:          zerolog.Nop(),
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "lsp").Logger()
	}
	return s
}

// Run serves LSP requests until exit or end of input. Background indexing is
// waited for before returning.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	defer s.bg.Wait()
	defer s.stopDebounce()

	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Warn().Err(err).Msg("failed to parse message")
			if sendErr := s.sendError(nil, codeParseError, "parse error"); sendErr != nil {
				return sendErr
			}
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	if s.currentTrace() {
		s.log.Debug().Str("method", msg.Method).RawJSON("id", orNull(msg.ID)).Msg("request")
	}
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return s.handleInitialized()
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShutdown() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()
	if len(params.InitializationOptions) > 0 {
		s.applySettings(params.InitializationOptions)
	}

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save:      saveOptions{IncludeText: true},
			},
			HoverProvider:      true,
			CompletionProvider: &completionOptions{},
		},
		ServerInfo: &serverInfo{Name: "jaivals", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleInitialized() error {
	if !s.indexOnStart {
		return nil
	}
	s.mu.Lock()
	root := s.workspaceRoot
	s.mu.Unlock()
	if root == "" {
		return nil
	}
	s.background(func(ctx context.Context) {
		ix := s.indexerFor(ctx, root)
		if ix == nil {
			return
		}
		summary, err := ix.IndexProject(ctx, s.projectRoot(root))
		if err != nil {
			s.log.Warn().Err(err).Str("root", root).Msg("workspace indexing failed")
			return
		}
		s.log.Info().Int("files", len(summary.Files)).Dur("elapsed", summary.Elapsed).Msg("workspace indexed")
	})
	return nil
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.stopDebounce()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = params.TextDocument.Text
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleIndex(uriToPath(uri))
	return nil
}

// handleDidChange only tracks the text; the parser reads files from disk, so
// indexes are refreshed on save.
func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = applyChanges(s.openDocs[uri], params.ContentChanges)
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	if params.Text != nil {
		s.mu.Lock()
		s.openDocs[uri] = *params.Text
		s.mu.Unlock()
	}
	s.scheduleIndex(uriToPath(uri))
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.openDocs, uri)
	delete(s.versions, uri)
	s.mu.Unlock()
	return nil
}

// scheduleIndex queues path and restarts the debounce timer.
func (s *Server) scheduleIndex(path string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[path] = struct{}{}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.debounce, s.flushPending)
}

// flushPending re-indexes every queued path, dependencies first.
func (s *Server) flushPending() {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(s.pending))
	for p := range s.pending {
		paths = append(paths, p)
	}
	s.pending = make(map[string]struct{})
	root := s.workspaceRoot
	ctx := s.baseCtx
	s.mu.Unlock()
	slices.Sort(paths)

	if root == "" {
		root = filepath.Dir(paths[0])
	}
	ix := s.indexerFor(ctx, root)
	if ix == nil {
		return
	}
	results, err := ix.Reindex(ctx, paths...)
	if err != nil {
		s.log.Warn().Err(err).Strs("files", paths).Msg("re-index failed")
		return
	}
	for _, r := range results {
		ev := s.log.Debug()
		if r.Err != nil {
			ev = s.log.Warn().Err(r.Err)
		}
		ev.Str("file", r.Path).Int("records", r.Records).Bool("unchanged", r.Unchanged).Msg("re-indexed")
	}
}

func (s *Server) stopDebounce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
}

// indexerFor returns the workspace indexer, running Setup on first use.
// A failed setup is remembered and reported once. Setup runs without s.mu held.
func (s *Server) indexerFor(ctx context.Context, root string) *workspace.Indexer {
	s.setupMu.Lock()
	defer s.setupMu.Unlock()
	s.mu.Lock()
	ix, failed := s.indexer, s.setupErr != nil
	s.mu.Unlock()
	if ix != nil || failed {
		return ix
	}

	if s.setup == nil {
		ix = workspace.New(workspace.Options{Logger: &s.log})
	} else {
		var err error
		ix, err = s.setup(ctx, s.projectRoot(root))
		if err != nil {
			s.mu.Lock()
			s.setupErr = err
			s.mu.Unlock()
			s.log.Error().Err(err).Str("root", root).Msg("workspace setup failed")
			go func() { _ = s.showMessage(1, fmt.Sprintf("jaivals: %v", err)) }()
			return nil
		}
	}
	s.mu.Lock()
	s.indexer = ix
	override := s.hoverOverride
	s.mu.Unlock()
	if override != nil {
		ix.SetHover(*override)
	}
	return ix
}

// background runs fn on its own goroutine; Run waits for it before returning.
func (s *Server) background(fn func(ctx context.Context)) {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		fn(ctx)
	}()
}

// setHover rebuilds every indexed file with a new renderer.
func (s *Server) setHover(r hoverpkg.Renderer) {
	s.mu.Lock()
	s.hoverOverride = &r
	ix := s.indexer
	s.mu.Unlock()
	if ix == nil {
		return
	}
	ix.SetHover(r)
	s.background(func(ctx context.Context) {
		if _, err := ix.RebuildAll(ctx); err != nil {
			s.log.Warn().Err(err).Msg("rebuild after settings change failed")
		}
	})
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(orNull(id)),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(orNull(id)),
		"error":   rpcError{Code: code, Message: message},
	}
	return s.send(msg)
}

// showMessage sends window/showMessage; typ 1 is an error, 3 info.
func (s *Server) showMessage(typ int, message string) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  "window/showMessage",
		"params":  logMessageParams{Type: typ, Message: message},
	})
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func orNull(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
