package lsp

func (s *Server) currentTrace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traceLSP
}

func (s *Server) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

func (s *Server) currentRoot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workspaceRoot
}

// documentText returns the open buffer for uri, or the file on disk.
func (s *Server) documentText(uri string) (string, bool) {
	s.mu.Lock()
	text, ok := s.openDocs[uri]
	s.mu.Unlock()
	if ok {
		return text, true
	}
	return readFileText(uriToPath(uri))
}
