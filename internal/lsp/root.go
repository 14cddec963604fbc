package lsp

import (
	"os"
	"path/filepath"

	"jaivals/internal/project"
)

// projectRoot widens start to the nearest directory holding a project
// marker. Without one, start itself (or its directory, for a file) is used.
func (s *Server) projectRoot(start string) string {
	dir := resolveStartDir(start)
	if dir == "" {
		return ""
	}
	if found, ok, err := project.FindProjectRoot(dir); err == nil && ok {
		return found
	}
	return dir
}

func resolveStartDir(path string) string {
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
