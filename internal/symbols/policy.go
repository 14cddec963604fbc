package symbols

import (
	"path/filepath"
	"strings"

	"github.com/dghubble/trie"
)

// DefaultReservedNamespaces are import prefixes that name the language's own libraries.
var DefaultReservedNamespaces = []string{"jaiva"}

// ImportPolicy decides which import paths the builder skips.
type ImportPolicy struct {
	reserved *trie.PathTrie
}

// NewImportPolicy builds a policy reserving the given path prefixes.
func NewImportPolicy(namespaces ...string) *ImportPolicy {
	p := &ImportPolicy{
		reserved: trie.NewPathTrieWithConfig(&trie.PathTrieConfig{
			Segmenter: importPathSegmenter,
		}),
	}
	for _, ns := range namespaces {
		ns = cleanImportPath(ns)
		if ns == "" {
			continue
		}
		p.reserved.Put(ns, ns)
	}
	return p
}

// DefaultImportPolicy reserves DefaultReservedNamespaces.
func DefaultImportPolicy() *ImportPolicy {
	return NewImportPolicy(DefaultReservedNamespaces...)
}

// Reserved reports whether importPath starts with a reserved namespace segment.
func (p *ImportPolicy) Reserved(importPath string) bool {
	if p == nil || p.reserved == nil {
		return false
	}
	key := cleanImportPath(importPath)
	if key == "" {
		return false
	}
	var hit bool
	_ = p.reserved.WalkPath(key, func(string, interface{}) error {
		hit = true
		return nil
	})
	return hit
}

// ResolveImportPath turns an import path into the absolute path the table is keyed by.
// Relative paths are resolved against the directory of the importing file.
func ResolveImportPath(importingFile, importPath string) string {
	p := strings.TrimSpace(importPath)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(filepath.Dir(importingFile), p)
}

func cleanImportPath(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return strings.Trim(p, "/")
}

// importPathSegmenter segments slash separated paths without allocating:
// "a/b/c" -> ("a", 1), ("/b", 3), ("/c", -1).
func importPathSegmenter(path string, start int) (segment string, next int) {
	if len(path) == 0 || start < 0 || start > len(path)-1 {
		return "", -1
	}
	end := strings.IndexRune(path[start+1:], '/')
	if end == -1 {
		return path[start:], -1
	}
	return path[start : start+end+1], start + end + 1
}
