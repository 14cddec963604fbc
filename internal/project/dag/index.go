// Package dag orders project files so that imported files are indexed before their importers.
package dag

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
)

// FileID is a dense identifier assigned in sorted path order.
type FileID uint32

// FileNode is one indexed file and the absolute paths it imports.
type FileNode struct {
	Path    string
	Imports []string
}

// FileIndex maps paths to dense ids and back.
type FileIndex struct {
	PathToID map[string]FileID
	IDToPath []string
}

// BuildIndex collects the unique paths of the nodes and their imports, sorts them
// and assigns ids in that order.
func BuildIndex(nodes []FileNode) FileIndex {
	uniq := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		if node.Path != "" {
			uniq[node.Path] = struct{}{}
		}
		for _, dep := range node.Imports {
			if dep != "" {
				uniq[dep] = struct{}{}
			}
		}
	}

	paths := make([]string, 0, len(uniq))
	for path := range uniq {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	pathToID := make(map[string]FileID, len(paths))
	for i, path := range paths {
		id, err := safecast.Conv[FileID](i)
		if err != nil {
			panic(fmt.Errorf("file id overflow: %w", err))
		}
		pathToID[path] = id
	}
	return FileIndex{PathToID: pathToID, IDToPath: paths}
}

// Paths converts ids back to paths.
func (idx FileIndex) Paths(ids []FileID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToPath[int(id)]
	}
	return out
}
