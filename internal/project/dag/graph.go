package dag

import "slices"

// Graph holds dependency edges. Edges[dep] lists the files importing dep, so a
// topological order visits every dependency before its importers.
type Graph struct {
	Edges   [][]FileID
	Indeg   []int  // incoming edges from present files only, used by Kahn
	Present []bool // the file is part of the project, not only imported
}

// BuildGraph builds the dependency graph of nodes over idx.
// Self imports and duplicate edges are dropped; imports of files outside the
// project never constrain the order.
func BuildGraph(idx FileIndex, nodes []FileNode) Graph {
	n := len(idx.IDToPath)
	g := Graph{
		Edges:   make([][]FileID, n),
		Indeg:   make([]int, n),
		Present: make([]bool, n),
	}
	for _, node := range nodes {
		if id, ok := idx.PathToID[node.Path]; ok {
			g.Present[int(id)] = true
		}
	}
	for _, node := range nodes {
		to, ok := idx.PathToID[node.Path]
		if !ok {
			continue
		}
		for _, dep := range node.Imports {
			from, ok := idx.PathToID[dep]
			if !ok || from == to || !g.Present[int(from)] {
				continue
			}
			if slices.Contains(g.Edges[int(from)], to) {
				continue
			}
			g.Edges[int(from)] = append(g.Edges[int(from)], to)
			g.Indeg[int(to)]++
		}
	}
	for i := range g.Edges {
		slices.Sort(g.Edges[i])
	}
	return g
}
