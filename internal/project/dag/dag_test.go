package dag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func batchesToPaths(idx FileIndex, batches [][]FileID) [][]string {
	out := make([][]string, len(batches))
	for i, batch := range batches {
		out[i] = idx.Paths(batch)
	}
	return out
}

func TestBuildIndexIncludesImports(t *testing.T) {
	nodes := []FileNode{
		{Path: "/p/main.jiv", Imports: []string{"/p/math.jiv", "/p/util.jiv"}},
		{Path: "/p/util.jiv"},
	}
	idx := BuildIndex(nodes)

	want := []string{"/p/main.jiv", "/p/math.jiv", "/p/util.jiv"}
	if diff := cmp.Diff(want, idx.IDToPath); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	for i, p := range want {
		if id, ok := idx.PathToID[p]; !ok || int(id) != i {
			t.Fatalf("PathToID[%q] = %v, want %d", p, id, i)
		}
	}
}

func TestToposortDependenciesFirst(t *testing.T) {
	nodes := []FileNode{
		{Path: "/p/a.jiv", Imports: []string{"/p/b.jiv", "/p/c.jiv"}},
		{Path: "/p/b.jiv", Imports: []string{"/p/c.jiv"}},
		{Path: "/p/c.jiv"},
		{Path: "/p/d.jiv", Imports: []string{"/p/missing.jiv", "/p/d.jiv"}},
	}
	idx := BuildIndex(nodes)
	g := BuildGraph(idx, nodes)
	topo := ToposortKahn(g)

	if topo.Cyclic {
		t.Fatalf("unexpected cycle: %v", idx.Paths(topo.Cycles))
	}
	wantBatches := [][]string{
		{"/p/c.jiv", "/p/d.jiv"},
		{"/p/b.jiv"},
		{"/p/a.jiv"},
	}
	if diff := cmp.Diff(wantBatches, batchesToPaths(idx, topo.Batches)); diff != "" {
		t.Fatalf("batches (-want +got):\n%s", diff)
	}
	if len(topo.BuildOrder()) != 4 {
		t.Fatalf("missing.jiv is not part of the project and must not be ordered")
	}
}

func TestToposortCycleIsAppended(t *testing.T) {
	nodes := []FileNode{
		{Path: "/p/a.jiv", Imports: []string{"/p/b.jiv"}},
		{Path: "/p/b.jiv", Imports: []string{"/p/a.jiv"}},
		{Path: "/p/c.jiv"},
		{Path: "/p/d.jiv", Imports: []string{"/p/a.jiv"}},
	}
	idx := BuildIndex(nodes)
	topo := ToposortKahn(BuildGraph(idx, nodes))

	if !topo.Cyclic {
		t.Fatalf("expected a cycle")
	}
	if diff := cmp.Diff([]string{"/p/c.jiv"}, idx.Paths(topo.Order)); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	want := []string{"/p/c.jiv", "/p/a.jiv", "/p/b.jiv", "/p/d.jiv"}
	if diff := cmp.Diff(want, idx.Paths(topo.BuildOrder())); diff != "" {
		t.Fatalf("build order (-want +got):\n%s", diff)
	}
}

func TestBuildGraphDropsDuplicateEdges(t *testing.T) {
	nodes := []FileNode{
		{Path: "/p/a.jiv", Imports: []string{"/p/b.jiv", "/p/b.jiv"}},
		{Path: "/p/b.jiv"},
	}
	idx := BuildIndex(nodes)
	g := BuildGraph(idx, nodes)
	a := idx.PathToID["/p/a.jiv"]
	b := idx.PathToID["/p/b.jiv"]
	if g.Indeg[int(a)] != 1 || len(g.Edges[int(b)]) != 1 {
		t.Fatalf("expected a single b->a edge, got indeg=%d edges=%v", g.Indeg[int(a)], g.Edges[int(b)])
	}
}
