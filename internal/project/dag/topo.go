package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Topo is the result of a Kahn topological sort.
type Topo struct {
	Order   []FileID   // linear order of present files that are not on a cycle
	Batches [][]FileID // waves of mutually independent files
	Cyclic  bool
	Cycles  []FileID // present files left with unresolved dependencies
}

// ToposortKahn sorts the present files of g. Ties are broken by id, which is path order.
func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{
		Order:   make([]FileID, 0, nodeCount),
		Batches: make([][]FileID, 0),
	}

	active := 0
	current := make([]FileID, 0, nodeCount)
	for i := range nodeCount {
		if !g.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, toID(i))
		}
	}

	visited := 0
	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]FileID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, to := range g.Edges[int(id)] {
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := range nodeCount {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, toID(i))
			}
		}
	}
	return topo
}

// BuildOrder returns Order followed by the cyclic remainder, so every present file
// appears exactly once.
func (t *Topo) BuildOrder() []FileID {
	out := make([]FileID, 0, len(t.Order)+len(t.Cycles))
	out = append(out, t.Order...)
	return append(out, t.Cycles...)
}

func toID(i int) FileID {
	id, err := safecast.Conv[FileID](i)
	if err != nil {
		panic(fmt.Errorf("file id overflow: %w", err))
	}
	return id
}
