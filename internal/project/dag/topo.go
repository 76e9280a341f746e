package dag

import (
	"slices"
)

type Topo struct {
	Order   []FileID   // importers before their imports
	Batches [][]FileID // волны независимых файлов
	Cyclic  bool
	Cycles  []FileID // узлы, оставшиеся в цикле
}

func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	indeg := slices.Clone(g.Indeg)
	topo := &Topo{Order: make([]FileID, 0, nodeCount)}

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

	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)
		next := make([]FileID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			for _, to := range g.Edges[int(id)] {
				if !g.Present[int(to)] {
					continue
				}
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(topo.Order) != active {
		topo.Cyclic = true
		for i := range nodeCount {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, toID(i))
			}
		}
	}
	return topo
}

// DepsFirst returns every present file with imports before importers.
// Files stuck in a cycle are appended in index order.
func (t *Topo) DepsFirst() []FileID {
	out := make([]FileID, 0, len(t.Order)+len(t.Cycles))
	out = append(out, t.Cycles...)
	for i := len(t.Order) - 1; i >= 0; i-- {
		out = append(out, t.Order[i])
	}
	return out
}
