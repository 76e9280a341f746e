package driver

import (
	"weft/internal/project"
	"weft/internal/project/dag"
)

// ComputeFileHashes fills FileHash of every present slot in dependency
// order: H(content || hash of each rendered file). Files in a cycle, and
// every file that depends on one, keep a zero FileHash and are never cached.
func ComputeFileHashes(g dag.Graph, slots []dag.FileSlot, topo *dag.Topo) {
	if topo == nil {
		return
	}
	inCycle := make(map[dag.FileID]bool, len(topo.Cycles))
	for _, id := range topo.Cycles {
		inCycle[id] = true
	}
	var zero project.Digest
	for _, id := range topo.DepsFirst() {
		slot := &slots[int(id)]
		if !slot.Present || inCycle[id] {
			continue
		}
		deps := make([]project.Digest, 0, len(g.Edges[int(id)]))
		ok := true
		for _, to := range g.Edges[int(id)] {
			if !g.Present[int(to)] {
				continue
			}
			h := slots[int(to)].Meta.FileHash
			if h == zero {
				ok = false
				break
			}
			deps = append(deps, h)
		}
		if !ok {
			slot.Meta.FileHash = zero
			continue
		}
		slot.Meta.FileHash = project.Combine(slot.Meta.ContentHash, deps...)
	}
}
