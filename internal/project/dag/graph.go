package dag

import (
	"fmt"
	"slices"
	"strings"

	"weft/internal/diag"
	"weft/internal/project"
)

// Graph holds importer -> imported edges between component source files.
type Graph struct {
	Edges   [][]FileID // Edges[from] = []to
	Indeg   []int      // входящие степени для Kahn (только присутствующие файлы)
	Present []bool     // файл реально собран, а не только упомянут в импорте
}

type FileNode struct {
	Meta     project.FileMeta
	Reporter diag.Reporter
}

type FileSlot struct {
	Meta     project.FileMeta
	Reporter diag.Reporter
	Present  bool
}

// BuildGraph wires nodes into a graph. Imports of files that were not
// resolved (placeholders cut by a cycle, external packages) are kept as
// edges but do not count towards in-degrees.
func BuildGraph(idx FileIndex, nodes []FileNode) (Graph, []FileSlot) {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]FileID, nodeCount),
		Indeg:   make([]int, nodeCount),
		Present: make([]bool, nodeCount),
	}
	slots := make([]FileSlot, nodeCount)
	for i, name := range idx.IDToName {
		slots[i].Meta.Path = name
	}

	for _, node := range nodes {
		id, ok := idx.NameToID[node.Meta.Path]
		if !ok || slots[int(id)].Present {
			continue
		}
		slot := &slots[int(id)]
		slot.Meta = node.Meta
		slot.Reporter = node.Reporter
		slot.Present = true
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present {
			continue
		}
		seen := make(map[FileID]struct{}, len(slot.Meta.Imports))
		for _, dep := range slot.Meta.Imports {
			toID, ok := idx.NameToID[dep.Path]
			if !ok || toID == FileID(from) {
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}
			g.Edges[from] = append(g.Edges[from], toID)
			if g.Present[int(toID)] {
				g.Indeg[int(toID)]++
			}
		}
		slices.Sort(g.Edges[from])
	}
	return g, slots
}

// ReportCycles emits a warning on every file left in a cycle. Component
// cycles are legal (the resolver degrades them), the warning points at the
// files so the user can see why a placeholder was rendered.
func ReportCycles(idx FileIndex, slots []FileSlot, topo *Topo) {
	if topo == nil || !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, slots[int(id)].Meta.Rel)
		if names[len(names)-1] == "" {
			names[len(names)-1] = idx.IDToName[int(id)]
		}
	}
	summary := strings.Join(names, " -> ")
	for _, id := range topo.Cycles {
		slot := slots[int(id)]
		if !slot.Present || slot.Reporter == nil {
			continue
		}
		msg := fmt.Sprintf("file participates in an import cycle: %s", summary)
		slot.Reporter.Report(diag.PrjImportCycle, diag.SevWarning, slot.Meta.Span, msg, nil, nil)
	}
}
