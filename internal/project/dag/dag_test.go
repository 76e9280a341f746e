package dag

import (
	"testing"

	"weft/internal/diag"
	"weft/internal/project"
	"weft/internal/source"
)

func names(idx FileIndex, ids []FileID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}

func meta(path string, imports ...string) project.FileMeta {
	m := project.FileMeta{Path: path, Rel: path}
	for _, imp := range imports {
		m.Imports = append(m.Imports, project.ImportMeta{Path: imp})
	}
	return m
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildIndexIncludesImports(t *testing.T) {
	idx := BuildIndex([]project.FileMeta{meta("/p/App.tsx", "/p/Counter.tsx", "/p/Badge.tsx"), meta("/p/Badge.tsx")})
	want := []string{"/p/App.tsx", "/p/Badge.tsx", "/p/Counter.tsx"}
	if !equal(idx.IDToName, want) {
		t.Fatalf("IDToName = %v, want %v", idx.IDToName, want)
	}
}

func TestDepsFirstOrder(t *testing.T) {
	metas := []project.FileMeta{
		meta("/p/App.tsx", "/p/Counter.tsx", "/p/Badge.tsx"),
		meta("/p/Counter.tsx", "/p/Badge.tsx"),
		meta("/p/Badge.tsx"),
	}
	idx := BuildIndex(metas)
	nodes := make([]FileNode, len(metas))
	for i, m := range metas {
		nodes[i] = FileNode{Meta: m}
	}
	g, _ := BuildGraph(idx, nodes)
	topo := ToposortKahn(g)
	if topo.Cyclic {
		t.Fatalf("unexpected cycle: %v", topo.Cycles)
	}
	got := names(idx, topo.DepsFirst())
	want := []string{"/p/Badge.tsx", "/p/Counter.tsx", "/p/App.tsx"}
	if !equal(got, want) {
		t.Fatalf("deps first = %v, want %v", got, want)
	}
}

func TestMissingImportIsNotCounted(t *testing.T) {
	metas := []project.FileMeta{meta("/p/App.tsx", "/p/Gone.tsx")}
	idx := BuildIndex(metas)
	g, _ := BuildGraph(idx, []FileNode{{Meta: metas[0]}})
	topo := ToposortKahn(g)
	if topo.Cyclic || len(topo.Order) != 1 {
		t.Fatalf("topo = %+v", topo)
	}
}

func TestReportCyclesWarns(t *testing.T) {
	a := meta("/p/Tree.tsx", "/p/Node.tsx")
	a.Span = source.Span{File: 1}
	b := meta("/p/Node.tsx", "/p/Tree.tsx")
	bagA, bagB := diag.NewBag(0), diag.NewBag(0)

	idx := BuildIndex([]project.FileMeta{a, b})
	g, slots := BuildGraph(idx, []FileNode{
		{Meta: a, Reporter: diag.BagReporter{Bag: bagA}},
		{Meta: b, Reporter: diag.BagReporter{Bag: bagB}},
	})
	topo := ToposortKahn(g)
	if !topo.Cyclic || len(topo.Cycles) != 2 {
		t.Fatalf("expected two files in cycle, got %+v", topo)
	}
	ReportCycles(idx, slots, topo)
	for _, bag := range []*diag.Bag{bagA, bagB} {
		if bag.Len() != 1 || bag.Items()[0].Code != diag.PrjImportCycle || bag.Items()[0].Severity != diag.SevWarning {
			t.Fatalf("diagnostics = %+v", bag.Items())
		}
	}
	if got := len(topo.DepsFirst()); got != 2 {
		t.Fatalf("cyclic files must still be listed, got %d", got)
	}
}
