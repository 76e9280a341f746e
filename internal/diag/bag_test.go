package diag

import (
	"testing"

	"weft/internal/source"
)

func TestBagLimitAndErrors(t *testing.T) {
	b := NewBag(2)
	r := BagReporter{Bag: b}
	r.Report(ResCycle, SevWarning, source.Span{}, "cycle", nil, nil)
	if b.HasErrors() {
		t.Fatalf("warning counted as error")
	}
	r.Report(DirEventAttr, SevError, source.Span{}, "onClick", nil, nil)
	r.Report(DirEventAttr, SevError, source.Span{}, "dropped", nil, nil)
	if b.Len() != 2 {
		t.Fatalf("len = %d, want 2", b.Len())
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("expected errors and warnings")
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(0)
	b.Add(New(SevInfo, GenIndeterminatePath, source.Span{File: 1, Start: 5, End: 6}, "s3"))
	b.Add(New(SevWarning, ResCycle, source.Span{File: 0, Start: 9, End: 9}, "a"))
	b.Add(New(SevError, DirEventAttr, source.Span{File: 1, Start: 5, End: 6}, "b"))
	b.Add(New(SevWarning, ResCycle, source.Span{File: 0, Start: 9, End: 9}, "a"))
	b.Dedup()
	b.Sort()
	got := []Code{}
	for _, d := range b.Items() {
		got = append(got, d.Code)
	}
	want := []Code{ResCycle, DirEventAttr, GenIndeterminatePath}
	if len(got) != len(want) {
		t.Fatalf("codes = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("codes = %v, want %v", got, want)
		}
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		ResCycle:          "RES3001",
		DirRuntimeImport:  "DIR2001",
		HydMissingPayload: "HYD8001",
		Code(42):          "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d: got %s want %s", code, got, want)
		}
	}
}

func TestDedupReporter(t *testing.T) {
	b := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: b})
	for range 3 {
		ReportWarning(r, ResCycle, source.Span{}, "Counter -> Badge -> Counter").Emit()
	}
	if b.Len() != 1 {
		t.Fatalf("len = %d", b.Len())
	}
}
