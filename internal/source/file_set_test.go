package source

import "testing"

func TestFileSetAddNormalizes(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("a/../Counter.tsx", []byte("\xEF\xBB\xBFline1\r\nline2\r\n"), 0)
	f := fs.Get(id)
	if f.Path != "Counter.tsx" {
		t.Fatalf("path = %q", f.Path)
	}
	if string(f.Content) != "line1\nline2\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
	if got := f.GetLine(2); got != "line2" {
		t.Fatalf("line 2 = %q", got)
	}
	if got := f.GetLine(4); got != "" {
		t.Fatalf("line 4 = %q", got)
	}
}

func TestFileSetLatestWins(t *testing.T) {
	fs := NewFileSet()
	first := fs.AddVirtual("x.tsx", []byte("one"))
	second := fs.AddVirtual("x.tsx", []byte("two"))
	if first == second {
		t.Fatalf("expected distinct ids")
	}
	f, ok := fs.GetByPath("x.tsx")
	if !ok || f.ID != second {
		t.Fatalf("GetByPath = %v, %v", f, ok)
	}
	if fs.Get(first).Hash == fs.Get(second).Hash {
		t.Fatalf("hash should differ")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("x.tsx", []byte("ab\ncd\nef"))
	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{7, LineCol{3, 2}},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start != tc.want {
			t.Errorf("offset %d: got %+v want %+v", tc.off, start, tc.want)
		}
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 20}); got != a {
		t.Fatalf("cross-file cover = %v", got)
	}
}
