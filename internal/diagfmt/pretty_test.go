package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"weft/internal/diag"
	"weft/internal/source"
)

func TestPrettyPrintsLocationAndCaret(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("Counter.tsx", []byte("const a = 1;\n<button onClick={inc}>+</button>\n"))
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevError, diag.DirEventAttr, source.Span{File: id, Start: 21, End: 28}, "onClick requires \"use client\""))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	out := buf.String()
	if !strings.HasPrefix(out, "Counter.tsx:2:9: ERROR DIR2002: onClick") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "\n          ^~~~~~~\n") {
		t.Fatalf("caret line missing:\n%q", out)
	}
}

func TestPrettyWithoutFile(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevWarning, diag.ResCycle, source.Span{}, "A -> B -> A"))
	var buf bytes.Buffer
	Pretty(&buf, bag, nil, PrettyOpts{})
	if got := buf.String(); got != "WARNING RES3001: A -> B -> A\n" {
		t.Fatalf("got %q", got)
	}
}

func TestJSONOutput(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.tsx", []byte("x\ny"))
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevInfo, diag.GenIndeterminatePath, source.Span{File: id, Start: 2, End: 3}, "s4"))
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{IncludePositions: true})
	if out.Count != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	loc := out.Diagnostics[0].Location
	if loc.File != "a.tsx" || loc.StartLine != 2 || loc.StartCol != 1 {
		t.Fatalf("location = %+v", loc)
	}
	if out.Diagnostics[0].Code != "GEN4001" {
		t.Fatalf("code = %s", out.Diagnostics[0].Code)
	}
}

func TestPrettyZeroSpanHasNoLocation(t *testing.T) {
	fs := source.NewFileSet()
	fs.AddVirtual("index.tsx", []byte("export default function App() {}\n"))
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevWarning, diag.IOWriteError, source.Span{}, "build cache disabled"))
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	if got := buf.String(); got != "WARNING IO5002: build cache disabled\n" {
		t.Fatalf("got %q", got)
	}
}
