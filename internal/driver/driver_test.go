package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"weft/internal/diag"
	"weft/internal/driver"
	"weft/internal/project"
	"weft/internal/resolve"
)

const counterSrc = `"use client";
import { createSignal } from "@weft/runtime";
export default function Counter({ start = 0 }) {
  const [count, setCount] = createSignal(start);
  return (
    <div>
      <p>{count()}</p>
      <button onClick={() => setCount(count() + 1)}>+</button>
    </div>
  );
}`

const indexSrc = `import Counter from "./Counter";
export default function App() {
  return <main><h1>Hi</h1><Counter start={1} /></main>;
}`

func newProject(t *testing.T, files map[string]string) (*project.Manifest, resolve.MapReader) {
	t.Helper()
	root := t.TempDir()
	cfg := project.DefaultConfig()
	cfg.Project.Entries = []string{"src/index.tsx"}
	cfg.Compile.Jobs = 2
	reader := resolve.MapReader{}
	for rel, src := range files {
		reader[filepath.Join(root, filepath.FromSlash(rel))] = src
	}
	return &project.Manifest{Root: root, Config: cfg}, reader
}

func counterApp(t *testing.T) (*project.Manifest, resolve.MapReader) {
	return newProject(t, map[string]string{
		"src/index.tsx":   indexSrc,
		"src/Counter.tsx": counterSrc,
	})
}

func rels(res *driver.Result) []string {
	var out []string
	for _, f := range res.Files {
		out = append(out, f.Meta.Rel)
	}
	return out
}

func codes(bag *diag.Bag) map[diag.Code]int {
	out := map[diag.Code]int{}
	for _, d := range bag.Items() {
		out[d.Code]++
	}
	return out
}

func TestBuildWritesModulesAndManifest(t *testing.T) {
	m, reader := counterApp(t)
	res, err := driver.Build(context.Background(), driver.Request{Manifest: m, Reader: reader, NoCache: true})
	if err != nil {
		t.Fatalf("build: %v (%+v)", err, res.Bag.Items())
	}
	if !res.Written {
		t.Fatalf("outputs were not written")
	}
	if diff := cmp.Diff([]string{"src/Counter.tsx", "src/index.tsx"}, rels(res)); diff != "" {
		t.Fatalf("file order (-want +got):\n%s", diff)
	}

	out := filepath.Join(m.Root, "dist")
	for _, rel := range []string{"src/index.server.js", "src/Counter.server.js", "src/Counter.client.js", driver.ManifestName} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("missing output %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "src", "index.client.js")); !os.IsNotExist(err) {
		t.Fatalf("server-only file must not get a client module (err=%v)", err)
	}

	client, err := os.ReadFile(filepath.Join(out, "src", "Counter.client.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(client), `hydrate("Counter", initCounter);`) {
		t.Fatalf("client module does not register Counter:\n%s", client)
	}
	server, err := os.ReadFile(filepath.Join(out, "src", "index.server.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(server), `from "./Counter.server.js"`) {
		t.Fatalf("index server module does not import Counter:\n%s", server)
	}

	man, err := driver.ReadManifest(filepath.Join(out, driver.ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	want := []driver.ManifestComponent{{
		Name:   "Counter",
		Source: "src/Counter.tsx",
		Module: "src/Counter.client.js",
		Init:   "initCounter",
	}}
	if diff := cmp.Diff(want, man.Components); diff != "" {
		t.Fatalf("components (-want +got):\n%s", diff)
	}
	if len(man.Files) != 2 || man.Files[1].Source != "src/index.tsx" || man.Files[1].Imports[0] != "src/Counter.tsx" {
		t.Fatalf("manifest files = %+v", man.Files)
	}
	if !man.Interactive()["Counter"] || man.Interactive()["App"] {
		t.Fatalf("interactive = %v", man.Interactive())
	}
}

func TestCheckWritesNothing(t *testing.T) {
	m, reader := counterApp(t)
	res, err := driver.Check(context.Background(), driver.Request{Manifest: m, Reader: reader})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Written || len(res.Outputs) != 4 {
		t.Fatalf("written=%v outputs=%d", res.Written, len(res.Outputs))
	}
	if _, err := os.Stat(filepath.Join(m.Root, "dist")); !os.IsNotExist(err) {
		t.Fatalf("check created the output directory (err=%v)", err)
	}
}

func TestBuildStopsOnMissingImport(t *testing.T) {
	m, reader := newProject(t, map[string]string{
		"src/index.tsx": `import Nav from "./Nav";
export default function App() { return <main><Nav /></main>; }`,
	})
	res, err := driver.Build(context.Background(), driver.Request{Manifest: m, Reader: reader, NoCache: true})
	var fileErr *resolve.FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("err = %v, want *resolve.FileError", err)
	}
	if !res.Bag.HasErrors() {
		t.Fatalf("missing file must be reported")
	}
	if res.Written {
		t.Fatalf("nothing may be written after a fatal error")
	}
	if _, err := os.Stat(filepath.Join(m.Root, "dist")); !os.IsNotExist(err) {
		t.Fatalf("output directory exists (err=%v)", err)
	}
}

func TestBuildWithoutEntries(t *testing.T) {
	m, reader := counterApp(t)
	m.Config.Project.Entries = nil
	res, err := driver.Build(context.Background(), driver.Request{Manifest: m, Reader: reader})
	if !errors.Is(err, driver.ErrNoEntries) {
		t.Fatalf("err = %v", err)
	}
	if codes(res.Bag)[diag.PrjMissingEntry] != 1 {
		t.Fatalf("diagnostics = %+v", res.Bag.Items())
	}
}

func TestBuildReusesCachedModules(t *testing.T) {
	m, reader := counterApp(t)
	cache, err := driver.OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	req := driver.Request{Manifest: m, Reader: reader, Cache: cache}

	first, err := driver.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	if first.CacheHits != 0 {
		t.Fatalf("cold cache hits = %d", first.CacheHits)
	}

	second, err := driver.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.CacheHits != 2 {
		t.Fatalf("warm cache hits = %d", second.CacheHits)
	}
	for i := range first.Files {
		if string(first.Files[i].Server) != string(second.Files[i].Server) ||
			string(first.Files[i].Client) != string(second.Files[i].Client) {
			t.Fatalf("cached output of %s differs", first.Files[i].Meta.Rel)
		}
	}

	// editing the importer keeps Counter cached
	reader[filepath.Join(m.Root, "src", "index.tsx")] = strings.Replace(indexSrc, "Hi", "Hello", 1)
	third, err := driver.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if third.CacheHits != 1 || !third.Files[0].Cached || third.Files[1].Cached {
		t.Fatalf("hits = %d", third.CacheHits)
	}

	// editing Counter invalidates its importer too
	reader[filepath.Join(m.Root, "src", "Counter.tsx")] = strings.Replace(counterSrc, ">+<", ">add<", 1)
	fourth, err := driver.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("fourth build: %v", err)
	}
	if fourth.CacheHits != 0 {
		t.Fatalf("hits after dependency edit = %d", fourth.CacheHits)
	}
}

var cyclic = map[string]string{
	"src/index.tsx": `import B from "./B";
export default function A() { return <div><B /></div>; }`,
	"src/B.tsx": `import A from "./index";
export default function B() { return <span><A /></span>; }`,
}

func TestCycleDegradesWithWarning(t *testing.T) {
	m, reader := newProject(t, cyclic)
	res, err := driver.Build(context.Background(), driver.Request{Manifest: m, Reader: reader, NoCache: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got := codes(res.Bag)
	if got[diag.ResCycle] == 0 || got[diag.PrjImportCycle] != 2 {
		t.Fatalf("diagnostics = %+v", res.Bag.Items())
	}
	for _, f := range res.Files {
		if f.Meta.FileHash != (project.Digest{}) {
			t.Fatalf("%s is in a cycle and must not be cacheable", f.Meta.Rel)
		}
	}
}

func TestStrictCyclesFail(t *testing.T) {
	m, reader := newProject(t, cyclic)
	res, err := driver.Build(context.Background(), driver.Request{Manifest: m, Reader: reader, NoCache: true, StrictCycles: true})
	var cycleErr *resolve.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("err = %v, want *resolve.CycleError", err)
	}
	if res.Written {
		t.Fatalf("nothing may be written")
	}
}

func TestProgressAndPhaseEvents(t *testing.T) {
	m, reader := counterApp(t)
	var mu sync.Mutex
	status := map[string][]driver.Status{}
	var phases []string
	req := driver.Request{
		Manifest: m,
		Reader:   reader,
		NoCache:  true,
		Progress: driver.SinkFunc(func(ev driver.Event) {
			mu.Lock()
			defer mu.Unlock()
			key := ev.File
			if key == "" {
				key = string(ev.Stage)
			}
			status[key] = append(status[key], ev.Status)
		}),
		Observer: func(ev driver.PhaseEvent) {
			if ev.Status == driver.PhaseEnd {
				phases = append(phases, ev.Name)
			}
		},
	}
	if _, err := driver.Build(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	perFile := []driver.Status{driver.StatusQueued, driver.StatusWorking, driver.StatusDone}
	for _, rel := range []string{"src/index.tsx", "src/Counter.tsx"} {
		if diff := cmp.Diff(perFile, status[rel]); diff != "" {
			t.Fatalf("%s events (-want +got):\n%s", rel, diff)
		}
	}
	if diff := cmp.Diff([]driver.Status{driver.StatusWorking, driver.StatusDone}, status["write"]); diff != "" {
		t.Fatalf("write events (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"resolve", "order", "generate", "write"}, phases); diff != "" {
		t.Fatalf("phases (-want +got):\n%s", diff)
	}
}

func TestTimingsAndIRDump(t *testing.T) {
	m, reader := counterApp(t)
	res, err := driver.Check(context.Background(), driver.Request{Manifest: m, Reader: reader, Timings: true, EmitIR: true})
	if err != nil {
		t.Fatal(err)
	}
	var timing *diag.Diagnostic
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ObsTimings {
			timing = &d
		}
	}
	if timing == nil || len(timing.Notes) != 1 || !strings.Contains(timing.Notes[0].Msg, `"phases"`) {
		t.Fatalf("timing diagnostic = %+v", timing)
	}
	var dumps int
	for _, o := range res.Outputs {
		if strings.HasSuffix(o.Path, ".ir.txt") {
			dumps++
		}
	}
	if dumps != 2 {
		t.Fatalf("IR dumps = %d", dumps)
	}
}

func TestEntryWithoutComponentsWarns(t *testing.T) {
	m, reader := newProject(t, map[string]string{
		"src/index.tsx": `export const answer = 42;`,
	})
	res, err := driver.Check(context.Background(), driver.Request{Manifest: m, Reader: reader})
	if err != nil {
		t.Fatal(err)
	}
	if codes(res.Bag)[diag.PrjMissingEntry] != 1 || len(res.Files) != 0 {
		t.Fatalf("diagnostics = %+v, files = %v", res.Bag.Items(), rels(res))
	}
}
