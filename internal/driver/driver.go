// Package driver runs a whole build: it resolves the entries of a project,
// orders the reached files with project/dag, generates the server and client
// module of every file in parallel (through the disk cache when enabled) and
// writes the outputs together with the build manifest.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"weft/internal/compile"
	"weft/internal/diag"
	"weft/internal/frontend"
	"weft/internal/ir"
	"weft/internal/markup"
	"weft/internal/observ"
	"weft/internal/project"
	"weft/internal/project/dag"
	"weft/internal/resolve"
	"weft/internal/source"
	"weft/internal/trace"
)

// ErrNoEntries is returned when neither the request nor weft.toml names an
// entry file.
var ErrNoEntries = errors.New("driver: no entries")

// ErrDiagnostics is returned by Build when generation produced error
// diagnostics; nothing is written in that case.
var ErrDiagnostics = errors.New("driver: build has errors")

// Request configures one Build or Check.
type Request struct {
	Manifest *project.Manifest

	// Entries are source paths, absolute or relative to the project root.
	// Empty means the entries of weft.toml.
	Entries []string
	// OutDir overrides [project].out_dir.
	OutDir string
	// Jobs bounds parallel generation; <= 0 uses [compile].jobs.
	Jobs int

	StrictCycles bool
	NoCache      bool
	// Cache is used instead of opening the configured one.
	Cache *DiskCache
	// Reader defaults to the local file system.
	Reader resolve.Reader

	MaxDiagnostics int
	// Explain reports every scoped query the client code falls back to.
	Explain bool
	// EmitIR also writes an IR dump next to every generated module.
	EmitIR bool
	// Timings appends an ObsTimings diagnostic with the phase report.
	Timings bool

	Progress ProgressSink
	Observer PhaseObserver
}

// FileResult is one source file of the build.
type FileResult struct {
	Meta    project.FileMeta
	Records []*ir.ComponentRecord // source order
	Server  []byte
	Client  []byte // nil when no component of the file is interactive
	IR      []byte // only with Request.EmitIR
	Cached  bool
}

// Output is one file the build writes, relative to the output directory.
type Output struct {
	Path string // slash separated
	Data []byte
}

type Result struct {
	OutDir   string
	Files    []*FileResult // dependencies first
	Records  []*ir.ComponentRecord
	Outputs  []Output
	Manifest BuildManifest

	Bag     *diag.Bag
	FileSet *source.FileSet
	Timer   *observ.Timer
	// Stats counts compilations per component key.
	Stats map[string]int

	CacheHits int
	Written   bool
}

// Build compiles the project and writes every output. Nothing is written
// when resolution fails or any error diagnostic was reported.
func Build(ctx context.Context, req Request) (*Result, error) {
	return run(ctx, req, true)
}

// Check runs the same pipeline as Build without touching the output
// directory or the cache.
func Check(ctx context.Context, req Request) (*Result, error) {
	req.NoCache = true
	return run(ctx, req, false)
}

func run(ctx context.Context, req Request, write bool) (*Result, error) {
	if req.Manifest == nil {
		return nil, errors.New("driver: no project manifest")
	}
	m := req.Manifest
	cfg := m.Config

	bag := diag.NewBag(req.MaxDiagnostics)
	reporter := &diag.LockedReporter{Next: diag.BagReporter{Bag: bag}}
	timer := observ.NewTimer()
	ph := phases{timer: timer, observer: req.Observer}

	res := &Result{OutDir: req.OutDir, Bag: bag, Timer: timer}
	if res.OutDir == "" {
		res.OutDir = m.OutDir()
	} else if !filepath.IsAbs(res.OutDir) {
		res.OutDir = filepath.Join(m.Root, res.OutDir)
	}

	ctx, span := trace.Start(ctx, trace.ScopeBuild, "build")
	defer span.End("")

	entries := absEntries(m, req.Entries)
	if len(entries) == 0 {
		diag.ReportError(reporter, diag.PrjMissingEntry, source.Span{}, "no entry files: pass them on the command line or set [project].entries").Emit()
		return res, ErrNoEntries
	}

	p := ph.begin("resolve")
	emit(req.Progress, Event{Stage: StageResolve, Status: StatusWorking})
	r, err := resolveAll(ctx, req, reporter, entries)
	if r != nil {
		res.FileSet = r.Files()
		res.Records = r.Records()
		res.Stats = r.Stats()
	}
	ph.end(p, fmt.Sprintf("%d components", len(res.Records)))
	if err != nil {
		reportFatal(reporter, bag, err)
		emit(req.Progress, Event{Stage: StageResolve, Status: StatusError, Err: err})
		finish(req, res)
		return res, err
	}

	p = ph.begin("order")
	res.Files = orderFiles(m, res.FileSet, res.Records, reporter)
	ph.end(p, fmt.Sprintf("%d files", len(res.Files)))
	for _, f := range res.Files {
		emit(req.Progress, Event{File: f.Meta.Rel, Stage: StageGenerate, Status: StatusQueued})
	}

	var cache *DiskCache
	if write && !req.NoCache && cfg.Cache.Enabled {
		cache = req.Cache
		if cache == nil {
			dir := cfg.Cache.Dir
			if dir != "" && !filepath.IsAbs(dir) {
				dir = filepath.Join(m.Root, dir)
			}
			if cache, err = OpenDiskCache(dir); err != nil {
				diag.ReportWarning(reporter, diag.IOWriteError, source.Span{}, fmt.Sprintf("build cache disabled: %v", err)).Emit()
				cache = nil
			}
		}
	}

	p = ph.begin("generate")
	gen := generator{
		runtime:  cfg.Compile.Runtime,
		explain:  req.Explain,
		emitIR:   req.EmitIR,
		cache:    cache,
		reporter: reporter,
		progress: req.Progress,
	}
	err = gen.run(ctx, res.Files, jobs(req, cfg))
	for _, f := range res.Files {
		if f.Cached {
			res.CacheHits++
		}
	}
	ph.end(p, fmt.Sprintf("%d cached", res.CacheHits))
	if err != nil {
		reportFatal(reporter, bag, err)
		finish(req, res)
		return res, err
	}

	res.Manifest = buildManifest(cfg.Compile.Runtime, res.Files)
	res.Outputs, err = collectOutputs(res.Files, res.Manifest, req.EmitIR)
	if err != nil {
		finish(req, res)
		return res, err
	}

	if !write {
		finish(req, res)
		return res, nil
	}
	if bag.HasErrors() {
		finish(req, res)
		return res, ErrDiagnostics
	}

	p = ph.begin("write")
	emit(req.Progress, Event{Stage: StageWrite, Status: StatusWorking})
	err = writeOutputs(ctx, res.OutDir, res.Outputs)
	ph.end(p, fmt.Sprintf("%d files", len(res.Outputs)))
	if err != nil {
		diag.ReportError(reporter, diag.IOWriteError, source.Span{}, err.Error()).Emit()
		emit(req.Progress, Event{Stage: StageWrite, Status: StatusError, Err: err})
		finish(req, res)
		return res, err
	}
	res.Written = true
	emit(req.Progress, Event{Stage: StageWrite, Status: StatusDone})
	finish(req, res)
	return res, nil
}

func finish(req Request, res *Result) {
	if !req.Timings {
		return
	}
	rep := res.Timer.Report()
	appendTimingDiagnostic(res.Bag, timingPayload{
		Kind:    "build",
		Path:    req.Manifest.Root,
		TotalMS: rep.TotalMS,
		Phases:  rep.Phases,
		Compile: res.Stats,
	})
}

func jobs(req Request, cfg project.Config) int {
	switch {
	case req.Jobs > 0:
		return req.Jobs
	case cfg.Compile.Jobs > 0:
		return cfg.Compile.Jobs
	default:
		return runtime.GOMAXPROCS(0)
	}
}

func absEntries(m *project.Manifest, requested []string) []string {
	if len(requested) == 0 {
		return m.Entries()
	}
	out := make([]string, 0, len(requested))
	for _, e := range requested {
		if !filepath.IsAbs(e) {
			e = filepath.Join(m.Root, filepath.FromSlash(e))
		}
		out = append(out, filepath.Clean(e))
	}
	return out
}

// resolveAll resolves the entries in order, then every component of every
// file they reach, until no new file shows up. Generated modules therefore
// always carry every component of their source file.
func resolveAll(ctx context.Context, req Request, reporter diag.Reporter, entries []string) (*resolve.Resolver, error) {
	cfg := req.Manifest.Config
	policy := resolve.CycleDegrade
	if req.StrictCycles || cfg.Compile.Cycles == project.CyclesFail {
		policy = resolve.CycleFail
	}
	reader := req.Reader
	if reader == nil {
		reader = resolve.OSReader{}
	}
	r := resolve.New(reader,
		&frontend.Parser{Runtime: cfg.Compile.Runtime, Reporter: reporter},
		compile.New(reporter),
		source.NewFileSetWithBase(req.Manifest.Root),
		resolve.Options{Extensions: cfg.Compile.Extensions, Cycles: policy, Reporter: reporter},
	)

	ctx, span := trace.Start(ctx, trace.ScopePhase, "resolve")
	defer span.End("")

	done := map[string]bool{}
	for _, entry := range entries {
		recs, err := r.ResolveFile(ctx, entry)
		if err != nil {
			return r, err
		}
		if len(recs) == 0 {
			diag.ReportWarning(reporter, diag.PrjMissingEntry, source.Span{},
				fmt.Sprintf("entry %s declares no components", req.Manifest.Rel(entry))).Emit()
			continue
		}
		done[recs[0].SourceFile] = true
	}
	for {
		var pending []string
		for _, rec := range r.Records() {
			if !done[rec.SourceFile] && !slices.Contains(pending, rec.SourceFile) {
				pending = append(pending, rec.SourceFile)
			}
		}
		if len(pending) == 0 {
			return r, nil
		}
		for _, path := range pending {
			done[path] = true
			if _, err := r.ResolveFile(ctx, path); err != nil {
				return r, err
			}
		}
	}
}

// orderFiles groups records by source file, builds the file graph and
// returns the files with dependencies first. Import cycles are reported as
// warnings.
func orderFiles(m *project.Manifest, files *source.FileSet, records []*ir.ComponentRecord, reporter diag.Reporter) []*FileResult {
	byPath := map[string]*FileResult{}
	var metas []project.FileMeta
	for _, rec := range records {
		fr, ok := byPath[rec.SourceFile]
		if !ok {
			fr = &FileResult{Meta: fileMeta(m, files, rec.SourceFile)}
			byPath[rec.SourceFile] = fr
		}
		fr.Records = append(fr.Records, rec)
	}
	for _, fr := range byPath {
		slices.SortStableFunc(fr.Records, func(a, b *ir.ComponentRecord) int {
			return int(a.Span.Start) - int(b.Span.Start)
		})
		fr.Meta.Imports = fileImports(fr.Meta.Path, fr.Records)
		metas = append(metas, fr.Meta)
	}

	idx := dag.BuildIndex(metas)
	nodes := make([]dag.FileNode, 0, len(metas))
	for _, meta := range metas {
		nodes = append(nodes, dag.FileNode{Meta: meta, Reporter: reporter})
	}
	g, slots := dag.BuildGraph(idx, nodes)
	topo := dag.ToposortKahn(g)
	dag.ReportCycles(idx, slots, topo)
	ComputeFileHashes(g, slots, topo)

	out := make([]*FileResult, 0, len(metas))
	for _, id := range topo.DepsFirst() {
		slot := slots[int(id)]
		fr := byPath[slot.Meta.Path]
		if fr == nil {
			continue
		}
		fr.Meta = slot.Meta
		out = append(out, fr)
	}
	return out
}

func fileMeta(m *project.Manifest, files *source.FileSet, path string) project.FileMeta {
	meta := project.FileMeta{Path: path, Rel: m.Rel(path)}
	if f, ok := files.GetByPath(path); ok {
		meta.ContentHash = f.Hash
		meta.Span = source.SpanOf(f.ID, 0, 0)
	}
	return meta
}

// fileImports lists the other files whose components the records render,
// sorted.
func fileImports(path string, records []*ir.ComponentRecord) []project.ImportMeta {
	seen := map[string]bool{}
	var out []project.ImportMeta
	for _, rec := range records {
		for _, c := range rec.Children {
			if c.Record == nil || c.Record.SourceFile == path || seen[c.Record.SourceFile] {
				continue
			}
			seen[c.Record.SourceFile] = true
			out = append(out, project.ImportMeta{Path: c.Record.SourceFile, Span: rec.Span})
		}
	}
	slices.SortFunc(out, func(a, b project.ImportMeta) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// reportFatal makes sure a fatal error shows up in the diagnostics even when
// the stage that failed did not report it.
func reportFatal(r diag.Reporter, bag *diag.Bag, err error) {
	if bag.HasErrors() {
		return
	}
	code := diag.UnknownCode
	var (
		fileErr  *resolve.FileError
		dirErr   *resolve.DirectiveError
		cycleErr *resolve.CycleError
		synErr   *frontend.SyntaxError
	)
	switch {
	case errors.As(err, &fileErr):
		code = diag.IOLoadFileError
	case errors.As(err, &dirErr):
		code = diag.DirRuntimeImport
		if dirErr.Rule == resolve.RuleEventAttr {
			code = diag.DirEventAttr
		}
	case errors.As(err, &cycleErr):
		code = diag.ResCycle
	case errors.As(err, &synErr):
		code = diag.SynParseError
	}
	diag.ReportError(r, code, source.Span{}, err.Error()).Emit()
}

func collectOutputs(files []*FileResult, man BuildManifest, emitIR bool) ([]Output, error) {
	var out []Output
	for _, f := range files {
		rel := outputRel(f.Meta.Rel)
		out = append(out, Output{Path: markup.OutputPath(rel, markup.ServerSuffix), Data: f.Server})
		if f.Client != nil {
			out = append(out, Output{Path: markup.OutputPath(rel, markup.ClientSuffix), Data: f.Client})
		}
		if emitIR && f.IR != nil {
			out = append(out, Output{Path: markup.OutputPath(rel, ".ir.txt"), Data: f.IR})
		}
	}
	data, err := man.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	out = append(out, Output{Path: ManifestName, Data: data})
	return out, nil
}

// outputRel keeps sources outside the project root inside the output
// directory.
func outputRel(rel string) string {
	var parents int
	for strings.HasPrefix(rel, "../") {
		rel = strings.TrimPrefix(rel, "../")
		parents++
	}
	if parents == 0 {
		return rel
	}
	return strings.Repeat("_parent/", parents) + rel
}

func dumpIR(records []*ir.ComponentRecord) ([]byte, error) {
	var buf bytes.Buffer
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if err := ir.Dump(&buf, rec); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
