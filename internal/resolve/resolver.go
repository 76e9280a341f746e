// Package resolve walks the component graph from an entry file. Each
// (file, component) pair is compiled at most once per Resolver; a component
// reached again while it is still being resolved is replaced by a neutral
// placeholder record.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"weft/internal/diag"
	"weft/internal/frontend"
	"weft/internal/ir"
	"weft/internal/source"
	"weft/internal/trace"
)

// CyclePolicy decides what a cycle back-edge does.
type CyclePolicy uint8

const (
	// CycleDegrade renders the back-edge as an empty placeholder and warns.
	CycleDegrade CyclePolicy = iota
	// CycleFail aborts resolution with a *CycleError.
	CycleFail
)

// DefaultExtensions are probed in order when an import has no extension.
var DefaultExtensions = []string{".tsx", ".jsx", ".ts", ".js"}

type Options struct {
	Extensions []string
	Cycles     CyclePolicy
	Reporter   diag.Reporter
}

type entry struct {
	rec  *ir.ComponentRecord
	full string
}

type loadedFile struct {
	full string
	file *frontend.File
	err  error
}

type Resolver struct {
	reader   Reader
	parser   Parser
	compiler BodyCompiler
	files    *source.FileSet
	opts     Options

	cache    map[string]*entry
	loaded   map[string]*loadedFile
	located  map[string]string
	inflight []string
	records  []*ir.ComponentRecord
	stats    map[string]int
	warned   map[string]bool
}

func New(reader Reader, parser Parser, compiler BodyCompiler, files *source.FileSet, opts Options) *Resolver {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	if files == nil {
		files = source.NewFileSet()
	}
	return &Resolver{
		reader:   reader,
		parser:   parser,
		compiler: compiler,
		files:    files,
		opts:     opts,
		cache:    map[string]*entry{},
		loaded:   map[string]*loadedFile{},
		located:  map[string]string{},
		stats:    map[string]int{},
		warned:   map[string]bool{},
	}
}

// Files returns the file set holding every source read so far.
func (r *Resolver) Files() *source.FileSet { return r.files }

// Records returns compiled records in completion order, children first.
func (r *Resolver) Records() []*ir.ComponentRecord {
	return slices.Clone(r.records)
}

// Stats returns how many times each canonical key was compiled.
func (r *Resolver) Stats() map[string]int {
	out := make(map[string]int, len(r.stats))
	for k, v := range r.stats {
		out[k] = v
	}
	return out
}

// InFlight returns the keys currently being resolved, outermost first.
func (r *Resolver) InFlight() []string {
	return slices.Clone(r.inflight)
}

// Resolve returns the record for target in the file at path. An empty
// target selects the default export. A nil record with a nil error means
// the file has no such component.
func (r *Resolver) Resolve(ctx context.Context, path, target string) (*ir.ComponentRecord, error) {
	reqKey := CacheKey(path, target)
	if e, ok := r.cache[reqKey]; ok {
		return e.rec, nil
	}

	lf := r.load(ctx, path)
	if lf.err != nil {
		return nil, lf.err
	}
	comp := lookup(lf.file, target)
	if comp == nil {
		r.cache[reqKey] = &entry{full: lf.full}
		return nil, nil
	}

	key := CacheKey(stripExt(lf.full), comp.Name)
	if e, ok := r.cache[key]; ok {
		r.cache[reqKey] = e
		return e.rec, nil
	}
	if i := slices.Index(r.inflight, key); i >= 0 {
		chain := append(slices.Clone(r.inflight[i:]), key)
		return ir.NewPlaceholder(comp.Name, lf.full, chain), nil
	}

	r.inflight = append(r.inflight, key)
	defer func() { r.inflight = r.inflight[:len(r.inflight)-1] }()

	ctx, span := trace.Start(ctx, trace.ScopeComponent, key)
	defer span.End("")

	deps, err := r.dependencies(ctx, lf, comp)
	if err != nil {
		return nil, err
	}
	rec, err := r.compiler.Compile(ctx, Unit{
		Path:      lf.full,
		Key:       key,
		File:      lf.file,
		Component: comp,
		Deps:      deps,
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", key, err)
	}
	if err := r.checkCycles(rec); err != nil {
		return nil, err
	}

	e := &entry{rec: rec, full: lf.full}
	r.cache[key] = e
	r.cache[reqKey] = e
	r.records = append(r.records, rec)
	r.stats[key]++
	return rec, nil
}

// ResolveFile resolves every component declared in the file.
func (r *Resolver) ResolveFile(ctx context.Context, path string) ([]*ir.ComponentRecord, error) {
	lf := r.load(ctx, path)
	if lf.err != nil {
		return nil, lf.err
	}
	var out []*ir.ComponentRecord
	for _, c := range lf.file.Components {
		rec, err := r.Resolve(ctx, lf.full, c.Name)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

func lookup(f *frontend.File, target string) *frontend.Component {
	name := target
	if name == "" {
		name = f.DefaultExport
	}
	if name == "" {
		return nil
	}
	if c := f.Component(name); c != nil {
		return c
	}
	if local, ok := f.Exports[name]; ok {
		return f.Component(local)
	}
	return nil
}

// dependencies resolves the components comp renders: imported ones in
// import order, then same-file ones, non-exported first. Components comp
// does not render are left alone, so resolving them cannot reach back into
// the in-flight stack.
func (r *Resolver) dependencies(ctx context.Context, lf *loadedFile, comp *frontend.Component) (map[string]*ir.ComponentRecord, error) {
	used := renderedTags(comp.Root)
	deps := map[string]*ir.ComponentRecord{}
	dir := filepath.Dir(lf.full)
	for _, imp := range lf.file.Imports {
		if imp.TypeOnly || !r.follows(imp.Source) {
			continue
		}
		for _, n := range imp.Names {
			if !used[n.Local] || !isComponentName(n.Local) {
				continue
			}
			target := n.Imported
			if target == "default" {
				target = ""
			}
			rec, err := r.Resolve(ctx, filepath.Join(dir, imp.Source), target)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				deps[n.Local] = rec
				continue
			}
			r.missingExport(ctx, lf, imp, n)
		}
	}
	for _, exported := range []bool{false, true} {
		for _, c := range lf.file.Components {
			if c.Name == comp.Name || !used[c.Name] || isExported(lf.file, c) != exported {
				continue
			}
			if _, imported := deps[c.Name]; imported {
				continue
			}
			rec, err := r.Resolve(ctx, lf.full, c.Name)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				deps[c.Name] = rec
			}
		}
	}
	return deps, nil
}

// renderedTags collects the component tags used anywhere in a markup tree,
// including branches, list items and markup passed through attributes.
func renderedTags(root *frontend.JSX) map[string]bool {
	tags := map[string]bool{}
	var walk func(j *frontend.JSX)
	var expr func(e *frontend.Expr)
	walk = func(j *frontend.JSX) {
		if j == nil {
			return
		}
		if j.IsComponentTag() {
			tags[j.Tag] = true
		}
		for _, a := range j.Attrs {
			expr(a.Expr)
		}
		for _, c := range j.Children {
			walk(c)
		}
		expr(j.Expr)
	}
	expr = func(e *frontend.Expr) {
		if e == nil {
			return
		}
		walk(e.Then)
		walk(e.Else)
		walk(e.Item)
		walk(e.Markup)
	}
	walk(root)
	return tags
}

// missingExport warns once per import binding when the imported file does
// not export the name at all. Exports that are not components stay silent.
func (r *Resolver) missingExport(ctx context.Context, lf *loadedFile, imp frontend.Import, n frontend.ImportName) {
	key := lf.full + "\x00" + n.Local
	if r.warned[key] {
		return
	}
	target := r.load(ctx, filepath.Join(filepath.Dir(lf.full), imp.Source))
	if target.err != nil || target.file == nil {
		return
	}
	f := target.file
	var msg string
	if n.Imported == "default" {
		if f.DefaultExport != "" {
			return
		}
		msg = fmt.Sprintf("%s has no default export; %s is not rendered as a component", imp.Source, n.Local)
	} else {
		if _, ok := f.Exports[n.Imported]; ok {
			return
		}
		if c := f.Component(n.Imported); c != nil && isExported(f, c) {
			return
		}
		msg = fmt.Sprintf("%s does not export %s", imp.Source, n.Imported)
	}
	r.warned[key] = true
	diag.ReportWarning(r.opts.Reporter, diag.ResMissingExport, n.Span, msg).Emit()
}

func isExported(f *frontend.File, c *frontend.Component) bool {
	return c.Exported || f.DefaultExport == c.Name
}

// follows reports whether an import specifier names a component source:
// relative, and either extension-less or with a configured extension.
func (r *Resolver) follows(spec string) bool {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return false
	}
	ext := filepath.Ext(spec)
	return ext == "" || slices.Contains(r.opts.Extensions, ext)
}

// checkCycles applies the cycle policy to placeholders the compiled
// component actually instantiates.
func (r *Resolver) checkCycles(rec *ir.ComponentRecord) error {
	for _, ch := range rec.Children {
		if ch.Record == nil || !ch.Record.Placeholder {
			continue
		}
		if r.opts.Cycles == CycleFail {
			return &CycleError{Component: rec.Name, Chain: ch.Record.CycleChain}
		}
		diag.ReportWarning(r.opts.Reporter, diag.ResCycle, rec.Span,
			fmt.Sprintf("%s renders %s through a cycle; it is emitted as an empty placeholder", rec.Name, ch.Name)).
			WithNote(rec.Span, "cycle: "+strings.Join(ch.Record.CycleChain, " -> ")).
			Emit()
	}
	return nil
}

// load reads, parses and validates a file once. Failures are cached too.
func (r *Resolver) load(ctx context.Context, path string) *loadedFile {
	full, err := r.locate(ctx, path)
	if err != nil {
		return &loadedFile{err: err}
	}
	if lf, ok := r.loaded[full]; ok {
		return lf
	}
	lf := &loadedFile{full: full}
	r.loaded[full] = lf

	ctx, span := trace.Start(ctx, trace.ScopeFile, full)
	defer span.End("")

	src, err := r.reader.ReadFile(ctx, full)
	if err != nil {
		lf.err = &FileError{Path: full, Err: err}
		return lf
	}
	id := r.files.Add(full, src, 0)
	f, err := r.parser.Parse(ctx, r.files.Get(id))
	if err != nil {
		lf.err = fmt.Errorf("parse %s: %w", full, err)
		return lf
	}
	lf.file = f
	lf.err = r.validate(f)
	return lf
}

// locate finds the file for path: as given when it carries a configured
// extension, then path+ext, then path/index+ext.
func (r *Resolver) locate(ctx context.Context, path string) (string, error) {
	path = filepath.Clean(path)
	if full, ok := r.located[path]; ok {
		return full, nil
	}
	full, err := r.probe(ctx, path)
	if err == nil {
		r.located[path] = full
	}
	return full, err
}

func (r *Resolver) probe(ctx context.Context, path string) (string, error) {
	var tried []string
	try := func(p string) (bool, error) {
		tried = append(tried, p)
		return r.reader.Exists(ctx, p)
	}
	if ext := filepath.Ext(path); ext != "" && slices.Contains(r.opts.Extensions, ext) {
		ok, err := try(path)
		if err != nil {
			return "", &FileError{Path: path, Tried: tried, Err: err}
		}
		if ok {
			return path, nil
		}
	}
	for _, ext := range r.opts.Extensions {
		ok, err := try(path + ext)
		if err != nil {
			return "", &FileError{Path: path, Tried: tried, Err: err}
		}
		if ok {
			return path + ext, nil
		}
	}
	for _, ext := range r.opts.Extensions {
		p := filepath.Join(path, "index"+ext)
		ok, err := try(p)
		if err != nil {
			return "", &FileError{Path: path, Tried: tried, Err: err}
		}
		if ok {
			return p, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	diag.ReportError(r.opts.Reporter, diag.ResFileNotFound, source.Span{},
		fmt.Sprintf("no source for %s", path)).Emit()
	return "", &FileError{Path: path, Tried: tried, Err: fs.ErrNotExist}
}

// CacheKey builds the resolution cache key for a path and component name.
func CacheKey(path, name string) string {
	if name == "" {
		return path
	}
	return path + "#" + name
}

func stripExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func isComponentName(name string) bool {
	return name != "" && unicode.IsUpper([]rune(name)[0])
}

// IsFileError reports whether err is a missing or unreadable source.
func IsFileError(err error) bool {
	var fe *FileError
	return errors.As(err, &fe)
}
