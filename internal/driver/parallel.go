package driver

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"weft/internal/codegen"
	"weft/internal/diag"
	"weft/internal/markup"
	"weft/internal/project"
	"weft/internal/trace"
	"weft/internal/version"
)

type generator struct {
	runtime  string
	explain  bool
	emitIR   bool
	cache    *DiskCache
	reporter diag.Reporter
	progress ProgressSink
}

// run generates every file in parallel. Results are written into the
// FileResult of each file; no two workers share one.
func (g *generator) run(ctx context.Context, files []*FileResult, jobs int) error {
	if len(files) == 0 {
		return nil
	}
	ctx, span := trace.Start(ctx, trace.ScopePhase, "generate")
	defer span.End("")

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(1, min(jobs, len(files))))
	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := time.Now()
			emit(g.progress, Event{File: f.Meta.Rel, Stage: StageGenerate, Status: StatusWorking})
			err := g.file(gctx, f)
			status := StatusDone
			switch {
			case err != nil:
				status = StatusError
			case f.Cached:
				status = StatusCached
			}
			emit(g.progress, Event{File: f.Meta.Rel, Stage: StageGenerate, Status: status, Err: err, Elapsed: time.Since(start)})
			return err
		})
	}
	return eg.Wait()
}

func (g *generator) file(ctx context.Context, f *FileResult) error {
	_, span := trace.Start(ctx, trace.ScopeFile, f.Meta.Rel)
	defer span.End("")

	key, cacheable := g.key(f.Meta)
	if cacheable && g.hit(key, f) {
		span.WithExtra("cache", "hit")
		return nil
	}

	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	unit := markup.Unit{Source: f.Meta.Path, Records: f.Records, Runtime: g.runtime}

	server, err := markup.ServerModule(unit)
	if err != nil {
		return fmt.Errorf("generate %s: %w", f.Meta.Rel, err)
	}
	gen := codegen.New(rep)
	gen.Explain = g.explain
	client, err := gen.Module(unit)
	if err != nil {
		return fmt.Errorf("generate %s: %w", f.Meta.Rel, err)
	}
	f.Server, f.Client = server, client
	if g.emitIR {
		if f.IR, err = dumpIR(f.Records); err != nil {
			return fmt.Errorf("dump IR of %s: %w", f.Meta.Rel, err)
		}
	}
	for _, d := range bag.Items() {
		g.reporter.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes, d.Fixes)
	}

	if cacheable {
		payload := &DiskPayload{
			Rel:         f.Meta.Rel,
			FileHash:    f.Meta.FileHash,
			Server:      server,
			Client:      client,
			Diagnostics: cacheDiagnostics(bag.Items()),
		}
		if err := g.cache.Put(key, payload); err != nil {
			diag.ReportWarning(g.reporter, diag.IOWriteError, f.Meta.Span,
				fmt.Sprintf("cannot store %s in the build cache: %v", f.Meta.Rel, err)).Emit()
		}
	}
	return nil
}

// key is the cache key of a file: its FileHash salted with everything else
// the generated text depends on.
func (g *generator) key(meta project.FileMeta) (project.Digest, bool) {
	var zero project.Digest
	if g.cache == nil || g.emitIR || meta.FileHash == zero {
		return zero, false
	}
	salt := fmt.Sprintf("%s\x00%s\x00%s\x00%t", version.Version, g.runtime, meta.Rel, g.explain)
	return project.Combine(meta.FileHash, project.HashString(salt)), true
}

func (g *generator) hit(key project.Digest, f *FileResult) bool {
	var payload DiskPayload
	ok, err := g.cache.Get(key, &payload)
	if err != nil {
		diag.ReportWarning(g.reporter, diag.IOCacheCorrupt, f.Meta.Span,
			fmt.Sprintf("ignoring build cache entry for %s: %v", f.Meta.Rel, err)).Emit()
		return false
	}
	if !ok || payload.FileHash != f.Meta.FileHash || payload.Rel != f.Meta.Rel {
		return false
	}
	f.Server, f.Client, f.Cached = payload.Server, payload.Client, true
	replayDiagnostics(g.reporter, f.Meta.Span.File, payload.Diagnostics)
	return true
}
