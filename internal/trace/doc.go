// Package trace records what the compiler is doing: build phases, files
// being resolved, components being compiled.
//
// A Tracer travels in context.Context (WithTracer / FromContext). Code opens
// spans with Start, which links the new span to the one already in ctx:
//
//	ctx, sp := trace.Start(ctx, trace.ScopeFile, "resolve:"+path)
//	defer sp.End("")
//
// Levels filter by scope: phase shows build and phase spans, detail adds
// files, debug adds individual components. Output goes to a stream (text or
// ndjson), to an in-memory ring dumped on failure, or both.
package trace
