package resolve

import (
	"context"

	"weft/internal/frontend"
	"weft/internal/ir"
	"weft/internal/source"
)

// Unit is everything the body compiler needs for one component: the parsed
// file, the component itself and the records of every component it may
// instantiate, keyed by the local name used in the file.
type Unit struct {
	Path      string // absolute, extension included
	Key       string // canonical cache key, path#Name
	File      *frontend.File
	Component *frontend.Component
	Deps      map[string]*ir.ComponentRecord
}

// BodyCompiler builds a record with IR from a Unit.
type BodyCompiler interface {
	Compile(ctx context.Context, u Unit) (*ir.ComponentRecord, error)
}

// Parser extracts components from a source file.
type Parser interface {
	Parse(ctx context.Context, f *source.File) (*frontend.File, error)
}
