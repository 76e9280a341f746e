package diagfmt

import (
	"path/filepath"

	"weft/internal/source"
)

func formatPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeRelative:
		return source.RelativePath(f.Path, fs.BaseDir())
	case PathModeBasename:
		return filepath.Base(f.Path)
	}
	return f.Path
}

// lookup returns the file a span points into, or nil for spans that do not
// belong to fs (diagnostics raised before any file was loaded). The zero
// Span carries no location.
func lookup(fs *source.FileSet, span source.Span) *source.File {
	if fs == nil || span == (source.Span{}) || int(span.File) >= fs.Len() {
		return nil
	}
	return fs.Get(span.File)
}
