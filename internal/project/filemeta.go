package project

import "weft/internal/source"

// ImportMeta is one resolved component import of a source file.
type ImportMeta struct {
	Path string // absolute, extension included
	Span source.Span
}

// FileMeta describes one component source file after resolution.
type FileMeta struct {
	Path        string // absolute, extension included
	Rel         string // relative to the project root, slash separated
	Span        source.Span
	Imports     []ImportMeta
	ContentHash Digest
	// FileHash folds in the FileHash of every import; see Combine.
	FileHash Digest
}
