package ir

import (
	"weft/internal/source"
)

// Prop is one destructured prop of a component signature.
type Prop struct {
	Name    string // key in the props object
	Local   string // binding name, usually == Name
	Default string // default value source, may be empty
}

// Import is a non-component module import carried into generated code.
type Import struct {
	Source string
	Clause string // `{ format }`, `dayjs`, `* as util`
}

// ChildInstantiation is a component call that the client initializer must
// hydrate, in document order.
type ChildInstantiation struct {
	Name    string
	ChildID ID
	Record  *ComponentRecord
	Region  Region
}

// ComponentRecord is the compiled form of one component of one file.
type ComponentRecord struct {
	Name       string
	SourceFile string // absolute path, extension included
	Span       source.Span

	// PropsParam is the identifier bound to the whole props object when the
	// signature does not destructure, "props" otherwise.
	PropsParam string
	Props      []Prop
	PropsRest  string

	Decls    Declarations
	Imports  []Import
	Children []ChildInstantiation
	IR       *Node
	// Runtime maps local alias -> reactive primitive for runtime imports.
	Runtime map[string]string
	// NextID is the first free dynamic id number after compilation.
	NextID int

	HasClientDirective bool
	IsDefaultExport    bool
	IsExported         bool

	// Placeholder records stand in for a component reached through a
	// dependency cycle. CycleChain lists the cache keys of the cycle.
	Placeholder bool
	CycleChain  []string
}

// NewPlaceholder returns the neutral record used for a cyclic back-edge.
func NewPlaceholder(name, file string, chain []string) *ComponentRecord {
	return &ComponentRecord{
		Name:        name,
		SourceFile:  file,
		Placeholder: true,
		CycleChain:  chain,
	}
}

// Interactive reports whether the component gets a client initializer.
func (r *ComponentRecord) Interactive() bool {
	return r != nil && !r.Placeholder && r.HasClientDirective
}

// HasInteractiveDescendant reports whether hydrating r requires running any
// initializer, either its own or one of a child rendered inside it.
func (r *ComponentRecord) HasInteractiveDescendant() bool {
	return r.hasInteractive(map[*ComponentRecord]bool{})
}

func (r *ComponentRecord) hasInteractive(seen map[*ComponentRecord]bool) bool {
	if r == nil || seen[r] {
		return false
	}
	seen[r] = true
	if r.Interactive() {
		return true
	}
	for _, c := range r.Children {
		if c.Record.hasInteractive(seen) {
			return true
		}
	}
	return false
}

// Signals returns the names bound by signal declarations.
func (r *ComponentRecord) Signals() []string {
	var out []string
	for _, d := range r.Decls.Of(DeclSignal) {
		out = append(out, d.Names...)
	}
	return out
}
