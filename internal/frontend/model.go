// Package frontend parses TSX component sources with tree-sitter and
// extracts what the compiler needs: directive, imports, module constants,
// components with their props, body declarations and returned JSX.
//
// Nothing from tree-sitter leaks out of this package; every field is plain
// Go data so the tree can be closed right after extraction.
package frontend

import (
	"weft/internal/source"
)

// File is one parsed component source.
type File struct {
	Path      string
	ID        source.FileID
	UseClient bool
	Imports   []Import
	// Constants are module-level declarations other than components, in
	// source order (helpers, lookup tables, plain functions).
	Constants  []Stmt
	Components []*Component
	// Exports maps exported name -> local name for `export { a as b }`.
	Exports map[string]string
	// DefaultExport is the local name of the default export, if any.
	DefaultExport string

	// RuntimeImports are bindings imported from the reactive runtime.
	RuntimeImports []Ident
	// EventAttrs are on* attributes written on DOM elements.
	EventAttrs []Ident
	// Primitives maps local alias -> runtime primitive name.
	Primitives map[string]string
}

// Ident is a name with its location.
type Ident struct {
	Name string
	Span source.Span
}

// ImportName is one binding of an import statement.
type ImportName struct {
	Imported string // "default" for the default binding
	Local    string
	Span     source.Span
}

type Import struct {
	Source   string
	Clause   string // raw import clause text
	Names    []ImportName
	TypeOnly bool
	Span     source.Span
}

// Component finds a component by local name.
func (f *File) Component(name string) *Component {
	for _, c := range f.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// StmtKind classifies a statement of a component body.
type StmtKind uint8

const (
	StmtLocal StmtKind = iota
	StmtSignal
	StmtMemo
	StmtEffect
	StmtConstant
)

// Stmt is a statement kept as source text.
type Stmt struct {
	Kind   StmtKind
	Names  []string
	Source string
	Span   source.Span
}

// PropField is one field of a destructured props parameter.
type PropField struct {
	Name    string
	Local   string
	Default string
}

// Params describes the first parameter of a component.
type Params struct {
	// Ident is set when props are taken as a whole: `function C(props)`.
	Ident  string
	Fields []PropField
	Rest   string
}

type Component struct {
	Name     string
	Exported bool
	Default  bool
	Params   Params
	Body     []Stmt
	Root     *JSX
	Span     source.Span
}

// JSXKind enumerates JSX tree node kinds.
type JSXKind uint8

const (
	JSXElement JSXKind = iota
	JSXFragment
	JSXText
	JSXExpr
)

// JSX is a node of the returned markup.
type JSX struct {
	Kind     JSXKind
	Span     source.Span
	Tag      string
	Attrs    []Attr
	Children []*JSX
	Text     string // JSXText, whitespace already collapsed
	Expr     *Expr  // JSXExpr
}

// IsComponentTag reports whether the element refers to a component.
func (j *JSX) IsComponentTag() bool {
	return j != nil && j.Kind == JSXElement && j.Tag != "" && j.Tag[0] >= 'A' && j.Tag[0] <= 'Z'
}

// Attr is one JSX attribute.
type Attr struct {
	Name     string
	Value    string // static value without quotes
	HasValue bool
	Expr     *Expr // set for name={expr}
	Spread   bool  // {...expr}; Expr holds the spread operand
	Span     source.Span
}

// ExprKind classifies a JSX expression container.
type ExprKind uint8

const (
	// ExprPlain is any value rendered as text or used as attribute value.
	ExprPlain ExprKind = iota
	// ExprCond is `c ? a : b` or `c && a` with markup in a branch.
	ExprCond
	// ExprMap is `arr.map((item, i) => <li/>)`.
	ExprMap
	// ExprMarkup is JSX written inside braces.
	ExprMarkup
)

type Expr struct {
	Kind   ExprKind
	Source string
	Span   source.Span

	Cond string
	Then *JSX // nil renders nothing
	Else *JSX

	Array      string
	ItemParam  string
	IndexParam string
	Item       *JSX

	Markup *JSX
}
