package ir

import (
	"iter"

	"weft/internal/source"
)

// DeclCategory orders declarations in generated code. Later categories may
// read earlier ones: memos read locals, effects read signals and memos.
type DeclCategory uint8

const (
	DeclConstant DeclCategory = iota
	DeclSignal
	DeclLocal
	DeclMemo
	DeclEffect
	numDeclCategories
)

func (c DeclCategory) String() string {
	switch c {
	case DeclConstant:
		return "constant"
	case DeclSignal:
		return "signal"
	case DeclLocal:
		return "local"
	case DeclMemo:
		return "memo"
	case DeclEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// Decl is one declaration statement kept verbatim.
type Decl struct {
	Names  []string // bound identifiers; empty for effects
	Source string   // full statement text
	Span   source.Span
}

// Declarations is indexed by category, so iteration order is the
// category order and cannot drift.
type Declarations [numDeclCategories][]Decl

func (d *Declarations) Add(cat DeclCategory, decl Decl) {
	d[cat] = append(d[cat], decl)
}

func (d *Declarations) Of(cat DeclCategory) []Decl {
	return d[cat]
}

// All yields declarations in emission order.
func (d *Declarations) All() iter.Seq2[DeclCategory, Decl] {
	return func(yield func(DeclCategory, Decl) bool) {
		for cat := range numDeclCategories {
			for _, decl := range d[cat] {
				if !yield(cat, decl) {
					return
				}
			}
		}
	}
}

func (d *Declarations) Len() int {
	n := 0
	for cat := range numDeclCategories {
		n += len(d[cat])
	}
	return n
}
