// Package codegen emits the client module of a source file: one
// initializer per interactive component that claims a server-rendered
// instance and wires its dynamic bindings to reactive effects.
package codegen

import (
	"fmt"
	"strings"

	"weft/internal/diag"
	"weft/internal/ir"
	"weft/internal/markup"
	"weft/internal/paths"
)

// Client runtime helpers exported by "<runtime>/dom".
const (
	rtClaim     = "$claim"
	rtProps     = "$props"
	rtFind      = "$find"
	rtItem      = "$item"
	rtBranch    = "$branch"
	rtSwap      = "$swap"
	rtOn        = "$on"
	rtID        = "$id"
	rtAssign    = "$assign"
	rtReconcile = "reconcileList"
	rtHydrate   = "hydrate"
)

const primEffect = "createEffect"

// Generator turns component records into client code.
type Generator struct {
	Reporter diag.Reporter
	// Explain reports every static binding that is located through a
	// scoped query instead of a traversal path.
	Explain bool
}

func New(r diag.Reporter) *Generator {
	return &Generator{Reporter: r}
}

// Initializer is the generated `init<Name>` function of one component.
type Initializer struct {
	Record *ir.ComponentRecord
	Name   string
	Paths  paths.Table
	Code   string
	// Helpers lists the dom runtime helpers Code references.
	Helpers map[string]bool
	// Effect is the local name of createEffect in Code.
	Effect string
}

// names are shared by all initializers of one module.
type names struct {
	inits   *markup.RenderNames
	renders *markup.RenderNames
}

func newNames(source string, local []*ir.ComponentRecord) *names {
	return &names{
		inits:   markup.NewInitNames(source, local),
		renders: markup.NewImportedRenderNames(source),
	}
}

// Generate emits the initializer of a single interactive record.
func (g *Generator) Generate(rec *ir.ComponentRecord) (*Initializer, error) {
	if rec == nil {
		return nil, fmt.Errorf("codegen: nil record")
	}
	return g.generate(rec, newNames(rec.SourceFile, []*ir.ComponentRecord{rec}))
}

func (g *Generator) generate(rec *ir.ComponentRecord, n *names) (*Initializer, error) {
	switch {
	case rec.Placeholder:
		return nil, fmt.Errorf("codegen %s: placeholder record for cycle %s", rec.Name, strings.Join(rec.CycleChain, " -> "))
	case !rec.Interactive():
		return nil, fmt.Errorf("codegen %s: component has no client directive", rec.Name)
	case rec.IR == nil || rec.IR.Kind != ir.NodeElement:
		return nil, fmt.Errorf("codegen %s: component root is not an element", rec.Name)
	}
	f := &fnEmitter{
		g:       g,
		rec:     rec,
		names:   n,
		table:   paths.Assign(rec.IR),
		helpers: map[string]bool{},
		effect:  effectAlias(rec.Runtime),
	}
	f.function()
	return &Initializer{
		Record:  rec,
		Name:    n.inits.Name(rec),
		Paths:   f.table,
		Code:    f.buf.String(),
		Helpers: f.helpers,
		Effect:  f.effect,
	}, nil
}

// effectAlias returns the local name createEffect is imported under.
func effectAlias(runtime map[string]string) string {
	for alias, prim := range runtime {
		if prim == primEffect {
			return alias
		}
	}
	return primEffect
}

// claimTargets returns the interactive records to claim for the given
// instantiations. Server-only children are transparent: their own
// interactive descendants are claimed in their place.
func claimTargets(children []ir.ChildInstantiation) []*ir.ComponentRecord {
	var out []*ir.ComponentRecord
	seen := map[*ir.ComponentRecord]bool{}
	var visit func([]ir.ChildInstantiation)
	visit = func(cs []ir.ChildInstantiation) {
		for _, c := range cs {
			r := c.Record
			if r == nil || r.Placeholder || seen[r] {
				continue
			}
			seen[r] = true
			if r.Interactive() {
				out = append(out, r)
				continue
			}
			visit(r.Children)
		}
	}
	visit(children)
	return out
}
