package codegen

import (
	"fmt"
	"slices"
	"strings"

	"weft/internal/diag"
	"weft/internal/ir"
	"weft/internal/markup"
	"weft/internal/paths"
	"weft/internal/wire"
)

type fnEmitter struct {
	g       *Generator
	rec     *ir.ComponentRecord
	names   *names
	table   paths.Table
	buf     strings.Builder
	depth   int
	helpers map[string]bool
	effect  string
}

func (f *fnEmitter) line(format string, args ...any) {
	f.buf.WriteString(strings.Repeat("  ", f.depth))
	fmt.Fprintf(&f.buf, format, args...)
	f.buf.WriteByte('\n')
}

func (f *fnEmitter) raw(src string) {
	for l := range strings.SplitSeq(strings.TrimRight(src, "\n"), "\n") {
		if l == "" {
			f.buf.WriteByte('\n')
			continue
		}
		f.line("%s", l)
	}
}

func (f *fnEmitter) open(format string, args ...any) {
	f.line(format, args...)
	f.depth++
}

func (f *fnEmitter) close(s string) {
	f.depth--
	f.line("%s", s)
}

func (f *fnEmitter) use(helper string) string {
	f.helpers[helper] = true
	return helper
}

func (f *fnEmitter) tmplCtx() *markup.Ctx {
	return &markup.Ctx{
		Component: f.rec.Name,
		Instance:  f.use(rtID) + "(__scope)",
		Markers:   true,
		RenderFn:  f.names.renders.Name,
		Used:      f.helpers,
	}
}

func elemVar(id ir.ID) string { return "__e_" + string(id) }

func (f *fnEmitter) function() {
	rec := f.rec
	f.open("export function %s(__index, __parent, __propsOverride) {", f.names.inits.Name(rec))
	f.line("const __scope = %s(%q, __index, __parent);", f.use(rtClaim), rec.Name)
	f.line("if (!__scope) return null;")
	f.raw(markup.PropsPrelude(rec, "__propsOverride ?? "+f.use(rtProps)+"(__scope)"))
	f.raw(markup.Declarations(rec, false))
	f.lookups()
	f.static(rec.IR)
	f.claims(staticChildren(rec), "__scope")
	for _, d := range rec.Decls.Of(ir.DeclEffect) {
		f.raw(strings.TrimSpace(d.Source))
	}
	f.line("return __scope;")
	f.close("}")
}

func staticChildren(rec *ir.ComponentRecord) []ir.ChildInstantiation {
	var out []ir.ChildInstantiation
	for _, c := range rec.Children {
		if c.Region == ir.RegionStatic {
			out = append(out, c)
		}
	}
	return out
}

// lookups declares one variable per element of the stable region. Known
// paths are reached from the deepest already-declared strict prefix, in
// path length order; the rest use a scoped query.
func (f *fnEmitter) lookups() {
	var known []ir.ID
	var unknown []ir.ID
	for _, id := range staticElements(f.rec.IR) {
		if _, ok := f.table[id].(paths.Known); ok {
			known = append(known, id)
			continue
		}
		unknown = append(unknown, id)
	}
	slices.SortStableFunc(known, func(a, b ir.ID) int {
		la, lb := f.table[a].(paths.Known).Len(), f.table[b].(paths.Known).Len()
		if la != lb {
			return la - lb
		}
		return paths.CompareIDs(a, b)
	})

	type decl struct {
		v    string
		path paths.Known
	}
	declared := []decl{{v: "__scope"}}
	for _, id := range known {
		p := f.table[id].(paths.Known)
		base := declared[0]
		for _, d := range declared[1:] {
			if p.HasStrictPrefix(d.path) && d.path.Len() > base.path.Len() {
				base = d
			}
		}
		expr := base.v
		for i, s := range p.Rel(base.path) {
			if i == 0 && base.v == "__scope" {
				expr += "." + s.Prop()
				continue
			}
			expr += "?." + s.Prop()
		}
		f.line("const %s = %s;", elemVar(id), expr)
		declared = append(declared, decl{v: elemVar(id), path: p})
	}
	for _, id := range unknown {
		f.line("const %s = %s(__scope, %q);", elemVar(id), f.use(rtFind), id)
		if f.g.Explain {
			diag.ReportInfo(f.g.Reporter, diag.GenIndeterminatePath, f.rec.Span,
				fmt.Sprintf("%s: %s is located with a scoped query", f.rec.Name, id)).Emit()
		}
	}
}

// staticElements returns the ids of elements outside conditional
// branches and list items, in document order.
func staticElements(root *ir.Node) []ir.ID {
	var ids []ir.ID
	ir.Walk(root, func(n *ir.Node, region ir.Region) bool {
		if region != ir.RegionStatic {
			return false
		}
		switch n.Kind {
		case ir.NodeElement:
			if id := n.Element().ID; id != "" {
				ids = append(ids, id)
			}
		case ir.NodeDynamicText:
			if d := n.DynamicText(); d.Wrapped {
				ids = append(ids, d.ID)
			}
		}
		return true
	})
	return ids
}

// static emits the effects of the stable region in document order.
func (f *fnEmitter) static(n *ir.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ir.NodeElement:
		el := n.Element()
		for _, b := range el.Bindings {
			f.binding(b, true)
		}
		for _, c := range el.Children {
			f.static(c)
		}
	case ir.NodeFragment:
		for _, c := range n.Fragment().Children {
			f.static(c)
		}
	case ir.NodeDynamicText:
		d := n.DynamicText()
		f.valueEffect(d.Expr, d.ID, true, textWrite)
	case ir.NodeConditional:
		f.conditional(n.Conditional(), true)
	case ir.NodeList:
		f.list(n.List(), true)
	}
}

// branchRegion emits the effects of nodes inside a conditional arm. Their
// elements come and go, so every run queries them again.
func (f *fnEmitter) branchRegion(n *ir.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ir.NodeElement:
		el := n.Element()
		for _, b := range el.Bindings {
			if b.Kind == ir.NodeAttribute {
				f.binding(b, false)
			}
		}
		for _, c := range el.Children {
			f.branchRegion(c)
		}
	case ir.NodeFragment:
		for _, c := range n.Fragment().Children {
			f.branchRegion(c)
		}
	case ir.NodeDynamicText:
		d := n.DynamicText()
		f.valueEffect(d.Expr, d.ID, false, textWrite)
	case ir.NodeConditional:
		f.conditional(n.Conditional(), false)
	case ir.NodeList:
		f.list(n.List(), false)
	}
}

func (f *fnEmitter) binding(b *ir.Node, stable bool) {
	switch d := b.Data.(type) {
	case *ir.AttributeBinding:
		f.valueEffect(d.Expr, d.ID, stable, f.attrWrite(d.AttrName))
	case *ir.EventBinding:
		f.line("%s(%s, %q, %s);", f.use(rtOn), elemVar(d.ID), d.Event, d.Handler)
	case *ir.RefCallback:
		f.line("if (%s) (%s)(%s);", elemVar(d.ID), d.Expr, elemVar(d.ID))
	}
}

// write renders the statement storing value v into element el.
type write func(el, v string) string

func textWrite(el, v string) string {
	return fmt.Sprintf("%s.textContent = %s ?? \"\";", el, v)
}

// boolProps are attributes reflected as boolean DOM properties.
var boolProps = map[string]string{
	"checked":   "checked",
	"disabled":  "disabled",
	"selected":  "selected",
	"hidden":    "hidden",
	"readonly":  "readOnly",
	"readOnly":  "readOnly",
	"multiple":  "multiple",
	"required":  "required",
	"autofocus": "autofocus",
	"open":      "open",
}

func (f *fnEmitter) attrWrite(name string) write {
	switch {
	case name == ir.SpreadAttr:
		assign := f.use(rtAssign)
		return func(el, v string) string { return fmt.Sprintf("%s(%s, %s);", assign, el, v) }
	case name == "class":
		return func(el, v string) string { return fmt.Sprintf("%s.setAttribute(\"class\", %s ?? \"\");", el, v) }
	case name == "value":
		return func(el, v string) string { return fmt.Sprintf("if (%s !== undefined) %s.value = %s;", v, el, v) }
	case boolProps[name] != "":
		prop := boolProps[name]
		return func(el, v string) string { return fmt.Sprintf("%s.%s = !!%s;", el, prop, v) }
	}
	return func(el, v string) string {
		return fmt.Sprintf("if (%s !== undefined) %s.setAttribute(%q, %s);", v, el, name, v)
	}
}

// valueEffect evaluates expr before touching the DOM so the effect tracks
// its dependencies even while the element is absent.
func (f *fnEmitter) valueEffect(expr string, id ir.ID, stable bool, w write) {
	f.open("%s(() => {", f.effect)
	f.line("const __v = %s;", expr)
	el := elemVar(id)
	if !stable {
		el = "__n"
		f.line("const __n = %s(__scope, %q);", f.use(rtFind), id)
	}
	f.line("if (%s) %s", el, w(el, "__v"))
	f.close("});")
}

// claims hydrates the interactive components rendered under parent.
func (f *fnEmitter) claims(children []ir.ChildInstantiation, parent string) {
	for _, r := range claimTargets(children) {
		f.line("while (%s(0, %s));", f.names.inits.Name(r), parent)
	}
}

func markerSelector(id ir.ID) string {
	return fmt.Sprintf(`'[%s="%s"]'`, wire.AttrNode, id)
}
