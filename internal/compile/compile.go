// Package compile turns one parsed component into an ir.ComponentRecord:
// declarations sorted into categories, the IR tree with per-component
// sequential ids and the list of child instantiations in document order.
package compile

import (
	"context"
	"fmt"
	"strings"

	"weft/internal/diag"
	"weft/internal/frontend"
	"weft/internal/ir"
	"weft/internal/resolve"
)

// Compiler is the default resolve.BodyCompiler.
type Compiler struct {
	Reporter diag.Reporter
}

func New(r diag.Reporter) *Compiler {
	if r == nil {
		r = diag.NopReporter{}
	}
	return &Compiler{Reporter: r}
}

func (c *Compiler) Compile(ctx context.Context, u resolve.Unit) (*ir.ComponentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u.File == nil || u.Component == nil {
		return nil, fmt.Errorf("compile %s: empty unit", u.Key)
	}
	f, comp := u.File, u.Component
	rec := &ir.ComponentRecord{
		Name:               comp.Name,
		SourceFile:         u.Path,
		Span:               comp.Span,
		HasClientDirective: f.UseClient,
		IsDefaultExport:    f.DefaultExport == comp.Name,
		IsExported:         comp.Exported || f.DefaultExport == comp.Name || exportedAs(f, comp.Name),
		Runtime:            f.Primitives,
	}
	props(rec, comp.Params)
	declarations(rec, f, comp)
	rec.Imports = moduleImports(f, u.Deps)

	rep := c.Reporter
	if rep == nil {
		rep = diag.NopReporter{}
	}
	b := &builder{rec: rec, deps: u.Deps, rep: rep}
	rec.IR = b.root(comp)
	rec.NextID = b.next
	return rec, nil
}

func exportedAs(f *frontend.File, local string) bool {
	for _, l := range f.Exports {
		if l == local {
			return true
		}
	}
	return false
}

func props(rec *ir.ComponentRecord, p frontend.Params) {
	rec.PropsParam = "props"
	if p.Ident != "" {
		rec.PropsParam = p.Ident
	}
	for _, f := range p.Fields {
		rec.Props = append(rec.Props, ir.Prop{Name: f.Name, Local: f.Local, Default: f.Default})
	}
	rec.PropsRest = p.Rest
}

func declarations(rec *ir.ComponentRecord, f *frontend.File, comp *frontend.Component) {
	for _, s := range f.Constants {
		rec.Decls.Add(ir.DeclConstant, ir.Decl{Names: s.Names, Source: s.Source, Span: s.Span})
	}
	for _, s := range comp.Body {
		cat := ir.DeclLocal
		switch s.Kind {
		case frontend.StmtSignal:
			cat = ir.DeclSignal
		case frontend.StmtMemo:
			cat = ir.DeclMemo
		case frontend.StmtEffect:
			cat = ir.DeclEffect
		case frontend.StmtConstant:
			cat = ir.DeclConstant
		}
		rec.Decls.Add(cat, ir.Decl{Names: s.Names, Source: s.Source, Span: s.Span})
	}
}

// moduleImports keeps imports that are neither types, runtime primitives
// nor resolved components; generated modules re-emit them as written.
func moduleImports(f *frontend.File, deps map[string]*ir.ComponentRecord) []ir.Import {
	runtime := map[string]bool{}
	for _, id := range f.RuntimeImports {
		runtime[id.Name] = true
	}
	var out []ir.Import
	for _, imp := range f.Imports {
		if imp.TypeOnly {
			continue
		}
		keep := imp.Clause == ""
		for _, n := range imp.Names {
			if runtime[n.Local] {
				continue
			}
			if _, ok := deps[n.Local]; ok {
				continue
			}
			keep = true
		}
		if imp.Clause != "" && strings.HasPrefix(strings.TrimSpace(imp.Clause), "*") {
			keep = true
		}
		if keep {
			out = append(out, ir.Import{Source: imp.Source, Clause: imp.Clause})
		}
	}
	return out
}

// builder assigns ids in depth-first order while converting JSX to IR.
type builder struct {
	rec    *ir.ComponentRecord
	deps   map[string]*ir.ComponentRecord
	rep    diag.Reporter
	next   int
	region ir.Region
	hosts  map[*ir.Element]bool
}

func (b *builder) id() ir.ID {
	id := ir.ID(fmt.Sprintf("s%d", b.next))
	b.next++
	return id
}

// root builds the component tree. The scope marker needs an element, so a
// root that is not a plain element is wrapped.
func (b *builder) root(comp *frontend.Component) *ir.Node {
	j := comp.Root
	if j == nil {
		return ir.NewElement(comp.Span, contentsWrapper())
	}
	if j.Kind == frontend.JSXElement && !j.IsComponentTag() {
		return b.element(j)
	}
	if j.Kind == frontend.JSXElement && b.deps[j.Tag] == nil {
		// unknown component tag renders as a plain element
		return b.element(j)
	}
	wrap := contentsWrapper()
	n := ir.NewElement(j.Span, wrap)
	wrap.Children = b.children([]*frontend.JSX{j}, wrap)
	return n
}

func contentsWrapper() *ir.Element {
	return &ir.Element{
		Tag:         "div",
		StaticAttrs: []ir.StaticAttr{{Name: "style", Value: "display:contents"}},
	}
}

func (b *builder) node(j *frontend.JSX, parent *ir.Element) *ir.Node {
	switch j.Kind {
	case frontend.JSXText:
		return ir.NewStaticText(j.Span, j.Text)
	case frontend.JSXFragment:
		return ir.NewFragment(j.Span, b.children(j.Children, parent)...)
	case frontend.JSXElement:
		if j.IsComponentTag() {
			if n := b.component(j); n != nil {
				return n
			}
		}
		return b.element(j)
	case frontend.JSXExpr:
		return b.expr(j, parent)
	}
	return nil
}

func (b *builder) children(js []*frontend.JSX, parent *ir.Element) []*ir.Node {
	var out []*ir.Node
	for _, j := range js {
		if n := b.node(j, parent); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (b *builder) element(j *frontend.JSX) *ir.Node {
	el := &ir.Element{Tag: j.Tag}
	n := ir.NewElement(j.Span, el)

	var dyn []frontend.Attr
	for _, a := range j.Attrs {
		switch {
		case a.Spread:
			dyn = append(dyn, a)
		case a.Name == "key":
			// consumed by the enclosing list
		case b.markupValue(a):
		case a.Expr == nil:
			name := htmlAttrName(a.Name)
			if !a.HasValue {
				el.StaticAttrs = append(el.StaticAttrs, ir.StaticAttr{Name: name, Bool: true})
				continue
			}
			el.StaticAttrs = append(el.StaticAttrs, ir.StaticAttr{Name: name, Value: a.Value})
		default:
			if lit, ok := stringLiteral(a.Expr.Source); ok && !frontend.IsEventAttr(a.Name) && a.Name != "ref" {
				el.StaticAttrs = append(el.StaticAttrs, ir.StaticAttr{Name: htmlAttrName(a.Name), Value: lit})
				continue
			}
			dyn = append(dyn, a)
		}
	}

	sole := soleDynamicText(j)
	hasList := false
	for _, c := range j.Children {
		if c.Kind == frontend.JSXExpr && c.Expr.Kind == frontend.ExprMap {
			hasList = true
		}
	}
	if len(dyn) > 0 || sole || hasList {
		el.ID = b.id()
	}

	for _, a := range dyn {
		switch {
		case a.Spread:
			el.Bindings = append(el.Bindings, ir.NewAttribute(a.Span, el.ID, ir.SpreadAttr, a.Expr.Source))
		case a.Name == "ref":
			el.Bindings = append(el.Bindings, ir.NewRef(a.Span, el.ID, a.Expr.Source))
		case frontend.IsEventAttr(a.Name):
			el.Bindings = append(el.Bindings, ir.NewEvent(a.Span, el.ID, EventName(a.Name), a.Expr.Source))
		default:
			el.Bindings = append(el.Bindings, ir.NewAttribute(a.Span, el.ID, htmlAttrName(a.Name), a.Expr.Source))
		}
	}

	if sole {
		c := j.Children[0]
		el.Children = []*ir.Node{ir.NewDynamicText(c.Span, el.ID, c.Expr.Source, false)}
		return n
	}
	el.Children = b.children(j.Children, el)
	return n
}

// soleDynamicText reports whether the element's only child is a text
// expression, which then binds the element itself.
func soleDynamicText(j *frontend.JSX) bool {
	if len(j.Children) != 1 {
		return false
	}
	c := j.Children[0]
	if c.Kind != frontend.JSXExpr || c.Expr.Kind != frontend.ExprPlain {
		return false
	}
	_, lit := stringLiteral(c.Expr.Source)
	return !lit
}

func (b *builder) expr(j *frontend.JSX, parent *ir.Element) *ir.Node {
	e := j.Expr
	switch e.Kind {
	case frontend.ExprMarkup:
		return b.node(e.Markup, parent)
	case frontend.ExprCond:
		return b.conditional(j, parent)
	case frontend.ExprMap:
		return b.list(j, parent)
	}
	if lit, ok := stringLiteral(e.Source); ok {
		return ir.NewStaticText(j.Span, lit)
	}
	return ir.NewDynamicText(j.Span, b.id(), e.Source, true)
}

func (b *builder) conditional(j *frontend.JSX, parent *ir.Element) *ir.Node {
	e := j.Expr
	cb := &ir.ConditionalBlock{ID: b.id(), CondExpr: e.Cond}
	n := ir.NewConditional(j.Span, cb)

	saved := b.region
	if saved != ir.RegionItem {
		b.region = ir.RegionBranch
	}
	cb.TrueBranch = b.branch(e.Then)
	cb.FalseBranch = b.branch(e.Else)
	b.region = saved

	t, f := cb.TrueBranch.Element(), cb.FalseBranch.Element()
	if t != nil && f != nil && t.ID == "" && f.ID == "" {
		t.ID, f.ID = cb.ID, cb.ID
		return n
	}
	cb.IsFragment = true
	return n
}

// branch builds a conditional arm. Arms have no container of their own.
func (b *builder) branch(j *frontend.JSX) *ir.Node {
	if j == nil {
		return nil
	}
	return b.node(j, nil)
}

// list uses the enclosing element as item container. A container hosts a
// single list; other lists get a display:contents wrapper of their own.
func (b *builder) list(j *frontend.JSX, parent *ir.Element) *ir.Node {
	if parent != nil && parent.ID != "" && !b.hosts[parent] {
		if b.hosts == nil {
			b.hosts = map[*ir.Element]bool{}
		}
		b.hosts[parent] = true
		return b.listBlock(j, parent.ID)
	}
	wrap := contentsWrapper()
	wrap.ID = b.id()
	wrap.Children = []*ir.Node{b.listBlock(j, wrap.ID)}
	return ir.NewElement(j.Span, wrap)
}

func (b *builder) listBlock(j *frontend.JSX, container ir.ID) *ir.Node {
	e := j.Expr
	lb := &ir.ListBlock{
		ID:         container,
		ArrayExpr:  e.Array,
		ItemParam:  e.ItemParam,
		IndexParam: e.IndexParam,
	}
	item := e.Item
	if item != nil && item.Kind == frontend.JSXElement {
		for _, a := range item.Attrs {
			if a.Name != "key" {
				continue
			}
			switch {
			case a.Expr != nil:
				lb.KeyExpr = a.Expr.Source
			case a.HasValue:
				lb.KeyExpr = jsString(a.Value)
			}
		}
	}

	saved := b.region
	b.region = ir.RegionItem
	var tmpl *ir.Node
	switch {
	case item == nil:
		tmpl = ir.NewElement(j.Span, contentsWrapper())
	case item.Kind == frontend.JSXElement && (!item.IsComponentTag() || b.deps[item.Tag] == nil):
		tmpl = b.element(item)
	default:
		wrap := contentsWrapper()
		tmpl = ir.NewElement(item.Span, wrap)
		wrap.Children = b.children([]*frontend.JSX{item}, wrap)
	}
	b.region = saved
	lb.ItemTemplate = tmpl

	ir.Walk(tmpl, func(n *ir.Node, _ ir.Region) bool {
		if n.Kind == ir.NodeEvent {
			ev := n.Data.(*ir.EventBinding)
			lb.ItemEvents = append(lb.ItemEvents, ir.ItemEvent{ID: ev.ID, Event: ev.Event, Handler: ev.Handler})
		}
		return n.Kind != ir.NodeList
	})
	return ir.NewList(j.Span, lb)
}

// markupValue reports and drops an attribute whose value is markup; only
// children may carry markup.
func (b *builder) markupValue(a frontend.Attr) bool {
	if a.Spread || a.Expr == nil || a.Expr.Kind == frontend.ExprPlain {
		return false
	}
	diag.ReportWarning(b.rep, diag.SynUnsupportedBind, a.Span,
		fmt.Sprintf("attribute %s takes markup; pass it as a child instead", a.Name)).Emit()
	return true
}

func (b *builder) component(j *frontend.JSX) *ir.Node {
	rec, ok := b.deps[j.Tag]
	if !ok || rec == nil {
		diag.ReportWarning(b.rep, diag.ResUnknownComponent, j.Span,
			fmt.Sprintf("%s is not a component known to %s; rendered as a plain element", j.Tag, b.rec.Name)).Emit()
		return nil
	}
	call := &ir.ComponentCall{Name: j.Tag, ChildID: b.id(), Record: rec}
	for _, a := range j.Attrs {
		switch {
		case a.Spread:
			call.Props = append(call.Props, ir.PropArg{Expr: a.Expr.Source, Spread: true})
		case a.Name == "key":
		case b.markupValue(a):
		case a.Expr != nil:
			call.Props = append(call.Props, ir.PropArg{Name: a.Name, Expr: a.Expr.Source})
		case a.HasValue:
			call.Props = append(call.Props, ir.PropArg{Name: a.Name, Expr: jsString(a.Value), Static: true})
		default:
			call.Props = append(call.Props, ir.PropArg{Name: a.Name, Expr: "true", Static: true})
		}
	}
	if len(j.Children) > 0 {
		diag.ReportWarning(b.rep, diag.SynUnsupportedJSX, j.Span,
			fmt.Sprintf("children passed to %s are not rendered", j.Tag)).Emit()
	}
	b.rec.Children = append(b.rec.Children, ir.ChildInstantiation{
		Name:    j.Tag,
		ChildID: call.ChildID,
		Record:  rec,
		Region:  b.region,
	})
	return ir.NewComponent(j.Span, call)
}
