package codegen

import (
	"fmt"

	"weft/internal/diag"
	"weft/internal/ir"
	"weft/internal/markup"
	"weft/internal/wire"
)

// conditional emits a conditional block. In the stable region the shown
// branch is tracked in __prev_<id>: undefined until the first run reads
// it from the server markup, then the last branch rendered. Inside another
// branch the block may be replaced under it, so the DOM is read each run.
func (f *fnEmitter) conditional(c *ir.ConditionalBlock, stable bool) {
	bind := f.bindFunc(c)
	prev := "__prev_" + string(c.ID)
	if stable {
		f.line("let %s;", prev)
	}
	f.open("%s(() => {", f.effect)
	f.line("const __c = !!(%s);", c.CondExpr)
	if stable {
		f.open("if (%s === undefined) {", prev)
		f.line("%s = %s(__scope, %q) ?? __c;", prev, f.use(rtBranch), c.ID)
		if bind != "" {
			f.line("%s();", bind)
		}
		f.close("}")
		f.line("if (__c === %s) return;", prev)
	} else {
		f.line("const __d = %s(__scope, %q);", f.use(rtBranch), c.ID)
		f.line("if (__d === undefined || __d === __c) return;")
	}
	ctx := f.tmplCtx()
	f.line("%s(__scope, %q, __c ? %s : %s, __c);", f.use(rtSwap), c.ID,
		markup.Branch(c, true, ctx), markup.Branch(c, false, ctx))
	if stable {
		f.line("%s = __c;", prev)
	}
	if bind != "" {
		f.line("%s();", bind)
	}
	f.close("});")

	f.branchRegion(c.TrueBranch)
	f.branchRegion(c.FalseBranch)
}

// bindFunc declares __bind_<id>, which attaches the listeners and refs of
// both arms and claims the components they render, and returns its name.
// It returns "" when the arms need nothing.
func (f *fnEmitter) bindFunc(c *ir.ConditionalBlock) string {
	var events []*ir.EventBinding
	var refs []*ir.RefCallback
	var children []ir.ChildInstantiation
	collect := func(n *ir.Node) {
		ir.Walk(n, func(x *ir.Node, region ir.Region) bool {
			switch d := x.Data.(type) {
			case *ir.EventBinding:
				events = append(events, d)
			case *ir.RefCallback:
				refs = append(refs, d)
			case *ir.ComponentCall:
				children = append(children, ir.ChildInstantiation{Name: d.Name, ChildID: d.ChildID, Record: d.Record, Region: region})
			case *ir.ListBlock:
				// items are wired by the list effect
				return false
			}
			return true
		})
	}
	collect(c.TrueBranch)
	collect(c.FalseBranch)
	if len(events) == 0 && len(refs) == 0 && len(claimTargets(children)) == 0 {
		return ""
	}

	name := "__bind_" + string(c.ID)
	f.open("function %s() {", name)
	for _, e := range events {
		f.line("%s(%s(__scope, %q), %q, %s);", f.use(rtOn), f.use(rtFind), e.ID, e.Event, e.Handler)
	}
	for _, r := range refs {
		f.open("{")
		f.line("const __r = %s(__scope, %q);", f.use(rtFind), r.ID)
		f.line("if (__r) (%s)(__r);", r.Expr)
		f.close("}")
	}
	f.claims(children, "__scope")
	f.close("}")
	return name
}

// list emits the reconciliation effect of a list block and the delegated
// listeners of its items.
func (f *fnEmitter) list(l *ir.ListBlock, stable bool) {
	index := l.IndexParam
	if index == "" {
		index = "__i"
	}
	if l.KeyExpr == "" {
		diag.ReportWarning(f.g.Reporter, diag.GenListWithoutKey, f.rec.Span,
			fmt.Sprintf("%s: list %s has no key; items are matched by index", f.rec.Name, l.ID)).Emit()
	}
	params := fmt.Sprintf("(%s, %s)", l.ItemParam, index)
	f.nestedBlocks(l.ItemTemplate)

	container := elemVar(l.ID)
	f.open("%s(() => {", f.effect)
	f.line("const __a = (%s) ?? [];", l.ArrayExpr)
	if !stable {
		container = "__l"
		f.line("const __l = %s(__scope, %q);", f.use(rtFind), l.ID)
	}
	f.line("if (!%s) return;", container)
	f.open("%s(%s, __a, %s => %s, %s => %s, (__el, %s, %s) => {",
		f.use(rtReconcile), container, params, markup.ItemKey(l), params, markup.Item(l, f.tmplCtx()), l.ItemParam, index)
	f.patch(l.ItemTemplate)
	f.close("});")
	var items []ir.ChildInstantiation
	ir.Walk(l.ItemTemplate, func(n *ir.Node, _ ir.Region) bool {
		if c := n.Component(); c != nil {
			items = append(items, ir.ChildInstantiation{Name: c.Name, ChildID: c.ChildID, Record: c.Record, Region: ir.RegionItem})
		}
		return true
	})
	f.claims(items, container)
	f.close("});")

	host := elemVar(l.ID)
	if !stable {
		host = "__scope"
	}
	for _, ev := range l.ItemEvents {
		f.delegate(l, ev, host, params)
	}
}

// nestedBlocks reports conditionals and lists inside an item template.
// They render with the item but are never updated, and their item events
// are not attached: only the outer list delegates events.
func (f *fnEmitter) nestedBlocks(tmpl *ir.Node) {
	ir.Walk(tmpl, func(n *ir.Node, _ ir.Region) bool {
		var id ir.ID
		switch d := n.Data.(type) {
		case *ir.ConditionalBlock:
			id = d.ID
		case *ir.ListBlock:
			id = d.ID
			for _, ev := range d.ItemEvents {
				diag.ReportWarning(f.g.Reporter, diag.GenInertEvent, n.Span,
					fmt.Sprintf("%s: %s handler in nested list %s is not attached", f.rec.Name, ev.Event, d.ID)).Emit()
			}
		default:
			return true
		}
		diag.ReportWarning(f.g.Reporter, diag.GenFrozenBlock, n.Span,
			fmt.Sprintf("%s: block %s keeps its first render when the list item updates", f.rec.Name, id)).Emit()
		return true
	})
}

// patch updates the dynamic text and attributes of a kept item in place.
// Nested blocks of an item are rendered with it and not patched.
func (f *fnEmitter) patch(tmpl *ir.Node) {
	first := true
	ir.Walk(tmpl, func(n *ir.Node, _ ir.Region) bool {
		var id ir.ID
		var expr string
		var w write
		switch d := n.Data.(type) {
		case *ir.ConditionalBlock, *ir.ListBlock:
			return false
		case *ir.DynamicText:
			id, expr, w = d.ID, d.Expr, textWrite
		case *ir.AttributeBinding:
			id, expr, w = d.ID, d.Expr, f.attrWrite(d.AttrName)
		default:
			return true
		}
		if first {
			f.line("let __n;")
			first = false
		}
		f.line("__n = %s(__el, %q);", f.use(rtItem), id)
		f.line("if (__n) %s", w("__n", "("+expr+")"))
		return true
	})
}

// delegate listens on host for an item event and calls the handler with
// the item the event target belongs to, looked up by key in the current
// array.
func (f *fnEmitter) delegate(l *ir.ListBlock, ev ir.ItemEvent, host, params string) {
	f.open("%s(%s, %q, (__ev) => {", f.use(rtOn), host, ev.Event)
	f.line("const __t = __ev.target.closest?.(%s);", markerSelector(ev.ID))
	f.line("if (!__t || __t.closest(%q) !== __scope) return;", "["+wire.AttrScope+"]")
	f.line("const __k = __t.closest(%q)?.getAttribute(%q);", "["+wire.AttrKey+"]", wire.AttrKey)
	f.line("const __a = (%s) ?? [];", l.ArrayExpr)
	f.line("const __j = __a.findIndex(%s => String(%s) === __k);", params, markup.ItemKey(l))
	f.line("if (__j < 0) return;")
	f.line("(%s => (%s))(__a[__j], __j)(__ev);", params, ev.Handler)
	f.close(fmt.Sprintf("}, %q);", string(ev.ID)+":"+ev.Event))
}
