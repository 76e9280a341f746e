// Package markup renders IR trees as JavaScript template literals carrying
// the hydration markers, and assembles the server module of a file.
package markup

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"weft/internal/ir"
	"weft/internal/wire"
)

// Runtime helpers referenced by templates.
const (
	HelperEsc    = "$esc"
	HelperAttr   = "$attr"
	HelperSpread = "$spread"
	HelperJSON   = "$json"
	HelperInst   = "$inst"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Ctx configures one template rendering.
type Ctx struct {
	// Component is the name used in the scope marker.
	Component string
	// Instance is a JS expression evaluating to the current instance id.
	Instance string
	// Markers enables wf / wf-s / wf-b / data-key output. Server-only
	// components render plain markup.
	Markers bool
	// Scope adds the scope attribute to the root element.
	Scope bool
	// RenderFn names the render function of a child record.
	RenderFn func(*ir.ComponentRecord) string

	// Used collects runtime helpers referenced by the output.
	Used map[string]bool
}

func (c *Ctx) use(helper string) string {
	if c.Used == nil {
		c.Used = map[string]bool{}
	}
	c.Used[helper] = true
	return helper
}

// Template renders n as a template literal, backticks included.
func Template(n *ir.Node, ctx *Ctx) string {
	w := &writer{ctx: ctx}
	w.sb.WriteByte('`')
	w.node(n, ctx.Scope, "")
	w.sb.WriteByte('`')
	return w.sb.String()
}

// Body renders n without the surrounding backticks, for embedding in a
// larger literal.
func Body(n *ir.Node, ctx *Ctx) string {
	w := &writer{ctx: ctx}
	w.node(n, ctx.Scope, "")
	return w.sb.String()
}

// Branch renders one arm of c as a template literal carrying the same
// markers the server writes for it.
func Branch(c *ir.ConditionalBlock, cond bool, ctx *Ctx) string {
	w := &writer{ctx: ctx}
	arm := c.FalseBranch
	if cond {
		arm = c.TrueBranch
	}
	w.sb.WriteByte('`')
	w.branch(c, arm, cond)
	w.sb.WriteByte('`')
	return w.sb.String()
}

// Item renders the item template of l, data-key included, as a template
// literal.
func Item(l *ir.ListBlock, ctx *Ctx) string {
	key := ItemKey(l)
	w := &writer{ctx: ctx, keys: []string{key}}
	w.sb.WriteByte('`')
	w.item(l.ItemTemplate, key)
	w.sb.WriteByte('`')
	return w.sb.String()
}

type writer struct {
	sb  strings.Builder
	ctx *Ctx
	// keys holds the key expressions of enclosing list items, outermost
	// first; child instance ids inside items include them.
	keys []string
}

func (w *writer) node(n *ir.Node, scopeRoot bool, branch string) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ir.NodeElement:
		w.element(n.Element(), scopeRoot, branch)
	case ir.NodeStaticText:
		w.sb.WriteString(literal(html.EscapeString(n.Data.(*ir.StaticText).Text)))
	case ir.NodeDynamicText:
		d := n.DynamicText()
		if d.Wrapped {
			w.sb.WriteString("<span")
			w.marker(d.ID)
			w.sb.WriteString(">")
			w.interp(w.ctx.use(HelperEsc) + "(" + d.Expr + ")")
			w.sb.WriteString("</span>")
			return
		}
		w.interp(w.ctx.use(HelperEsc) + "(" + d.Expr + ")")
	case ir.NodeFragment:
		for _, c := range n.Fragment().Children {
			w.node(c, false, "")
		}
	case ir.NodeConditional:
		w.conditional(n.Conditional())
	case ir.NodeList:
		w.list(n.List())
	case ir.NodeComponent:
		w.component(n.Component())
	}
}

func (w *writer) element(el *ir.Element, scopeRoot bool, branch string) {
	w.sb.WriteByte('<')
	w.sb.WriteString(el.Tag)
	if scopeRoot && w.ctx.Markers {
		fmt.Fprintf(&w.sb, ` %s="%s_`, wire.AttrScope, literal(w.ctx.Component))
		w.interp(w.ctx.Instance)
		w.sb.WriteByte('"')
	}
	w.marker(el.ID)
	if branch != "" && w.ctx.Markers {
		fmt.Fprintf(&w.sb, ` %s="%s"`, wire.AttrBranch, branch)
	}
	for _, a := range el.StaticAttrs {
		w.sb.WriteByte(' ')
		w.sb.WriteString(a.Name)
		if a.Bool {
			continue
		}
		w.sb.WriteString(`="`)
		w.sb.WriteString(literal(html.EscapeString(a.Value)))
		w.sb.WriteByte('"')
	}
	for _, b := range el.Bindings {
		ab, ok := b.Data.(*ir.AttributeBinding)
		if !ok {
			continue
		}
		if ab.AttrName == ir.SpreadAttr {
			w.interp(w.ctx.use(HelperSpread) + "(" + ab.Expr + ")")
			continue
		}
		w.interp(fmt.Sprintf("%s(%q, %s)", w.ctx.use(HelperAttr), ab.AttrName, ab.Expr))
	}
	w.sb.WriteByte('>')
	if voidElements[strings.ToLower(el.Tag)] {
		return
	}
	for _, c := range el.Children {
		w.node(c, false, "")
	}
	w.sb.WriteString("</")
	w.sb.WriteString(el.Tag)
	w.sb.WriteByte('>')
}

func (w *writer) marker(id ir.ID) {
	if id == "" || !w.ctx.Markers {
		return
	}
	fmt.Fprintf(&w.sb, ` %s="%s"`, wire.AttrNode, id)
}

func (w *writer) interp(expr string) {
	w.sb.WriteString("${")
	w.sb.WriteString(expr)
	w.sb.WriteString("}")
}

func (w *writer) conditional(c *ir.ConditionalBlock) {
	w.sb.WriteString("${(")
	w.sb.WriteString(c.CondExpr)
	w.sb.WriteString(") ? `")
	w.branch(c, c.TrueBranch, true)
	w.sb.WriteString("` : `")
	w.branch(c, c.FalseBranch, false)
	w.sb.WriteString("`}")
}

// branch renders one arm. Element arms carry wf-b on their root; fragment
// arms are bounded by comments so the client can find and replace them.
func (w *writer) branch(c *ir.ConditionalBlock, n *ir.Node, cond bool) {
	if !c.IsFragment {
		w.node(n, false, wire.BranchFlag(cond))
		return
	}
	if w.ctx.Markers {
		fmt.Fprintf(&w.sb, "<!--%s-->", wire.CondStart(string(c.ID), cond))
	}
	w.node(n, false, "")
	if w.ctx.Markers {
		fmt.Fprintf(&w.sb, "<!--%s-->", wire.CondEnd(string(c.ID)))
	}
}

func (w *writer) list(l *ir.ListBlock) {
	index := l.IndexParam
	if index == "" {
		index = "__i"
	}
	key := ItemKey(l)
	w.sb.WriteString("${(")
	w.sb.WriteString(l.ArrayExpr)
	fmt.Fprintf(&w.sb, ").map((%s, %s) => `", l.ItemParam, index)
	w.keys = append(w.keys, key)
	w.item(l.ItemTemplate, key)
	w.keys = w.keys[:len(w.keys)-1]
	w.sb.WriteString("`).join(\"\")}")
	if w.ctx.Markers {
		fmt.Fprintf(&w.sb, "<!--%s-->", wire.ListEnd(string(l.ID)))
	}
}

// item renders the item root with its data-key attribute.
func (w *writer) item(n *ir.Node, key string) {
	el := n.Element()
	if el == nil || !w.ctx.Markers {
		w.node(n, false, "")
		return
	}
	// render into a scratch writer and splice data-key after the tag name
	sub := &writer{ctx: w.ctx, keys: w.keys}
	sub.element(el, false, "")
	out := sub.sb.String()
	head := "<" + el.Tag
	w.sb.WriteString(head)
	fmt.Fprintf(&w.sb, ` %s="${%s(%s)}"`, wire.AttrKey, w.ctx.use(HelperEsc), key)
	w.sb.WriteString(strings.TrimPrefix(out, head))
}

// ItemKey is the JS expression keying a list item: the key attribute or
// the index.
func ItemKey(l *ir.ListBlock) string {
	if l.KeyExpr != "" {
		return l.KeyExpr
	}
	if l.IndexParam != "" {
		return l.IndexParam
	}
	return "__i"
}

func (w *writer) component(c *ir.ComponentCall) {
	if c.Record == nil || c.Record.Placeholder || c.Record.IR == nil {
		return
	}
	fn := "render" + c.Record.Name
	if w.ctx.RenderFn != nil {
		fn = w.ctx.RenderFn(c.Record)
	}
	inst := fmt.Sprintf("%s(%s, %q", w.ctx.use(HelperInst), w.ctx.Instance, c.ChildID)
	for _, k := range w.keys {
		inst += ", " + k
	}
	inst += ")"
	w.interp(fmt.Sprintf("%s(%s, %s)", fn, PropsObject(c.Props), inst))
}

// PropsObject renders the props argument of a component call.
func PropsObject(props []ir.PropArg) string {
	if len(props) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(props))
	for _, p := range props {
		if p.Spread {
			parts = append(parts, "..."+p.Expr)
			continue
		}
		parts = append(parts, propKey(p.Name)+": "+p.Expr)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func propKey(name string) string {
	for i, r := range name {
		ok := r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9'
		if !ok {
			return fmt.Sprintf("%q", name)
		}
	}
	return name
}

// literal escapes text for a template literal body.
func literal(s string) string {
	if !strings.ContainsAny(s, "`\\$") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '`' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '$' && i+1 < len(s) && s[i+1] == '{':
			sb.WriteString("\\$")
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
