package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/net/html"

	"weft/internal/diag"
)

func (x *extractor) jsxValue(n *sitter.Node) *JSX {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "jsx_element":
		open := n.ChildByFieldName("open_tag")
		j := &JSX{Kind: JSXFragment, Span: x.span(n)}
		if open != nil {
			if name := open.ChildByFieldName("name"); name != nil {
				j.Kind = JSXElement
				j.Tag = x.text(name)
				j.Attrs = x.attrs(open)
			}
		}
		j.Children = x.jsxChildren(n)
		return j
	case "jsx_self_closing_element":
		return &JSX{
			Kind:  JSXElement,
			Span:  x.span(n),
			Tag:   x.text(n.ChildByFieldName("name")),
			Attrs: x.attrs(n),
		}
	case "jsx_fragment":
		return &JSX{Kind: JSXFragment, Span: x.span(n), Children: x.jsxChildren(n)}
	}
	return &JSX{Kind: JSXExpr, Span: x.span(n), Expr: x.expr(n)}
}

func (x *extractor) jsxChildren(n *sitter.Node) []*JSX {
	var out []*JSX
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		var child *JSX
		switch c.Type() {
		case "jsx_opening_element", "jsx_closing_element", "comment":
			continue
		case "jsx_text":
			txt := cleanText(x.text(c))
			if txt == "" {
				continue
			}
			child = &JSX{Kind: JSXText, Span: x.span(c), Text: html.UnescapeString(txt)}
		case "html_character_reference":
			child = &JSX{Kind: JSXText, Span: x.span(c), Text: html.UnescapeString(x.text(c))}
		case "jsx_expression":
			inner := exprInside(c)
			if inner == nil {
				continue
			}
			if inner.Type() == "spread_element" {
				diag.ReportWarning(x.rep, diag.SynUnsupportedJSX, x.span(c), "spread children are not supported").Emit()
				continue
			}
			child = &JSX{Kind: JSXExpr, Span: x.span(c), Expr: x.expr(inner)}
			if child.Expr.Kind == ExprMarkup {
				child = child.Expr.Markup
			}
		default:
			child = x.jsxValue(c)
		}
		if k := len(out); k > 0 && child.Kind == JSXText && out[k-1].Kind == JSXText {
			out[k-1].Text += child.Text
			out[k-1].Span = out[k-1].Span.Cover(child.Span)
			continue
		}
		out = append(out, child)
	}
	return out
}

func (x *extractor) attrs(tag *sitter.Node) []Attr {
	var out []Attr
	for i := 0; i < int(tag.NamedChildCount()); i++ {
		c := tag.NamedChild(i)
		switch c.Type() {
		case "jsx_attribute":
			out = append(out, x.attr(c))
		case "jsx_expression":
			inner := exprInside(c)
			if inner == nil || inner.Type() != "spread_element" {
				continue
			}
			arg := inner
			if inner.NamedChildCount() > 0 {
				arg = inner.NamedChild(0)
			}
			out = append(out, Attr{
				Spread: true,
				Expr:   &Expr{Kind: ExprPlain, Source: x.text(arg), Span: x.span(arg)},
				Span:   x.span(c),
			})
		}
	}
	return out
}

func (x *extractor) attr(n *sitter.Node) Attr {
	a := Attr{Span: x.span(n)}
	if n.NamedChildCount() == 0 {
		return a
	}
	a.Name = x.text(n.NamedChild(0))
	if n.NamedChildCount() < 2 {
		return a
	}
	v := n.NamedChild(1)
	a.HasValue = true
	switch v.Type() {
	case "string":
		a.Value = html.UnescapeString(unquote(x.text(v)))
	case "jsx_expression":
		if inner := exprInside(v); inner != nil {
			a.Expr = x.expr(inner)
		} else {
			a.HasValue = false
		}
	default:
		a.Expr = x.expr(v)
	}
	return a
}

// exprInside returns the expression of a `{...}` container, skipping
// comments. nil for an empty container.
func exprInside(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "comment" {
			return c
		}
	}
	return nil
}

func (x *extractor) expr(n *sitter.Node) *Expr {
	n = unparen(n)
	e := &Expr{Kind: ExprPlain, Source: x.text(n), Span: x.span(n)}
	switch {
	case isJSX(n):
		e.Kind = ExprMarkup
		e.Markup = x.jsxValue(n)
	case n.Type() == "ternary_expression":
		cons := n.ChildByFieldName("consequence")
		alt := n.ChildByFieldName("alternative")
		if hasMarkup(cons) || hasMarkup(alt) {
			e.Kind = ExprCond
			e.Cond = x.text(n.ChildByFieldName("condition"))
			e.Then = x.branch(cons)
			e.Else = x.branch(alt)
		}
	case n.Type() == "binary_expression":
		op := n.ChildByFieldName("operator")
		right := n.ChildByFieldName("right")
		if op != nil && x.text(op) == "&&" && hasMarkup(right) {
			e.Kind = ExprCond
			e.Cond = x.text(n.ChildByFieldName("left"))
			e.Then = x.branch(right)
		}
	case n.Type() == "call_expression":
		x.mapCall(n, e)
	}
	return e
}

// mapCall recognises `arr.map((item, i) => <li/>)`.
func (x *extractor) mapCall(n *sitter.Node, e *Expr) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return
	}
	if prop := fn.ChildByFieldName("property"); prop == nil || x.text(prop) != "map" {
		return
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}
	cb := unparen(args.NamedChild(0))
	if !isFunction(cb) || !returnsJSX(cb) {
		return
	}
	e.Kind = ExprMap
	e.Array = x.text(fn.ChildByFieldName("object"))
	if p := cb.ChildByFieldName("parameter"); p != nil {
		e.ItemParam = x.text(p)
	} else if ps := cb.ChildByFieldName("parameters"); ps != nil {
		for i := 0; i < int(ps.NamedChildCount()) && i < 2; i++ {
			p := ps.NamedChild(i)
			if pat := p.ChildByFieldName("pattern"); pat != nil {
				p = pat
			}
			if i == 0 {
				e.ItemParam = x.text(p)
			} else {
				e.IndexParam = x.text(p)
			}
		}
	}
	body := cb.ChildByFieldName("body")
	if body.Type() != "statement_block" {
		e.Item = x.jsxValue(unparen(body))
		return
	}
	for i := int(body.NamedChildCount()) - 1; i >= 0; i-- {
		if s := body.NamedChild(i); s.Type() == "return_statement" && s.NamedChildCount() > 0 {
			e.Item = x.jsxValue(unparen(s.NamedChild(0)))
			if i > 0 {
				diag.ReportWarning(x.rep, diag.SynUnsupportedJSX, x.span(body),
					"statements before the returned item markup are dropped").Emit()
			}
			return
		}
	}
}

// branch converts a conditional arm. Arms rendering nothing become nil.
func (x *extractor) branch(n *sitter.Node) *JSX {
	n = unparen(n)
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "null", "false", "undefined":
		return nil
	case "identifier":
		if x.text(n) == "undefined" {
			return nil
		}
	}
	if isJSX(n) {
		return x.jsxValue(n)
	}
	return &JSX{Kind: JSXExpr, Span: x.span(n), Expr: x.expr(n)}
}

func hasMarkup(n *sitter.Node) bool {
	n = unparen(n)
	if n == nil {
		return false
	}
	if isJSX(n) {
		return true
	}
	switch n.Type() {
	case "ternary_expression":
		return hasMarkup(n.ChildByFieldName("consequence")) || hasMarkup(n.ChildByFieldName("alternative"))
	case "binary_expression":
		return hasMarkup(n.ChildByFieldName("right"))
	case "call_expression":
		fn := n.ChildByFieldName("function")
		args := n.ChildByFieldName("arguments")
		if fn == nil || args == nil || fn.Type() != "member_expression" || args.NamedChildCount() == 0 {
			return false
		}
		cb := unparen(args.NamedChild(0))
		return isFunction(cb) && returnsJSX(cb)
	}
	return false
}

// cleanText applies JSX whitespace rules: lines are trimmed, blank lines
// dropped and the rest joined by single spaces.
func cleanText(raw string) string {
	lines := strings.Split(raw, "\n")
	last := 0
	for i, l := range lines {
		if strings.Trim(l, " \t") != "" {
			last = i
		}
	}
	var b strings.Builder
	for i, l := range lines {
		l = strings.ReplaceAll(l, "\t", " ")
		if i > 0 {
			l = strings.TrimLeft(l, " ")
		}
		if i < len(lines)-1 {
			l = strings.TrimRight(l, " ")
		}
		if l == "" {
			continue
		}
		b.WriteString(l)
		if i != last {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func (x *extractor) collectEventAttrs() {
	var walk func(j *JSX)
	var walkExpr func(e *Expr)
	walk = func(j *JSX) {
		if j == nil {
			return
		}
		if j.Kind == JSXElement && !j.IsComponentTag() {
			for _, a := range j.Attrs {
				if IsEventAttr(a.Name) {
					x.file.EventAttrs = append(x.file.EventAttrs, Ident{Name: a.Name, Span: a.Span})
				}
			}
		}
		for _, c := range j.Children {
			walk(c)
		}
		if j.Kind == JSXExpr {
			walkExpr(j.Expr)
		}
	}
	walkExpr = func(e *Expr) {
		if e == nil {
			return
		}
		walk(e.Then)
		walk(e.Else)
		walk(e.Item)
		walk(e.Markup)
	}
	for _, c := range x.file.Components {
		walk(c.Root)
	}
}

// IsEventAttr reports whether name is an event handler attribute (onClick).
func IsEventAttr(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on") && name[2] >= 'A' && name[2] <= 'Z'
}
