package ir

import (
	"fmt"
	"io"
	"strings"
)

// Printer dumps records as indented text for `weft inspect`.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Dump writes rec to w.
func Dump(w io.Writer, rec *ComponentRecord) error {
	p := NewPrinter(w)
	p.PrintRecord(rec)
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

func (p *Printer) PrintRecord(rec *ComponentRecord) {
	flags := []string{}
	if rec.HasClientDirective {
		flags = append(flags, "client")
	}
	if rec.IsExported {
		flags = append(flags, "exported")
	}
	if rec.IsDefaultExport {
		flags = append(flags, "default")
	}
	if rec.Placeholder {
		flags = append(flags, "placeholder")
	}
	p.printf("component %s [%s]", rec.Name, strings.Join(flags, " "))
	p.indent++
	defer func() { p.indent-- }()
	if len(rec.Props) > 0 {
		names := make([]string, len(rec.Props))
		for i, pr := range rec.Props {
			names[i] = pr.Name
			if pr.Default != "" {
				names[i] += "=" + pr.Default
			}
		}
		p.printf("props: %s", strings.Join(names, ", "))
	}
	for cat, d := range rec.Decls.All() {
		p.printf("%s %s", cat, strings.Join(d.Names, ", "))
	}
	for _, c := range rec.Children {
		p.printf("child %s #%s", c.Name, c.ChildID)
	}
	p.PrintNode(rec.IR)
}

func (p *Printer) PrintNode(n *Node) {
	if n == nil {
		p.printf("<nil>")
		return
	}
	switch d := n.Data.(type) {
	case *Element:
		attrs := make([]string, 0, len(d.StaticAttrs))
		for _, a := range d.StaticAttrs {
			if a.Bool {
				attrs = append(attrs, a.Name)
				continue
			}
			attrs = append(attrs, fmt.Sprintf("%s=%q", a.Name, a.Value))
		}
		head := "<" + d.Tag
		if len(attrs) > 0 {
			head += " " + strings.Join(attrs, " ")
		}
		head += ">"
		if d.ID != "" {
			head += " #" + string(d.ID)
		}
		p.printf("%s", head)
		p.indent++
		for _, b := range d.Bindings {
			p.PrintNode(b)
		}
		for _, c := range d.Children {
			p.PrintNode(c)
		}
		p.indent--
	case *StaticText:
		p.printf("text %q", d.Text)
	case *DynamicText:
		wrapped := ""
		if d.Wrapped {
			wrapped = " wrapped"
		}
		p.printf("dyntext #%s {%s}%s", d.ID, d.Expr, wrapped)
	case *AttributeBinding:
		p.printf("attr #%s %s={%s}", d.ID, d.AttrName, d.Expr)
	case *RefCallback:
		p.printf("ref #%s {%s}", d.ID, d.Expr)
	case *EventBinding:
		p.printf("on #%s %s={%s}", d.ID, d.Event, d.Handler)
	case *ListBlock:
		key := d.KeyExpr
		if key == "" {
			key = "<index>"
		}
		p.printf("list #%s {%s} as (%s, %s) key {%s}", d.ID, d.ArrayExpr, d.ItemParam, d.IndexParam, key)
		p.indent++
		for _, ev := range d.ItemEvents {
			p.printf("delegate #%s %s={%s}", ev.ID, ev.Event, ev.Handler)
		}
		p.PrintNode(d.ItemTemplate)
		p.indent--
	case *ConditionalBlock:
		mode := "element"
		if d.IsFragment {
			mode = "fragment"
		}
		p.printf("if #%s {%s} %s", d.ID, d.CondExpr, mode)
		p.indent++
		p.printf("then:")
		p.indent++
		p.PrintNode(d.TrueBranch)
		p.indent--
		p.printf("else:")
		p.indent++
		p.PrintNode(d.FalseBranch)
		p.indent -= 2
	case *ComponentCall:
		args := make([]string, 0, len(d.Props))
		for _, a := range d.Props {
			if a.Spread {
				args = append(args, "..."+a.Expr)
				continue
			}
			args = append(args, a.Name+"="+a.Expr)
		}
		p.printf("call %s #%s (%s)", d.Name, d.ChildID, strings.Join(args, ", "))
	case *Fragment:
		p.printf("fragment")
		p.indent++
		for _, c := range d.Children {
			p.PrintNode(c)
		}
		p.indent--
	default:
		p.printf("%s ?", n.Kind)
	}
}
