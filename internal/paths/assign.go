package paths

import (
	"slices"

	"weft/internal/ir"
)

// Assign walks the component tree once and returns the path of every
// dynamic node. root must be the component's root element; its path is the
// empty Known path.
//
// Everything inside a conditional branch or a list item is Indeterminate,
// and so is every sibling (with its subtree) that follows a conditional, a
// list or a component call, because the number of elements those render is
// not known statically. Assign does not modify the tree.
func Assign(root *ir.Node) Table {
	w := &walker{table: Table{}}
	switch {
	case root == nil:
	case root.Kind == ir.NodeElement:
		w.element(root, nil, true)
	default:
		w.children([]*ir.Node{root}, nil, false)
	}
	return w.table
}

type walker struct {
	table Table
}

func (w *walker) set(id ir.ID, at []Step, determinate bool) {
	if id == "" {
		return
	}
	if _, done := w.table[id]; done {
		return
	}
	if determinate {
		w.table[id] = Known{Steps: slices.Clone(at)}
		return
	}
	w.table[id] = Indeterminate{}
}

func (w *walker) element(n *ir.Node, at []Step, determinate bool) {
	el := n.Element()
	w.set(el.ID, at, determinate)
	for _, b := range el.Bindings {
		w.set(b.DynamicID(), at, determinate)
	}
	w.children(el.Children, at, determinate)
}

func (w *walker) children(children []*ir.Node, parent []Step, determinate bool) {
	var prev []Step
	cursor := determinate
	next := func() []Step {
		if prev == nil {
			prev = append(slices.Clone(parent), FirstChild)
		} else {
			prev = append(slices.Clone(prev), NextSibling)
		}
		return prev
	}

	for _, c := range flatten(children) {
		switch c.Kind {
		case ir.NodeStaticText:
		case ir.NodeDynamicText:
			d := c.DynamicText()
			if !d.Wrapped {
				w.set(d.ID, parent, determinate)
				continue
			}
			w.set(d.ID, next(), cursor)
		case ir.NodeElement:
			w.element(c, next(), cursor)
		case ir.NodeList:
			l := c.List()
			w.set(l.ID, parent, determinate)
			w.indeterminate(l.ItemTemplate)
			cursor = false
		case ir.NodeConditional:
			w.indeterminate(c)
			cursor = false
		case ir.NodeComponent:
			w.set(c.Component().ChildID, nil, false)
			cursor = false
		default:
			w.indeterminate(c)
		}
	}
}

func (w *walker) indeterminate(n *ir.Node) {
	ir.Walk(n, func(x *ir.Node, _ ir.Region) bool {
		w.set(x.DynamicID(), nil, false)
		return true
	})
}

// flatten inlines fragments: their children are DOM siblings.
func flatten(nodes []*ir.Node) []*ir.Node {
	out := make([]*ir.Node, 0, len(nodes))
	for _, n := range nodes {
		if f := n.Fragment(); f != nil {
			out = append(out, flatten(f.Children)...)
			continue
		}
		out = append(out, n)
	}
	return out
}
