package ir

// Region tells where a node sits relative to the component's stable markup.
type Region uint8

const (
	// RegionStatic nodes exist for the whole life of the instance.
	RegionStatic Region = iota
	// RegionBranch nodes live inside a conditional branch.
	RegionBranch
	// RegionItem nodes live inside a list item template.
	RegionItem
)

// Visit is called for every node in document order. Returning false skips
// the node's subtree.
type Visit func(n *Node, region Region) bool

// Walk traverses n depth-first. Bindings of an element are visited before
// its children; the item template of a list and both branches of a
// conditional are visited with the corresponding region.
func Walk(n *Node, visit Visit) {
	walk(n, RegionStatic, visit)
}

func walk(n *Node, region Region, visit Visit) {
	if n == nil || !visit(n, region) {
		return
	}
	switch d := n.Data.(type) {
	case *Element:
		for _, b := range d.Bindings {
			walk(b, region, visit)
		}
		for _, c := range d.Children {
			walk(c, region, visit)
		}
	case *Fragment:
		for _, c := range d.Children {
			walk(c, region, visit)
		}
	case *ConditionalBlock:
		inner := RegionBranch
		if region == RegionItem {
			inner = RegionItem
		}
		walk(d.TrueBranch, inner, visit)
		walk(d.FalseBranch, inner, visit)
	case *ListBlock:
		walk(d.ItemTemplate, RegionItem, visit)
	}
}

// Collect returns every node of the given kind in document order.
func Collect(root *Node, kind NodeKind) []*Node {
	var out []*Node
	Walk(root, func(n *Node, _ Region) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}
