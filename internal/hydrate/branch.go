package hydrate

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"weft/internal/wire"
)

// owned visits every node of scope that belongs to it, comments included,
// skipping nested scopes.
func owned(scope *html.Node, visit func(*html.Node) bool) {
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if _, nested := attr(c, wire.AttrScope); nested {
				continue
			}
			if !visit(c) || !walk(c) {
				return false
			}
		}
		return true
	}
	walk(scope)
}

// condStart returns the opening comment of fragment branch id.
func condStart(scope *html.Node, id string) (*html.Node, bool) {
	var start *html.Node
	var cond bool
	owned(scope, func(n *html.Node) bool {
		if n.Type != html.CommentNode {
			return true
		}
		if cid, c, ok := wire.ParseCondStart(n.Data); ok && cid == id {
			start, cond = n, c
			return false
		}
		return true
	})
	return start, cond
}

// Branch reports which branch of conditional id the DOM shows. ok is false
// when the block cannot be found.
func Branch(scope *html.Node, id string) (cond, ok bool) {
	if el := Find(scope, id); el != nil {
		if flag, has := attr(el, wire.AttrBranch); has {
			return wire.ParseBranchFlag(flag)
		}
	}
	if start, c := condStart(scope, id); start != nil {
		return c, true
	}
	return false, false
}

// Swap replaces the rendered branch of conditional id with the markup of
// the other branch. markup must carry the same markers the server emits
// for the branch (wf-b or the bounding comments).
func Swap(scope *html.Node, id, markup string) error {
	if el := Find(scope, id); el != nil {
		if _, has := attr(el, wire.AttrBranch); has {
			return replace(el, el, markup)
		}
	}
	start, _ := condStart(scope, id)
	if start == nil {
		return fmt.Errorf("hydrate: conditional %s not found in %s", id, Marker(scope))
	}
	end := start
	closing := wire.CondEnd(id)
	for end != nil && !(end.Type == html.CommentNode && end.Data == closing) {
		end = end.NextSibling
	}
	if end == nil {
		return fmt.Errorf("hydrate: conditional %s is not closed", id)
	}
	return replace(start, end, markup)
}

// replace substitutes the sibling range [first, last] with parsed markup.
func replace(first, last *html.Node, markup string) error {
	parent := first.Parent
	if parent == nil {
		return fmt.Errorf("hydrate: detached node")
	}
	nodes, err := fragment(parent, markup)
	if err != nil {
		return err
	}
	anchor := last.NextSibling
	for n := first; n != anchor; {
		next := n.NextSibling
		parent.RemoveChild(n)
		n = next
	}
	for _, n := range nodes {
		parent.InsertBefore(n, anchor)
	}
	return nil
}

// fragment parses markup in the context of parent.
func fragment(parent *html.Node, markup string) ([]*html.Node, error) {
	ctx := parent
	if ctx.Type != html.ElementNode {
		ctx = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("hydrate: parse fragment: %w", err)
	}
	return nodes, nil
}

// Conditional replays the client's conditional effect: the shown branch is
// unknown until the first run reads it from the DOM, then it is the last
// branch rendered. Bind runs on the first run and after every swap.
type Conditional struct {
	ID     string
	Render func(cond bool) string
	Bind   func(scope *html.Node)

	known bool
	prev  bool
}

// Run applies cond and reports whether the DOM was changed.
func (c *Conditional) Run(scope *html.Node, cond bool) (bool, error) {
	if !c.known {
		c.known = true
		c.prev = cond
		if shown, ok := Branch(scope, c.ID); ok {
			c.prev = shown
		}
		c.bind(scope)
	}
	if cond == c.prev {
		return false, nil
	}
	if err := Swap(scope, c.ID, c.Render(cond)); err != nil {
		return false, err
	}
	c.prev = cond
	c.bind(scope)
	return true, nil
}

func (c *Conditional) bind(scope *html.Node) {
	if c.Bind != nil {
		c.Bind(scope)
	}
}
