// Package hydrate is a reference model of the client runtime's side of the
// hydration contract, over golang.org/x/net/html trees. It locates and
// claims component instances in server markup, reads their props payloads,
// resolves dynamic nodes within one scope and replays the structural
// updates (branch swaps, keyed list reconciliation) the generated code
// performs.
package hydrate

import (
	"strings"

	"golang.org/x/net/html"
)

func attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Attr returns the value of an attribute of an element node.
func Attr(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

// elements yields the element descendants of n in document order. Returning
// false from visit skips the subtree of the visited node.
func elements(n *html.Node, visit func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !visit(c) {
			continue
		}
		elements(c, visit)
	}
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.TextNode {
			sb.WriteString(x.Data)
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// nextElement returns the next element sibling of n.
func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// Parse parses a full document.
func Parse(src string) (*html.Node, error) {
	return html.Parse(strings.NewReader(src))
}

// Render serializes n.
func Render(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}
