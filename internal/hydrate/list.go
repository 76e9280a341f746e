package hydrate

import (
	"fmt"

	"golang.org/x/net/html"

	"weft/internal/wire"
)

// Items returns the keyed item elements of container in order.
func Items(container *html.Node) []*html.Node {
	var out []*html.Node
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if _, ok := attr(c, wire.AttrKey); ok {
			out = append(out, c)
		}
	}
	return out
}

// Reconcile reorders the items of container to match keys. Items whose key
// is kept are moved, never re-created; missing keys are rendered with
// render and stale items are removed. New items go before the list end
// anchor of id when present. patch, when not nil, is called for every kept
// item.
func Reconcile(container *html.Node, id string, keys []string,
	render func(key string, index int) (string, error),
	patch func(item *html.Node, key string, index int),
) error {
	existing := map[string]*html.Node{}
	for _, it := range Items(container) {
		k := Attr(it, wire.AttrKey)
		if _, dup := existing[k]; !dup {
			existing[k] = it
		}
	}

	want := make([]*html.Node, 0, len(keys))
	used := map[*html.Node]bool{}
	for i, k := range keys {
		if it, ok := existing[k]; ok && !used[it] {
			used[it] = true
			if patch != nil {
				patch(it, k, i)
			}
			want = append(want, it)
			continue
		}
		src, err := render(k, i)
		if err != nil {
			return err
		}
		nodes, err := fragment(container, src)
		if err != nil {
			return err
		}
		var item *html.Node
		for _, n := range nodes {
			if n.Type == html.ElementNode {
				item = n
				break
			}
		}
		if item == nil {
			return fmt.Errorf("hydrate: item %q rendered no element", k)
		}
		want = append(want, item)
	}

	for _, it := range Items(container) {
		if !used[it] {
			container.RemoveChild(it)
		}
	}

	anchor := listEnd(container, id)
	cursor := firstItem(container, anchor)
	for _, it := range want {
		if it == cursor {
			cursor = nextItem(cursor, anchor)
			continue
		}
		if it.Parent != nil {
			it.Parent.RemoveChild(it)
		}
		container.InsertBefore(it, cursor)
	}
	return nil
}

func listEnd(container *html.Node, id string) *html.Node {
	text := wire.ListEnd(id)
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode && c.Data == text {
			return c
		}
	}
	return nil
}

// firstItem returns the first keyed item, or the anchor when there is none.
func firstItem(container, anchor *html.Node) *html.Node {
	for c := container.FirstChild; c != nil && c != anchor; c = c.NextSibling {
		if _, ok := attr(c, wire.AttrKey); ok {
			return c
		}
	}
	return anchor
}

func nextItem(n, anchor *html.Node) *html.Node {
	for c := n.NextSibling; c != nil && c != anchor; c = c.NextSibling {
		if _, ok := attr(c, wire.AttrKey); ok {
			return c
		}
	}
	return anchor
}
