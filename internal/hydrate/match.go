package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"weft/internal/wire"
)

// ErrNoPayload is returned by Props when an instance has no payload script.
var ErrNoPayload = errors.New("hydrate: props payload not found")

// Candidates returns the unclaimed scope roots of component name owned by
// root, in document order. Scopes nested inside another scope below root
// belong to that scope and are left for its initializer to claim.
func Candidates(root *html.Node, name string) []*html.Node {
	var out []*html.Node
	elements(root, func(n *html.Node) bool {
		marker, ok := attr(n, wire.AttrScope)
		if !ok {
			return true
		}
		if _, claimed := attr(n, wire.AttrInit); !claimed {
			if comp, _, ok := wire.ParseScopeMarker(marker); ok && comp == name {
				out = append(out, n)
			}
		}
		return false
	})
	return out
}

// Claim marks the index-th unclaimed instance of name under root as
// initialized and returns it, or nil when there is none. A claimed scope is
// never returned again.
func Claim(root *html.Node, name string, index int) *html.Node {
	c := Candidates(root, name)
	if index < 0 || index >= len(c) {
		return nil
	}
	scope := c[index]
	setAttr(scope, wire.AttrInit, "")
	return scope
}

// HydrateAll claims every instance of name in doc, calling init for each in
// document order, and returns how many were claimed. init may claim nested
// instances itself; those are skipped here.
func HydrateAll(doc *html.Node, name string, init func(scope *html.Node)) int {
	n := 0
	for {
		scope := Claim(doc, name, 0)
		if scope == nil {
			return n
		}
		n++
		if init != nil {
			init(scope)
		}
	}
}

// Marker returns the scope marker of a scope root.
func Marker(scope *html.Node) string {
	return Attr(scope, wire.AttrScope)
}

// Props decodes the props payload of the instance with the given marker.
// The payload is expected right after the scope root; the whole document is
// searched otherwise.
func Props(doc *html.Node, marker string) (map[string]any, error) {
	script := payloadOf(doc, marker)
	if script == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoPayload, marker)
	}
	props := map[string]any{}
	body := Text(script)
	if body == "" {
		return props, nil
	}
	if err := json.Unmarshal([]byte(body), &props); err != nil {
		return nil, fmt.Errorf("hydrate: payload of %s: %w", marker, err)
	}
	return props, nil
}

func payloadOf(doc *html.Node, marker string) *html.Node {
	var scope, script *html.Node
	isPayload := func(n *html.Node) bool {
		v, ok := attr(n, wire.AttrPayload)
		return ok && v == marker && n.Data == "script"
	}
	elements(doc, func(n *html.Node) bool {
		if scope == nil && Marker(n) == marker {
			scope = n
		}
		if script == nil && isPayload(n) {
			script = n
		}
		return scope == nil || script == nil
	})
	if scope != nil {
		if next := nextElement(scope); next != nil && isPayload(next) {
			return next
		}
	}
	return script
}

// Owner returns the scope root n belongs to: the nearest ancestor carrying
// a scope marker.
func Owner(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if _, ok := attr(p, wire.AttrScope); ok {
			return p
		}
	}
	return nil
}

// Find returns the element marked with id that belongs to scope itself.
// Elements inside nested scopes are not considered.
func Find(scope *html.Node, id string) *html.Node {
	if v, ok := attr(scope, wire.AttrNode); ok && v == id {
		return scope
	}
	var found *html.Node
	elements(scope, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if _, nested := attr(n, wire.AttrScope); nested {
			return false
		}
		if v, ok := attr(n, wire.AttrNode); ok && v == id {
			found = n
			return false
		}
		return true
	})
	return found
}
