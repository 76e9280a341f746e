package hydrate

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"weft/internal/diag"
	"weft/internal/source"
	"weft/internal/wire"
)

// Instance is one component instance found in a page.
type Instance struct {
	Marker    string
	Component string
	ID        string
	Node      *html.Node
	Parent    *Instance
	Depth     int
	Props     map[string]any
	Payload   bool
	Hydrates  bool
}

// AuditOptions configures Audit.
type AuditOptions struct {
	// Interactive lists the components that have a client initializer.
	// Nil disables the unknown component check.
	Interactive map[string]bool
	Reporter    diag.Reporter
}

// Audit lists every instance of a server-rendered page and reports markers
// and payloads the client could not hydrate.
func Audit(doc *html.Node, opts AuditOptions) []*Instance {
	var out []*Instance
	seen := map[string]bool{}
	report := func(code diag.Code, msg string) {
		diag.ReportWarning(opts.Reporter, code, source.Span{}, msg).Emit()
	}
	var walk func(n *html.Node, parent *Instance)
	walk = func(n *html.Node, parent *Instance) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			marker, ok := attr(c, wire.AttrScope)
			if !ok {
				walk(c, parent)
				continue
			}
			inst := &Instance{Marker: marker, Node: c, Parent: parent}
			if parent != nil {
				inst.Depth = parent.Depth + 1
			}
			comp, id, valid := wire.ParseScopeMarker(marker)
			if !valid {
				report(diag.HydMalformedMarker, fmt.Sprintf("malformed scope marker %q", marker))
			}
			inst.Component, inst.ID = comp, id
			if seen[marker] {
				report(diag.HydDuplicateScope, fmt.Sprintf("scope %s appears more than once", marker))
			}
			seen[marker] = true

			props, err := Props(doc, marker)
			switch {
			case errors.Is(err, ErrNoPayload):
				report(diag.HydMissingPayload, fmt.Sprintf("scope %s has no props payload", marker))
			case err != nil:
				report(diag.HydBadPayload, err.Error())
			default:
				inst.Props, inst.Payload = props, true
			}
			if valid && opts.Interactive != nil {
				inst.Hydrates = opts.Interactive[comp]
				if !inst.Hydrates {
					report(diag.HydUnknownType, fmt.Sprintf("scope %s: %s has no client initializer", marker, comp))
				}
			} else {
				inst.Hydrates = valid
			}
			out = append(out, inst)
			walk(c, inst)
		}
	}
	walk(doc, nil)
	return out
}
