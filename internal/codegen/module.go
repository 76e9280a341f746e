package codegen

import (
	"fmt"
	"strings"

	"weft/internal/ir"
	"weft/internal/markup"
)

const generatedHeader = "// Code generated by weft. DO NOT EDIT.\n"

// Module emits the client module of a file. It returns nil when the file
// has no interactive component.
func (g *Generator) Module(u markup.Unit) ([]byte, error) {
	var interactive []*ir.ComponentRecord
	for _, r := range u.Records {
		if r.Interactive() {
			interactive = append(interactive, r)
		}
	}
	if len(interactive) == 0 {
		return nil, nil
	}

	n := newNames(u.Source, interactive)
	helpers := map[string]bool{}
	prims := markup.Primitives(interactive)
	var fns strings.Builder
	for _, rec := range interactive {
		in, err := g.generate(rec, n)
		if err != nil {
			return nil, err
		}
		for h := range in.Helpers {
			helpers[h] = true
		}
		if _, ok := prims[in.Effect]; !ok {
			prims[in.Effect] = primEffect
		}
		fns.WriteString("\n")
		fns.WriteString(in.Code)
	}
	helpers[rtHydrate] = true

	var out strings.Builder
	out.WriteString(generatedHeader)
	out.WriteString(markup.RuntimeImport(u.Runtime, prims, nil))
	out.WriteString(markup.RuntimeImport(u.Runtime+"/dom", nil, helpers))
	for _, imp := range n.inits.Imports(markup.ClientSuffix) {
		out.WriteString(imp)
	}
	for _, imp := range n.renders.Imports(markup.ServerSuffix) {
		out.WriteString(imp)
	}
	for _, imp := range markup.UserImports(interactive) {
		out.WriteString(imp)
	}
	out.WriteString(fns.String())
	out.WriteString("\n")
	for _, rec := range interactive {
		fmt.Fprintf(&out, "%s(%q, %s);\n", rtHydrate, rec.Name, n.inits.Name(rec))
	}
	return []byte(out.String()), nil
}
