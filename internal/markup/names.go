package markup

import (
	"fmt"
	"slices"
	"strings"

	"weft/internal/ir"
)

// RenderNames assigns function names to the records a module references.
// Records of the module itself keep their plain name; records imported from
// other files get a numeric suffix when two files export the same name.
type RenderNames struct {
	source string
	names  map[*ir.ComponentRecord]string
	taken  map[string]bool
	order  []*ir.ComponentRecord
	prefix string
	// all imports records of the source file too, for modules that
	// reference another generated module of the same file.
	all bool
}

func NewRenderNames(source string, local []*ir.ComponentRecord) *RenderNames {
	return newNames(source, local, "render")
}

// NewInitNames is RenderNames for client initializers.
func NewInitNames(source string, local []*ir.ComponentRecord) *RenderNames {
	return newNames(source, local, "init")
}

// NewImportedRenderNames names render functions as seen from the client
// module of source: every record, local ones included, is imported from a
// server module.
func NewImportedRenderNames(source string) *RenderNames {
	n := newNames(source, nil, "render")
	n.all = true
	return n
}

func newNames(source string, local []*ir.ComponentRecord, prefix string) *RenderNames {
	n := &RenderNames{
		source: source,
		names:  map[*ir.ComponentRecord]string{},
		taken:  map[string]bool{},
		prefix: prefix,
	}
	for _, r := range local {
		name := prefix + r.Name
		n.names[r] = name
		n.taken[name] = true
	}
	return n
}

// Name returns the function name for rec, registering an import when rec
// lives in another file.
func (n *RenderNames) Name(rec *ir.ComponentRecord) string {
	if name, ok := n.names[rec]; ok {
		return name
	}
	name := n.prefix + rec.Name
	for i := 2; n.taken[name]; i++ {
		name = fmt.Sprintf("%s%s_%d", n.prefix, rec.Name, i)
	}
	n.names[rec] = name
	n.taken[name] = true
	if n.all || rec.SourceFile != n.source {
		n.order = append(n.order, rec)
	}
	return name
}

// Imports renders one import line per referenced foreign record, grouped
// by module, in first-use order.
func (n *RenderNames) Imports(suffix string) []string {
	var mods []string
	byMod := map[string][]string{}
	for _, rec := range n.order {
		spec := ModuleSpec(n.source, rec.SourceFile, suffix)
		if _, ok := byMod[spec]; !ok {
			mods = append(mods, spec)
		}
		exported := n.prefix + rec.Name
		local := n.names[rec]
		entry := exported
		if local != exported {
			entry = exported + " as " + local
		}
		if !slices.Contains(byMod[spec], entry) {
			byMod[spec] = append(byMod[spec], entry)
		}
	}
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, fmt.Sprintf("import { %s } from %q;\n", strings.Join(byMod[m], ", "), m))
	}
	return out
}
