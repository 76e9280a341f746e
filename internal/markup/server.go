package markup

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"weft/internal/ir"
	"weft/internal/wire"
)

// Generated module suffixes.
const (
	ServerSuffix = ".server.js"
	ClientSuffix = ".client.js"
)

const generatedHeader = "// Code generated by weft. DO NOT EDIT.\n"

// Unit is one source file and the records of its components, in source
// order.
type Unit struct {
	Source  string
	Records []*ir.ComponentRecord
	Runtime string
}

// ServerModule emits `render<Name>(props, id)` for every component of the
// file. Effects are not replayed on the server.
func ServerModule(u Unit) ([]byte, error) {
	if len(u.Records) == 0 {
		return nil, fmt.Errorf("server module %s: no components", u.Source)
	}
	names := NewRenderNames(u.Source, u.Records)
	used := map[string]bool{}
	var fns strings.Builder
	for _, rec := range u.Records {
		if rec.Placeholder {
			continue
		}
		ctx := &Ctx{
			Component: rec.Name,
			Instance:  "__id",
			Markers:   rec.Interactive(),
			Scope:     rec.Interactive(),
			RenderFn:  names.Name,
			Used:      used,
		}
		fmt.Fprintf(&fns, "\nexport function %s(__props = {}, __id = \"0\") {\n", names.Name(rec))
		fns.WriteString(Indent(PropsPrelude(rec, "__props"), "  "))
		fns.WriteString(Indent(Declarations(rec, false), "  "))
		fns.WriteString("  return ")
		fns.WriteString(Template(rec.IR, ctx))
		if rec.Interactive() {
			fmt.Fprintf(&fns, " + `<script type=\"%s\" %s=\"%s_${__id}\">${%s(__props)}</script>`",
				wire.PayloadType, wire.AttrPayload, literal(rec.Name), ctx.use(HelperJSON))
		}
		fns.WriteString(";\n}\n")
	}

	var out strings.Builder
	out.WriteString(generatedHeader)
	out.WriteString(RuntimeImport(u.Runtime+"/server", Primitives(u.Records), used))
	for _, imp := range names.Imports(ServerSuffix) {
		out.WriteString(imp)
	}
	for _, imp := range UserImports(u.Records) {
		out.WriteString(imp)
	}
	out.WriteString(fns.String())
	return []byte(out.String()), nil
}

// PropsPrelude binds the component's props from the JS expression src.
func PropsPrelude(rec *ir.ComponentRecord, src string) string {
	if len(rec.Props) == 0 && rec.PropsRest == "" {
		if rec.PropsParam == "" {
			return ""
		}
		return fmt.Sprintf("const %s = %s;\n", rec.PropsParam, src)
	}
	parts := make([]string, 0, len(rec.Props)+1)
	for _, p := range rec.Props {
		s := p.Name
		if p.Local != "" && p.Local != p.Name {
			s += ": " + p.Local
		}
		if p.Default != "" {
			s += " = " + p.Default
		}
		parts = append(parts, s)
	}
	if rec.PropsRest != "" {
		parts = append(parts, "..."+rec.PropsRest)
	}
	return fmt.Sprintf("const { %s } = %s;\n", strings.Join(parts, ", "), src)
}

// Declarations concatenates declaration sources in category order.
// withEffects is false for server rendering.
func Declarations(rec *ir.ComponentRecord, withEffects bool) string {
	var sb strings.Builder
	for cat, d := range rec.Decls.All() {
		if cat == ir.DeclEffect && !withEffects {
			continue
		}
		sb.WriteString(strings.TrimSpace(d.Source))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Primitives returns alias -> primitive over all records of a file.
func Primitives(recs []*ir.ComponentRecord) map[string]string {
	out := map[string]string{}
	for _, r := range recs {
		for alias, prim := range r.Runtime {
			out[alias] = prim
		}
	}
	return out
}

// RuntimeImport renders one import of primitives and helpers from module.
func RuntimeImport(module string, prims map[string]string, helpers map[string]bool) string {
	var names []string
	for alias, prim := range prims {
		if alias == prim {
			names = append(names, prim)
			continue
		}
		names = append(names, prim+" as "+alias)
	}
	for h, ok := range helpers {
		if ok {
			names = append(names, h)
		}
	}
	if len(names) == 0 {
		return ""
	}
	slices.Sort(names)
	names = slices.Compact(names)
	return fmt.Sprintf("import { %s } from %q;\n", strings.Join(names, ", "), module)
}

func UserImports(recs []*ir.ComponentRecord) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range recs {
		for _, imp := range r.Imports {
			line := fmt.Sprintf("import %q;\n", imp.Source)
			if imp.Clause != "" {
				line = fmt.Sprintf("import %s from %q;\n", imp.Clause, imp.Source)
			}
			if !seen[line] {
				seen[line] = true
				out = append(out, line)
			}
		}
	}
	return out
}

func Indent(s, pad string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// ModuleSpec returns the import specifier of the generated module of `to`
// as seen from the generated module of `from`.
func ModuleSpec(from, to, suffix string) string {
	rel, err := filepath.Rel(filepath.Dir(from), to)
	if err != nil {
		rel = filepath.Base(to)
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel)) + suffix
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

// OutputPath is the generated file for a source path relative to the
// project root.
func OutputPath(rel, suffix string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + suffix
}
