package frontend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"weft/internal/diag"
	"weft/internal/source"
)

// Reactive primitives recognised in component bodies.
const (
	PrimSignal = "createSignal"
	PrimMemo   = "createMemo"
	PrimEffect = "createEffect"
)

const directiveUseClient = "use client"

// SyntaxError is returned when tree-sitter recovered from errors in a file.
// The compiler refuses to guess at the component shape in that case.
type SyntaxError struct {
	Path string
	Span source.Span
	Near string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("%s: syntax error at byte %d", e.Path, e.Span.Start)
	}
	return fmt.Sprintf("%s: syntax error at byte %d near %q", e.Path, e.Span.Start, e.Near)
}

// Parser turns one source file into a File. A Parser is safe for concurrent
// use: each call owns its tree-sitter parser.
type Parser struct {
	// Runtime is the module specifier of the reactive runtime; imports of it
	// or its subpaths mark primitives.
	Runtime  string
	Reporter diag.Reporter
}

func (p *Parser) Parse(ctx context.Context, f *source.File) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(tsx.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, f.Content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	x := &extractor{
		src:     f.Content,
		fid:     f.ID,
		runtime: p.Runtime,
		rep:     p.Reporter,
		file: &File{
			Path:       f.Path,
			ID:         f.ID,
			Exports:    map[string]string{},
			Primitives: map[string]string{},
		},
	}
	if x.rep == nil {
		x.rep = diag.NopReporter{}
	}
	if root.HasError() {
		bad := firstError(root)
		if bad == nil {
			bad = root
		}
		sp := x.span(bad)
		near := x.text(bad)
		if len(near) > 40 {
			near = near[:40]
		}
		diag.ReportError(x.rep, diag.SynParseError, sp, "source does not parse").Emit()
		return nil, &SyntaxError{Path: f.Path, Span: sp, Near: near}
	}
	x.program(root)
	return x.file, nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && (c.HasError() || c.IsMissing()) {
			if bad := firstError(c); bad != nil {
				return bad
			}
		}
	}
	return nil
}

type extractor struct {
	src     []byte
	fid     source.FileID
	runtime string
	rep     diag.Reporter
	file    *File
}

func (x *extractor) span(n *sitter.Node) source.Span {
	return source.SpanOf(x.fid, n.StartByte(), n.EndByte())
}

func (x *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(x.src)
}

func (x *extractor) program(root *sitter.Node) {
	leading := true
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "comment":
			continue
		case "expression_statement":
			if leading && x.isDirective(n) {
				x.file.UseClient = true
				continue
			}
		case "import_statement":
			x.importStmt(n)
		case "export_statement":
			x.exportStmt(n)
		case "function_declaration":
			x.topFunction(n, false, false)
		case "lexical_declaration", "variable_declaration":
			x.topLexical(n, false)
		case "interface_declaration", "type_alias_declaration", "ambient_declaration":
		default:
			diag.ReportWarning(x.rep, diag.SynUnsupportedJSX, x.span(n),
				fmt.Sprintf("top-level %s is ignored", n.Type())).Emit()
		}
		leading = false
	}
	x.collectEventAttrs()
}

func (x *extractor) isDirective(n *sitter.Node) bool {
	if n.NamedChildCount() == 0 {
		return false
	}
	s := n.NamedChild(0)
	return s.Type() == "string" && unquote(x.text(s)) == directiveUseClient
}

func (x *extractor) importStmt(n *sitter.Node) {
	imp := Import{Span: x.span(n)}
	if src := n.ChildByFieldName("source"); src != nil {
		imp.Source = unquote(x.text(src))
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "type":
			imp.TypeOnly = true
		case "import_clause":
			imp.Clause = x.text(c)
			x.importClause(c, &imp)
		}
	}
	x.file.Imports = append(x.file.Imports, imp)
	if imp.TypeOnly || !x.isRuntime(imp.Source) {
		return
	}
	for _, name := range imp.Names {
		x.file.RuntimeImports = append(x.file.RuntimeImports, Ident{Name: name.Local, Span: name.Span})
		switch name.Imported {
		case PrimSignal, PrimMemo, PrimEffect:
			x.file.Primitives[name.Local] = name.Imported
		}
	}
}

func (x *extractor) isRuntime(spec string) bool {
	if x.runtime == "" {
		return false
	}
	return spec == x.runtime || strings.HasPrefix(spec, x.runtime+"/")
}

func (x *extractor) importClause(n *sitter.Node, imp *Import) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "identifier":
			imp.Names = append(imp.Names, ImportName{Imported: "default", Local: x.text(c), Span: x.span(c)})
		case "namespace_import":
			// `* as ns` binds no component names
		case "named_imports":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				spec := c.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				if name == nil {
					continue
				}
				local := name
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = alias
				}
				imp.Names = append(imp.Names, ImportName{
					Imported: unquote(x.text(name)),
					Local:    x.text(local),
					Span:     x.span(spec),
				})
			}
		}
	}
}

func (x *extractor) exportStmt(n *sitter.Node) {
	isDefault := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "default" {
			isDefault = true
		}
	}
	if n.ChildByFieldName("source") != nil {
		// re-exports do not declare anything here
		return
	}
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		switch decl.Type() {
		case "function_declaration":
			x.topFunction(decl, true, isDefault)
		case "lexical_declaration", "variable_declaration":
			x.topLexical(decl, true)
		}
		return
	}
	if val := n.ChildByFieldName("value"); val != nil && isDefault {
		x.defaultValue(val)
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "export_clause" {
			continue
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			spec := c.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			local := x.text(spec.ChildByFieldName("name"))
			exported := local
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exported = x.text(alias)
			}
			if exported == "default" {
				x.setDefault(local, spec)
				continue
			}
			x.file.Exports[exported] = local
		}
	}
}

// defaultValue handles `export default X;` and anonymous default components.
func (x *extractor) defaultValue(val *sitter.Node) {
	val = unparen(val)
	switch val.Type() {
	case "identifier":
		x.setDefault(x.text(val), val)
	case "function_declaration", "function_expression", "function", "arrow_function":
		name := x.text(val.ChildByFieldName("name"))
		if name == "" {
			name = nameFromPath(x.file.Path)
		}
		if !returnsJSX(val) {
			diag.ReportWarning(x.rep, diag.SynMissingReturn, x.span(val), "default export does not return JSX").Emit()
			return
		}
		c := x.component(name, val)
		c.Exported = true
		if x.addComponent(c) {
			x.setDefault(name, val)
		}
	}
}

// addComponent records c unless the file already declares a component with
// the same name. The first declaration wins.
func (x *extractor) addComponent(c *Component) bool {
	if prev := x.file.Component(c.Name); prev != nil {
		diag.ReportError(x.rep, diag.ResDuplicateName, c.Span,
			fmt.Sprintf("component %s is declared twice", c.Name)).
			WithNote(prev.Span, "first declared here").
			Emit()
		return false
	}
	x.file.Components = append(x.file.Components, c)
	return true
}

func (x *extractor) setDefault(local string, at *sitter.Node) {
	if x.file.DefaultExport != "" && x.file.DefaultExport != local {
		diag.ReportError(x.rep, diag.SynMultipleDefaults, x.span(at),
			fmt.Sprintf("%s is a second default export after %s", local, x.file.DefaultExport)).Emit()
		return
	}
	x.file.DefaultExport = local
}

func (x *extractor) topFunction(n *sitter.Node, exported, isDefault bool) {
	name := x.text(n.ChildByFieldName("name"))
	if isComponentName(name) && returnsJSX(n) {
		c := x.component(name, n)
		c.Exported = exported
		if x.addComponent(c) && isDefault {
			x.setDefault(name, n)
		}
		return
	}
	x.file.Constants = append(x.file.Constants, Stmt{
		Kind:   StmtConstant,
		Names:  []string{name},
		Source: x.text(n),
		Span:   x.span(n),
	})
	if exported {
		x.file.Exports[name] = name
	}
}

func (x *extractor) topLexical(n *sitter.Node, exported bool) {
	kind := "const"
	if n.ChildCount() > 0 {
		kind = x.text(n.Child(0))
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		nameNode := d.ChildByFieldName("name")
		value := d.ChildByFieldName("value")
		name := x.text(nameNode)
		if nameNode.Type() == "identifier" && isComponentName(name) && value != nil && isFunction(unparen(value)) && returnsJSX(unparen(value)) {
			c := x.component(name, unparen(value))
			c.Exported = exported
			x.addComponent(c)
			continue
		}
		names := x.patternNames(nameNode)
		x.file.Constants = append(x.file.Constants, Stmt{
			Kind:   StmtConstant,
			Names:  names,
			Source: kind + " " + x.text(d) + ";",
			Span:   x.span(d),
		})
		if exported {
			for _, nm := range names {
				x.file.Exports[nm] = nm
			}
		}
	}
}

func (x *extractor) component(name string, fn *sitter.Node) *Component {
	c := &Component{Name: name, Span: x.span(fn)}
	x.params(fn, &c.Params)

	body := fn.ChildByFieldName("body")
	if body == nil {
		return c
	}
	if body.Type() != "statement_block" {
		c.Root = x.jsxValue(unparen(body))
		return c
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		s := body.NamedChild(i)
		switch s.Type() {
		case "comment":
		case "return_statement":
			if s.NamedChildCount() > 0 {
				c.Root = x.jsxValue(unparen(s.NamedChild(0)))
			}
			return c
		case "lexical_declaration", "variable_declaration":
			c.Body = append(c.Body, x.bodyDecl(s))
		case "expression_statement":
			c.Body = append(c.Body, x.bodyExpr(s))
		case "function_declaration":
			c.Body = append(c.Body, Stmt{
				Kind:   StmtLocal,
				Names:  []string{x.text(s.ChildByFieldName("name"))},
				Source: x.text(s),
				Span:   x.span(s),
			})
		default:
			c.Body = append(c.Body, Stmt{Kind: StmtLocal, Source: x.text(s), Span: x.span(s)})
		}
	}
	diag.ReportError(x.rep, diag.SynMissingReturn, c.Span, name+" has no trailing return of JSX").Emit()
	return c
}

func (x *extractor) params(fn *sitter.Node, out *Params) {
	var first *sitter.Node
	if p := fn.ChildByFieldName("parameter"); p != nil {
		first = p
	} else if ps := fn.ChildByFieldName("parameters"); ps != nil && ps.NamedChildCount() > 0 {
		first = ps.NamedChild(0)
	}
	if first == nil {
		return
	}
	pat := first
	switch first.Type() {
	case "required_parameter", "optional_parameter":
		if p := first.ChildByFieldName("pattern"); p != nil {
			pat = p
		}
	}
	switch pat.Type() {
	case "identifier":
		out.Ident = x.text(pat)
	case "object_pattern":
		x.objectPattern(pat, out)
	}
}

func (x *extractor) objectPattern(pat *sitter.Node, out *Params) {
	for i := 0; i < int(pat.NamedChildCount()); i++ {
		f := pat.NamedChild(i)
		switch f.Type() {
		case "shorthand_property_identifier_pattern":
			name := x.text(f)
			out.Fields = append(out.Fields, PropField{Name: name, Local: name})
		case "object_assignment_pattern":
			name := x.text(f.ChildByFieldName("left"))
			out.Fields = append(out.Fields, PropField{
				Name:    name,
				Local:   name,
				Default: x.text(f.ChildByFieldName("right")),
			})
		case "pair_pattern":
			field := PropField{Name: unquote(x.text(f.ChildByFieldName("key")))}
			v := f.ChildByFieldName("value")
			if v != nil && v.Type() == "assignment_pattern" {
				field.Local = x.text(v.ChildByFieldName("left"))
				field.Default = x.text(v.ChildByFieldName("right"))
			} else {
				field.Local = x.text(v)
			}
			out.Fields = append(out.Fields, field)
		case "rest_pattern":
			if f.NamedChildCount() > 0 {
				out.Rest = x.text(f.NamedChild(0))
			}
		}
	}
}

func (x *extractor) bodyDecl(s *sitter.Node) Stmt {
	st := Stmt{Kind: StmtLocal, Source: x.text(s), Span: x.span(s)}
	var decls []*sitter.Node
	for i := 0; i < int(s.NamedChildCount()); i++ {
		if d := s.NamedChild(i); d.Type() == "variable_declarator" {
			decls = append(decls, d)
			st.Names = append(st.Names, x.patternNames(d.ChildByFieldName("name"))...)
		}
	}
	if len(decls) != 1 {
		return st
	}
	switch x.primitiveCall(decls[0].ChildByFieldName("value")) {
	case PrimSignal:
		st.Kind = StmtSignal
	case PrimMemo:
		st.Kind = StmtMemo
	case PrimEffect:
		st.Kind = StmtEffect
	}
	return st
}

func (x *extractor) bodyExpr(s *sitter.Node) Stmt {
	st := Stmt{Kind: StmtLocal, Source: x.text(s), Span: x.span(s)}
	if s.NamedChildCount() > 0 && x.primitiveCall(s.NamedChild(0)) == PrimEffect {
		st.Kind = StmtEffect
	}
	return st
}

// primitiveCall returns the runtime primitive invoked by n, if any.
func (x *extractor) primitiveCall(n *sitter.Node) string {
	if n == nil || n.Type() != "call_expression" {
		return ""
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return ""
	}
	return x.file.Primitives[x.text(fn)]
}

func (x *extractor) patternNames(n *sitter.Node) []string {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []string{x.text(n)}
	case "assignment_pattern", "object_assignment_pattern":
		return x.patternNames(n.ChildByFieldName("left"))
	case "pair_pattern":
		return x.patternNames(n.ChildByFieldName("value"))
	}
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, x.patternNames(n.NamedChild(i))...)
	}
	return out
}

func returnsJSX(fn *sitter.Node) bool {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return false
	}
	if body.Type() != "statement_block" {
		return isJSX(unparen(body))
	}
	for i := int(body.NamedChildCount()) - 1; i >= 0; i-- {
		s := body.NamedChild(i)
		if s.Type() == "return_statement" {
			return s.NamedChildCount() > 0 && isJSX(unparen(s.NamedChild(0)))
		}
	}
	return false
}

func isFunction(n *sitter.Node) bool {
	switch n.Type() {
	case "arrow_function", "function_expression", "function":
		return true
	}
	return false
}

func isJSX(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}
	return false
}

func unparen(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" && n.NamedChildCount() > 0 {
		n = n.NamedChild(0)
	}
	return n
}

func isComponentName(name string) bool {
	return name != "" && unicode.IsUpper([]rune(name)[0])
}

func unquote(s string) string {
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'' || q == '`') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// nameFromPath derives a component name for an anonymous default export.
func nameFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	upper := true
	for _, r := range base {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 || !isComponentName(b.String()) {
		return "Default" + b.String()
	}
	return b.String()
}
