package resolve

import (
	"fmt"

	"weft/internal/diag"
	"weft/internal/frontend"
	"weft/internal/source"
)

// validate enforces the client boundary: without "use client" a file may
// neither import the reactive runtime nor attach DOM event handlers.
func (r *Resolver) validate(f *frontend.File) error {
	if f.UseClient {
		return nil
	}
	if err := r.rule(f, RuleRuntimeImport, diag.DirRuntimeImport, f.RuntimeImports); err != nil {
		return err
	}
	return r.rule(f, RuleEventAttr, diag.DirEventAttr, f.EventAttrs)
}

func (r *Resolver) rule(f *frontend.File, rule DirectiveRule, code diag.Code, ids []frontend.Ident) error {
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.Name)
		diag.ReportError(r.opts.Reporter, code, id.Span,
			fmt.Sprintf("%s requires a \"use client\" directive", id.Name)).
			WithFix("add \"use client\" at the top of the file", diag.FixEdit{
				Span:    spanAtStart(id),
				NewText: "\"use client\";\n",
			}).
			Emit()
	}
	return &DirectiveError{Path: f.Path, Rule: rule, Identifiers: names}
}

func spanAtStart(id frontend.Ident) source.Span {
	return source.Span{File: id.Span.File}
}
