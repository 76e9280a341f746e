// Package testkit holds checks shared by compiler tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"weft/internal/ir"
	"weft/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a compiled
// record:
// 1) rec.Span is non-empty, points at sf and lies within its content
// 2) every non-empty node and declaration span points at sf and is
// contained in rec.Span; module constants only need to lie within sf
func CheckSpanInvariants(rec *ir.ComponentRecord, sf *source.File) error {
	if rec == nil || sf == nil {
		return fmt.Errorf("nil record or file")
	}
	if rec.Placeholder {
		return nil
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	sp := rec.Span
	if sp.End <= sp.Start {
		return fmt.Errorf("%s: record span is empty: %v", rec.Name, sp)
	}
	if sp.File != sf.ID {
		return fmt.Errorf("%s: record span points to file %d, want %d", rec.Name, sp.File, sf.ID)
	}
	if sp.End > lenContent {
		return fmt.Errorf("%s: record span end beyond content: %d > %d", rec.Name, sp.End, lenContent)
	}

	inside := func(what string, s source.Span) error {
		if s.End <= s.Start {
			return nil
		}
		if s.File != sf.ID {
			return fmt.Errorf("%s: %s span points to file %d, want %d", rec.Name, what, s.File, sf.ID)
		}
		if s.Start < sp.Start || s.End > sp.End {
			return fmt.Errorf("%s: %s span %v escapes record span %v", rec.Name, what, s, sp)
		}
		return nil
	}

	for cat, d := range rec.Decls.All() {
		if cat == ir.DeclConstant {
			if d.Span.File != sf.ID || d.Span.End > lenContent {
				return fmt.Errorf("%s: constant span %v outside file", rec.Name, d.Span)
			}
			continue
		}
		if err := inside(cat.String(), d.Span); err != nil {
			return err
		}
	}
	var walkErr error
	ir.Walk(rec.IR, func(n *ir.Node, _ ir.Region) bool {
		if walkErr != nil {
			return false
		}
		walkErr = inside(n.Kind.String(), n.Span)
		return walkErr == nil
	})
	return walkErr
}
