package resolve

import (
	"fmt"
	"strings"
)

// FileError means no candidate file exists (or could be read) for an import.
type FileError struct {
	Path  string   // requested path, usually without extension
	Tried []string // candidates in probe order
	Err   error
}

func (e *FileError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("read %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("cannot resolve %s (tried %s): %v", e.Path, strings.Join(e.Tried, ", "), e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// DirectiveRule names a client-boundary check.
type DirectiveRule string

const (
	RuleRuntimeImport DirectiveRule = "runtime-import"
	RuleEventAttr     DirectiveRule = "event-attribute"
)

// DirectiveError is raised when a file without "use client" uses the
// reactive runtime or DOM event handlers.
type DirectiveError struct {
	Path        string
	Rule        DirectiveRule
	Identifiers []string
}

func (e *DirectiveError) Error() string {
	what := "imports the reactive runtime"
	if e.Rule == RuleEventAttr {
		what = "uses event handler attributes"
	}
	return fmt.Sprintf("%s %s (%s) without a \"use client\" directive", e.Path, what, strings.Join(e.Identifiers, ", "))
}

// CycleError is returned under CycleFail when a component renders a
// component that is still being resolved.
type CycleError struct {
	Component string
	Chain     []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("component cycle through %s: %s", e.Component, strings.Join(e.Chain, " -> "))
}
