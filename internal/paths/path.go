// Package paths computes, for every dynamic node of a component, how the
// client reaches its element from the component's scope root.
package paths

import (
	"slices"
	"strings"

	"weft/internal/ir"
)

// Step is one element-only DOM navigation step.
type Step uint8

const (
	FirstChild Step = iota
	NextSibling
)

// Prop is the DOM property implementing the step.
func (s Step) Prop() string {
	if s == FirstChild {
		return "firstElementChild"
	}
	return "nextElementSibling"
}

func (s Step) short() string {
	if s == FirstChild {
		return "fc"
	}
	return "ns"
}

// Path is either Known or Indeterminate.
type Path interface {
	isPath()
	String() string
}

// Known is a statically derived path. An empty path is the scope root.
type Known struct {
	Steps []Step
}

// Indeterminate nodes are located at runtime with a scoped query.
type Indeterminate struct{}

func (Known) isPath()         {}
func (Indeterminate) isPath() {}

func (k Known) String() string {
	if len(k.Steps) == 0 {
		return "root"
	}
	parts := make([]string, len(k.Steps))
	for i, s := range k.Steps {
		parts[i] = s.short()
	}
	return strings.Join(parts, ".")
}

func (Indeterminate) String() string { return "?" }

func (k Known) Len() int { return len(k.Steps) }

// HasStrictPrefix reports whether p is a strict prefix of k.
func (k Known) HasStrictPrefix(p Known) bool {
	return len(p.Steps) < len(k.Steps) && slices.Equal(k.Steps[:len(p.Steps)], p.Steps)
}

// Rel returns the steps leading from p to k; p must be a prefix of k.
func (k Known) Rel(p Known) []Step {
	return k.Steps[len(p.Steps):]
}

// Table maps dynamic node ids to paths. Binding nodes share the entry of
// their host element.
type Table map[ir.ID]Path

// IDs returns the ids in a stable order.
func (t Table) IDs() []ir.ID {
	ids := make([]ir.ID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, CompareIDs)
	return ids
}

// CompareIDs orders "s2" before "s10".
func CompareIDs(a, b ir.ID) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(string(a), string(b))
}
