// Package wire holds the hydration contract shared by the server markup
// generator, the client code generator and the hydration model. Every
// string here must match byte for byte on both sides.
package wire

import (
	"strings"
)

const (
	// AttrScope marks the root element of an interactive instance:
	// wf-s="<Component>_<instance>".
	AttrScope = "wf-s"
	// AttrNode marks an element addressed by a dynamic node id.
	AttrNode = "wf"
	// AttrInit is set by the client when a scope has been claimed.
	AttrInit = "wf-h"
	// AttrPayload marks the props payload script of an instance.
	AttrPayload = "wf-p"
	// AttrBranch records which branch an element-branch conditional shows.
	AttrBranch = "wf-b"
	// AttrKey carries the key of a list item.
	AttrKey = "data-key"

	// PayloadType is the type attribute of the payload script.
	PayloadType = "application/json"

	branchTrue  = "t"
	branchFalse = "f"

	condOpen  = "wf-c:"
	condClose = "/wf-c:"
	listClose = "/wf-l:"
)

// ScopeMarker builds "<Component>_<instance>".
func ScopeMarker(component, instance string) string {
	return component + "_" + instance
}

// ParseScopeMarker splits a marker at its last underscore. Instance ids
// never contain underscores (see SanitizeInstance), component names may.
func ParseScopeMarker(marker string) (component, instance string, ok bool) {
	i := strings.LastIndexByte(marker, '_')
	if i <= 0 || i == len(marker)-1 {
		return "", "", false
	}
	return marker[:i], marker[i+1:], true
}

// SanitizeInstance maps arbitrary text (list keys) into the instance id
// alphabet [A-Za-z0-9.-].
func SanitizeInstance(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('-')
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// ChildInstance derives a nested instance id: parent + "." + child id
// [+ "." + key].
func ChildInstance(parent, childID string, key ...string) string {
	out := parent + "." + childID
	for _, k := range key {
		out += "." + SanitizeInstance(k)
	}
	return out
}

// BranchFlag encodes a branch for wf-b and comment markers.
func BranchFlag(cond bool) string {
	if cond {
		return branchTrue
	}
	return branchFalse
}

// ParseBranchFlag is the inverse of BranchFlag.
func ParseBranchFlag(s string) (cond, ok bool) {
	switch s {
	case branchTrue:
		return true, true
	case branchFalse:
		return false, true
	}
	return false, false
}

// CondStart is the comment text opening a fragment branch: "wf-c:s4:t".
func CondStart(id string, cond bool) string {
	return condOpen + id + ":" + BranchFlag(cond)
}

// CondEnd is the comment text closing a fragment branch: "/wf-c:s4".
func CondEnd(id string) string {
	return condClose + id
}

// ParseCondStart returns the id and branch of a start comment.
func ParseCondStart(text string) (id string, cond, ok bool) {
	rest, found := strings.CutPrefix(text, condOpen)
	if !found {
		return "", false, false
	}
	i := strings.LastIndexByte(rest, ':')
	if i <= 0 {
		return "", false, false
	}
	cond, ok = ParseBranchFlag(rest[i+1:])
	return rest[:i], cond, ok
}

// ListEnd is the comment placed after the last item of a list: "/wf-l:s5".
// New items are inserted before it.
func ListEnd(id string) string {
	return listClose + id
}
