package ir

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"weft/internal/source"
)

func sampleTree() *Node {
	var sp source.Span
	item := NewElement(sp, &Element{Tag: "li", Children: []*Node{NewDynamicText(sp, "s3", "t.title", false)}, ID: "s3"})
	return NewElement(sp, &Element{
		Tag: "div",
		ID:  "s0",
		Bindings: []*Node{
			NewAttribute(sp, "s0", "class", "cls()"),
			NewEvent(sp, "s0", "click", "onClick"),
		},
		Children: []*Node{
			NewStaticText(sp, "hi"),
			NewConditional(sp, &ConditionalBlock{
				ID:         "s1",
				CondExpr:   "open()",
				TrueBranch: NewDynamicText(sp, "s2", "label()", true),
				IsFragment: true,
			}),
			NewElement(sp, &Element{Tag: "ul", ID: "s4", Children: []*Node{
				NewList(sp, &ListBlock{ID: "s4", ArrayExpr: "todos()", ItemParam: "t", ItemTemplate: item}),
			}}),
		},
	})
}

func TestWalkRegions(t *testing.T) {
	got := map[ID]Region{}
	Walk(sampleTree(), func(n *Node, region Region) bool {
		if n.Kind == NodeDynamicText {
			got[n.DynamicID()] = region
		}
		return true
	})
	want := map[ID]Region{"s2": RegionBranch, "s3": RegionItem}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestDeclarationsOrder(t *testing.T) {
	var d Declarations
	d.Add(DeclEffect, Decl{Source: "createEffect(() => log(n()))"})
	d.Add(DeclMemo, Decl{Names: []string{"n"}})
	d.Add(DeclLocal, Decl{Names: []string{"step"}})
	d.Add(DeclSignal, Decl{Names: []string{"count", "setCount"}})
	d.Add(DeclConstant, Decl{Names: []string{"MAX"}})

	var got []DeclCategory
	for cat := range d.All() {
		got = append(got, cat)
	}
	want := []DeclCategory{DeclConstant, DeclSignal, DeclLocal, DeclMemo, DeclEffect}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if d.Len() != 5 {
		t.Fatalf("len = %d", d.Len())
	}
}

func TestInteractiveDescendant(t *testing.T) {
	leaf := &ComponentRecord{Name: "Button", HasClientDirective: true}
	mid := &ComponentRecord{Name: "Card", Children: []ChildInstantiation{{Name: "Button", Record: leaf}}}
	top := &ComponentRecord{Name: "Page", Children: []ChildInstantiation{{Name: "Card", Record: mid}}}
	if top.Interactive() || !top.HasInteractiveDescendant() {
		t.Fatalf("page should only have interactive descendants")
	}
	ph := NewPlaceholder("Button", "/x/Button.tsx", []string{"a", "b", "a"})
	if ph.Interactive() || ph.HasInteractiveDescendant() {
		t.Fatalf("placeholder must be inert")
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	rec := &ComponentRecord{Name: "Todo", HasClientDirective: true, IR: sampleTree()}
	if err := Dump(&buf, rec); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"component Todo [client]", "attr #s0 class={cls()}", "if #s1 {open()} fragment", "list #s4 {todos()} as (t, ) key {<index>}"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
