package compile

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"weft/internal/diag"
	"weft/internal/frontend"
	"weft/internal/ir"
	"weft/internal/resolve"
	"weft/internal/source"
	"weft/internal/testkit"
)

func compileSrc(t *testing.T, src, name string, deps map[string]*ir.ComponentRecord) (*ir.ComponentRecord, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("/app/view.tsx", []byte(src))
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	p := &frontend.Parser{Runtime: "@weft/runtime", Reporter: rep}
	f, err := p.Parse(context.Background(), fs.Get(id))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	comp := f.Component(name)
	if comp == nil {
		t.Fatalf("no component %s", name)
	}
	rec, err := New(rep).Compile(context.Background(), resolve.Unit{
		Path:      "/app/view.tsx",
		Key:       "/app/view#" + name,
		File:      f,
		Component: comp,
		Deps:      deps,
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := testkit.CheckSpanInvariants(rec, fs.Get(id)); err != nil {
		t.Fatalf("spans: %v", err)
	}
	return rec, bag
}

func TestCompileCounter(t *testing.T) {
	src := `"use client";
import { createSignal, createEffect } from "@weft/runtime";
const LIMIT = 10;
export function Counter({ start = 0 }) {
  createEffect(() => console.log(count()));
  const label = "n";
  const [count, setCount] = createSignal(start);
  return (
    <div class="c">
      <p>{count()}</p>
      <button onClick={() => setCount(count() + 1)} disabled={count() >= LIMIT}>+</button>
    </div>
  );
}`
	rec, _ := compileSrc(t, src, "Counter", nil)
	if !rec.HasClientDirective || !rec.IsExported || rec.IsDefaultExport {
		t.Fatalf("flags: %+v", rec)
	}
	if diff := cmp.Diff([]ir.Prop{{Name: "start", Local: "start", Default: "0"}}, rec.Props); diff != "" {
		t.Fatalf("props (-want +got):\n%s", diff)
	}

	var order []ir.DeclCategory
	for cat := range rec.Decls.All() {
		order = append(order, cat)
	}
	want := []ir.DeclCategory{ir.DeclConstant, ir.DeclSignal, ir.DeclLocal, ir.DeclEffect}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("declaration order (-want +got):\n%s", diff)
	}

	root := rec.IR.Element()
	if root == nil || root.Tag != "div" || root.ID != "" {
		t.Fatalf("root = %+v", root)
	}
	p := root.Children[0].Element()
	if p.ID != "s0" {
		t.Fatalf("p id = %q", p.ID)
	}
	txt := p.Children[0].DynamicText()
	if txt == nil || txt.ID != "s0" || txt.Wrapped {
		t.Fatalf("text = %+v", txt)
	}
	btn := root.Children[1].Element()
	if btn.ID != "s1" || len(btn.Bindings) != 2 {
		t.Fatalf("button = %+v", btn)
	}
	ev := btn.Bindings[0].Data.(*ir.EventBinding)
	if ev.Event != "click" || ev.ID != "s1" {
		t.Fatalf("event = %+v", ev)
	}
	attr := btn.Bindings[1].Data.(*ir.AttributeBinding)
	if attr.AttrName != "disabled" || attr.Expr != "count() >= LIMIT" {
		t.Fatalf("attr = %+v", attr)
	}
	if rec.NextID != 2 {
		t.Fatalf("next id = %d", rec.NextID)
	}
}

func TestCompileWrappedText(t *testing.T) {
	src := `export function Hi({ name }) { return <p>Hello, {name}!</p>; }`
	rec, _ := compileSrc(t, src, "Hi", nil)
	p := rec.IR.Element()
	if p.ID != "" || len(p.Children) != 3 {
		t.Fatalf("p = %+v", p)
	}
	txt := p.Children[1].DynamicText()
	if txt == nil || !txt.Wrapped || txt.ID != "s0" {
		t.Fatalf("text = %+v", txt)
	}
}

func TestCompileConditionalModes(t *testing.T) {
	src := `export function C({ on }) {
  return (
    <div>
      {on ? <b>yes</b> : <i>no</i>}
      {on && <span>only</span>}
      {on ? <b onClick={go}>x</b> : <i>y</i>}
    </div>
  );
}`
	rec, _ := compileSrc(t, src, "C", nil)
	kids := rec.IR.Element().Children

	el := kids[0].Conditional()
	if el == nil || el.IsFragment {
		t.Fatalf("first conditional should be element mode: %+v", el)
	}
	if el.TrueBranch.Element().ID != el.ID || el.FalseBranch.Element().ID != el.ID {
		t.Fatalf("branch roots must carry the conditional id")
	}

	and := kids[1].Conditional()
	if !and.IsFragment || and.FalseBranch != nil {
		t.Fatalf("&& conditional = %+v", and)
	}

	bound := kids[2].Conditional()
	if !bound.IsFragment {
		t.Fatalf("branch root with its own bindings must use fragment mode")
	}
}

func TestCompileList(t *testing.T) {
	src := `"use client";
export function L({ items }) {
  return (
    <ul>
      {items.map((it, i) => <li key={it.id} onClick={() => pick(i)}>{it.name}</li>)}
    </ul>
  );
}`
	rec, bag := compileSrc(t, src, "L", nil)
	ul := rec.IR.Element()
	if ul.ID != "s0" {
		t.Fatalf("ul id = %q", ul.ID)
	}
	l := ul.Children[0].List()
	if l == nil || l.ID != "s0" {
		t.Fatalf("list = %+v", l)
	}
	if l.KeyExpr != "it.id" || l.ItemParam != "it" || l.IndexParam != "i" || l.ArrayExpr != "items" {
		t.Fatalf("list fields = %+v", l)
	}
	li := l.ItemTemplate.Element()
	for _, sa := range li.StaticAttrs {
		if sa.Name == "key" {
			t.Fatalf("key must not render as an attribute")
		}
	}
	want := []ir.ItemEvent{{ID: "s1", Event: "click", Handler: "() => pick(i)"}}
	if diff := cmp.Diff(want, l.ItemEvents); diff != "" {
		t.Fatalf("item events (-want +got):\n%s", diff)
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestCompileSecondListGetsWrapper(t *testing.T) {
	src := `export function L({ a, b }) {
  return <ul>{a.map(x => <li>{x}</li>)}{b.map(x => <li>{x}</li>)}</ul>;
}`
	rec, _ := compileSrc(t, src, "L", nil)
	ul := rec.IR.Element()
	if ul.Children[0].List().ID != ul.ID {
		t.Fatalf("first list must use the container")
	}
	wrap := ul.Children[1].Element()
	if wrap == nil || wrap.ID == "" || wrap.Children[0].List().ID != wrap.ID {
		t.Fatalf("second list wrapper = %+v", wrap)
	}
}

func TestCompileComponentCalls(t *testing.T) {
	child := &ir.ComponentRecord{Name: "Badge", HasClientDirective: true}
	src := `export function Card({ title }) {
  return (
    <section>
      <Badge label={title} kind="info" big />
      {title && <Badge label="x" />}
      <Missing />
    </section>
  );
}`
	rec, bag := compileSrc(t, src, "Card", map[string]*ir.ComponentRecord{"Badge": child})
	if len(rec.Children) != 2 {
		t.Fatalf("children = %+v", rec.Children)
	}
	if rec.Children[0].Region != ir.RegionStatic || rec.Children[1].Region != ir.RegionBranch {
		t.Fatalf("regions = %v, %v", rec.Children[0].Region, rec.Children[1].Region)
	}
	call := rec.IR.Element().Children[0].Component()
	if call == nil || call.Record != child {
		t.Fatalf("call = %+v", call)
	}
	wantProps := []ir.PropArg{
		{Name: "label", Expr: "title"},
		{Name: "kind", Expr: `"info"`, Static: true},
		{Name: "big", Expr: "true", Static: true},
	}
	if diff := cmp.Diff(wantProps, call.Props); diff != "" {
		t.Fatalf("props (-want +got):\n%s", diff)
	}
	missing := rec.IR.Element().Children[2].Element()
	if missing == nil || missing.Tag != "Missing" {
		t.Fatalf("unknown component should stay an element: %+v", rec.IR.Element().Children[2])
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.ResUnknownComponent {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s", diag.ResUnknownComponent.ID())
	}
}

func TestCompileMarkupAttributeIsDropped(t *testing.T) {
	src := `export function T() { return <div title={<b>x</b>} id="a">t</div>; }`
	rec, bag := compileSrc(t, src, "T", nil)
	el := rec.IR.Element()
	if el.ID != "" || len(el.Bindings) != 0 {
		t.Fatalf("markup attribute must not become a binding: %+v", el)
	}
	if diff := cmp.Diff([]ir.StaticAttr{{Name: "id", Value: "a"}}, el.StaticAttrs); diff != "" {
		t.Fatalf("static attrs (-want +got):\n%s", diff)
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.SynUnsupportedBind {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s", diag.SynUnsupportedBind.ID())
	}
}

func TestCompileFragmentRootIsWrapped(t *testing.T) {
	src := `export function F() { return <><h1>a</h1><p>b</p></>; }`
	rec, _ := compileSrc(t, src, "F", nil)
	root := rec.IR.Element()
	if root == nil || root.Tag != "div" || root.StaticAttrs[0].Value != "display:contents" {
		t.Fatalf("root = %+v", rec.IR)
	}
}

func TestEventName(t *testing.T) {
	tests := map[string]string{
		"onClick":       "click",
		"onInput":       "input",
		"onMouseEnter":  "mouseenter",
		"onDoubleClick": "dblclick",
	}
	for in, want := range tests {
		if got := EventName(in); got != want {
			t.Errorf("EventName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStringLiteral(t *testing.T) {
	if v, ok := stringLiteral(`"a b"`); !ok || v != "a b" {
		t.Fatalf("got %q %v", v, ok)
	}
	for _, src := range []string{`x`, `"a\"b"`, "`${x}`", `'a' + b`} {
		if _, ok := stringLiteral(src); ok {
			t.Errorf("%s should not be a plain literal", src)
		}
	}
}
