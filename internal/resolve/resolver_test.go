package resolve_test

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"

	"weft/internal/compile"
	"weft/internal/diag"
	"weft/internal/frontend"
	"weft/internal/resolve"
)

const runtime = "@weft/runtime"

func newResolver(files resolve.MapReader, policy resolve.CyclePolicy) (*resolve.Resolver, *diag.Bag) {
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	r := resolve.New(files,
		&frontend.Parser{Runtime: runtime, Reporter: rep},
		compile.New(rep),
		nil,
		resolve.Options{Cycles: policy, Reporter: rep},
	)
	return r, bag
}

func TestResolveCompilesSharedImportOnce(t *testing.T) {
	files := resolve.MapReader{
		"/app/App.tsx": `import Header from "./Header";
import { Footer } from "./Footer";
export default function App() { return <main><Header /><Footer /></main>; }`,
		"/app/Header.tsx": `import Logo from "./Logo";
export default function Header() { return <header><Logo /></header>; }`,
		"/app/Footer.tsx": `import Logo from "./Logo";
export function Footer() { return <footer><Logo /></footer>; }`,
		"/app/Logo.tsx": `export default function Logo() { return <img src="/logo.svg" />; }`,
	}
	r, bag := newResolver(files, resolve.CycleDegrade)
	rec, err := r.Resolve(context.Background(), "/app/App", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rec == nil || rec.Name != "App" {
		t.Fatalf("record = %+v", rec)
	}
	want := map[string]int{
		"/app/App#App":       1,
		"/app/Header#Header": 1,
		"/app/Footer#Footer": 1,
		"/app/Logo#Logo":     1,
	}
	if diff := cmp.Diff(want, r.Stats()); diff != "" {
		t.Fatalf("compile counts (-want +got):\n%s", diff)
	}

	var order []string
	for _, rec := range r.Records() {
		order = append(order, rec.Name)
	}
	if diff := cmp.Diff([]string{"Logo", "Header", "Footer", "App"}, order); diff != "" {
		t.Fatalf("completion order (-want +got):\n%s", diff)
	}

	header := rec.Children[0].Record
	footer := rec.Children[1].Record
	if header.Children[0].Record != footer.Children[0].Record {
		t.Fatalf("Logo record must be shared")
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestResolveDefaultAndNamedKeysShareRecord(t *testing.T) {
	files := resolve.MapReader{
		"/app/Card.tsx": `export default function Card() { return <div />; }`,
	}
	r, _ := newResolver(files, resolve.CycleDegrade)
	ctx := context.Background()
	a, err := r.Resolve(ctx, "/app/Card", "")
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	b, err := r.Resolve(ctx, "/app/Card.tsx", "Card")
	if err != nil {
		t.Fatalf("resolve named: %v", err)
	}
	if a != b {
		t.Fatalf("expected one record for both keys")
	}
	if r.Stats()["/app/Card#Card"] != 1 {
		t.Fatalf("stats = %v", r.Stats())
	}
}

func TestResolveCycleDegrades(t *testing.T) {
	files := resolve.MapReader{
		"/app/A.tsx": `import B from "./B";
export default function A() { return <div><B /></div>; }`,
		"/app/B.tsx": `import A from "./A";
export default function B() { return <p><A /></p>; }`,
	}
	r, bag := newResolver(files, resolve.CycleDegrade)
	a, err := r.Resolve(context.Background(), "/app/A", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	b := a.Children[0].Record
	if b.Name != "B" || b.Placeholder {
		t.Fatalf("B = %+v", b)
	}
	back := b.Children[0].Record
	if !back.Placeholder || back.IR != nil || back.Decls.Len() != 0 || back.HasClientDirective {
		t.Fatalf("back-edge should be a neutral placeholder: %+v", back)
	}
	if diff := cmp.Diff([]string{"/app/A#A", "/app/B#B", "/app/A#A"}, back.CycleChain); diff != "" {
		t.Fatalf("cycle chain (-want +got):\n%s", diff)
	}
	warned := 0
	for _, d := range bag.Items() {
		if d.Code == diag.ResCycle && d.Severity == diag.SevWarning {
			warned++
		}
	}
	if warned != 1 {
		t.Fatalf("expected one cycle warning, got %d: %+v", warned, bag.Items())
	}
	if len(r.InFlight()) != 0 {
		t.Fatalf("in-flight stack not unwound: %v", r.InFlight())
	}
}

func TestResolveCycleFails(t *testing.T) {
	files := resolve.MapReader{
		"/app/A.tsx": `import B from "./B";
export default function A() { return <div><B /></div>; }`,
		"/app/B.tsx": `import A from "./A";
export default function B() { return <p><A /></p>; }`,
	}
	r, _ := newResolver(files, resolve.CycleFail)
	_, err := r.Resolve(context.Background(), "/app/A", "")
	var ce *resolve.CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if ce.Component != "B" {
		t.Fatalf("cycle reported at %q", ce.Component)
	}
	if len(r.InFlight()) != 0 {
		t.Fatalf("in-flight stack not unwound after failure: %v", r.InFlight())
	}
}

func TestResolveUnusedSiblingBackEdgeIsSilent(t *testing.T) {
	files := resolve.MapReader{
		"/app/Page.tsx": `function Item() { return <li>x</li>; }
export default function Page() { return <ul><Item /></ul>; }`,
	}
	r, bag := newResolver(files, resolve.CycleDegrade)
	rec, err := r.Resolve(context.Background(), "/app/Page", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rec.Children[0].Record.Placeholder {
		t.Fatalf("Item should be fully compiled")
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestResolveDirectiveViolation(t *testing.T) {
	files := resolve.MapReader{
		"/app/Bad.tsx": `import { createSignal } from "@weft/runtime";
export default function Bad() { const [v] = createSignal(0); return <p>{v()}</p>; }`,
		"/app/Click.tsx": `export default function Click() { return <button onClick={() => 1}>x</button>; }`,
	}
	r, bag := newResolver(files, resolve.CycleDegrade)
	_, err := r.Resolve(context.Background(), "/app/Bad", "")
	var de *resolve.DirectiveError
	if !errors.As(err, &de) {
		t.Fatalf("expected DirectiveError, got %v", err)
	}
	if de.Rule != resolve.RuleRuntimeImport || de.Identifiers[0] != "createSignal" {
		t.Fatalf("directive error = %+v", de)
	}

	_, err = r.Resolve(context.Background(), "/app/Click", "")
	if !errors.As(err, &de) || de.Rule != resolve.RuleEventAttr {
		t.Fatalf("expected event attribute violation, got %v", err)
	}
	if !bag.HasErrors() {
		t.Fatalf("violations must be reported")
	}
}

func TestResolveMissingFile(t *testing.T) {
	files := resolve.MapReader{
		"/app/App.tsx": `import Gone from "./Gone";
export default function App() { return <Gone />; }`,
	}
	r, _ := newResolver(files, resolve.CycleDegrade)
	_, err := r.Resolve(context.Background(), "/app/App", "")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
	var fe *resolve.FileError
	if !errors.As(err, &fe) || len(fe.Tried) == 0 {
		t.Fatalf("expected FileError with probes, got %v", err)
	}
}

func TestResolveIndexAndAliases(t *testing.T) {
	files := resolve.MapReader{
		"/app/App.tsx": `import { Button as Btn } from "./ui";
export default function App() { return <div><Btn /></div>; }`,
		"/app/ui/index.tsx": `function Inner() { return <button>ok</button>; }
export { Inner as Button };`,
	}
	r, _ := newResolver(files, resolve.CycleDegrade)
	rec, err := r.Resolve(context.Background(), "/app/App", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(rec.Children) != 1 || rec.Children[0].Record.Name != "Inner" {
		t.Fatalf("children = %+v", rec.Children)
	}
	if !rec.Children[0].Record.IsExported {
		t.Fatalf("aliased export should count as exported")
	}
}

func TestResolveNonComponentTarget(t *testing.T) {
	files := resolve.MapReader{
		"/app/consts.ts": `export const Limit = 3;`,
	}
	r, _ := newResolver(files, resolve.CycleDegrade)
	rec, err := r.Resolve(context.Background(), "/app/consts", "Limit")
	if err != nil || rec != nil {
		t.Fatalf("got %v, %v", rec, err)
	}
}

func TestResolveFile(t *testing.T) {
	files := resolve.MapReader{
		"/app/Two.tsx": `export function A() { return <a />; }
export function B() { return <b />; }`,
	}
	r, _ := newResolver(files, resolve.CycleDegrade)
	recs, err := r.ResolveFile(context.Background(), "/app/Two.tsx")
	if err != nil {
		t.Fatalf("resolve file: %v", err)
	}
	var names []string
	for _, rec := range recs {
		names = append(names, rec.Name)
	}
	if diff := cmp.Diff([]string{"A", "B"}, names); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}

func TestResolveMissingExportWarns(t *testing.T) {
	files := resolve.MapReader{
		"/app/App.tsx": `import Panel from "./parts";
import { Nav, Limit } from "./parts";
export default function App() { return <main><Panel /><Nav /></main>; }`,
		"/app/parts.tsx": `export const Limit = 3;
export function Side() { return <aside />; }`,
	}
	r, bag := newResolver(files, resolve.CycleDegrade)
	if _, err := r.Resolve(context.Background(), "/app/App", ""); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var msgs []string
	for _, d := range bag.Items() {
		if d.Code == diag.ResMissingExport {
			msgs = append(msgs, d.Message)
		}
	}
	want := []string{
		"./parts has no default export; Panel is not rendered as a component",
		"./parts does not export Nav",
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Fatalf("missing export warnings (-want +got):\n%s", diff)
	}
}

func TestResolveSiblingsInReverseDependencyOrder(t *testing.T) {
	files := resolve.MapReader{
		"/app/Page.tsx": `function Card() { return <div class="card">c</div>; }
function Badge() { return <span><Card /></span>; }
export default function Page() { return <main><Badge /></main>; }`,
	}
	for _, policy := range []resolve.CyclePolicy{resolve.CycleDegrade, resolve.CycleFail} {
		r, bag := newResolver(files, policy)
		page, err := r.Resolve(context.Background(), "/app/Page", "")
		if err != nil {
			t.Fatalf("policy %d: resolve: %v", policy, err)
		}
		badge := page.Children[0].Record
		if badge.Name != "Badge" || badge.Placeholder {
			t.Fatalf("policy %d: Badge = %+v", policy, badge)
		}
		card := badge.Children[0].Record
		if card.Name != "Card" || card.Placeholder || card.IR == nil {
			t.Fatalf("policy %d: Badge rendered a placeholder Card: %+v", policy, card)
		}
		if bag.Len() != 0 {
			t.Fatalf("policy %d: unexpected diagnostics: %+v", policy, bag.Items())
		}
		want := map[string]int{"/app/Page#Page": 1, "/app/Page#Badge": 1, "/app/Page#Card": 1}
		if diff := cmp.Diff(want, r.Stats()); diff != "" {
			t.Fatalf("policy %d: compile counts (-want +got):\n%s", policy, diff)
		}
	}
}

func TestResolveUnrenderedImportIsNotFollowed(t *testing.T) {
	files := resolve.MapReader{
		"/app/Page.tsx": `import Card from "./Card";
import Badge from "./Badge";
export default function Page() { return <main><Card /><Badge /></main>; }`,
		"/app/Card.tsx": `import Badge from "./Badge";
export default function Card() { return <div>card</div>; }`,
		"/app/Badge.tsx": `import Card from "./Card";
export default function Badge() { return <span><Card /></span>; }`,
	}
	r, bag := newResolver(files, resolve.CycleFail)
	page, err := r.Resolve(context.Background(), "/app/Page", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	card := page.Children[1].Record.Children[0].Record
	if card.Placeholder || card != page.Children[0].Record {
		t.Fatalf("Badge must share the real Card record: %+v", card)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}
