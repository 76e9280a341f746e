package hydrate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"weft/internal/diag"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := Parse(src)
	require.NoError(t, err)
	return doc
}

const twoCounters = `<!doctype html><html><body>
<div wf-s="Counter_0"><p wf="s0">1</p><button wf="s1">+</button></div><script type="application/json" wf-p="Counter_0">{"start":1}</script>
<div wf-s="Counter_1"><p wf="s0">5</p><button wf="s1">+</button></div><script type="application/json" wf-p="Counter_1">{"start":5}</script>
</body></html>`

func TestTwoInstancesHydrateOnceWithoutCrossWiring(t *testing.T) {
	doc := parse(t, twoCounters)

	var texts []string
	var starts []float64
	n := HydrateAll(doc, "Counter", func(scope *html.Node) {
		p := Find(scope, "s0")
		require.NotNil(t, p)
		require.Same(t, scope, Owner(p))
		texts = append(texts, Text(p))
		props, err := Props(doc, Marker(scope))
		require.NoError(t, err)
		starts = append(starts, props["start"].(float64))
	})
	require.Equal(t, 2, n)
	require.Equal(t, []string{"1", "5"}, texts)
	require.Equal(t, []float64{1, 5}, starts)

	require.Zero(t, HydrateAll(doc, "Counter", nil), "claimed scopes must not hydrate twice")
	require.Empty(t, Candidates(doc, "Counter"))
}

func TestClaimByIndex(t *testing.T) {
	doc := parse(t, twoCounters)
	second := Claim(doc, "Counter", 1)
	require.NotNil(t, second)
	require.Equal(t, "Counter_1", Marker(second))
	first := Claim(doc, "Counter", 1)
	require.Nil(t, first, "only one unclaimed instance is left")
	require.Equal(t, "Counter_0", Marker(Claim(doc, "Counter", 0)))
	require.Nil(t, Claim(doc, "Other", 0))
}

func TestNestedInstancesBelongToTheirParent(t *testing.T) {
	doc := parse(t, `<div wf-s="Page_0"><div wf-s="Counter_0.s1"><p wf="s0">a</p></div><div wf-s="Counter_1.s1"><p wf="s0">b</p></div></div>
<div wf-s="Counter_1"><p wf="s0">top</p></div>`)

	var top []string
	n := HydrateAll(doc, "Counter", func(scope *html.Node) {
		top = append(top, Marker(scope))
	})
	require.Equal(t, 1, n)
	require.Equal(t, []string{"Counter_1"}, top)

	var nested []string
	require.Equal(t, 1, HydrateAll(doc, "Page", func(scope *html.Node) {
		for {
			child := Claim(scope, "Counter", 0)
			if child == nil {
				break
			}
			require.Same(t, scope, Owner(child))
			nested = append(nested, Text(Find(child, "s0")))
		}
	}))
	require.Equal(t, []string{"a", "b"}, nested)
	require.Empty(t, Candidates(doc, "Counter"))
}

func TestRecursiveInstanceClaimsOnlyItsDirectChild(t *testing.T) {
	doc := parse(t, `<div wf-s="Tree_0"><div wf-s="Tree_0.s2"><div wf-s="Tree_0.s2.s2"></div></div></div>`)

	var order []string
	var initTree func(scope *html.Node)
	initTree = func(scope *html.Node) {
		order = append(order, Marker(scope))
		if child := Claim(scope, "Tree", 0); child != nil {
			initTree(child)
		}
	}
	require.Equal(t, 1, HydrateAll(doc, "Tree", initTree))
	require.Equal(t, []string{"Tree_0", "Tree_0.s2", "Tree_0.s2.s2"}, order)
}

func TestFindSkipsNestedScopes(t *testing.T) {
	doc := parse(t, `<div wf-s="Page_0" wf="s0">
<section><div wf-s="Counter_0.s2"><p wf="s1">child</p></div></section>
<p wf="s1">own</p>
</div>`)
	page := Candidates(doc, "Page")[0]
	require.Same(t, page, Find(page, "s0"), "the scope root may carry an id")
	own := Find(page, "s1")
	require.NotNil(t, own)
	require.Equal(t, "own", Text(own))
	require.Nil(t, Find(page, "s9"))
}

func TestPropsPayload(t *testing.T) {
	doc := parse(t, `<div wf-s="A_0"></div><script type="application/json" wf-p="A_0"></script>
<div wf-s="B_0"></div>
<div wf-s="C_0"></div><script type="application/json" wf-p="C_0">{bad</script>`)
	props, err := Props(doc, "A_0")
	require.NoError(t, err)
	require.Empty(t, props)

	_, err = Props(doc, "B_0")
	require.ErrorIs(t, err, ErrNoPayload)

	_, err = Props(doc, "C_0")
	require.Error(t, err)
}

func TestConditionalThreeStates(t *testing.T) {
	doc := parse(t, `<div wf-s="Panel_0"><!--wf-c:s1:f--><!--/wf-c:s1--><footer></footer></div>`)
	scope := Candidates(doc, "Panel")[0]

	binds := 0
	c := &Conditional{
		ID: "s1",
		Render: func(cond bool) string {
			if cond {
				return `<!--wf-c:s1:t--><button wf="s2">close</button><!--/wf-c:s1-->`
			}
			return `<!--wf-c:s1:f--><!--/wf-c:s1-->`
		},
		Bind: func(*html.Node) { binds++ },
	}

	swapped, err := c.Run(scope, false)
	require.NoError(t, err)
	require.False(t, swapped, "first run adopts the server branch")
	require.Equal(t, 1, binds)

	swapped, err = c.Run(scope, true)
	require.NoError(t, err)
	require.True(t, swapped)
	require.Equal(t, 2, binds)
	require.NotNil(t, Find(scope, "s2"))
	cond, ok := Branch(scope, "s1")
	require.True(t, ok)
	require.True(t, cond)

	swapped, err = c.Run(scope, true)
	require.NoError(t, err)
	require.False(t, swapped)
	require.Equal(t, 2, binds, "listeners are attached only on first run and swaps")

	_, err = c.Run(scope, false)
	require.NoError(t, err)
	require.Nil(t, Find(scope, "s2"))
	require.Contains(t, Render(scope), `<!--wf-c:s1:f--><!--/wf-c:s1--><footer></footer>`)
}

func TestFirstRunSwapsWhenServerDiffers(t *testing.T) {
	doc := parse(t, `<div wf-s="T_0"><b wf="s0" wf-b="t">on</b></div>`)
	scope := Candidates(doc, "T")[0]
	c := &Conditional{ID: "s0", Render: func(cond bool) string {
		if cond {
			return `<b wf="s0" wf-b="t">on</b>`
		}
		return `<i wf="s0" wf-b="f">off</i>`
	}}
	swapped, err := c.Run(scope, false)
	require.NoError(t, err)
	require.True(t, swapped)
	require.Equal(t, `<div wf-s="T_0"><i wf="s0" wf-b="f">off</i></div>`, Render(scope))
}

func TestSwapMissingConditional(t *testing.T) {
	doc := parse(t, `<div wf-s="T_0"></div>`)
	require.Error(t, Swap(Candidates(doc, "T")[0], "s4", "<p></p>"))
}

func renderItem(key string, _ int) (string, error) {
	return fmt.Sprintf(`<li data-key="%s">%s</li>`, key, key), nil
}

func TestReconcilePreservesNodeIdentity(t *testing.T) {
	doc := parse(t, `<ul wf="s0"><li data-key="a">a</li><li data-key="b">b</li><li data-key="c">c</li><!--/wf-l:s0--></ul>`)
	var ul *html.Node
	elements(doc, func(n *html.Node) bool {
		if n.Data == "ul" {
			ul = n
		}
		return ul == nil
	})
	require.NotNil(t, ul)
	before := Items(ul)
	a, c := before[0], before[2]

	patched := []string{}
	err := Reconcile(ul, "s0", []string{"c", "d", "a"}, renderItem, func(_ *html.Node, key string, _ int) {
		patched = append(patched, key)
	})
	require.NoError(t, err)

	after := Items(ul)
	require.Len(t, after, 3)
	require.Same(t, c, after[0], "kept items are moved, not re-created")
	require.Same(t, a, after[2])
	require.Equal(t, "d", Attr(after[1], "data-key"))
	require.Equal(t, []string{"c", "a"}, patched)
	require.True(t, strings.HasSuffix(Render(ul), `<li data-key="a">a</li><!--/wf-l:s0--></ul>`), Render(ul))
}

func TestReconcileShrinkThenExtendKeepsOverlap(t *testing.T) {
	doc := parse(t, `<ul wf="s0"><li data-key="a">a</li><li data-key="b">b</li><li data-key="c">c</li><li data-key="d">d</li><!--/wf-l:s0--></ul>`)
	var ul *html.Node
	elements(doc, func(n *html.Node) bool {
		if n.Data == "ul" {
			ul = n
		}
		return ul == nil
	})
	require.NotNil(t, ul)
	before := Items(ul)
	b, c := before[1], before[2]

	require.NoError(t, Reconcile(ul, "s0", []string{"b", "c"}, renderItem, nil))
	shrunk := Items(ul)
	require.Len(t, shrunk, 2)
	require.Same(t, b, shrunk[0])
	require.Same(t, c, shrunk[1])

	require.NoError(t, Reconcile(ul, "s0", []string{"a", "b", "c", "e"}, renderItem, nil))
	grown := Items(ul)
	require.Len(t, grown, 4)
	require.NotSame(t, before[0], grown[0], "a was removed and is rendered again")
	require.Same(t, b, grown[1])
	require.Same(t, c, grown[2])
	require.Equal(t, []string{"a", "b", "c", "e"}, []string{
		Attr(grown[0], "data-key"), Attr(grown[1], "data-key"), Attr(grown[2], "data-key"), Attr(grown[3], "data-key"),
	})
}

func TestReconcileEmptyAndRefill(t *testing.T) {
	doc := parse(t, `<div wf="s0"><h2>t</h2><!--/wf-l:s0--></div>`)
	var box *html.Node
	elements(doc, func(n *html.Node) bool {
		if Attr(n, "wf") == "s0" {
			box = n
		}
		return box == nil
	})
	require.NoError(t, Reconcile(box, "s0", []string{"x", "y"}, renderItem, nil))
	require.Equal(t, `<div wf="s0"><h2>t</h2><li data-key="x">x</li><li data-key="y">y</li><!--/wf-l:s0--></div>`, Render(box))
	require.NoError(t, Reconcile(box, "s0", nil, renderItem, nil))
	require.Empty(t, Items(box))
}

func TestAuditReportsBrokenInstances(t *testing.T) {
	doc := parse(t, `<div wf-s="Page_0"><div wf-s="Counter_0.s1"></div><script type="application/json" wf-p="Counter_0.s1">{}</script></div>
<script type="application/json" wf-p="Page_0">{}</script>
<div wf-s="Counter_0.s1"></div>
<div wf-s="broken"></div><script type="application/json" wf-p="broken">{}</script>`)
	bag := diag.NewBag(0)
	got := Audit(doc, AuditOptions{
		Interactive: map[string]bool{"Counter": true},
		Reporter:    diag.BagReporter{Bag: bag},
	})
	require.Len(t, got, 4)
	require.Equal(t, "Page", got[0].Component)
	require.False(t, got[0].Hydrates)
	require.Same(t, got[0], got[1].Parent)
	require.Equal(t, 1, got[1].Depth)
	require.True(t, got[1].Hydrates)

	codes := map[diag.Code]int{}
	for _, d := range bag.Items() {
		codes[d.Code]++
	}
	require.Equal(t, map[diag.Code]int{
		diag.HydUnknownType:     1,
		diag.HydDuplicateScope:  1,
		diag.HydMalformedMarker: 1,
	}, codes)
}
