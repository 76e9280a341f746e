package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeBuild, false},
		{LevelError, ScopeBuild, false},
		{LevelPhase, ScopePhase, true},
		{LevelPhase, ScopeFile, false},
		{LevelDetail, ScopeFile, true},
		{LevelDetail, ScopeComponent, false},
		{LevelDebug, ScopeComponent, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s/%s: got %v want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestStartLinksParent(t *testing.T) {
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), ring)

	ctx, outer := Start(ctx, ScopePhase, "resolve")
	_, inner := Start(ctx, ScopeComponent, "component:Counter")
	inner.WithExtra("ids", "3").End("")
	outer.End("")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("got %d events", len(events))
	}
	if events[1].ParentID != outer.ID() {
		t.Fatalf("inner parent = %d, want %d", events[1].ParentID, outer.ID())
	}
	if events[2].Extra["ids"] != "3" {
		t.Fatalf("extra lost: %+v", events[2])
	}
}

func TestRingWraps(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopeBuild, Name: name})
	}
	got := ring.Snapshot()
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("snapshot = %+v", got)
	}
}

func TestStreamTextFormat(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeStream, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	sp := Begin(tr, ScopePhase, "generate", 0)
	sp.End("4 files")
	Begin(tr, ScopeFile, "file:skipped.tsx", 0).End("")

	out := buf.String()
	if !strings.Contains(out, "→ generate") || !strings.Contains(out, "← generate (4 files)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "skipped") {
		t.Fatalf("file scope should be filtered at phase level:\n%s", out)
	}
}

func TestFindRing(t *testing.T) {
	ring := NewRingTracer(4, LevelPhase)
	multi := NewMultiTracer(LevelPhase, NewStreamTracer(&bytes.Buffer{}, LevelPhase, FormatText), ring)
	if FindRing(multi) != ring {
		t.Fatalf("ring not found")
	}
	if FindRing(Nop) != nil {
		t.Fatalf("nop has no ring")
	}
}
