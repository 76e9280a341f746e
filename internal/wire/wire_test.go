package wire

import "testing"

func TestScopeMarkerRoundTrip(t *testing.T) {
	cases := []struct {
		marker, name, inst string
		ok                 bool
	}{
		{"Counter_0", "Counter", "0", true},
		{"My_Widget_0.s4.a-b", "My_Widget", "0.s4.a-b", true},
		{"Counter_", "", "", false},
		{"_0", "", "", false},
		{"Counter", "", "", false},
	}
	for _, tc := range cases {
		name, inst, ok := ParseScopeMarker(tc.marker)
		if name != tc.name || inst != tc.inst || ok != tc.ok {
			t.Errorf("%q: got (%q, %q, %v)", tc.marker, name, inst, ok)
		}
	}
}

func TestChildInstanceSanitizesKeys(t *testing.T) {
	got := ChildInstance("0", "s4", "user_42 x")
	if got != "0.s4.user-42-x" {
		t.Fatalf("got %q", got)
	}
	name, inst, ok := ParseScopeMarker(ScopeMarker("Row", got))
	if !ok || name != "Row" || inst != got {
		t.Fatalf("marker did not survive: %q %q %v", name, inst, ok)
	}
}

func TestCondComments(t *testing.T) {
	id, cond, ok := ParseCondStart(CondStart("s12", false))
	if !ok || id != "s12" || cond {
		t.Fatalf("got (%q, %v, %v)", id, cond, ok)
	}
	if _, _, ok := ParseCondStart(CondEnd("s12")); ok {
		t.Fatalf("end comment parsed as start")
	}
}
