package vpx_test

import (
	"testing"

	"vpxmerge/internal/vpx"
)

func TestVisibilityTag(t *testing.T) {
	cases := []struct {
		kind vpx.ItemKind
		tag  string
		want bool
	}{
		{vpx.KindWall, "VSBL", true},
		{vpx.KindWall, "SVBL", true},
		{vpx.KindWall, "TVIS", false},
		{vpx.KindRamp, "RVIS", true},
		{vpx.KindRubber, "RVIS", true},
		{vpx.KindPrimitive, "TVIS", true},
		{vpx.KindHitTarget, "TVIS", true},
		{vpx.KindFlasher, "FVIS", true},
		{vpx.KindTrigger, "VSBL", false},
		{vpx.KindKicker, "TVIS", false},
	}
	for _, tc := range cases {
		if got := tc.kind.VisibilityTag(tc.tag); got != tc.want {
			t.Errorf("%v.VisibilityTag(%q) = %v, want %v", tc.kind, tc.tag, got, tc.want)
		}
	}
}

func TestBumperPartTag(t *testing.T) {
	cases := []struct {
		tag  string
		part string
		ok   bool
	}{
		{"BSVS", vpx.PartBase, true},
		{"RIVS", vpx.PartRing, true},
		{"SKVS", vpx.PartSocket, true},
		{"CAVI", vpx.PartCap, true},
		{"VSBL", "", false},
	}
	for _, tc := range cases {
		part, ok := vpx.BumperPartTag(tc.tag)
		if part != tc.part || ok != tc.ok {
			t.Errorf("BumperPartTag(%q) = %q, %v, want %q, %v", tc.tag, part, ok, tc.part, tc.ok)
		}
	}
}

func TestItemKindString(t *testing.T) {
	if got := vpx.KindBumper.String(); got != "Bumper" {
		t.Errorf("KindBumper.String() = %q", got)
	}
	if got := vpx.ItemKind(99).String(); got != "Unknown" {
		t.Errorf("unknown kind String() = %q", got)
	}
	if vpx.ItemKind(99).Known() {
		t.Error("ItemKind(99) reported as known")
	}
}
