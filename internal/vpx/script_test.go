package vpx_test

import (
	"strings"
	"testing"

	"vpxmerge/internal/vpx"
)

func TestExportName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bumper1", "Bumper1"},
		{"Left Slingshot", "Left_Slingshot"},
		{"GI.String-1", "GI_String_1"},
	}
	for _, tc := range cases {
		if got := vpx.ExportName(tc.in); got != tc.want {
			t.Errorf("ExportName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestElementRef(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bumper1", "Bumper1"},
		{"Left Slingshot", `GetElementByName("Left Slingshot")`},
		{"GI.1", `GetElementByName("GI.1")`},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}
	for _, tc := range cases {
		if got := vpx.ElementRef(tc.in); got != tc.want {
			t.Errorf("ElementRef(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestApplyAppendsRoutinesWhenAbsent(t *testing.T) {
	patch := &vpx.ScriptPatch{
		Updates: []vpx.SyncUpdate{
			{Driver: "Light1", Target: "LM_Light1", Kind: vpx.SyncLight, SyncColor: true, Intensity: 100},
			{Driver: "Flasher2", Target: "LM_Flasher2", Kind: vpx.SyncFlasher, Intensity: 25.5},
			{Target: "LM_Orphan", Kind: vpx.SyncHide},
		},
		Lightmaps: []string{"LM_Light1"},
		Movables:  []string{"BM_Flipper"},
	}
	got := patch.Apply("Option Explicit\n")

	for _, want := range []string{
		"Option Explicit\n",
		"Sub VLMTimer_Timer\n",
		"\tUpdateLightMapFromLight Light1, LM_Light1, 100, True\n",
		"\tUpdateLightMapFromFlasher Flasher2, LM_Flasher2, 25.5, False\n",
		"\tLM_Orphan.Visible = False\n",
		"Sub UpdateLightMapFromLight(light, lightmap, intensity_scale, sync_color)\n",
		"Sub UpdateLightMapFromFlasher(flasher, lightmap, intensity_scale, sync_color)\n",
		"Sub VLMLampzHelper\n\tLampz.Callback(0) = \"UpdateLightMap LM_Light1, 100, \"\nEnd Sub\n",
		"Sub VLMMovableHelper\n\tBM_Flipper.RotZ = 0\nEnd Sub\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("patched script missing %q\n%s", want, got)
		}
	}
}

func TestApplyPreservesEditedIntensity(t *testing.T) {
	in := strings.Join([]string{
		"Sub VLMTimer_Timer",
		"\tUpdateLightMapFromLight Light1, LM_Light1, 42.5, True",
		"End Sub",
	}, "\n") + "\n"

	patch := &vpx.ScriptPatch{
		Updates: []vpx.SyncUpdate{
			{Driver: "Light1", Target: "LM_Light1", Kind: vpx.SyncLight, SyncColor: true, Intensity: 100},
		},
	}
	got := patch.Apply(in)

	if !strings.Contains(got, "UpdateLightMapFromLight Light1, LM_Light1, 42.5, True") {
		t.Errorf("edited intensity not preserved:\n%s", got)
	}
	if strings.Contains(got, ", 100, True") {
		t.Errorf("computed intensity overrode the user edit:\n%s", got)
	}
}

func TestApplyCommentsOutStaleStatements(t *testing.T) {
	in := strings.Join([]string{
		"Sub VLMTimer_Timer",
		"\tUpdateLightMapFromLight GoneLight, LM_Gone, 100, False",
		"\t' user note",
		"End Sub",
	}, "\n") + "\n"

	patch := &vpx.ScriptPatch{
		Updates: []vpx.SyncUpdate{
			{Driver: "Light1", Target: "LM_Light1", Kind: vpx.SyncLight, Intensity: 100},
		},
	}
	got := patch.Apply(in)

	if !strings.Contains(got, "  ' UpdateLightMapFromLight GoneLight, LM_Gone, 100, False\n") {
		t.Errorf("stale statement not commented out:\n%s", got)
	}
	if !strings.Contains(got, "\t' user note\n") {
		t.Errorf("user comment not preserved:\n%s", got)
	}
	if !strings.Contains(got, "\tUpdateLightMapFromLight Light1, LM_Light1, 100, False\n") {
		t.Errorf("new statement not emitted before End Sub:\n%s", got)
	}
}

func TestApplyRebuildsHelperBodies(t *testing.T) {
	in := strings.Join([]string{
		"Sub VLMLampzHelper",
		"\tLampz.Callback(0) = \"UpdateLightMap LM_Old, 100, \"",
		"End Sub",
		"Sub VLMMovableHelper",
		"\tBM_Old.RotZ = 0",
		"End Sub",
	}, "\n") + "\n"

	patch := &vpx.ScriptPatch{
		Lightmaps: []string{"LM_New"},
		Movables:  []string{"BM_New"},
	}
	got := patch.Apply(in)

	if strings.Contains(got, "LM_Old") || strings.Contains(got, "BM_Old") {
		t.Errorf("stale helper lines survived:\n%s", got)
	}
	if !strings.Contains(got, "\tLampz.Callback(0) = \"UpdateLightMap LM_New, 100, \"\n") {
		t.Errorf("lamp helper not rebuilt:\n%s", got)
	}
	if !strings.Contains(got, "\tBM_New.RotZ = 0\n") {
		t.Errorf("movable helper not rebuilt:\n%s", got)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	patch := &vpx.ScriptPatch{
		Updates: []vpx.SyncUpdate{
			{Driver: "Light1", Target: "LM_Light1", Kind: vpx.SyncLight, SyncColor: true, Intensity: 100},
			{Target: "LM_Orphan", Kind: vpx.SyncHide},
		},
		Lightmaps: []string{"LM_Light1"},
		Movables:  []string{"BM_Flipper"},
	}
	once := patch.Apply("Option Explicit\n")
	twice := patch.Apply(once)
	if once != twice {
		t.Errorf("second apply changed the script:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
}
