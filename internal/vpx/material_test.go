package vpx_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"vpxmerge/internal/vpx"
)

func TestBakeMaterialNamesOrder(t *testing.T) {
	want := []string{"VLM.Bake.Solid", "VLM.Bake.Active", "VLM.Lightmap"}
	got := vpx.BakeMaterialNames()
	if len(got) != len(want) {
		t.Fatalf("got %d names, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMissingBakeMaterialsSkipsPresent(t *testing.T) {
	visual, physics, added := vpx.MissingBakeMaterials(map[string]bool{
		vpx.MaterialSolid: true,
	})
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
	if len(visual) != 2*vpx.VisualMaterialSize {
		t.Errorf("visual block is %d bytes, want %d", len(visual), 2*vpx.VisualMaterialSize)
	}
	if len(physics) != 2*vpx.PhysicsMaterialSize {
		t.Errorf("physics block is %d bytes, want %d", len(physics), 2*vpx.PhysicsMaterialSize)
	}

	name := string(bytes.TrimRight(visual[:32], "\x00"))
	if name != vpx.MaterialActive {
		t.Errorf("first spliced material = %q, want %q", name, vpx.MaterialActive)
	}
	// Opacity-active flag is the last u32 of the visual entry.
	if flag := binary.LittleEndian.Uint32(visual[72:76]); flag != 1 {
		t.Errorf("opacity-active flag = %d, want 1", flag)
	}
	if name := string(bytes.TrimRight(physics[48:80], "\x00")); name != vpx.MaterialLightmap {
		t.Errorf("second physics entry = %q, want %q", name, vpx.MaterialLightmap)
	}
}

func TestMissingBakeMaterialsAllPresent(t *testing.T) {
	present := make(map[string]bool)
	for _, name := range vpx.BakeMaterialNames() {
		present[name] = true
	}
	visual, physics, added := vpx.MissingBakeMaterials(present)
	if added != 0 || len(visual) != 0 || len(physics) != 0 {
		t.Errorf("added = %d, visual %d bytes, physics %d bytes, want all zero",
			added, len(visual), len(physics))
	}
}
