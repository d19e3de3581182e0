package vpx

import (
	"vpxmerge/internal/biff"
)

// Well-known material names the merge guarantees to exist in the
// destination table.
const (
	MaterialSolid    = "VLM.Bake.Solid"
	MaterialActive   = "VLM.Bake.Active"
	MaterialLightmap = "VLM.Lightmap"
)

// On-disk sizes of one entry in the visual and physics material tables.
const (
	VisualMaterialSize  = 76 // 32-byte name + 11 scalar fields
	PhysicsMaterialSize = 48 // 32-byte name + 4 floats
	materialNameSize    = 32
)

type materialDef struct {
	name   string
	active bool // opacity-active flag, set for see-through bake materials
}

var bakeMaterials = []materialDef{
	{MaterialSolid, false},
	{MaterialActive, true},
	{MaterialLightmap, true},
}

// BakeMaterialNames lists the well-known material names in table order.
func BakeMaterialNames() []string {
	names := make([]string, len(bakeMaterials))
	for i, def := range bakeMaterials {
		names[i] = def.name
	}
	return names
}

// MissingBakeMaterials builds the raw entry bytes to splice into the visual
// and physics material tables for every well-known material absent from
// present. It returns the two byte blocks and the number of entries added.
func MissingBakeMaterials(present map[string]bool) (visual, physics []byte, added int) {
	vw := biff.NewWriter()
	pw := biff.NewWriter()
	for _, def := range bakeMaterials {
		if present[def.name] {
			continue
		}
		added++
		writeVisualMaterial(vw, def)
		writePhysicsMaterial(pw, def)
	}
	return vw.Bytes(), pw.Bytes(), added
}

// writeVisualMaterial appends one fixed-layout visual material entry. The
// base color is white divided by 2; the renderer doubles it.
func writeVisualMaterial(w *biff.Writer, def materialDef) {
	w.WriteFixedString(def.name, materialNameSize)
	w.WriteU32(0x7F7F7F) // base color
	w.WriteU32(0x000000) // glossy color
	w.WriteU32(0x000000) // clearcoat color
	w.WriteFloat32(0.0)  // wrap lighting
	w.WriteBool(false)   // metal
	w.WriteFloat32(0.0)  // shininess
	w.WriteU32(0)        // glossy image lerp
	w.WriteFloat32(0.0)  // edge
	w.WriteU32(0x0C)     // thickness
	w.WriteFloat32(1.0)  // opacity
	// opacity active & edge alpha
	if def.active {
		w.WriteU32(0x00000001)
	} else {
		w.WriteU32(0x00000000)
	}
}

// writePhysicsMaterial appends the parallel physics entry: elasticity,
// elasticity falloff, friction, scatter, all zero.
func writePhysicsMaterial(w *biff.Writer, def materialDef) {
	w.WriteFixedString(def.name, materialNameSize)
	w.WriteFloat32(0.0)
	w.WriteFloat32(0.0)
	w.WriteFloat32(0.0)
	w.WriteFloat32(0.0)
}
