package bake

import (
	"fmt"

	"vpxmerge/internal/vpx"
)

// Classification says how a bake result is rendered and which well-known
// material it gets.
type Classification string

const (
	// ClassSolid is opaque baked geometry.
	ClassSolid Classification = "solid"
	// ClassActive is baked geometry that needs alpha blending.
	ClassActive Classification = "active"
	// ClassLightmap is an additive overlay synchronized with a light or
	// flasher at runtime.
	ClassLightmap Classification = "lightmap"
	// ClassPlayfield is the solid playfield bake. At most one per
	// snapshot.
	ClassPlayfield Classification = "playfield"
)

// Mesh is a triangulated bake mesh with separate attribute arrays, as the
// baking toolchain emits it.
type Mesh struct {
	Positions [][3]float32 `cbor:"positions"`
	Normals   [][3]float32 `cbor:"normals"`
	UVs       [][2]float32 `cbor:"uvs"`
	Indices   []uint32     `cbor:"indices"`
}

// Interleave converts the attribute arrays into the interleaved vertex
// layout the table format stores.
func (m Mesh) Interleave() (vpx.Mesh, error) {
	n := len(m.Positions)
	if len(m.Normals) != n || len(m.UVs) != n {
		return vpx.Mesh{}, fmt.Errorf("mesh attribute arrays disagree: %d positions, %d normals, %d uvs",
			n, len(m.Normals), len(m.UVs))
	}
	out := vpx.Mesh{
		Vertices: make([]vpx.Vertex, n),
		Indices:  m.Indices,
	}
	for i := 0; i < n; i++ {
		out.Vertices[i] = vpx.Vertex{
			X: m.Positions[i][0], Y: m.Positions[i][1], Z: m.Positions[i][2],
			NX: m.Normals[i][0], NY: m.Normals[i][1], NZ: m.Normals[i][2],
			U: m.UVs[i][0], V: m.UVs[i][1],
		}
	}
	return out, nil
}

// Result is one baked visual to synthesize into the destination table.
type Result struct {
	Name           string         `cbor:"name"`
	Classification Classification `cbor:"classification"`

	Position [3]float32 `cbor:"position"`
	Size     [3]float32 `cbor:"size"`
	RotTra   [9]float32 `cbor:"rot_tra"` // rotation and translation parameters, table order

	Mesh    Mesh `cbor:"mesh"`
	Packmap int  `cbor:"packmap"`

	// Lightmap sync. SyncLight names the driving light or flasher;
	// empty for non-lightmaps.
	SyncLight string  `cbor:"sync_light,omitempty"`
	SyncColor bool    `cbor:"sync_color,omitempty"`
	Intensity float64 `cbor:"intensity,omitempty"`

	// SyncTransform names the source entity whose transform drives a
	// movable bake.
	SyncTransform string `cbor:"sync_transform,omitempty"`
}

// IsLightmap reports whether the result is an additive light overlay.
func (r Result) IsLightmap() bool { return r.Classification == ClassLightmap }

// IsPlayfield reports whether the result is the playfield bake.
func (r Result) IsPlayfield() bool { return r.Classification == ClassPlayfield }

// Movable reports whether the result follows a source entity's transform
// at runtime.
func (r Result) Movable() bool { return r.SyncTransform != "" }

// Source is one source-table entity that was captured by the bake. Part is
// empty for whole items and a sub-part name for bumper parts and gate or
// spinner brackets.
type Source struct {
	Name    string `cbor:"name"`
	Part    string `cbor:"part,omitempty"`
	Movable bool   `cbor:"movable,omitempty"`
}

// Packmap describes one packed texture group of the snapshot.
type Packmap struct {
	Index  int    `cbor:"index"`
	Width  uint32 `cbor:"width"`
	Height uint32 `cbor:"height"`
	HDR    bool   `cbor:"hdr,omitempty"`
}

// Snapshot is the full bake-run output the merge consumes. Dir is the pack
// directory the snapshot was loaded from; it is not serialized.
type Snapshot struct {
	Results     []Result  `cbor:"results"`
	Sources     []Source  `cbor:"sources"`
	BakedLights []string  `cbor:"baked_lights,omitempty"`
	Packmaps    []Packmap `cbor:"packmaps"`

	Dir string `cbor:"-"`
}

// IsBaked reports whether the named entity was captured whole. Movable
// sources are captured but keep their in-engine visual, so they are not
// reported as baked.
func (s *Snapshot) IsBaked(name string) bool {
	for _, src := range s.Sources {
		if src.Name == name && src.Part == "" && !src.Movable {
			return true
		}
	}
	return false
}

// HasBakedPart reports whether the named entity's sub-part was captured.
func (s *Snapshot) HasBakedPart(name, part string) bool {
	for _, src := range s.Sources {
		if src.Name == name && src.Part == part && !src.Movable {
			return true
		}
	}
	return false
}

// PartBaked reports whether any sub-part of the named entity was captured.
func (s *Snapshot) PartBaked(name string) bool {
	for _, src := range s.Sources {
		if src.Name == name && src.Part != "" && !src.Movable {
			return true
		}
	}
	return false
}

// IsBakedLight reports whether the named light contributed to a bake and
// must switch to reflection-only rendering.
func (s *Snapshot) IsBakedLight(name string) bool {
	for _, n := range s.BakedLights {
		if n == name {
			return true
		}
	}
	return false
}

// Playfield returns the playfield result, or nil when the snapshot has
// none.
func (s *Snapshot) Playfield() *Result {
	for i := range s.Results {
		if s.Results[i].IsPlayfield() {
			return &s.Results[i]
		}
	}
	return nil
}

// PackmapByIndex returns the packmap descriptor for index, or nil.
func (s *Snapshot) PackmapByIndex(index int) *Packmap {
	for i := range s.Packmaps {
		if s.Packmaps[i].Index == index {
			return &s.Packmaps[i]
		}
	}
	return nil
}
