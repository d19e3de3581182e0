package export

import (
	"fmt"
	"sort"
	"strings"

	"vpxmerge/internal/bake"
	"vpxmerge/internal/biff"
	"vpxmerge/internal/vpx"
)

// generatedPrefix marks entities this pipeline synthesizes. Matching items
// and images found in the source are stale output of an earlier merge and
// are always dropped.
const generatedPrefix = "VLM."

const (
	timerName     = "VLMTimer"
	layerName     = "VLM.Visuals"
	playfieldMesh = "playfield_mesh"
)

type itemInfo struct {
	name       string
	kind       vpx.ItemKind
	images     []string
	physics    bool
	baked      bool
	bakedLight bool
}

// copyGameItems runs the per-item pass: each source item is classified,
// patched in place, and either dropped or written densely renumbered.
// Synthesized items (the sync timer and one primitive per bake result)
// follow the copied ones.
func (m *merger) copyGameItems() error {
	for index := 0; ; index++ {
		path := fmt.Sprintf("GameStg/GameItem%d", index)
		if !m.src.Exists(path) {
			break
		}
		data, err := m.src.ReadStream(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		info, patched, err := m.patchItem(data)
		if err != nil {
			return fmt.Errorf("patch %s: %w", path, err)
		}

		remove := m.opts.Mode.removesItems() && info.baked && !info.physics
		remove = remove || strings.HasPrefix(info.name, generatedPrefix) || info.name == timerName
		baked := info.baked || m.snap.PartBaked(info.name)
		if remove || (m.opts.Mode.removesItems() && baked) {
			for _, image := range info.images {
				m.report.markRemovalCandidate(image, info.name)
			}
		} else {
			for _, image := range info.images {
				m.report.markUsed(image, info.name)
			}
		}
		if remove {
			m.log.Info("item removed", "item", info.name, "kind", info.kind.String())
			m.report.RemovedItems = append(m.report.RemovedItems, info.name)
			continue
		}
		m.report.KeptItems = append(m.report.KeptItems, info.name)
		m.writeGameItem(patched)
	}

	m.writeGameItem(m.synthesizeTimer())
	m.report.AddedItems = append(m.report.AddedItems, timerName)

	for _, res := range m.orderedResults() {
		data, err := m.synthesizePrimitive(res)
		if err != nil {
			return fmt.Errorf("synthesize %s: %w", res.Name, err)
		}
		m.log.Info("bake primitive added", "name", res.Name,
			"classification", string(res.Classification))
		m.writeGameItem(data)
		m.report.AddedItems = append(m.report.AddedItems, vpx.ExportName(res.Name))
	}

	if m.snap.Playfield() != nil && m.needsPlayfieldPhysics {
		m.log.Warn("table has no playfield physics object; add an invisible full-size ramp")
		m.report.MissingPlayfieldPhysics = true
	}
	return nil
}

func (m *merger) writeGameItem(data []byte) {
	m.dst.WriteStream(fmt.Sprintf("GameStg/GameItem%d", m.itemCount), data)
	m.itemCount++
}

// orderedResults returns bake results in synthesis order: non-lightmaps
// first, then lightmaps, each group sorted by name.
func (m *merger) orderedResults() []bake.Result {
	results := append([]bake.Result(nil), m.snap.Results...)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].IsLightmap() != results[j].IsLightmap() {
			return !results[i].IsLightmap()
		}
		return results[i].Name < results[j].Name
	})
	return results
}

// patchItem classifies one item stream and applies the in-place edits:
// visibility and reflection tags zeroed for baked geometry, light sync
// fields forced for baked lights, the playfield mesh renamed to its
// physics role. Unknown item kinds are passed through untouched.
func (m *merger) patchItem(data []byte) (itemInfo, []byte, error) {
	data = append([]byte(nil), data...)
	r := biff.NewReader(data)
	kind := vpx.ItemKind(r.ReadI32())
	info := itemInfo{name: "unknown", kind: kind, physics: true}
	if !kind.Known() {
		m.log.Warn("unsupported item type copied through", "type", int32(kind))
		return info, data, r.Err()
	}

	for r.Next() {
		if r.Tag() == "NAME" {
			info.name = r.ReadWideString()
			break
		}
		r.SkipRecord()
	}
	if err := r.Err(); err != nil {
		return info, nil, err
	}
	info.baked = m.snap.IsBaked(info.name)
	if info.name == playfieldMesh && m.snap.Playfield() != nil {
		// The playfield bake replaces the playfield mesh visual.
		info.baked = true
	}
	info.bakedLight = m.snap.IsBakedLight(info.name)
	if kind == vpx.KindLight {
		m.tableLights = append(m.tableLights, info.name)
	}
	if kind == vpx.KindFlasher {
		m.tableFlashers = append(m.tableFlashers, info.name)
	}

	r = biff.NewReader(data)
	r.ReadI32()
	for r.Next() {
		visibilityField, reflectionField := false, false
		partBaked := info.baked
		switch tag := r.Tag(); {
		case tag == "NAME":
			if info.name == playfieldMesh && m.snap.Playfield() != nil {
				// Rename to playfield_phys in place: patch the last
				// four wide characters of the name payload.
				r.Skip(24)
				r.PutU32(0x00680070)
				r.PutU32(0x00730079)
				m.needsPlayfieldPhysics = false
			}
		case tag == "REEN":
			reflectionField = true
		case tag == "CLDR" || tag == "CLDW":
			info.physics = r.ReadBool()
		case tag == "ISTO":
			info.physics = info.physics && !r.ReadBool()
		case tag == "IMAG" || tag == "SIMG" || tag == "IMAB":
			info.images = append(info.images, r.ReadString())
		case kind == vpx.KindGate && tag == "GSUP":
			if m.snap.HasBakedPart(info.name, vpx.PartBracket) {
				r.PutBool(false)
			}
		case kind == vpx.KindSpinner && tag == "SSUP":
			if m.snap.HasBakedPart(info.name, vpx.PartBracket) {
				r.PutBool(false)
			}
		case kind == vpx.KindBumper:
			if part, ok := vpx.BumperPartTag(tag); ok {
				partBaked = m.snap.HasBakedPart(info.name, part)
				visibilityField = true
			}
		default:
			visibilityField = kind.VisibilityTag(tag)
		}
		if kind == vpx.KindLight && info.bakedLight {
			switch r.Tag() {
			case "BULT":
				r.PutBool(true)
			case "BHHI":
				r.PutFloat32(-2800)
			}
		}
		if kind == vpx.KindFlasher && info.bakedLight && r.Tag() == "FHEI" {
			r.PutFloat32(-2800)
		}
		if partBaked && (visibilityField || reflectionField) {
			r.PutBool(false)
		}
		r.SkipRecord()
	}
	return info, r.Bytes(), r.Err()
}

// synthesizeTimer emits the timer item driving the lightmap sync routine.
func (m *merger) synthesizeTimer() []byte {
	w := biff.NewWriter()
	w.WriteU32(uint32(vpx.KindTimer))
	w.WriteTaggedVec2("VCEN", 0, 0)
	w.WriteTaggedBool("TMON", true)
	w.WriteTaggedI32("TMIN", -1)
	w.WriteTaggedWideString("NAME", timerName)
	w.WriteTaggedBool("BGLS", false)
	w.WriteTaggedBool("LOCK", true)
	w.WriteTaggedU32("LAYR", 0)
	w.WriteTaggedString("LANR", layerName)
	w.WriteTaggedBool("LVIS", true)
	w.Close()
	return w.Bytes()
}

// synthesizePrimitive emits one bake result as a locked primitive. Tag
// order and the physics constants are fixed by the consuming application.
func (m *merger) synthesizePrimitive(res bake.Result) ([]byte, error) {
	isLight := res.IsLightmap()
	isActive := res.Classification == bake.ClassActive
	isPlayfield := res.IsPlayfield()

	w := biff.NewWriter()
	w.WriteU32(uint32(vpx.KindPrimitive))
	w.WriteTaggedPaddedVector("VPOS", res.Position[0], res.Position[1], res.Position[2])
	w.WriteTaggedPaddedVector("VSIZ", res.Size[0], res.Size[1], res.Size[2])
	for i, v := range res.RotTra {
		w.WriteTaggedFloat32(fmt.Sprintf("RTV%d", i), v)
	}
	w.WriteTaggedString("IMAG", packmapName(res.Packmap))
	w.WriteTaggedString("NRMA", "")
	w.WriteTaggedU32("SIDS", 4)
	if isPlayfield {
		w.WriteTaggedWideString("NAME", playfieldMesh)
	} else {
		w.WriteTaggedWideString("NAME", vpx.ExportName(res.Name))
	}
	switch {
	case isLight:
		w.WriteTaggedString("MATR", vpx.MaterialLightmap)
	case isActive:
		w.WriteTaggedString("MATR", vpx.MaterialActive)
	default:
		w.WriteTaggedString("MATR", vpx.MaterialSolid)
	}
	w.WriteTaggedU32("SCOL", 0xFFFFFF)
	w.WriteTaggedBool("TVIS", true)
	w.WriteTaggedBool("DTXI", false)
	w.WriteTaggedBool("HTEV", false)
	w.WriteTaggedFloat32("THRS", 2.0)
	w.WriteTaggedFloat32("ELAS", 0.3)
	w.WriteTaggedFloat32("ELFO", 0.0)
	w.WriteTaggedFloat32("RFCT", 0.0)
	w.WriteTaggedFloat32("RSCT", 0.0)
	w.WriteTaggedFloat32("EFUI", 0.0)
	w.WriteTaggedFloat32("CORF", 0.0)
	w.WriteTaggedBool("CLDR", false)
	w.WriteTaggedBool("ISTO", true)
	w.WriteTaggedBool("U3DM", true)
	w.WriteTaggedBool("STRE", !isLight && !isActive)
	w.WriteTaggedU32("DILI", 255)
	w.WriteTaggedFloat32("DILB", 1.0)
	w.WriteTaggedBool("REEN", !isPlayfield && m.opts.Reflection)
	w.WriteTaggedBool("EBFC", false)
	w.WriteTaggedString("MAPH", "")
	w.WriteTaggedBool("OVPH", false)
	w.WriteTaggedBool("DIPT", false)
	w.WriteTaggedBool("OSNM", false)
	w.WriteTaggedString("M3DN", generatedPrefix+res.Name)

	mesh, err := res.Mesh.Interleave()
	if err != nil {
		return nil, err
	}
	if err := vpx.WriteMesh(w, mesh); err != nil {
		return nil, err
	}

	switch {
	case isPlayfield:
		w.WriteTaggedFloat32("PIDB", 0)
	case isLight:
		w.WriteTaggedFloat32("PIDB", -1000)
	default:
		w.WriteTaggedFloat32("PIDB", 1000)
	}
	w.WriteTaggedBool("ADDB", isLight)
	w.WriteTaggedFloat32("FALP", 100)
	w.WriteTaggedU32("COLR", 0xFFFFFF)
	w.WriteTaggedBool("LOCK", true)
	w.WriteTaggedBool("LVIS", true)
	w.WriteTaggedU32("LAYR", 0)
	w.WriteTaggedString("LANR", layerName)
	w.Close()
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func packmapName(index int) string {
	return fmt.Sprintf("VLM.Packmap%d", index)
}
