package export

import (
	"fmt"
	"sort"

	"vpxmerge/internal/bake"
	"vpxmerge/internal/biff"
	"vpxmerge/internal/vpx"
)

// syncUpdates derives the managed script statements and helper bodies from
// the kept lightmap results. Drivers resolve against the lights and
// flashers collected during the item pass; an unresolvable driver hides
// the lightmap instead.
func (m *merger) syncUpdates() (updates []vpx.SyncUpdate, lightmaps, movables []string) {
	var lightmapResults, movableResults []bake.Result
	for _, res := range m.snap.Results {
		if res.IsLightmap() {
			lightmapResults = append(lightmapResults, res)
		}
		if res.Movable() {
			movableResults = append(movableResults, res)
		}
	}
	sort.SliceStable(lightmapResults, func(i, j int) bool {
		return lightmapResults[i].SyncLight < lightmapResults[j].SyncLight
	})
	sort.SliceStable(movableResults, func(i, j int) bool {
		return movableResults[i].SyncTransform < movableResults[j].SyncTransform
	})
	for _, res := range lightmapResults {
		lightmaps = append(lightmaps, vpx.ElementRef(vpx.ExportName(res.Name)))
	}
	for _, res := range movableResults {
		movables = append(movables, vpx.ElementRef(vpx.ExportName(res.Name)))
	}

	for _, res := range m.snap.Results {
		if !res.IsLightmap() || res.Movable() {
			continue
		}
		target := vpx.ElementRef(vpx.ExportName(res.Name))
		update := vpx.SyncUpdate{
			Target:    target,
			SyncColor: res.SyncColor,
			Intensity: 100 * res.Intensity,
		}
		switch {
		case res.SyncLight == "":
			m.log.Warn("lightmap has no driving light or flasher", "lightmap", res.Name)
			update.Kind = vpx.SyncHide
		case contains(m.tableLights, res.SyncLight):
			update.Kind = vpx.SyncLight
			update.Driver = vpx.ElementRef(res.SyncLight)
		case contains(m.tableFlashers, res.SyncLight):
			update.Kind = vpx.SyncFlasher
			update.Driver = vpx.ElementRef(res.SyncLight)
		default:
			m.log.Warn("lightmap driver missing from table",
				"lightmap", res.Name, "driver", res.SyncLight)
			update.Kind = vpx.SyncHide
		}
		updates = append(updates, update)
	}
	return updates, lightmaps, movables
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// markPlayfieldImage pre-scans GameData for the playfield image reference
// and flags it as a removal candidate when a playfield bake replaces it.
func (m *merger) markPlayfieldImage(gameData []byte) {
	if m.playfieldImage == "" {
		return
	}
	r := biff.NewReader(gameData)
	for r.Next() {
		if r.Tag() == "IMAG" {
			m.report.markRemovalCandidate(r.ReadString(), "playfield")
			return
		}
		r.SkipRecord()
	}
}

// patchGameData applies the table-level edits in one scan: stream counts,
// playfield image and material references, the material table splice, and
// the script patch. Record offsets noted during the scan stay valid
// because every structural edit happens at the scan position.
func (m *merger) patchGameData(gameData []byte) ([]byte, error) {
	data := append([]byte(nil), gameData...)
	r := biff.NewReader(data)

	var masiPos, matePos, phmaPos int
	var materialCount uint32
	present := make(map[string]bool)
	updates, lightmaps, movables := m.syncUpdates()

	for r.Next() {
		switch r.Tag() {
		case "SIMG":
			r.PutU32(uint32(m.imageCount))
		case "SEDT":
			r.PutU32(uint32(m.itemCount))
		case "MASI":
			masiPos = r.Pos()
			materialCount = r.ReadU32()
		case "IMAG":
			if m.playfieldImage != "" {
				r.DeleteRecord()
				r.InsertBytes(taggedString("IMAG", m.playfieldImage))
				continue
			}
		case "PLMA":
			r.DeleteRecord()
			r.InsertBytes(taggedString("PLMA", vpx.MaterialActive))
			continue
		case "MATE":
			matePos = r.Pos()
			for i := uint32(0); i < materialCount; i++ {
				name := r.ReadFixedString(32)
				r.Skip(vpx.VisualMaterialSize - 32)
				present[name] = true
			}
		case "PHMA":
			phmaPos = r.Pos()
		case "CODE":
			codePos := r.Pos()
			script := r.ReadString()
			r.SeekTo(codePos)
			r.DeleteBytes(len(script) + 4)
			patch := &vpx.ScriptPatch{
				Updates:   updates,
				Lightmaps: lightmaps,
				Movables:  movables,
				Logger:    m.log,
			}
			w := biff.NewWriter()
			w.WriteString(patch.Apply(script))
			r.InsertBytes(w.Bytes())
			continue
		}
		r.SkipRecord()
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	visual, physics, added := vpx.MissingBakeMaterials(present)
	if added > 0 {
		if matePos == 0 || phmaPos == 0 || masiPos == 0 {
			return nil, fmt.Errorf("game data has no material tables to splice into")
		}
		m.log.Info("bake materials added", "count", added)
		total := materialCount + uint32(added)
		r.SeekTo(masiPos)
		r.PutU32(total)
		r.SeekTo(matePos - 8)
		r.PutU32(total*vpx.VisualMaterialSize + 4)
		r.SeekTo(matePos)
		r.InsertBytes(visual)
		if phmaPos > matePos {
			phmaPos += len(visual)
		}
		r.SeekTo(phmaPos - 8)
		r.PutU32(total*vpx.PhysicsMaterialSize + 4)
		r.SeekTo(phmaPos)
		r.InsertBytes(physics)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return r.Bytes(), nil
}

func taggedString(tag, s string) []byte {
	w := biff.NewWriter()
	w.Begin(tag)
	w.WriteString(s)
	return w.Bytes()
}
