// Package testsupport builds synthetic table containers and bake packs for
// tests. The streams carry only the records the pipeline inspects; real
// tables have many more, which the pipeline copies through untouched.
package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"vpxmerge/internal/bake"
	"vpxmerge/internal/biff"
	"vpxmerge/internal/cfb"
	"vpxmerge/internal/vpx"
)

// Wall returns a wall item stream with top and side visibility on.
func Wall(name, image string, collidable bool) []byte {
	w := biff.NewWriter()
	w.WriteU32(uint32(vpx.KindWall))
	w.WriteTaggedWideString("NAME", name)
	w.WriteTaggedBool("VSBL", true)
	w.WriteTaggedBool("SVBL", true)
	w.WriteTaggedBool("CLDW", collidable)
	if image != "" {
		w.WriteTaggedString("IMAG", image)
	}
	w.Close()
	return w.Bytes()
}

// Bumper returns a bumper item stream with all four part visibilities on.
func Bumper(name, image string) []byte {
	w := biff.NewWriter()
	w.WriteU32(uint32(vpx.KindBumper))
	w.WriteTaggedWideString("NAME", name)
	w.WriteTaggedBool("BSVS", true)
	w.WriteTaggedBool("RIVS", true)
	w.WriteTaggedBool("SKVS", true)
	w.WriteTaggedBool("CAVI", true)
	if image != "" {
		w.WriteTaggedString("IMAG", image)
	}
	w.Close()
	return w.Bytes()
}

// Light returns a light item stream with bulb mode off.
func Light(name string) []byte {
	w := biff.NewWriter()
	w.WriteU32(uint32(vpx.KindLight))
	w.WriteTaggedWideString("NAME", name)
	w.WriteTaggedBool("BULT", false)
	w.WriteTaggedFloat32("BHHI", 50)
	w.Close()
	return w.Bytes()
}

// Flasher returns a flasher item stream.
func Flasher(name, image string) []byte {
	w := biff.NewWriter()
	w.WriteU32(uint32(vpx.KindFlasher))
	w.WriteTaggedWideString("NAME", name)
	w.WriteTaggedBool("FVIS", true)
	w.WriteTaggedFloat32("FHEI", 50)
	if image != "" {
		w.WriteTaggedString("IMAG", image)
	}
	w.Close()
	return w.Bytes()
}

// Primitive returns a primitive item stream.
func Primitive(name, image string, collidable, toy bool) []byte {
	w := biff.NewWriter()
	w.WriteU32(uint32(vpx.KindPrimitive))
	w.WriteTaggedWideString("NAME", name)
	w.WriteTaggedBool("TVIS", true)
	w.WriteTaggedBool("REEN", true)
	w.WriteTaggedBool("CLDR", collidable)
	w.WriteTaggedBool("ISTO", toy)
	if image != "" {
		w.WriteTaggedString("IMAG", image)
	}
	w.Close()
	return w.Bytes()
}

// Image returns a minimal image stream.
func Image(name string) []byte {
	w := biff.NewWriter()
	w.WriteTaggedString("NAME", name)
	w.WriteTaggedString("PATH", "C:\\"+name+".png")
	w.Close()
	return w.Bytes()
}

// GameDataOpts parameterizes a synthetic GameData stream.
type GameDataOpts struct {
	Script         string
	Materials      []string // existing visual material names
	PlayfieldImage string
	ImageCount     uint32
	ItemCount      uint32
}

// GameData returns a GameData stream carrying the records the pipeline
// patches, in realistic order.
func GameData(opts GameDataOpts) []byte {
	w := biff.NewWriter()
	w.WriteTaggedU32("SIMG", opts.ImageCount)
	w.WriteTaggedU32("SEDT", opts.ItemCount)
	w.WriteTaggedU32("SSND", 0)
	w.WriteTaggedU32("SCOL", 0)
	if opts.PlayfieldImage != "" {
		w.WriteTaggedString("IMAG", opts.PlayfieldImage)
	}
	w.WriteTaggedString("PLMA", "Playfield")
	w.WriteTaggedU32("MASI", uint32(len(opts.Materials)))
	w.Begin("MATE")
	for _, name := range opts.Materials {
		w.WriteFixedString(name, 32)
		for i := 0; i < 11; i++ {
			w.WriteU32(0)
		}
	}
	w.EndRecord()
	w.Begin("PHMA")
	for _, name := range opts.Materials {
		w.WriteFixedString(name, 32)
		for i := 0; i < 4; i++ {
			w.WriteU32(0)
		}
	}
	w.EndRecord()
	w.Begin("CODE")
	w.EndRecord()
	w.WriteString(opts.Script)
	w.Close()
	return w.Bytes()
}

// Table assembles a container file from its parts and returns its path.
func Table(tb testing.TB, dir string, gameData []byte, items, images [][]byte) string {
	tb.Helper()
	path := filepath.Join(dir, "table.vpx")
	b := cfb.NewBuilder(path)
	b.CreateStorage("GameStg")
	b.CreateStorage("TableInfo")
	b.WriteStream("GameStg/Version", []byte{0x24, 0x04, 0x00, 0x00})
	b.WriteStream("GameStg/GameData", gameData)
	for i, item := range items {
		b.WriteStream(fmt.Sprintf("GameStg/GameItem%d", i), item)
	}
	for i, image := range images {
		b.WriteStream(fmt.Sprintf("GameStg/Image%d", i), image)
	}
	b.WriteStream("TableInfo/TableName", []byte("Synthetic Table"))
	b.WriteStream("TableInfo/AuthorName", []byte("testsupport"))
	if err := b.Commit(); err != nil {
		tb.Fatalf("build table: %v", err)
	}
	return path
}

// TriangleMesh returns a one-triangle bake mesh.
func TriangleMesh() bake.Mesh {
	return bake.Mesh{
		Positions: [][3]float32{{0, 0, 0}, {100, 0, 0}, {0, 100, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs:       [][2]float32{{0, 0}, {1, 0}, {0, 1}},
		Indices:   []uint32{0, 1, 2},
	}
}

// Pack writes a snapshot and its packmap pixel files into dir and returns
// the loaded snapshot.
func Pack(tb testing.TB, dir string, snap *bake.Snapshot, pixels map[string][]byte) *bake.Snapshot {
	tb.Helper()
	if err := snap.SavePack(dir); err != nil {
		tb.Fatalf("save pack: %v", err)
	}
	for name, data := range pixels {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			tb.Fatalf("write packmap %s: %v", name, err)
		}
	}
	loaded, err := bake.LoadPack(dir)
	if err != nil {
		tb.Fatalf("load pack: %v", err)
	}
	return loaded
}
