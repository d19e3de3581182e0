package bake

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"vpxmerge/internal/fileutil"
)

// PackFile is the snapshot descriptor inside a pack directory.
const PackFile = "bakes.cbor"

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2) so the same
// snapshot always produces identical pack bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bake: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("bake: CBOR decoder initialization failed: " + err.Error())
	}
}

// LoadPack reads the snapshot descriptor from a pack directory. Packmap
// pixel files are read lazily via PackmapPixels.
func LoadPack(dir string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, PackFile))
	if err != nil {
		return nil, fmt.Errorf("read bake pack: %w", err)
	}
	var snap Snapshot
	if err := decMode.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode bake pack: %w", err)
	}
	snap.Dir = dir
	return &snap, nil
}

// SavePack writes the snapshot descriptor into dir, atomically.
func (s *Snapshot) SavePack(dir string) error {
	data, err := encMode.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode bake pack: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, PackFile), data, 0o644); err != nil {
		return fmt.Errorf("write bake pack: %w", err)
	}
	return nil
}

// PackmapPath returns the pixel file path for a packmap group. HDR groups
// are always stored as EXR; others use the configured encoded format
// ("png" or "webp").
func (s *Snapshot) PackmapPath(index int, format string) string {
	ext := format
	if pm := s.PackmapByIndex(index); pm != nil && pm.HDR {
		ext = "exr"
	}
	return filepath.Join(s.Dir, fmt.Sprintf("Nestmap %d.%s", index, ext))
}

// PackmapPixels reads the encoded pixel bytes for a packmap group.
func (s *Snapshot) PackmapPixels(index int, format string) ([]byte, error) {
	path := s.PackmapPath(index, format)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read packmap %d: %w", index, err)
	}
	return data, nil
}
