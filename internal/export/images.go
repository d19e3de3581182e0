package export

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"vpxmerge/internal/biff"
)

// ErrMissingPackmap aborts the merge when a referenced packmap pixel file
// is absent from the pack directory.
var ErrMissingPackmap = errors.New("missing packmap file")

// copyImages runs the image pass: stale generated images are dropped,
// removal candidates are dropped under the most aggressive mode when no
// kept item references them, survivors are written densely renumbered,
// and one image is appended per referenced packmap group.
func (m *merger) copyImages() error {
	for index := 0; ; index++ {
		path := fmt.Sprintf("GameStg/Image%d", index)
		if !m.src.Exists(path) {
			break
		}
		data, err := m.src.ReadStream(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		name, err := imageName(data)
		if err != nil {
			return fmt.Errorf("scan %s: %w", path, err)
		}

		remove := strings.HasPrefix(name, generatedPrefix)
		if !remove && m.opts.Mode == ModeRemoveAll {
			_, used := m.report.UsedImages[name]
			_, candidate := m.report.RemovalCandidates[name]
			remove = candidate && !used
		}
		if remove {
			m.log.Info("image removed", "image", name)
			m.report.RemovedImages = append(m.report.RemovedImages, name)
			continue
		}
		m.log.Debug("image kept", "image", name, "users", m.report.UsedImages[name])
		m.report.KeptImages = append(m.report.KeptImages, name)
		m.writeImage(data)
	}

	for _, index := range m.referencedPackmaps() {
		data, err := m.packmapImage(index)
		if err != nil {
			return err
		}
		m.writeImage(data)
		m.report.AddedImages = append(m.report.AddedImages, packmapName(index))
	}
	return nil
}

func (m *merger) writeImage(data []byte) {
	m.dst.WriteStream(fmt.Sprintf("GameStg/Image%d", m.imageCount), data)
	m.imageCount++
}

// imageName scans an image stream for its NAME record.
func imageName(data []byte) (string, error) {
	r := biff.NewReader(data)
	for r.Next() {
		if r.Tag() == "NAME" {
			return r.ReadString(), r.Err()
		}
		r.SkipRecord()
	}
	return "unknown", r.Err()
}

func (m *merger) referencedPackmaps() []int {
	seen := make(map[int]bool)
	for _, res := range m.snap.Results {
		seen[res.Packmap] = true
	}
	indexes := make([]int, 0, len(seen))
	for index := range seen {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	return indexes
}

// packmapImage builds one packmap texture stream. The encoded pixel bytes
// are carried as a raw inner record block spliced after an empty JPEG tag,
// outside the outer record structure; the consuming application reads it
// that way.
func (m *merger) packmapImage(index int) ([]byte, error) {
	pixels, err := m.snap.PackmapPixels(index, m.opts.ImageFormat)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", ErrMissingPackmap, err)
	}
	if err != nil {
		return nil, err
	}
	pm := m.snap.PackmapByIndex(index)
	if pm == nil {
		return nil, fmt.Errorf("%w: packmap %d has no descriptor", ErrMissingPackmap, index)
	}
	path := m.snap.PackmapPath(index, m.opts.ImageFormat)
	name := packmapName(index)

	inner := biff.NewWriter()
	inner.WriteTaggedString("NAME", name)
	inner.WriteTaggedString("PATH", path)
	inner.WriteTaggedU32("SIZE", uint32(len(pixels)))
	inner.WriteTaggedBytes("DATA", pixels)
	inner.Close()

	w := biff.NewWriter()
	w.WriteTaggedString("NAME", name)
	w.WriteTaggedString("PATH", path)
	w.WriteTaggedU32("WDTH", pm.Width)
	w.WriteTaggedU32("HGHT", pm.Height)
	w.WriteTaggedEmpty("JPEG")
	w.WriteBytes(inner.Bytes())
	w.WriteTaggedFloat32("ALTV", 165.0)
	w.Close()

	m.log.Info("packmap added", "index", index,
		"width", pm.Width, "height", pm.Height, "hdr", pm.HDR)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
