package export

import (
	"context"
	"fmt"
	"log/slog"

	"vpxmerge/internal/bake"
	"vpxmerge/internal/biff"
	"vpxmerge/internal/cfb"
	"vpxmerge/internal/vpx"
)

// Options configures one merge. Source and Dest are table file paths; the
// snapshot comes from bake.LoadPack.
type Options struct {
	Source      string
	Dest        string
	Snapshot    *bake.Snapshot
	Mode        Mode
	ImageFormat string // "png" or "webp"; HDR packmaps are always EXR
	Reflection  bool   // enable reflection on synthesized primitives
	Logger      *slog.Logger
}

type merger struct {
	opts Options
	log  *slog.Logger
	snap *bake.Snapshot
	src  *cfb.File
	dst  *cfb.Builder

	report *Report

	tableLights    []string
	tableFlashers  []string
	itemCount      int
	imageCount     int
	playfieldImage string

	needsPlayfieldPhysics bool
}

// tableInfoHashed lists the info streams that feed the integrity digest,
// in digest order. TableSaveDate and TableSaveRev are copied but not
// hashed.
var tableInfoHashed = []string{
	"TableName", "AuthorName", "TableVersion", "ReleaseDate", "AuthorEmail",
	"AuthorWebSite", "TableBlurb", "TableDescription", "TableRules",
}

// Merge runs the full bake-merge pipeline: item pass, image pass, table
// data patch, stream copy with digest recomputation, and atomic commit of
// the destination container.
func Merge(ctx context.Context, opts Options) (*Report, error) {
	if opts.Snapshot == nil {
		return nil, fmt.Errorf("merge: no bake snapshot")
	}
	if opts.ImageFormat == "" {
		opts.ImageFormat = "png"
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	src, err := cfb.Open(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("open source table: %w", err)
	}
	defer src.Close()

	m := &merger{
		opts:                  opts,
		log:                   log,
		snap:                  opts.Snapshot,
		src:                   src,
		dst:                   cfb.NewBuilder(opts.Dest),
		report:                newReport(opts.Mode),
		needsPlayfieldPhysics: true,
	}
	m.dst.CreateStorage("GameStg")
	m.dst.CreateStorage("TableInfo")
	if pf := m.snap.Playfield(); pf != nil {
		m.playfieldImage = packmapName(pf.Packmap)
	}

	gameData, err := m.src.ReadStream("GameStg/GameData")
	if err != nil {
		return nil, fmt.Errorf("%w: GameStg/GameData", vpx.ErrMissingStream)
	}

	if err := m.copyGameItems(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.markPlayfieldImage(gameData)
	if err := m.copyImages(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	patched, err := m.patchGameData(gameData)
	if err != nil {
		return nil, fmt.Errorf("patch game data: %w", err)
	}
	if err := m.copyAndHash(patched); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := m.dst.Commit(); err != nil {
		return nil, fmt.Errorf("commit destination table: %w", err)
	}
	log.Info("merge committed", "dest", opts.Dest,
		"items", m.itemCount, "images", m.imageCount)
	return m.report, nil
}

// copyAndHash copies the remaining streams in digest order, feeding the
// hashed ones into the integrity hasher, and writes the digest as the
// trailing MAC stream.
func (m *merger) copyAndHash(gameData []byte) error {
	h := vpx.NewHasher()

	version, err := m.src.ReadStream("GameStg/Version")
	if err != nil {
		return fmt.Errorf("%w: GameStg/Version", vpx.ErrMissingStream)
	}
	h.WriteRaw(version)
	m.dst.WriteStream("GameStg/Version", version)

	for _, name := range tableInfoHashed {
		data, ok := m.copyOptional("TableInfo/" + name)
		if ok {
			h.WriteRaw(data)
		}
	}
	m.copyOptional("TableInfo/TableSaveDate")
	m.copyOptional("TableInfo/TableSaveRev")

	if data, ok := m.copyOptional("TableInfo/Screenshot"); ok {
		if err := h.WriteRecords(data); err != nil {
			return fmt.Errorf("hash Screenshot: %w", err)
		}
	}

	if data, ok := m.copyOptional("GameStg/CustomInfoTags"); ok {
		if err := h.WriteRecords(data); err != nil {
			return fmt.Errorf("hash CustomInfoTags: %w", err)
		}
		if err := m.copyCustomInfo(h, data); err != nil {
			return err
		}
	}

	if err := h.WriteRecords(gameData); err != nil {
		return fmt.Errorf("hash GameData: %w", err)
	}
	m.dst.WriteStream("GameStg/GameData", gameData)

	if err := m.copyCategory("GameStg/Sound", nil); err != nil {
		return err
	}
	if err := m.copyCategory("GameStg/Font", nil); err != nil {
		return err
	}
	if err := m.copyCategory("GameStg/Collection", h); err != nil {
		return err
	}

	m.report.Digest = h.Sum()
	m.dst.WriteStream("GameStg/MAC", m.report.Digest)
	return nil
}

// copyOptional copies a stream when the source has it.
func (m *merger) copyOptional(path string) ([]byte, bool) {
	if !m.src.Exists(path) {
		return nil, false
	}
	data, err := m.src.ReadStream(path)
	if err != nil {
		return nil, false
	}
	m.dst.WriteStream(path, data)
	return data, true
}

// copyCategory copies an indexed stream family, hashing each member's
// records when h is non-nil.
func (m *merger) copyCategory(prefix string, h *vpx.Hasher) error {
	for index := 0; ; index++ {
		path := fmt.Sprintf("%s%d", prefix, index)
		if !m.src.Exists(path) {
			return nil
		}
		data, err := m.src.ReadStream(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if h != nil {
			if err := h.WriteRecords(data); err != nil {
				return fmt.Errorf("hash %s: %w", path, err)
			}
		}
		m.dst.WriteStream(path, data)
	}
}

// copyCustomInfo hashes and copies the per-tag info streams named by CUST
// records, immediately after the tag list itself.
func (m *merger) copyCustomInfo(h *vpx.Hasher, tags []byte) error {
	r := biff.NewReader(tags)
	for r.Next() {
		if r.Tag() == "CUST" {
			name := r.ReadString()
			if data, ok := m.copyOptional("TableInfo/" + name); ok {
				m.log.Debug("custom info block hashed", "name", name)
				h.WriteRaw(data)
			}
		}
		r.SkipRecord()
	}
	return r.Err()
}
