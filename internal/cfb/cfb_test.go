package cfb_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"vpxmerge/internal/cfb"
)

func commitAndOpen(t *testing.T, b *cfb.Builder, path string) *cfb.File {
	t.Helper()
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	f, err := cfb.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.vpx")
	b := cfb.NewBuilder(path)

	small := []byte("small stream content")
	big := bytes.Repeat([]byte{0xAB, 0xCD}, 5000) // above the mini cutoff
	var empty []byte

	b.WriteStream("GameStg/Version", small)
	b.WriteStream("GameStg/GameData", big)
	b.WriteStream("TableInfo/TableName", []byte("T\x00a\x00b\x00"))
	b.WriteStream("TableInfo/TableBlurb", empty)

	f := commitAndOpen(t, b, path)
	for name, want := range map[string][]byte{
		"GameStg/Version":      small,
		"GameStg/GameData":     big,
		"TableInfo/TableName":  []byte("T\x00a\x00b\x00"),
		"TableInfo/TableBlurb": {},
	} {
		got, err := f.ReadStream(name)
		if err != nil {
			t.Fatalf("ReadStream(%s): %v", name, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("stream %s: got %d bytes, want %d", name, len(got), len(want))
		}
	}
}

func TestIndexedProbing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.vpx")
	b := cfb.NewBuilder(path)
	for i := 0; i < 12; i++ {
		b.WriteStream(fmt.Sprintf("GameStg/GameItem%d", i), []byte{byte(i)})
	}
	f := commitAndOpen(t, b, path)

	count := 0
	for f.Exists(fmt.Sprintf("GameStg/GameItem%d", count)) {
		count++
	}
	if count != 12 {
		t.Fatalf("probed %d items, want 12", count)
	}
	if f.Exists("GameStg/GameItem12") {
		t.Fatal("probe past the last index should fail")
	}
}

func TestManyStreamsNeedDIFAT(t *testing.T) {
	if testing.Short() {
		t.Skip("large container assembly")
	}
	path := filepath.Join(t.TempDir(), "big.vpx")
	b := cfb.NewBuilder(path)
	// Enough data that the FAT no longer fits in the header's 109 DIFAT
	// entries (109 FAT sectors cover about 7 MiB).
	payload := bytes.Repeat([]byte{0x5A}, 1<<20)
	for i := 0; i < 9; i++ {
		b.WriteStream(fmt.Sprintf("GameStg/Image%d", i), payload)
	}
	f := commitAndOpen(t, b, path)
	for i := 0; i < 9; i++ {
		got, err := f.ReadStream(fmt.Sprintf("GameStg/Image%d", i))
		if err != nil {
			t.Fatalf("ReadStream(Image%d): %v", i, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("Image%d content mismatch", i)
		}
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := cfb.Open(filepath.Join(t.TempDir(), "absent.vpx"))
	if !errors.Is(err, cfb.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOpenGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.vpx")
	if err := os.WriteFile(path, bytes.Repeat([]byte{1}, 1024), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := cfb.Open(path)
	if !errors.Is(err, cfb.ErrCorruptContainer) {
		t.Fatalf("err = %v, want ErrCorruptContainer", err)
	}
}

func TestMissingStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.vpx")
	b := cfb.NewBuilder(path)
	b.WriteStream("GameStg/Version", []byte{1, 0, 0, 0})
	f := commitAndOpen(t, b, path)

	_, err := f.ReadStream("GameStg/GameData")
	if !errors.Is(err, cfb.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCommitLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.vpx")
	b := cfb.NewBuilder(path)
	b.WriteStream("GameStg/Version", []byte{1, 2, 3, 4})
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.vpx" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
