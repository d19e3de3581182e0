package vpx_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"vpxmerge/internal/biff"
	"vpxmerge/internal/md2"
	"vpxmerge/internal/vpx"
)

func seededDigest(t *testing.T, chunks ...[]byte) []byte {
	t.Helper()
	h := md2.New()
	h.Write([]byte("Visual Pinball"))
	for _, c := range chunks {
		h.Write(c)
	}
	return h.Sum(nil)
}

func TestWriteRecordsHashesTagAndPayload(t *testing.T) {
	w := biff.NewWriter()
	w.WriteTaggedString("NAME", "Bumper1")
	w.WriteTaggedU32("WDTH", 952)
	w.Close()

	var name []byte
	name = append(name, "NAME"...)
	name = binary.LittleEndian.AppendUint32(name, 7)
	name = append(name, "Bumper1"...)
	var width []byte
	width = append(width, "WDTH"...)
	width = binary.LittleEndian.AppendUint32(width, 952)
	want := seededDigest(t, name, width, []byte("ENDB"))

	h := vpx.NewHasher()
	if err := h.WriteRecords(w.Bytes()); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}
	if got := h.Sum(); !bytes.Equal(got, want) {
		t.Errorf("digest = %x, want %x", got, want)
	}
}

func TestWriteRecordsExcludesScriptLength(t *testing.T) {
	script := "Option Explicit\r\n"

	// The script record declares size 4 and carries a self-prefixed
	// length outside the declared payload.
	var stream []byte
	stream = binary.LittleEndian.AppendUint32(stream, 4)
	stream = append(stream, "CODE"...)
	stream = binary.LittleEndian.AppendUint32(stream, uint32(len(script)))
	stream = append(stream, script...)
	stream = binary.LittleEndian.AppendUint32(stream, 4)
	stream = append(stream, "ENDB"...)

	want := seededDigest(t, []byte("CODE"), []byte(script), []byte("ENDB"))

	h := vpx.NewHasher()
	if err := h.WriteRecords(stream); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}
	if got := h.Sum(); !bytes.Equal(got, want) {
		t.Errorf("digest = %x, want %x", got, want)
	}
}

func TestWriteRawAndRecordsCompose(t *testing.T) {
	w := biff.NewWriter()
	w.WriteTaggedU32("SIMG", 3)
	w.Close()
	records := w.Bytes()

	var simg []byte
	simg = append(simg, "SIMG"...)
	simg = binary.LittleEndian.AppendUint32(simg, 3)
	want := seededDigest(t, []byte("1060"), simg, []byte("ENDB"))

	h := vpx.NewHasher()
	h.WriteRaw([]byte("1060"))
	if err := h.WriteRecords(records); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}
	if got := h.Sum(); !bytes.Equal(got, want) {
		t.Errorf("digest = %x, want %x", got, want)
	}
}
