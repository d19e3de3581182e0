package vpx_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/klauspost/compress/zlib"

	"vpxmerge/internal/biff"
	"vpxmerge/internal/vpx"
)

func inflate(t *testing.T, data []byte) []byte {
	t.Helper()
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	return out
}

func TestDeduplicateCollapsesEqualVertices(t *testing.T) {
	v0 := vpx.Vertex{X: 0, Y: 0, Z: 0, NZ: 1}
	v1 := vpx.Vertex{X: 1, Y: 0, Z: 0, NZ: 1, U: 1}
	v2 := vpx.Vertex{X: 0, Y: 1, Z: 0, NZ: 1, V: 1}
	m := vpx.Mesh{
		// Two triangles sharing an edge, emitted with duplicated
		// vertices the way a per-face exporter produces them.
		Vertices: []vpx.Vertex{v0, v1, v2, v1, v2, v0},
		Indices:  []uint32{0, 1, 2, 3, 4, 5},
	}
	got := m.Deduplicate()
	if len(got.Vertices) != 3 {
		t.Fatalf("dedup kept %d vertices, want 3", len(got.Vertices))
	}
	want := []uint32{0, 1, 2, 1, 2, 0}
	for i, idx := range got.Indices {
		if idx != want[i] {
			t.Errorf("index %d = %d, want %d", i, idx, want[i])
		}
	}
}

func TestWriteMeshNarrowIndices(t *testing.T) {
	m := vpx.Mesh{
		Vertices: []vpx.Vertex{
			{X: 0, NZ: 1},
			{X: 1, NZ: 1, U: 1},
			{Y: 1, NZ: 1, V: 1},
		},
		Indices: []uint32{0, 1, 2},
	}
	w := biff.NewWriter()
	if err := vpx.WriteMesh(w, m); err != nil {
		t.Fatalf("WriteMesh: %v", err)
	}
	w.Close()

	r := biff.NewReader(w.Bytes())
	var vertexCount, indexCount uint32
	var vertexBuf, indexBuf []byte
	for r.Next() {
		switch r.Tag() {
		case "M3VN":
			vertexCount = r.ReadU32()
		case "M3CX":
			vertexBuf = inflate(t, r.RecordData(false))
			r.SkipRecord()
		case "M3FN":
			indexCount = r.ReadU32()
		case "M3CI":
			indexBuf = inflate(t, r.RecordData(false))
			r.SkipRecord()
		default:
			r.SkipRecord()
		}
	}
	if err := r.Err(); err != nil {
		t.Fatalf("read back: %v", err)
	}

	if vertexCount != 3 || indexCount != 3 {
		t.Fatalf("counts = %d vertices, %d indices, want 3 and 3", vertexCount, indexCount)
	}
	if len(vertexBuf) != 3*32 {
		t.Fatalf("vertex buffer is %d bytes, want %d", len(vertexBuf), 3*32)
	}
	// Second vertex starts at byte 32: X=1 then the rest of the tuple.
	if got := math.Float32frombits(binary.LittleEndian.Uint32(vertexBuf[32:])); got != 1 {
		t.Errorf("second vertex X = %v, want 1", got)
	}
	if len(indexBuf) != 3*2 {
		t.Fatalf("index buffer is %d bytes, want 6 (16-bit entries)", len(indexBuf))
	}
	for i, want := range []uint16{0, 1, 2} {
		if got := binary.LittleEndian.Uint16(indexBuf[i*2:]); got != want {
			t.Errorf("index %d = %d, want %d", i, got, want)
		}
	}
}

func TestWriteMeshWideIndices(t *testing.T) {
	n := 65536
	m := vpx.Mesh{
		Vertices: make([]vpx.Vertex, n),
		Indices:  make([]uint32, n),
	}
	for i := range m.Vertices {
		m.Vertices[i] = vpx.Vertex{U: float32(i), V: float32(i / 1024)}
		m.Indices[i] = uint32(i)
	}
	w := biff.NewWriter()
	if err := vpx.WriteMesh(w, m); err != nil {
		t.Fatalf("WriteMesh: %v", err)
	}
	w.Close()

	r := biff.NewReader(w.Bytes())
	var indexBuf []byte
	for r.Next() {
		if r.Tag() == "M3CI" {
			indexBuf = inflate(t, r.RecordData(false))
		}
		r.SkipRecord()
	}
	if err := r.Err(); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(indexBuf) != n*4 {
		t.Fatalf("index buffer is %d bytes, want %d (32-bit entries)", len(indexBuf), n*4)
	}
	if got := binary.LittleEndian.Uint32(indexBuf[(n-1)*4:]); got != uint32(n-1) {
		t.Errorf("last index = %d, want %d", got, n-1)
	}
}
