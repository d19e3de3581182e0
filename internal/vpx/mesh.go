package vpx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zlib"

	"vpxmerge/internal/biff"
)

// Vertex is one mesh vertex: position, normal, and one UV set.
type Vertex struct {
	X, Y, Z    float32
	NX, NY, NZ float32
	U, V       float32
}

// Mesh is a triangulated mesh. Indices reference Vertices in groups of
// three.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// wideIndexThreshold is the vertex count at which index buffers switch from
// 16-bit to 32-bit entries.
const wideIndexThreshold = 65536

// Deduplicate returns a mesh with vertices collapsed by exact attribute
// tuple, indices remapped accordingly.
func (m Mesh) Deduplicate() Mesh {
	seen := make(map[Vertex]uint32, len(m.Vertices))
	out := Mesh{
		Vertices: make([]Vertex, 0, len(m.Vertices)),
		Indices:  make([]uint32, 0, len(m.Indices)),
	}
	for _, idx := range m.Indices {
		v := m.Vertices[idx]
		mapped, ok := seen[v]
		if !ok {
			mapped = uint32(len(out.Vertices))
			seen[v] = mapped
			out.Vertices = append(out.Vertices, v)
		}
		out.Indices = append(out.Indices, mapped)
	}
	return out
}

// WriteMesh emits the mesh records of a primitive item: vertex count,
// deflate-compressed interleaved vertex buffer, index count, and
// deflate-compressed index buffer. Vertices are deduplicated first; the
// index width is 16-bit below the wide-index threshold and 32-bit at or
// above it.
func WriteMesh(w *biff.Writer, m Mesh) error {
	m = m.Deduplicate()

	vertexBuf := make([]byte, 0, len(m.Vertices)*32)
	for _, v := range m.Vertices {
		for _, f := range [8]float32{v.X, v.Y, v.Z, v.NX, v.NY, v.NZ, v.U, v.V} {
			vertexBuf = binary.LittleEndian.AppendUint32(vertexBuf, math.Float32bits(f))
		}
	}
	compressedVertices, err := deflate(vertexBuf)
	if err != nil {
		return fmt.Errorf("compress vertex buffer: %w", err)
	}
	w.WriteTaggedU32("M3VN", uint32(len(m.Vertices)))
	w.WriteTaggedU32("M3CY", uint32(len(compressedVertices)))
	w.WriteTaggedBytes("M3CX", compressedVertices)

	var indexBuf []byte
	if len(m.Vertices) < wideIndexThreshold {
		indexBuf = make([]byte, 0, len(m.Indices)*2)
		for _, idx := range m.Indices {
			indexBuf = binary.LittleEndian.AppendUint16(indexBuf, uint16(idx))
		}
	} else {
		indexBuf = make([]byte, 0, len(m.Indices)*4)
		for _, idx := range m.Indices {
			indexBuf = binary.LittleEndian.AppendUint32(indexBuf, idx)
		}
	}
	compressedIndices, err := deflate(indexBuf)
	if err != nil {
		return fmt.Errorf("compress index buffer: %w", err)
	}
	w.WriteTaggedU32("M3FN", uint32(len(m.Indices)))
	w.WriteTaggedU32("M3CJ", uint32(len(compressedIndices)))
	w.WriteTaggedBytes("M3CI", compressedIndices)
	return nil
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
