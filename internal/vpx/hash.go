package vpx

import (
	"hash"

	"vpxmerge/internal/biff"
	"vpxmerge/internal/md2"
)

// hashSeed is the fixed constant the format feeds into the digest before
// any stream content.
const hashSeed = "Visual Pinball"

// Hasher accumulates the integrity digest written as the trailing MAC
// stream. Streams must be fed in the fixed, format-defined order; the
// consuming application recomputes the digest on load and rejects files
// whose MAC does not match.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns a Hasher seeded per the format.
func NewHasher() *Hasher {
	h := md2.New()
	h.Write([]byte(hashSeed))
	return &Hasher{h: h}
}

// WriteRaw feeds the full content of an unstructured stream.
func (h *Hasher) WriteRaw(data []byte) {
	h.h.Write(data)
}

// WriteRecords feeds a record-structured stream: for each record, the tag
// and payload bytes without the u32 size prefix, terminator included. The
// script record is special-cased: its self-prefixed length is excluded, so
// only the tag and the script bytes are fed.
func (h *Hasher) WriteRecords(data []byte) error {
	r := biff.NewReader(data)
	for r.Next() {
		if r.Tag() == "CODE" {
			h.h.Write([]byte("CODE"))
			n := int(r.ReadU32())
			h.h.Write(r.ReadBytes(n))
		} else {
			h.h.Write(r.RecordData(true))
			r.SkipRecord()
		}
	}
	return r.Err()
}

// Sum returns the 16-byte digest.
func (h *Hasher) Sum() []byte {
	return h.h.Sum(nil)
}
