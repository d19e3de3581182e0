package biff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrCorruptRecord reports a declared length that would read past the end of
// the stream, or a payload accessor that ran out of bytes.
var ErrCorruptRecord = errors.New("corrupt record")

// codeTag is the automation-script record. Its declared size covers only the
// tag; the script string follows self-prefixed.
const codeTag = "CODE"

// Reader decodes a tagged-record stream. It follows the scanner idiom: typed
// accessors return zero values once an error has occurred, and Err reports
// the first failure. Byte positions are logical offsets into the stream and
// stay valid across InsertBytes/DeleteBytes for anything before the edit.
type Reader struct {
	data     []byte
	pos      int
	tag      string
	tagStart int // offset of the current record's payload
	tagSize  int // declared size: tag plus payload
	err      error
}

// NewReader returns a Reader over data. The Reader takes ownership of the
// slice; mutation methods splice it in place.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Next advances to the next record. It returns false at the end of the
// stream, after an ENDB record, or on error.
func (r *Reader) Next() bool {
	if r.err != nil || r.EOF() {
		return false
	}
	size := int(r.ReadU32())
	if r.err != nil {
		return false
	}
	if size < 4 {
		r.fail(fmt.Errorf("record size %d at offset %d", size, r.pos-4))
		return false
	}
	tag := r.read(4)
	if r.err != nil {
		return false
	}
	r.tag = string(tag)
	r.tagStart = r.pos
	r.tagSize = size
	if r.tag != codeTag && r.tagStart+size-4 > len(r.data) {
		r.fail(fmt.Errorf("record %s declares %d payload bytes at offset %d, stream has %d", r.tag, size-4, r.tagStart, len(r.data)-r.tagStart))
		return false
	}
	return true
}

// Tag returns the 4-character tag of the current record.
func (r *Reader) Tag() string { return r.tag }

// EOF reports whether the stream is exhausted or terminated by ENDB.
func (r *Reader) EOF() bool { return r.pos >= len(r.data) || r.tag == "ENDB" }

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Pos returns the current byte position.
func (r *Reader) Pos() int { return r.pos }

// SeekTo moves the current byte position to p.
func (r *Reader) SeekTo(p int) {
	if r.err != nil {
		return
	}
	if p < 0 || p > len(r.data) {
		r.fail(fmt.Errorf("seek to %d outside stream of %d bytes", p, len(r.data)))
		return
	}
	r.pos = p
}

// Skip moves the position by n bytes (n may be negative).
func (r *Reader) Skip(n int) { r.SeekTo(r.pos + n) }

// SkipRecord advances past the remaining payload of the current record.
// It is safe to call after partially (or fully) consuming the payload.
func (r *Reader) SkipRecord() {
	if r.err != nil {
		return
	}
	if r.tag == codeTag {
		r.SeekTo(r.tagStart)
		n := int(r.ReadU32())
		r.Skip(n)
		return
	}
	r.SeekTo(r.tagStart + r.tagSize - 4)
}

// RecordData returns the current record's bytes, excluding the size prefix.
// With withTag the tag bytes are included, which is the exact byte sequence
// the integrity digest consumes per record.
func (r *Reader) RecordData(withTag bool) []byte {
	if r.err != nil {
		return nil
	}
	start := r.tagStart
	if withTag {
		start -= 4
	}
	end := r.tagStart + r.tagSize - 4
	return r.data[start:end]
}

// Child returns a bounded reader over the bytes from the current position to
// the end of the stream, for tags whose payload is itself a nested record
// sequence. The child is a read-only view; after consuming it, advance the
// parent with Skip(child.Pos()).
func (r *Reader) Child() *Reader {
	return NewReader(r.data[r.pos:])
}

// Bytes returns the full stream, reflecting any in-place edits.
func (r *Reader) Bytes() []byte { return r.data }

// Len returns the current stream length in bytes.
func (r *Reader) Len() int { return len(r.data) }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
}

func (r *Reader) read(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail(fmt.Errorf("need %d bytes at offset %d, have %d", n, r.pos, len(r.data)-r.pos))
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// ReadU8 reads an unsigned byte.
func (r *Reader) ReadU8() uint8 {
	b := r.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadU16 reads a little-endian u16.
func (r *Reader) ReadU16() uint16 {
	b := r.read(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// ReadU32 reads a little-endian u32.
func (r *Reader) ReadU32() uint32 {
	b := r.read(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadI32 reads a little-endian signed 32-bit integer.
func (r *Reader) ReadI32() int32 { return int32(r.ReadU32()) }

// ReadBool reads a u32 and reports whether it is nonzero.
func (r *Reader) ReadBool() bool { return r.ReadU32() != 0 }

// ReadFloat32 reads a little-endian IEEE-754 single.
func (r *Reader) ReadFloat32() float32 { return math.Float32frombits(r.ReadU32()) }

// ReadFloat64 reads a little-endian IEEE-754 double.
func (r *Reader) ReadFloat64() float64 {
	b := r.read(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// ReadColor reads a packed 24-bit RGB color stored in a u32.
func (r *Reader) ReadColor() uint32 { return r.ReadU32() & 0x00FFFFFF }

// ReadBytes reads n raw payload bytes.
func (r *Reader) ReadBytes(n int) []byte { return r.read(n) }

// ReadString reads a length-prefixed byte string.
func (r *Reader) ReadString() string {
	n := int(r.ReadU32())
	b := r.read(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// ReadFixedString reads n bytes and strips trailing NUL padding.
func (r *Reader) ReadFixedString(n int) string {
	b := r.read(n)
	if b == nil {
		return ""
	}
	return strings.TrimRight(string(b), "\x00")
}

// ReadWideString reads a length-prefixed double-byte string.
func (r *Reader) ReadWideString() string {
	n := int(r.ReadU32())
	b := r.read(n)
	if b == nil {
		return ""
	}
	s, err := decodeWide(b)
	if err != nil {
		r.fail(fmt.Errorf("wide string at offset %d: %v", r.pos-n, err))
		return ""
	}
	return s
}

// PutU32 overwrites 4 bytes at the current position with a little-endian
// u32 and advances past them.
func (r *Reader) PutU32(v uint32) {
	b := r.read(4)
	if b == nil {
		return
	}
	binary.LittleEndian.PutUint32(b, v)
}

// PutBool overwrites a u32 boolean at the current position.
func (r *Reader) PutBool(v bool) {
	if v {
		r.PutU32(1)
	} else {
		r.PutU32(0)
	}
}

// PutFloat32 overwrites an IEEE-754 single at the current position.
func (r *Reader) PutFloat32(v float32) { r.PutU32(math.Float32bits(v)) }

// InsertBytes splices b into the stream at the current position and advances
// past it. Positions before the insertion point are unaffected; positions at
// or after it shift by len(b).
func (r *Reader) InsertBytes(b []byte) {
	if r.err != nil {
		return
	}
	out := make([]byte, 0, len(r.data)+len(b))
	out = append(out, r.data[:r.pos]...)
	out = append(out, b...)
	out = append(out, r.data[r.pos:]...)
	r.data = out
	r.pos += len(b)
}

// DeleteBytes removes n bytes at the current position. Positions after the
// deleted range shift back by n.
func (r *Reader) DeleteBytes(n int) {
	if r.err != nil {
		return
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail(fmt.Errorf("delete %d bytes at offset %d, have %d", n, r.pos, len(r.data)-r.pos))
		return
	}
	r.data = append(r.data[:r.pos], r.data[r.pos+n:]...)
}

// DeleteRecord removes the current record entirely, including its size
// prefix, and leaves the position at the record's former start so a
// replacement can be inserted in place.
func (r *Reader) DeleteRecord() {
	if r.err != nil {
		return
	}
	start := r.tagStart - 8
	end := r.tagStart + r.tagSize - 4
	r.data = append(r.data[:start], r.data[end:]...)
	r.pos = start
}
