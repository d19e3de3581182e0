package biff

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer builds a tagged-record stream. Records opened with Begin stay open
// for manual payload assembly until the next Begin, EndRecord, Close, or
// Bytes call, at which point the size prefix is backpatched.
type Writer struct {
	buf      []byte
	recStart int // offset of the open record's size prefix
	open     bool
	err      error
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Err returns the first encoding error encountered, if any.
func (w *Writer) Err() error { return w.err }

// Begin opens a record with the given 4-character tag.
func (w *Writer) Begin(tag string) {
	w.EndRecord()
	if len(tag) != 4 {
		w.fail(fmt.Errorf("tag %q is not 4 characters", tag))
		return
	}
	w.recStart = len(w.buf)
	w.buf = append(w.buf, 0, 0, 0, 0)
	w.buf = append(w.buf, tag...)
	w.open = true
}

// EndRecord closes the open record, if any, backpatching its size prefix.
func (w *Writer) EndRecord() {
	if !w.open {
		return
	}
	size := len(w.buf) - w.recStart - 4
	binary.LittleEndian.PutUint32(w.buf[w.recStart:], uint32(size))
	w.open = false
}

// Close finishes the stream with a terminating ENDB record.
func (w *Writer) Close() {
	w.Begin("ENDB")
	w.EndRecord()
}

// Bytes closes any open record and returns the encoded stream.
func (w *Writer) Bytes() []byte {
	w.EndRecord()
	return w.buf
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// WriteU8 appends a raw byte.
func (w *Writer) WriteU8(v uint8) { w.buf = append(w.buf, v) }

// WriteU16 appends a little-endian u16.
func (w *Writer) WriteU16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteU32 appends a little-endian u32.
func (w *Writer) WriteU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteI32 appends a little-endian signed 32-bit integer.
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

// WriteBool appends a u32 boolean.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU32(1)
	} else {
		w.WriteU32(0)
	}
}

// WriteFloat32 appends a little-endian IEEE-754 single.
func (w *Writer) WriteFloat32(v float32) { w.WriteU32(math.Float32bits(v)) }

// WriteFloat64 appends a little-endian IEEE-754 double.
func (w *Writer) WriteFloat64(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// WriteColor appends a packed 24-bit RGB color as a u32.
func (w *Writer) WriteColor(v uint32) { w.WriteU32(v & 0x00FFFFFF) }

// WriteString appends a length-prefixed byte string.
func (w *Writer) WriteString(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteFixedString appends s padded with NULs to exactly n bytes.
func (w *Writer) WriteFixedString(s string, n int) {
	if len(s) > n {
		w.fail(fmt.Errorf("fixed string %q longer than %d bytes", s, n))
		s = s[:n]
	}
	w.buf = append(w.buf, s...)
	for i := len(s); i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// WriteWideString appends a length-prefixed double-byte string.
func (w *Writer) WriteWideString(s string) {
	b, err := encodeWide(s)
	if err != nil {
		w.fail(fmt.Errorf("encode wide string %q: %w", s, err))
		b = nil
	}
	w.WriteU32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteBytes appends raw bytes, either into the open record's payload or,
// with no record open, directly into the stream.
func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// Tagged convenience helpers, each emitting one complete record.

func (w *Writer) WriteTaggedU32(tag string, v uint32) {
	w.Begin(tag)
	w.WriteU32(v)
	w.EndRecord()
}

func (w *Writer) WriteTaggedI32(tag string, v int32) {
	w.Begin(tag)
	w.WriteI32(v)
	w.EndRecord()
}

func (w *Writer) WriteTaggedBool(tag string, v bool) {
	w.Begin(tag)
	w.WriteBool(v)
	w.EndRecord()
}

func (w *Writer) WriteTaggedFloat32(tag string, v float32) {
	w.Begin(tag)
	w.WriteFloat32(v)
	w.EndRecord()
}

func (w *Writer) WriteTaggedColor(tag string, v uint32) {
	w.Begin(tag)
	w.WriteColor(v)
	w.EndRecord()
}

func (w *Writer) WriteTaggedString(tag, s string) {
	w.Begin(tag)
	w.WriteString(s)
	w.EndRecord()
}

func (w *Writer) WriteTaggedWideString(tag, s string) {
	w.Begin(tag)
	w.WriteWideString(s)
	w.EndRecord()
}

func (w *Writer) WriteTaggedBytes(tag string, b []byte) {
	w.Begin(tag)
	w.WriteBytes(b)
	w.EndRecord()
}

// WriteTaggedEmpty emits a record with no payload.
func (w *Writer) WriteTaggedEmpty(tag string) {
	w.Begin(tag)
	w.EndRecord()
}

// WriteTaggedVec2 emits two floats.
func (w *Writer) WriteTaggedVec2(tag string, x, y float32) {
	w.Begin(tag)
	w.WriteFloat32(x)
	w.WriteFloat32(y)
	w.EndRecord()
}

// WriteTaggedPaddedVector emits three floats followed by 4 bytes of padding,
// the on-disk layout of a 3-component vector.
func (w *Writer) WriteTaggedPaddedVector(tag string, x, y, z float32) {
	w.Begin(tag)
	w.WriteFloat32(x)
	w.WriteFloat32(y)
	w.WriteFloat32(z)
	w.WriteU32(0)
	w.EndRecord()
}
