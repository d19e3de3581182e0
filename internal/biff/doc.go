// Package biff reads and writes the tagged-record streams stored inside
// compound table files.
//
// A stream is a sequence of records, each a little-endian u32 size (counting
// the 4-byte tag plus payload), a 4-character ASCII tag, and the payload. The
// record with tag "ENDB" terminates the sequence. Payload shapes depend only
// on the tag, so unknown tags are always skippable. The one format quirk is
// the "CODE" record: its declared size covers only the tag, and the payload
// is a self-prefixed string that lives outside the declared size.
//
// The Reader supports sequential decoding, typed accessors, bounded child
// readers for nested record sequences, and in-place byte insertion and
// deletion so a stream can be patched without re-encoding records that are
// not being changed. The Writer produces records byte-identical in encoding
// to what the Reader expects.
package biff
