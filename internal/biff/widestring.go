package biff

import (
	"golang.org/x/text/encoding/unicode"
)

// wideCodec is the double-byte string encoding used by the table format:
// UTF-16 little-endian with no byte order mark.
var wideCodec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func encodeWide(s string) ([]byte, error) {
	return wideCodec.NewEncoder().Bytes([]byte(s))
}

func decodeWide(b []byte) (string, error) {
	out, err := wideCodec.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
