package cfb

import (
	"errors"

	"golang.org/x/text/encoding/unicode"
)

// ErrNotFound reports a missing source file or a stream absent from the
// container.
var ErrNotFound = errors.New("not found")

// ErrCorruptContainer reports a malformed header, allocation table, or
// directory.
var ErrCorruptContainer = errors.New("corrupt container")

var signature = [8]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const (
	headerSize     = 512
	dirEntrySize   = 128
	miniSectorSize = 64
	miniCutoff     = 4096

	maxRegSector = 0xFFFFFFFA
	difatSector  = 0xFFFFFFFC
	fatSector    = 0xFFFFFFFD
	endOfChain   = 0xFFFFFFFE
	freeSector   = 0xFFFFFFFF
	noStream     = 0xFFFFFFFF
)

// Directory entry object types.
const (
	typeStorage = 1
	typeStream  = 2
	typeRoot    = 5
)

// utf16le encodes and decodes directory entry names.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func decodeName(b []byte) (string, error) {
	s, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func encodeName(s string) ([]byte, error) {
	return utf16le.NewEncoder().Bytes([]byte(s))
}
