package cfb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
)

// File is an open container. All streams are resolved into memory on Open;
// the source file on disk is never mutated.
type File struct {
	streams map[string][]byte
	names   []string
}

type dirEntry struct {
	name    string
	objType byte
	left    uint32
	right   uint32
	child   uint32
	start   uint32
	size    uint64
}

// Open reads and parses the container at path. A missing file is reported
// as ErrNotFound.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read container: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*File, error) {
	if len(data) < headerSize || !bytes.Equal(data[:8], signature[:]) {
		return nil, fmt.Errorf("%w: bad signature", ErrCorruptContainer)
	}
	sectorShift := binary.LittleEndian.Uint16(data[30:])
	if sectorShift != 9 && sectorShift != 12 {
		return nil, fmt.Errorf("%w: sector shift %d", ErrCorruptContainer, sectorShift)
	}
	sectorSize := 1 << sectorShift
	numFatSectors := binary.LittleEndian.Uint32(data[44:])
	firstDirSector := binary.LittleEndian.Uint32(data[48:])
	firstMiniFat := binary.LittleEndian.Uint32(data[60:])
	firstDifat := binary.LittleEndian.Uint32(data[68:])
	numDifat := binary.LittleEndian.Uint32(data[72:])

	sector := func(n uint32) ([]byte, error) {
		off := (int(n) + 1) * sectorSize
		if n > maxRegSector || off+sectorSize > len(data) {
			return nil, fmt.Errorf("%w: sector %d out of range", ErrCorruptContainer, n)
		}
		return data[off : off+sectorSize], nil
	}

	// The DIFAT lists the FAT sectors: 109 entries in the header, the rest
	// in a chain of dedicated sectors.
	fatSectors := make([]uint32, 0, numFatSectors)
	for i := 0; i < 109; i++ {
		entry := binary.LittleEndian.Uint32(data[76+4*i:])
		if entry <= maxRegSector {
			fatSectors = append(fatSectors, entry)
		}
	}
	for next, seen := firstDifat, uint32(0); next <= maxRegSector; seen++ {
		if seen > numDifat+1 {
			return nil, fmt.Errorf("%w: DIFAT chain cycle", ErrCorruptContainer)
		}
		sec, err := sector(next)
		if err != nil {
			return nil, err
		}
		perSector := sectorSize/4 - 1
		for i := 0; i < perSector; i++ {
			entry := binary.LittleEndian.Uint32(sec[4*i:])
			if entry <= maxRegSector {
				fatSectors = append(fatSectors, entry)
			}
		}
		next = binary.LittleEndian.Uint32(sec[sectorSize-4:])
	}

	fat := make([]uint32, 0, len(fatSectors)*sectorSize/4)
	for _, n := range fatSectors {
		sec, err := sector(n)
		if err != nil {
			return nil, err
		}
		for i := 0; i < sectorSize/4; i++ {
			fat = append(fat, binary.LittleEndian.Uint32(sec[4*i:]))
		}
	}

	readChain := func(start uint32) ([]byte, error) {
		var out []byte
		for n, seen := start, 0; n <= maxRegSector; seen++ {
			if seen > len(fat) {
				return nil, fmt.Errorf("%w: FAT chain cycle at sector %d", ErrCorruptContainer, start)
			}
			sec, err := sector(n)
			if err != nil {
				return nil, err
			}
			out = append(out, sec...)
			if int(n) >= len(fat) {
				return nil, fmt.Errorf("%w: sector %d beyond FAT", ErrCorruptContainer, n)
			}
			n = fat[n]
		}
		return out, nil
	}

	dirData, err := readChain(firstDirSector)
	if err != nil {
		return nil, err
	}
	entries := make([]dirEntry, 0, len(dirData)/dirEntrySize)
	for off := 0; off+dirEntrySize <= len(dirData); off += dirEntrySize {
		e := dirData[off : off+dirEntrySize]
		nameLen := int(binary.LittleEndian.Uint16(e[64:]))
		var name string
		if nameLen >= 2 {
			if nameLen > 64 {
				nameLen = 64
			}
			name, err = decodeName(e[:nameLen-2])
			if err != nil {
				return nil, fmt.Errorf("%w: directory entry name: %v", ErrCorruptContainer, err)
			}
		}
		entries = append(entries, dirEntry{
			name:    name,
			objType: e[66],
			left:    binary.LittleEndian.Uint32(e[68:]),
			right:   binary.LittleEndian.Uint32(e[72:]),
			child:   binary.LittleEndian.Uint32(e[76:]),
			start:   binary.LittleEndian.Uint32(e[116:]),
			size:    binary.LittleEndian.Uint64(e[120:]),
		})
	}
	if len(entries) == 0 || entries[0].objType != typeRoot {
		return nil, fmt.Errorf("%w: missing root entry", ErrCorruptContainer)
	}

	miniFat := []uint32{}
	if firstMiniFat <= maxRegSector {
		miniData, err := readChain(firstMiniFat)
		if err != nil {
			return nil, err
		}
		for i := 0; i+4 <= len(miniData); i += 4 {
			miniFat = append(miniFat, binary.LittleEndian.Uint32(miniData[i:]))
		}
	}
	var miniStream []byte
	if entries[0].start <= maxRegSector {
		miniStream, err = readChain(entries[0].start)
		if err != nil {
			return nil, err
		}
	}

	readStream := func(e dirEntry) ([]byte, error) {
		size := int(e.size)
		if size == 0 {
			return []byte{}, nil
		}
		if size < miniCutoff {
			var out []byte
			for n, seen := e.start, 0; n <= maxRegSector; seen++ {
				if seen > len(miniFat) || int(n) >= len(miniFat) {
					return nil, fmt.Errorf("%w: mini FAT chain for %q", ErrCorruptContainer, e.name)
				}
				off := int(n) * miniSectorSize
				if off+miniSectorSize > len(miniStream) {
					return nil, fmt.Errorf("%w: mini sector %d for %q", ErrCorruptContainer, n, e.name)
				}
				out = append(out, miniStream[off:off+miniSectorSize]...)
				n = miniFat[n]
			}
			if len(out) < size {
				return nil, fmt.Errorf("%w: stream %q truncated", ErrCorruptContainer, e.name)
			}
			return out[:size], nil
		}
		out, err := readChain(e.start)
		if err != nil {
			return nil, err
		}
		if len(out) < size {
			return nil, fmt.Errorf("%w: stream %q truncated", ErrCorruptContainer, e.name)
		}
		return out[:size], nil
	}

	f := &File{streams: make(map[string][]byte)}

	// The directory is a tree: each storage points at a binary tree of its
	// children. Walk it fully, building slash-joined paths.
	visited := make(map[uint32]bool, len(entries))
	var walkTree func(id uint32, prefix string) error
	var walkNode func(id uint32, prefix string) error
	walkNode = func(id uint32, prefix string) error {
		if id == noStream {
			return nil
		}
		if int(id) >= len(entries) {
			return fmt.Errorf("%w: directory entry %d out of range", ErrCorruptContainer, id)
		}
		if visited[id] {
			return fmt.Errorf("%w: directory cycle at entry %d", ErrCorruptContainer, id)
		}
		visited[id] = true
		e := entries[id]
		if err := walkNode(e.left, prefix); err != nil {
			return err
		}
		path := e.name
		if prefix != "" {
			path = prefix + "/" + e.name
		}
		switch e.objType {
		case typeStream:
			data, err := readStream(e)
			if err != nil {
				return err
			}
			f.streams[path] = data
			f.names = append(f.names, path)
		case typeStorage:
			if err := walkTree(e.child, path); err != nil {
				return err
			}
		}
		return walkNode(e.right, prefix)
	}
	walkTree = func(id uint32, prefix string) error {
		return walkNode(id, prefix)
	}
	if err := walkTree(entries[0].child, ""); err != nil {
		return nil, err
	}
	sort.Strings(f.names)
	return f, nil
}

// Exists reports whether the container holds a stream at the given
// slash-joined path.
func (f *File) Exists(path string) bool {
	_, ok := f.streams[path]
	return ok
}

// ReadStream returns a copy of the stream bytes at path, or ErrNotFound.
func (f *File) ReadStream(path string) ([]byte, error) {
	data, ok := f.streams[path]
	if !ok {
		return nil, fmt.Errorf("%w: stream %s", ErrNotFound, path)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Streams returns the sorted slash-joined paths of all streams.
func (f *File) Streams() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Close releases the file. Present for symmetry with other stores; the
// parsed container lives in memory.
func (f *File) Close() error {
	f.streams = nil
	f.names = nil
	return nil
}
