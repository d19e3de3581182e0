package cfb

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"vpxmerge/internal/fileutil"
)

const sectorSize = 512 // the writer always emits version 3 containers

// Builder stages storages and streams for a new container. Nothing touches
// the filesystem until Commit.
type Builder struct {
	path     string
	storages []string
	streams  []*builderStream
	index    map[string]*builderStream
}

type builderStream struct {
	storage string
	name    string
	data    []byte

	dirID uint32
	start uint32
}

// NewBuilder returns a Builder that will commit to path.
func NewBuilder(path string) *Builder {
	return &Builder{path: path, index: make(map[string]*builderStream)}
}

// CreateStorage declares a storage under the root. Creating the same
// storage twice is a no-op.
func (b *Builder) CreateStorage(name string) {
	for _, s := range b.storages {
		if s == name {
			return
		}
	}
	b.storages = append(b.storages, name)
}

// WriteStream stages stream bytes at a slash-joined path, creating the
// parent storage as needed. Writing an existing path replaces its content.
func (b *Builder) WriteStream(path string, data []byte) {
	storage, name := "", path
	if i := strings.IndexByte(path, '/'); i >= 0 {
		storage, name = path[:i], path[i+1:]
		b.CreateStorage(storage)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	if existing, ok := b.index[path]; ok {
		existing.data = buf
		return
	}
	s := &builderStream{storage: storage, name: name, data: buf}
	b.streams = append(b.streams, s)
	b.index[path] = s
}

// Commit assembles the container and writes it to the destination path via
// a temporary sibling file and an atomic rename.
func (b *Builder) Commit() error {
	data, err := b.assemble()
	if err != nil {
		return fmt.Errorf("assemble container: %w", err)
	}
	if err := fileutil.WriteFileAtomic(b.path, data, 0o644); err != nil {
		return fmt.Errorf("commit container: %w", err)
	}
	return nil
}

type dirSlot struct {
	name    string
	objType byte
	left    uint32
	right   uint32
	child   uint32
	start   uint32
	size    uint64
}

func (b *Builder) assemble() ([]byte, error) {
	// Directory IDs: root first, then storages, then streams, all in
	// creation order. Sibling trees are linked afterwards.
	slots := []dirSlot{{name: "Root Entry", objType: typeRoot, left: noStream, right: noStream, child: noStream, start: endOfChain}}
	storageID := make(map[string]uint32)
	for _, name := range b.storages {
		storageID[name] = uint32(len(slots))
		slots = append(slots, dirSlot{name: name, objType: typeStorage, left: noStream, right: noStream, child: noStream})
	}
	for _, s := range b.streams {
		s.dirID = uint32(len(slots))
		slots = append(slots, dirSlot{name: s.name, objType: typeStream, left: noStream, right: noStream, child: noStream, start: endOfChain, size: uint64(len(s.data))})
	}

	// Mini stream: streams below the cutoff live in 64-byte sectors inside
	// the root entry's stream, chained through the mini FAT.
	var miniStream []byte
	var miniFat []uint32
	for _, s := range b.streams {
		if len(s.data) == 0 || len(s.data) >= miniCutoff {
			continue
		}
		sectors := (len(s.data) + miniSectorSize - 1) / miniSectorSize
		s.start = uint32(len(miniFat))
		for i := 1; i < sectors; i++ {
			miniFat = append(miniFat, uint32(len(miniFat))+1)
		}
		miniFat = append(miniFat, endOfChain)
		miniStream = append(miniStream, s.data...)
		if pad := sectors*miniSectorSize - len(s.data); pad > 0 {
			miniStream = append(miniStream, make([]byte, pad)...)
		}
	}

	sectorsFor := func(n int) int { return (n + sectorSize - 1) / sectorSize }
	bigSectors := 0
	for _, s := range b.streams {
		if len(s.data) >= miniCutoff {
			bigSectors += sectorsFor(len(s.data))
		}
	}
	miniStreamSectors := sectorsFor(len(miniStream))
	miniFatSectors := sectorsFor(len(miniFat) * 4)
	dirSectors := sectorsFor(len(slots) * dirEntrySize)

	// FAT and DIFAT sector counts depend on the total sector count, which
	// includes themselves. Iterate to a fixpoint.
	base := bigSectors + miniStreamSectors + miniFatSectors + dirSectors
	numFat, numDifat := 0, 0
	for {
		total := base + numFat + numDifat
		wantFat := (total + sectorSize/4 - 1) / (sectorSize / 4)
		wantDifat := 0
		if wantFat > 109 {
			wantDifat = (wantFat - 109 + sectorSize/4 - 2) / (sectorSize/4 - 1)
		}
		if wantFat == numFat && wantDifat == numDifat {
			break
		}
		numFat, numDifat = wantFat, wantDifat
	}
	totalSectors := base + numFat + numDifat

	// Assign sector numbers: big stream data, mini stream, mini FAT,
	// directory, FAT, DIFAT.
	next := uint32(0)
	take := func(n int) uint32 {
		first := next
		next += uint32(n)
		return first
	}
	for _, s := range b.streams {
		if len(s.data) >= miniCutoff {
			s.start = take(sectorsFor(len(s.data)))
		}
	}
	miniStreamStart := take(miniStreamSectors)
	miniFatStart := take(miniFatSectors)
	dirStart := take(dirSectors)
	fatStart := take(numFat)
	difatStart := take(numDifat)

	fat := make([]uint32, totalSectors)
	chain := func(start uint32, sectors int) {
		for i := 0; i < sectors-1; i++ {
			fat[start+uint32(i)] = start + uint32(i) + 1
		}
		if sectors > 0 {
			fat[start+uint32(sectors)-1] = endOfChain
		}
	}
	for _, s := range b.streams {
		if len(s.data) >= miniCutoff {
			chain(s.start, sectorsFor(len(s.data)))
		}
	}
	chain(miniStreamStart, miniStreamSectors)
	chain(miniFatStart, miniFatSectors)
	chain(dirStart, dirSectors)
	for i := 0; i < numFat; i++ {
		fat[fatStart+uint32(i)] = fatSector
	}
	for i := 0; i < numDifat; i++ {
		fat[difatStart+uint32(i)] = difatSector
	}

	// Fill in directory slots.
	if miniStreamSectors > 0 {
		slots[0].start = miniStreamStart
		slots[0].size = uint64(len(miniStream))
	}
	for _, s := range b.streams {
		if len(s.data) == 0 {
			slots[s.dirID].start = endOfChain
		} else {
			slots[s.dirID].start = s.start
		}
	}
	rootChildren := []uint32{}
	for _, name := range b.storages {
		rootChildren = append(rootChildren, storageID[name])
	}
	childrenOf := make(map[uint32][]uint32)
	for _, s := range b.streams {
		if s.storage == "" {
			rootChildren = append(rootChildren, s.dirID)
		} else {
			id := storageID[s.storage]
			childrenOf[id] = append(childrenOf[id], s.dirID)
		}
	}
	slots[0].child = linkSiblings(slots, rootChildren)
	for _, name := range b.storages {
		id := storageID[name]
		slots[id].child = linkSiblings(slots, childrenOf[id])
	}

	// Serialize.
	out := make([]byte, 0, headerSize+totalSectors*sectorSize)
	out = append(out, b.header(numFat, dirStart, miniFatStart, miniFatSectors, fatStart, difatStart, numDifat)...)
	pad := func(buf []byte) []byte {
		if rem := len(buf) % sectorSize; rem != 0 {
			buf = append(buf, make([]byte, sectorSize-rem)...)
		}
		return buf
	}
	for _, s := range b.streams {
		if len(s.data) >= miniCutoff {
			out = append(out, pad(append([]byte(nil), s.data...))...)
		}
	}
	out = append(out, pad(append([]byte(nil), miniStream...))...)
	miniFatBuf := make([]byte, 0, len(miniFat)*4)
	for _, v := range miniFat {
		miniFatBuf = binary.LittleEndian.AppendUint32(miniFatBuf, v)
	}
	out = append(out, pad(miniFatBuf)...)
	dirBuf := make([]byte, 0, len(slots)*dirEntrySize)
	for _, slot := range slots {
		enc, err := encodeDirEntry(slot)
		if err != nil {
			return nil, err
		}
		dirBuf = append(dirBuf, enc...)
	}
	out = append(out, pad(dirBuf)...)
	fatBuf := make([]byte, 0, len(fat)*4)
	for _, v := range fat {
		fatBuf = binary.LittleEndian.AppendUint32(fatBuf, v)
	}
	for len(fatBuf) < numFat*sectorSize {
		fatBuf = binary.LittleEndian.AppendUint32(fatBuf, freeSector)
	}
	out = append(out, fatBuf...)
	out = append(out, b.difatSectors(numFat, fatStart, difatStart, numDifat)...)
	return out, nil
}

func (b *Builder) header(numFat int, dirStart, miniFatStart uint32, miniFatSectors int, fatStart, difatStart uint32, numDifat int) []byte {
	h := make([]byte, headerSize)
	copy(h, signature[:])
	binary.LittleEndian.PutUint16(h[24:], 0x003E) // minor version
	binary.LittleEndian.PutUint16(h[26:], 3)      // major version
	binary.LittleEndian.PutUint16(h[28:], 0xFFFE) // byte order
	binary.LittleEndian.PutUint16(h[30:], 9)      // sector shift
	binary.LittleEndian.PutUint16(h[32:], 6)      // mini sector shift
	binary.LittleEndian.PutUint32(h[44:], uint32(numFat))
	binary.LittleEndian.PutUint32(h[48:], dirStart)
	if miniFatSectors > 0 {
		binary.LittleEndian.PutUint32(h[60:], miniFatStart)
	} else {
		binary.LittleEndian.PutUint32(h[60:], endOfChain)
	}
	binary.LittleEndian.PutUint32(h[56:], miniCutoff)
	binary.LittleEndian.PutUint32(h[64:], uint32(miniFatSectors))
	if numDifat > 0 {
		binary.LittleEndian.PutUint32(h[68:], difatStart)
	} else {
		binary.LittleEndian.PutUint32(h[68:], endOfChain)
	}
	binary.LittleEndian.PutUint32(h[72:], uint32(numDifat))
	for i := 0; i < 109; i++ {
		v := uint32(freeSector)
		if i < numFat {
			v = fatStart + uint32(i)
		}
		binary.LittleEndian.PutUint32(h[76+4*i:], v)
	}
	return h
}

func (b *Builder) difatSectors(numFat int, fatStart, difatStart uint32, numDifat int) []byte {
	if numDifat == 0 {
		return nil
	}
	perSector := sectorSize/4 - 1
	out := make([]byte, 0, numDifat*sectorSize)
	entry := 109
	for i := 0; i < numDifat; i++ {
		sec := make([]byte, sectorSize)
		for j := 0; j < perSector; j++ {
			v := uint32(freeSector)
			if entry < numFat {
				v = fatStart + uint32(entry)
				entry++
			}
			binary.LittleEndian.PutUint32(sec[4*j:], v)
		}
		nextDifat := uint32(endOfChain)
		if i+1 < numDifat {
			nextDifat = difatStart + uint32(i) + 1
		}
		binary.LittleEndian.PutUint32(sec[sectorSize-4:], nextDifat)
		out = append(out, sec...)
	}
	return out
}

// linkSiblings builds a balanced binary tree over the given directory IDs
// using the container's name ordering (shorter names first, then
// case-insensitive comparison) and returns the root ID.
func linkSiblings(slots []dirSlot, ids []uint32) uint32 {
	if len(ids) == 0 {
		return noStream
	}
	sorted := append([]uint32(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := slots[sorted[i]].name, slots[sorted[j]].name
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return strings.ToUpper(a) < strings.ToUpper(b)
	})
	var build func(lo, hi int) uint32
	build = func(lo, hi int) uint32 {
		if lo > hi {
			return noStream
		}
		mid := (lo + hi) / 2
		id := sorted[mid]
		slots[id].left = build(lo, mid-1)
		slots[id].right = build(mid+1, hi)
		return id
	}
	return build(0, len(sorted)-1)
}

func encodeDirEntry(slot dirSlot) ([]byte, error) {
	e := make([]byte, dirEntrySize)
	name, err := encodeName(slot.name)
	if err != nil || len(name) > 62 {
		return nil, fmt.Errorf("invalid directory entry name %q", slot.name)
	}
	copy(e, name)
	binary.LittleEndian.PutUint16(e[64:], uint16(len(name)+2))
	e[66] = slot.objType
	e[67] = 1 // black
	binary.LittleEndian.PutUint32(e[68:], slot.left)
	binary.LittleEndian.PutUint32(e[72:], slot.right)
	binary.LittleEndian.PutUint32(e[76:], slot.child)
	binary.LittleEndian.PutUint32(e[116:], slot.start)
	binary.LittleEndian.PutUint64(e[120:], slot.size)
	return e, nil
}
