package fonts

import (
	"encoding/binary"
	"fmt"
	"sort"
)

const (
	flavorTrueType = 0x00010000
	flavorApple    = 0x74727565 // "true"
	flavorCFF      = 0x4F54544F // "OTTO"
)

type table struct {
	tag      uint32
	checksum uint32
	data     []byte
}

type sfnt struct {
	flavor uint32
	tables []table
}

// parseSFNT reads the table directory of a TrueType or OpenType font. Tables
// are returned sorted by tag.
func parseSFNT(data []byte) (*sfnt, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("font too short")
	}
	flavor := binary.BigEndian.Uint32(data)
	switch flavor {
	case flavorTrueType, flavorApple, flavorCFF:
	default:
		return nil, fmt.Errorf("unsupported sfnt version %#08x", flavor)
	}
	n := int(binary.BigEndian.Uint16(data[4:]))
	if n == 0 {
		return nil, fmt.Errorf("font has no tables")
	}
	if len(data) < 12+16*n {
		return nil, fmt.Errorf("truncated table directory")
	}
	f := &sfnt{flavor: flavor, tables: make([]table, 0, n)}
	seen := make(map[uint32]bool, n)
	for i := 0; i < n; i++ {
		rec := data[12+16*i:]
		tag := binary.BigEndian.Uint32(rec)
		off := binary.BigEndian.Uint32(rec[8:])
		length := binary.BigEndian.Uint32(rec[12:])
		if uint64(off)+uint64(length) > uint64(len(data)) {
			return nil, fmt.Errorf("table %s out of bounds", tagString(tag))
		}
		if seen[tag] {
			return nil, fmt.Errorf("duplicate table %s", tagString(tag))
		}
		seen[tag] = true
		f.tables = append(f.tables, table{
			tag:      tag,
			checksum: binary.BigEndian.Uint32(rec[4:]),
			data:     data[off : off+length],
		})
	}
	sort.Slice(f.tables, func(i, j int) bool { return f.tables[i].tag < f.tables[j].tag })
	return f, nil
}

// sfntSize is the size of the font rebuilt with 4-byte aligned tables.
func (f *sfnt) sfntSize() uint32 {
	size := 12 + 16*len(f.tables)
	for _, t := range f.tables {
		size += pad4(len(t.data))
	}
	return uint32(size)
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

func tag(s string) uint32 {
	return binary.BigEndian.Uint32([]byte(s))
}

func tagString(t uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], t)
	return string(b[:])
}
