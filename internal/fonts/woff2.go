package fonts

import (
	"bytes"
	"encoding/binary"

	"github.com/andybalholm/brotli"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

const (
	woff2Signature  = 0x774F4632 // "wOF2"
	woff2HeaderSize = 48

	// transform version 3 marks glyf and loca as not transformed; version 0
	// means untransformed for every other table.
	woff2NullTransformGlyf = 3 << 6
	woff2ArbitraryTag      = 63
)

var woff2KnownTags = []string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post", "cvt ", "fpgm",
	"glyf", "loca", "prep", "CFF ", "VORG", "EBDT", "EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea", "vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC",
	"JSTF", "MATH", "CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar", "gvar", "hsty",
	"just", "lcar", "mort", "morx", "opbd", "prop", "trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

var woff2TagIndex = func() map[uint32]byte {
	m := make(map[uint32]byte, len(woff2KnownTags))
	for i, t := range woff2KnownTags {
		m[tag(t)] = byte(i)
	}
	return m
}()

// WOFF2 wraps a font in WOFF 2.0 with null table transforms: the tables are
// stored unchanged in one Brotli stream.
func WOFF2(ttf []byte) ([]byte, error) {
	f, err := parseSFNT(ttf)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTransform, "invalid font").Build()
	}
	tables := woff2Order(f.tables)

	var dir bytes.Buffer
	var stream bytes.Buffer
	for _, t := range tables {
		flags, known := woff2TagIndex[t.tag]
		if !known {
			flags = woff2ArbitraryTag
		}
		if t.tag == tag("glyf") || t.tag == tag("loca") {
			flags |= woff2NullTransformGlyf
		}
		dir.WriteByte(flags)
		if !known {
			_ = binary.Write(&dir, binary.BigEndian, t.tag)
		}
		dir.Write(base128(uint32(len(t.data))))
		stream.Write(t.data)
	}

	var compressed bytes.Buffer
	w := brotli.NewWriterLevel(&compressed, brotli.BestCompression)
	if _, err := w.Write(stream.Bytes()); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "brotli compression failed").Build()
	}
	if err := w.Close(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "brotli compression failed").Build()
	}

	size := woff2HeaderSize + dir.Len() + compressed.Len()
	total := pad4(size)
	header := make([]byte, woff2HeaderSize)
	binary.BigEndian.PutUint32(header[0:], woff2Signature)
	binary.BigEndian.PutUint32(header[4:], f.flavor)
	binary.BigEndian.PutUint32(header[8:], uint32(total))
	binary.BigEndian.PutUint16(header[12:], uint16(len(tables)))
	binary.BigEndian.PutUint32(header[16:], f.sfntSize())
	binary.BigEndian.PutUint32(header[20:], uint32(compressed.Len()))
	binary.BigEndian.PutUint16(header[24:], 1)

	out := make([]byte, 0, total)
	out = append(out, header...)
	out = append(out, dir.Bytes()...)
	out = append(out, compressed.Bytes()...)
	return append(out, make([]byte, total-size)...), nil
}

// woff2Order keeps tag order but moves loca directly after glyf.
func woff2Order(tables []table) []table {
	var loca *table
	out := make([]table, 0, len(tables))
	for i := range tables {
		if tables[i].tag == tag("loca") {
			loca = &tables[i]
			continue
		}
		out = append(out, tables[i])
	}
	if loca == nil {
		return out
	}
	for i, t := range out {
		if t.tag == tag("glyf") {
			return append(out[:i+1], append([]table{*loca}, out[i+1:]...)...)
		}
	}
	return append(out, *loca)
}

// base128 encodes v as a WOFF2 UIntBase128.
func base128(v uint32) []byte {
	var rev []byte
	for {
		rev = append(rev, byte(v&0x7f))
		v >>= 7
		if v == 0 {
			break
		}
	}
	out := make([]byte, len(rev))
	for i := range rev {
		b := rev[len(rev)-1-i]
		if i < len(rev)-1 {
			b |= 0x80
		}
		out[i] = b
	}
	return out
}
