package fonts

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zlib"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

const (
	woffSignature    = 0x774F4646 // "wOFF"
	woffHeaderSize   = 44
	woffEntrySize    = 20
	woffMajorVersion = 1
)

// WOFF wraps a TrueType/OpenType font in WOFF 1.0, zlib-compressing every
// table that gets smaller.
func WOFF(ttf []byte) ([]byte, error) {
	f, err := parseSFNT(ttf)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTransform, "invalid font").Build()
	}

	n := len(f.tables)
	dirEnd := woffHeaderSize + woffEntrySize*n
	var body bytes.Buffer
	dir := make([]byte, woffEntrySize*n)
	for i, t := range f.tables {
		data, err := deflate(t.data)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "zlib compression failed").Build()
		}
		if len(data) >= len(t.data) {
			data = t.data
		}
		e := dir[woffEntrySize*i:]
		binary.BigEndian.PutUint32(e[0:], t.tag)
		binary.BigEndian.PutUint32(e[4:], uint32(dirEnd+body.Len()))
		binary.BigEndian.PutUint32(e[8:], uint32(len(data)))
		binary.BigEndian.PutUint32(e[12:], uint32(len(t.data)))
		binary.BigEndian.PutUint32(e[16:], t.checksum)
		body.Write(data)
		body.Write(make([]byte, pad4(len(data))-len(data)))
	}

	header := make([]byte, woffHeaderSize)
	binary.BigEndian.PutUint32(header[0:], woffSignature)
	binary.BigEndian.PutUint32(header[4:], f.flavor)
	binary.BigEndian.PutUint32(header[8:], uint32(dirEnd+body.Len()))
	binary.BigEndian.PutUint16(header[12:], uint16(n))
	binary.BigEndian.PutUint32(header[16:], f.sfntSize())
	binary.BigEndian.PutUint16(header[20:], woffMajorVersion)
	// minor version, metadata and private blocks stay zero

	out := make([]byte, 0, dirEnd+body.Len())
	out = append(out, header...)
	out = append(out, dir...)
	return append(out, body.Bytes()...), nil
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
