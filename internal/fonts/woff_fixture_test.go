package fonts

import (
	"bytes"
	stdzlib "compress/zlib"
	"encoding/binary"
	"io"
	"os"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"
)

// digits.ttf is a ten-glyph TrueType subset (digits 0-9) with the tables
// OS/2 cmap glyf head hhea hmtx loca maxp name post.

type fixtureTable struct {
	tag      string
	checksum uint32
	data     []byte
}

func loadDigits(t *testing.T) ([]byte, map[string]fixtureTable) {
	t.Helper()
	ttf, err := os.ReadFile("testdata/digits.ttf")
	require.NoError(t, err)
	require.Len(t, ttf, 2508)
	require.Equal(t, uint32(0x00010000), binary.BigEndian.Uint32(ttf[0:]))

	n := int(binary.BigEndian.Uint16(ttf[4:]))
	tables := make(map[string]fixtureTable, n)
	for i := 0; i < n; i++ {
		e := ttf[12+16*i:]
		off := binary.BigEndian.Uint32(e[8:])
		length := binary.BigEndian.Uint32(e[12:])
		tag := string(e[0:4])
		tables[tag] = fixtureTable{tag: tag, checksum: binary.BigEndian.Uint32(e[4:]), data: ttf[off : off+length]}
	}
	require.Len(t, tables, 10)
	return ttf, tables
}

func TestWOFFOfRealFont(t *testing.T) {
	ttf, tables := loadDigits(t)
	out, err := WOFF(ttf)
	require.NoError(t, err)

	// 44-byte header
	require.Equal(t, "wOFF", string(out[0:4]))
	require.Equal(t, uint32(0x00010000), binary.BigEndian.Uint32(out[4:]))
	require.Equal(t, uint32(len(out)), binary.BigEndian.Uint32(out[8:]))
	require.Equal(t, uint16(10), binary.BigEndian.Uint16(out[12:]))
	require.Zero(t, binary.BigEndian.Uint16(out[14:]))
	require.Equal(t, uint32(2508), binary.BigEndian.Uint32(out[16:]))
	require.Equal(t, uint16(1), binary.BigEndian.Uint16(out[20:]))
	require.Zero(t, binary.BigEndian.Uint32(out[24:]), "no metadata block")
	require.Zero(t, binary.BigEndian.Uint32(out[36:]), "no private block")

	wantOrder := []string{"OS/2", "cmap", "glyf", "head", "hhea", "hmtx", "loca", "maxp", "name", "post"}
	for i, want := range wantOrder {
		e := out[44+20*i:]
		require.Equal(t, want, string(e[0:4]))
		off := binary.BigEndian.Uint32(e[4:])
		compLen := binary.BigEndian.Uint32(e[8:])
		origLen := binary.BigEndian.Uint32(e[12:])
		require.Zero(t, off%4, "table %s is 4-byte aligned", want)
		require.Equal(t, uint32(len(tables[want].data)), origLen)
		require.Equal(t, tables[want].checksum, binary.BigEndian.Uint32(e[16:]))
		require.LessOrEqual(t, compLen, origLen)

		stored := out[off : off+compLen]
		if compLen == origLen {
			require.Equal(t, tables[want].data, stored)
			continue
		}
		r, err := stdzlib.NewReader(bytes.NewReader(stored))
		require.NoError(t, err)
		plain, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, tables[want].data, plain, "table %s", want)
	}
}

func TestWOFF2OfRealFont(t *testing.T) {
	ttf, tables := loadDigits(t)
	out, err := WOFF2(ttf)
	require.NoError(t, err)

	// 48-byte header
	require.Equal(t, "wOF2", string(out[0:4]))
	require.Equal(t, uint32(0x00010000), binary.BigEndian.Uint32(out[4:]))
	require.Equal(t, uint32(len(out)), binary.BigEndian.Uint32(out[8:]))
	require.Zero(t, len(out)%4)
	require.Equal(t, uint16(10), binary.BigEndian.Uint16(out[12:]))
	require.Zero(t, binary.BigEndian.Uint16(out[14:]))
	require.Equal(t, uint32(2508), binary.BigEndian.Uint32(out[16:]))
	compressed := binary.BigEndian.Uint32(out[20:])
	require.Equal(t, uint16(1), binary.BigEndian.Uint16(out[24:]))
	require.Zero(t, binary.BigEndian.Uint32(out[28:]), "no metadata block")
	require.Zero(t, binary.BigEndian.Uint32(out[40:]), "no private block")

	// Flags carry the known-tag index in bits 0-5 and the transform version
	// in bits 6-7. glyf (10) and loca (11) use version 3, the null transform,
	// and loca follows glyf. No transformLength is present for null
	// transforms, so each entry is the flags byte plus a UIntBase128 length.
	wantDir := []byte{
		0x06, 0x56, // OS/2 86
		0x00, 0x34, // cmap 52
		0xCA, 0x8F, 0x3E, // glyf 1982
		0xCB, 0x16, // loca 22
		0x01, 0x36, // head 54
		0x02, 0x24, // hhea 36
		0x03, 0x16, // hmtx 22
		0x04, 0x20, // maxp 32
		0x05, 0x06, // name 6
		0x07, 0x20, // post 32
	}
	require.Equal(t, wantDir, out[48:48+len(wantDir)])

	start := 48 + len(wantDir)
	stream, err := io.ReadAll(brotli.NewReader(bytes.NewReader(out[start : start+int(compressed)])))
	require.NoError(t, err)

	var want []byte
	for _, tag := range []string{"OS/2", "cmap", "glyf", "loca", "head", "hhea", "hmtx", "maxp", "name", "post"} {
		want = append(want, tables[tag].data...)
	}
	require.Equal(t, want, stream)
	require.Less(t, len(out), len(ttf))
}
