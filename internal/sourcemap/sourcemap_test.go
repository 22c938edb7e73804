package sourcemap

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVLQRoundTrip(t *testing.T) {
	for _, v := range []int{0, 1, -1, 15, 16, -16, 1000, -123456} {
		var b strings.Builder
		encodeVLQ(&b, v)
		got, next, err := decodeVLQ(b.String(), 0)
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, b.Len(), next)
	}
}

func TestDecodeKnownMappings(t *testing.T) {
	// "AAAA;AACA" is two lines each mapping column 0 to consecutive source lines.
	lines, err := decodeMappings("AAAA;AACA")
	require.NoError(t, err)
	require.Equal(t, [][]Segment{
		{{GenCol: 0, Src: 0, SrcLine: 0, SrcCol: 0}},
		{{GenCol: 0, Src: 0, SrcLine: 1, SrcCol: 0}},
	}, lines)
	require.Equal(t, "AAAA;AACA", encodeMappings(lines))
}

func TestConcatOffsetsLines(t *testing.T) {
	c := NewConcat("style.min.css")
	c.Add("a.scss", []byte("a{color:red}\nb{color:blue}"))
	c.Add("b.scss", []byte("c{margin:0}"))
	m := c.Map()

	require.Equal(t, []string{"a.scss", "b.scss"}, m.Sources)
	require.Len(t, m.Lines, 3)

	seg, ok := m.Lookup(2, 4)
	require.True(t, ok)
	require.Equal(t, 1, seg.Src)
	require.Equal(t, 0, seg.SrcLine)

	seg, ok = m.Lookup(1, 0)
	require.True(t, ok)
	require.Equal(t, 0, seg.Src)
	require.Equal(t, 1, seg.SrcLine)
}

func TestMarshalAndParse(t *testing.T) {
	m := Identity("main.css", "src/main.css", []byte("a{}\nb{}\n"))
	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.Contains(t, string(data), `"version":3`)

	parsed, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, m.Sources, parsed.Sources)
	require.Equal(t, m.Lines, parsed.Lines)
}

func TestParseRejectsOtherVersions(t *testing.T) {
	_, err := Parse([]byte(`{"version":2,"sources":[],"names":[],"mappings":""}`))
	require.Error(t, err)
}

func TestComposeMapsThroughIntermediate(t *testing.T) {
	// inner: concatenation of two files, 1 line each.
	c := NewConcat("concat.scss")
	c.Add("vars.scss", []byte("$c: red;"))
	c.Add("main.scss", []byte("a { color: $c; }"))
	inner := c.Map()

	// outer: compiler output whose single line comes from line 1 of the concatenation.
	outer := &Map{
		File:    "style.css",
		Sources: []string{"concat.scss"},
		Lines:   [][]Segment{{{GenCol: 0, Src: 0, SrcLine: 1, SrcCol: 0}}, {{GenCol: 2, Src: 0, SrcLine: 1, SrcCol: 4}}},
	}

	composed := Compose(outer, inner)
	require.Equal(t, inner.Sources, composed.Sources)
	require.Len(t, composed.Lines, 2)
	require.Equal(t, 1, composed.Lines[0][0].Src)
	require.Equal(t, 2, composed.Lines[1][0].GenCol)
	require.Equal(t, 1, composed.Lines[1][0].Src)
}

func TestCoarse(t *testing.T) {
	m := Identity("style.min.css", "a.css", []byte("a{}\nb{}\nc{}"))
	coarse := Coarse(m, []byte("a{}b{}c{}"))
	require.Len(t, coarse.Lines, 1)
	require.Equal(t, Segment{GenCol: 0, Src: 0, SrcLine: 0, SrcCol: 0}, coarse.Lines[0][0])
}

func TestAddMappedMergesSources(t *testing.T) {
	prior := Identity("x.css", "x.scss", []byte("x{}"))
	c := NewConcat("out.css")
	c.Add("a.css", []byte("a{}"))
	c.AddMapped([]byte("x{}"), prior)
	m := c.Map()
	require.Equal(t, []string{"a.css", "x.scss"}, m.Sources)
	require.Equal(t, 1, m.Lines[1][0].Src)
}
