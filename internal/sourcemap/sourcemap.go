// Package sourcemap reads, writes, concatenates and composes version 3 source maps.
package sourcemap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Segment maps a generated column to a position in a source. Src is -1 for
// segments without a source.
type Segment struct {
	GenCol  int
	Src     int
	SrcLine int
	SrcCol  int
}

// Map is a decoded source map. Lines holds the segments of each generated line.
type Map struct {
	File           string
	Sources        []string
	SourcesContent []string
	Names          []string
	Lines          [][]Segment
}

type wireMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Parse decodes a JSON source map.
func Parse(data []byte) (*Map, error) {
	var w wireMap
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.Version != 3 {
		return nil, fmt.Errorf("unsupported source map version %d", w.Version)
	}
	lines, err := decodeMappings(w.Mappings)
	if err != nil {
		return nil, err
	}
	return &Map{File: w.File, Sources: w.Sources, SourcesContent: w.SourcesContent, Names: w.Names, Lines: lines}, nil
}

// MarshalJSON encodes the map in wire format.
func (m *Map) MarshalJSON() ([]byte, error) {
	w := wireMap{
		Version:        3,
		File:           m.File,
		Sources:        nonNil(m.Sources),
		SourcesContent: m.SourcesContent,
		Names:          nonNil(m.Names),
		Mappings:       encodeMappings(m.Lines),
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Lookup returns the segment covering a generated position: the last segment
// on line whose GenCol is <= col.
func (m *Map) Lookup(line, col int) (Segment, bool) {
	if m == nil || line < 0 || line >= len(m.Lines) {
		return Segment{}, false
	}
	segs := m.Lines[line]
	i := sort.Search(len(segs), func(i int) bool { return segs[i].GenCol > col })
	if i == 0 {
		return Segment{}, false
	}
	return segs[i-1], true
}

// Identity maps every line of content to the same line of source.
func Identity(file, source string, content []byte) *Map {
	c := NewConcat(file)
	c.Add(source, content)
	return c.Map()
}

// Compose chains two maps: outer maps generated positions into the output of
// inner's generated file, inner maps those into the original sources. Outer
// segments that land outside inner's coverage are dropped.
func Compose(outer, inner *Map) *Map {
	out := &Map{File: outer.File, Sources: inner.Sources, SourcesContent: inner.SourcesContent, Names: inner.Names}
	out.Lines = make([][]Segment, len(outer.Lines))
	for l, segs := range outer.Lines {
		for _, s := range segs {
			if s.Src < 0 {
				continue
			}
			target, ok := inner.Lookup(s.SrcLine, s.SrcCol)
			if !ok || target.Src < 0 {
				continue
			}
			target.GenCol = s.GenCol
			out.Lines[l] = append(out.Lines[l], target)
		}
	}
	return out
}

// Coarse collapses a map for output whose columns no longer correspond to the
// input (minified to few lines): each generated line keeps one segment at
// column zero pointing at the first mapped position of the input.
func Coarse(m *Map, generated []byte) *Map {
	out := &Map{File: m.File, Sources: m.Sources, SourcesContent: m.SourcesContent, Names: m.Names}
	var first *Segment
	for _, segs := range m.Lines {
		for i := range segs {
			if segs[i].Src >= 0 {
				first = &segs[i]
				break
			}
		}
		if first != nil {
			break
		}
	}
	n := bytes.Count(generated, []byte("\n")) + 1
	out.Lines = make([][]Segment, n)
	if first != nil {
		s := *first
		s.GenCol = 0
		for i := range out.Lines {
			out.Lines[i] = []Segment{s}
		}
	}
	return out
}

// Comment returns the trailing sourceMappingURL comment for a CSS artifact.
func Comment(mapName string) string {
	return "\n/*# sourceMappingURL=" + mapName + " */\n"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func encodeMappings(lines [][]Segment) string {
	var b strings.Builder
	prevSrc, prevLine, prevCol := 0, 0, 0
	for l, segs := range lines {
		if l > 0 {
			b.WriteByte(';')
		}
		prevGen := 0
		for i, s := range segs {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeVLQ(&b, s.GenCol-prevGen)
			prevGen = s.GenCol
			if s.Src < 0 {
				continue
			}
			encodeVLQ(&b, s.Src-prevSrc)
			encodeVLQ(&b, s.SrcLine-prevLine)
			encodeVLQ(&b, s.SrcCol-prevCol)
			prevSrc, prevLine, prevCol = s.Src, s.SrcLine, s.SrcCol
		}
	}
	return b.String()
}

func decodeMappings(mappings string) ([][]Segment, error) {
	lines := [][]Segment{nil}
	src, srcLine, srcCol, name := 0, 0, 0, 0
	gen := 0
	pos := 0
	for pos < len(mappings) {
		switch mappings[pos] {
		case ';':
			lines = append(lines, nil)
			gen = 0
			pos++
			continue
		case ',':
			pos++
			continue
		}
		var fields [5]int
		n := 0
		for pos < len(mappings) && mappings[pos] != ',' && mappings[pos] != ';' {
			if n == len(fields) {
				return nil, fmt.Errorf("segment with more than 5 fields at %d", pos)
			}
			v, next, err := decodeVLQ(mappings, pos)
			if err != nil {
				return nil, err
			}
			fields[n] = v
			n++
			pos = next
		}
		gen += fields[0]
		seg := Segment{GenCol: gen, Src: -1}
		if n >= 4 {
			src += fields[1]
			srcLine += fields[2]
			srcCol += fields[3]
			seg.Src, seg.SrcLine, seg.SrcCol = src, srcLine, srcCol
		}
		if n == 5 {
			name += fields[4]
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], seg)
	}
	return lines, nil
}
