package sourcemap

import "bytes"

// Concat builds the map of a file produced by joining sources with "\n".
type Concat struct {
	m *Map
}

// NewConcat starts an empty concatenation map for the named output file.
func NewConcat(file string) *Concat {
	return &Concat{m: &Map{File: file}}
}

// Add appends one source. Each line of content maps column zero to the same
// line of the source.
func (c *Concat) Add(source string, content []byte) {
	idx := len(c.m.Sources)
	c.m.Sources = append(c.m.Sources, source)
	c.m.SourcesContent = append(c.m.SourcesContent, string(content))
	n := bytes.Count(content, []byte("\n")) + 1
	for i := 0; i < n; i++ {
		c.m.Lines = append(c.m.Lines, []Segment{{GenCol: 0, Src: idx, SrcLine: i, SrcCol: 0}})
	}
}

// AddMapped appends content that already has a map; sources are merged.
func (c *Concat) AddMapped(content []byte, m *Map) {
	offsets := make([]int, len(m.Sources))
	for i, s := range m.Sources {
		offsets[i] = len(c.m.Sources)
		c.m.Sources = append(c.m.Sources, s)
		if i < len(m.SourcesContent) {
			c.m.SourcesContent = append(c.m.SourcesContent, m.SourcesContent[i])
		} else {
			c.m.SourcesContent = append(c.m.SourcesContent, "")
		}
	}
	n := bytes.Count(content, []byte("\n")) + 1
	for i := 0; i < n; i++ {
		var segs []Segment
		if i < len(m.Lines) {
			for _, s := range m.Lines[i] {
				if s.Src >= 0 {
					s.Src = offsets[s.Src]
				}
				segs = append(segs, s)
			}
		}
		c.m.Lines = append(c.m.Lines, segs)
	}
}

// Map returns the accumulated map.
func (c *Concat) Map() *Map {
	return c.m
}
