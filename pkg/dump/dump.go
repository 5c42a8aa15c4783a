// Package dump renders a graph as a deterministic, serializable document
// and restores graphs from it.
//
// Vertices are listed in ascending id order, edges in binding order, and
// payloads in the dash-separated hex notation of deployment scripts. Every
// payload carries a BLAKE3 digest, and the whole graph a fingerprint that
// is independent of the allocator state: two graphs with the same
// vertices, the same edges bound in the same order and the same payloads
// share one.
package dump

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/haivivi/sodg/pkg/encoding"
	"github.com/haivivi/sodg/pkg/sodg"
	"lukechampine.com/blake3"
)

// ErrDigest is returned by Restore when a payload does not match its digest.
var ErrDigest = errors.New("dump: payload digest mismatch")

// Vertex is one vertex of a dumped graph.
type Vertex struct {
	ID     uint32           `json:"id" yaml:"id"`
	Edges  []sodg.Edge      `json:"edges,omitempty" yaml:"edges,omitempty"`
	Full   bool             `json:"full,omitempty" yaml:"full,omitempty"`
	Data   encoding.HexData `json:"data,omitempty" yaml:"data,omitempty"`
	Digest string           `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// Graph is a dumped graph.
type Graph struct {
	Fingerprint string   `json:"fingerprint" yaml:"fingerprint"`
	Next        uint32   `json:"next" yaml:"next"`
	Vertices    []Vertex `json:"vertices" yaml:"vertices"`
}

// Stats summarizes a graph.
type Stats struct {
	Vertices int `json:"vertices" yaml:"vertices"`
	Edges    int `json:"edges" yaml:"edges"`
	Payloads int `json:"payloads" yaml:"payloads"`
	Bytes    int `json:"bytes" yaml:"bytes"`
}

// Of dumps g.
func Of(g *sodg.Graph) *Graph {
	d := &Graph{
		Fingerprint: Fingerprint(g),
		Next:        g.Peek(),
		Vertices:    make([]Vertex, 0, g.Len()),
	}
	for _, id := range g.Vertices() {
		kids, _ := g.Kids(id)
		v := Vertex{ID: id, Edges: kids}
		if data, err := g.Data(id); err == nil {
			v.Full = true
			v.Data = data
			v.Digest = Digest(data)
		}
		d.Vertices = append(d.Vertices, v)
	}
	return d
}

// Restore rebuilds the graph. Digests, when present, are verified.
func (d *Graph) Restore() (*sodg.Graph, error) {
	g := sodg.Empty()
	for _, v := range d.Vertices {
		if err := g.Add(v.ID); err != nil {
			return nil, err
		}
	}
	for _, v := range d.Vertices {
		for _, e := range v.Edges {
			if err := g.Bind(v.ID, e.To, e.Label); err != nil {
				return nil, err
			}
		}
		if !v.Full {
			continue
		}
		if v.Digest != "" && v.Digest != Digest(v.Data) {
			return nil, fmt.Errorf("%w: ν%d", ErrDigest, v.ID)
		}
		if err := g.Put(v.ID, v.Data); err != nil {
			return nil, err
		}
	}
	g.Reserve(d.Next)
	return g, nil
}

// Stats counts vertices, edges and payloads of the dump.
func (d *Graph) Stats() Stats {
	var s Stats
	s.Vertices = len(d.Vertices)
	for _, v := range d.Vertices {
		s.Edges += len(v.Edges)
		if v.Full {
			s.Payloads++
			s.Bytes += len(v.Data)
		}
	}
	return s
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes the structure and payloads of g with BLAKE3-256.
// The allocator position is not part of it.
func Fingerprint(g *sodg.Graph) string {
	h := blake3.New(32, nil)
	var buf [4]byte
	u32 := func(n uint32) {
		binary.BigEndian.PutUint32(buf[:], n)
		h.Write(buf[:])
	}
	bytes := func(b []byte) {
		u32(uint32(len(b)))
		h.Write(b)
	}
	for _, id := range g.Vertices() {
		u32(id)
		kids, _ := g.Kids(id)
		u32(uint32(len(kids)))
		for _, e := range kids {
			bytes([]byte(e.Label))
			u32(e.To)
		}
		if data, err := g.Data(id); err == nil {
			h.Write([]byte{1})
			bytes(data)
		} else {
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
