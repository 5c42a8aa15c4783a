// Package sodg provides an in-memory object graph: vertices identified by
// uint32 ids, connected by uniquely-labeled directed edges, each vertex
// optionally carrying an opaque byte payload.
//
// The graph is not required to be acyclic. Back-edges and shared
// descendants are normal, and both [Graph.Merge] and [Graph.Clone] are
// defined for arbitrary directed graphs.
//
// A Graph is not safe for concurrent use. Callers that need to read one
// graph while mutating another structurally identical one should
// [Graph.Clone] first.
package sodg

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Sentinel errors.
var (
	// ErrVertexExists is returned by Add when the id is already taken.
	ErrVertexExists = errors.New("sodg: vertex already exists")

	// ErrVertexNotFound is returned when an operation references a vertex
	// that is not in the graph.
	ErrVertexNotFound = errors.New("sodg: vertex not found")

	// ErrLabelTaken is returned by Bind when the label already leads to a
	// different vertex.
	ErrLabelTaken = errors.New("sodg: label already bound")

	// ErrEmptyLabel is returned by Bind for an empty label.
	ErrEmptyLabel = errors.New("sodg: empty label")

	// ErrNoData is returned by Data when the vertex holds no payload.
	ErrNoData = errors.New("sodg: vertex has no data")
)

// Edge is an outgoing labeled edge of a vertex.
type Edge struct {
	// Label is unique among the outgoing edges of the parent vertex.
	Label string `json:"label" yaml:"label"`

	// To is the child vertex id.
	To uint32 `json:"to" yaml:"to"`
}

type vertex struct {
	edges []Edge
	index map[string]int
	data  []byte
	full  bool
}

func newVertex() *vertex {
	return &vertex{index: make(map[string]int)}
}

// Graph is a directed graph of uint32-identified vertices.
type Graph struct {
	vertices map[uint32]*vertex
	nextV    uint32
}

// Empty creates a graph with no vertices.
func Empty() *Graph {
	return &Graph{
		vertices: make(map[uint32]*vertex),
		nextV:    1,
	}
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	return len(g.vertices)
}

// Has reports whether vertex v exists.
func (g *Graph) Has(v uint32) bool {
	_, ok := g.vertices[v]
	return ok
}

// Vertices returns all vertex ids in ascending order.
func (g *Graph) Vertices() []uint32 {
	ids := make([]uint32, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Add creates vertex v. Returns ErrVertexExists if it is already present.
func (g *Graph) Add(v uint32) error {
	if _, ok := g.vertices[v]; ok {
		return fmt.Errorf("%w: ν%d", ErrVertexExists, v)
	}
	g.vertices[v] = newVertex()
	if v != math.MaxUint32 && v >= g.nextV {
		g.nextV = v + 1
	}
	return nil
}

// Bind creates the edge v1 → v2 under label. Binding the same label to the
// same target twice is a no-op; binding it to another target fails with
// ErrLabelTaken.
func (g *Graph) Bind(v1, v2 uint32, label string) error {
	if label == "" {
		return fmt.Errorf("%w: ν%d → ν%d", ErrEmptyLabel, v1, v2)
	}
	from, ok := g.vertices[v1]
	if !ok {
		return fmt.Errorf("%w: can't bind from ν%d", ErrVertexNotFound, v1)
	}
	if _, ok := g.vertices[v2]; !ok {
		return fmt.Errorf("%w: can't bind to ν%d", ErrVertexNotFound, v2)
	}
	if i, ok := from.index[label]; ok {
		if prev := from.edges[i].To; prev != v2 {
			return fmt.Errorf("%w: ν%d.%s already leads to ν%d", ErrLabelTaken, v1, label, prev)
		}
		return nil
	}
	from.index[label] = len(from.edges)
	from.edges = append(from.edges, Edge{Label: label, To: v2})
	return nil
}

// Put attaches a copy of data to vertex v, replacing any previous payload.
func (g *Graph) Put(v uint32, data []byte) error {
	vtx, ok := g.vertices[v]
	if !ok {
		return fmt.Errorf("%w: can't put into ν%d", ErrVertexNotFound, v)
	}
	vtx.data = append(make([]byte, 0, len(data)), data...)
	vtx.full = true
	return nil
}

// Data returns a copy of the payload of vertex v.
func (g *Graph) Data(v uint32) ([]byte, error) {
	vtx, ok := g.vertices[v]
	if !ok {
		return nil, fmt.Errorf("%w: ν%d", ErrVertexNotFound, v)
	}
	if !vtx.full {
		return nil, fmt.Errorf("%w: ν%d", ErrNoData, v)
	}
	cp := make([]byte, len(vtx.data))
	copy(cp, vtx.data)
	return cp, nil
}

// IsFull reports whether vertex v currently holds a payload.
func (g *Graph) IsFull(v uint32) (bool, error) {
	vtx, ok := g.vertices[v]
	if !ok {
		return false, fmt.Errorf("%w: ν%d", ErrVertexNotFound, v)
	}
	return vtx.full, nil
}

// Kid returns the child of v under label.
func (g *Graph) Kid(v uint32, label string) (uint32, bool) {
	vtx, ok := g.vertices[v]
	if !ok {
		return 0, false
	}
	i, ok := vtx.index[label]
	if !ok {
		return 0, false
	}
	return vtx.edges[i].To, true
}

// Kids returns the outgoing edges of v in the order they were bound.
func (g *Graph) Kids(v uint32) ([]Edge, error) {
	vtx, ok := g.vertices[v]
	if !ok {
		return nil, fmt.Errorf("%w: ν%d", ErrVertexNotFound, v)
	}
	out := make([]Edge, len(vtx.edges))
	copy(out, vtx.edges)
	return out, nil
}

// NextID allocates an id that is above every id ever added to the graph.
// Zero is never returned; it is kept for the conventional root vertex.
func (g *Graph) NextID() uint32 {
	id := g.nextV
	if g.nextV != math.MaxUint32 {
		g.nextV++
	}
	return id
}

// Peek returns the id the next call to NextID would return.
func (g *Graph) Peek() uint32 {
	return g.nextV
}

// Reserve raises the allocator so that NextID never returns an id below
// next. It never lowers it.
func (g *Graph) Reserve(next uint32) {
	if next > g.nextV {
		g.nextV = next
	}
}

// Max returns the largest vertex id in the graph, or 0 when it is empty.
func (g *Graph) Max() uint32 {
	var m uint32
	for id := range g.vertices {
		if id > m {
			m = id
		}
	}
	return m
}

// Alpha returns the positional label for index i: "α0", "α1", ...
func Alpha(i int) string {
	return "α" + strconv.Itoa(i)
}
