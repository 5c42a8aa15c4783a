package sodg

// Clone returns an independent deep copy of the graph: vertices, edges,
// payload bytes and the id allocator. Mutating either graph afterwards is
// never visible in the other.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		vertices: make(map[uint32]*vertex, len(g.vertices)),
		nextV:    g.nextV,
	}
	for id, v := range g.vertices {
		nv := &vertex{
			edges: make([]Edge, len(v.edges)),
			index: make(map[string]int, len(v.index)),
			full:  v.full,
		}
		copy(nv.edges, v.edges)
		for label, i := range v.index {
			nv.index[label] = i
		}
		if v.full {
			nv.data = append(make([]byte, 0, len(v.data)), v.data...)
		}
		c.vertices[id] = nv
	}
	return c
}
