package sodg

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// ErrCoverage is matched (via errors.Is) by every *CoverageError.
var ErrCoverage = errors.New("sodg: merge did not cover the source graph")

// CoverageError reports that the root passed to Merge does not reach every
// vertex of the source graph.
type CoverageError struct {
	Merged int
	Total  int
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("sodg: just %d vertices merged, out of %d; maybe the graph is not a tree?", e.Merged, e.Total)
}

// Is makes errors.Is(err, ErrCoverage) true.
func (e *CoverageError) Is(target error) bool {
	return target == ErrCoverage
}

// Merge copies into g, anchored at left, the subgraph of src reachable from
// right, folding it onto whatever already hangs under left.
//
// An edge of src whose label already exists on the matching vertex of g is
// followed instead of duplicated. Edges that converge onto a source vertex
// already placed during this merge (back-edges, diamonds) are bound under a
// synthesized label "label/n", n being the smallest positive number free on
// that vertex. Payloads of src overwrite payloads of g.
//
// After the walk, every vertex of src must have been reached from right;
// otherwise a *CoverageError is returned. Merge is not atomic: on any error
// g keeps whatever was already written.
func (g *Graph) Merge(src *Graph, left, right uint32) error {
	if !g.Has(left) {
		return fmt.Errorf("%w: can't merge into ν%d", ErrVertexNotFound, left)
	}
	before := g.Len()
	mapped := make(map[uint32]uint32, src.Len())
	if err := g.mergeRec(src, left, right, mapped); err != nil {
		return err
	}
	if merged, total := len(mapped), src.Len(); merged != total {
		return &CoverageError{Merged: merged, Total: total}
	}
	slog.Debug("sodg: merged",
		"merged", len(mapped),
		"before", before,
		"after", g.Len(),
	)
	return nil
}

func (g *Graph) mergeRec(src *Graph, left, right uint32, mapped map[uint32]uint32) error {
	if _, ok := mapped[right]; ok {
		return nil
	}
	mapped[right] = left
	full, err := src.IsFull(right)
	if err != nil {
		return fmt.Errorf("merge ν%d into ν%d: %w", right, left, err)
	}
	if full {
		// Payload bytes are copied by Put, so sharing src's slice is fine.
		if err := g.Put(left, src.vertices[right].data); err != nil {
			return fmt.Errorf("merge ν%d into ν%d: %w", right, left, err)
		}
	}
	for _, e := range src.vertices[right].edges {
		var chosen uint32
		if t, ok := mapped[e.To]; ok {
			if err := g.bindConvergent(left, t, e.Label); err != nil {
				return fmt.Errorf("merge ν%d into ν%d: %w", right, left, err)
			}
			chosen = t
		} else if t, ok := g.Kid(left, e.Label); ok {
			chosen = t
		} else {
			id := g.NextID()
			if err := g.Add(id); err != nil {
				return fmt.Errorf("merge ν%d into ν%d: %w", right, left, err)
			}
			if err := g.Bind(left, id, e.Label); err != nil {
				return fmt.Errorf("merge ν%d into ν%d: %w", right, left, err)
			}
			chosen = id
		}
		if err := g.mergeRec(src, chosen, e.To, mapped); err != nil {
			return err
		}
	}
	return nil
}

// bindConvergent binds left → to under a label derived from label that
// does not collide with any other edge of left.
func (g *Graph) bindConvergent(left, to uint32, label string) error {
	if t, ok := g.Kid(left, label); ok && t == to {
		return nil
	}
	for n := 1; ; n++ {
		cand := label + "/" + strconv.Itoa(n)
		t, ok := g.Kid(left, cand)
		if !ok {
			return g.Bind(left, to, cand)
		}
		if t == to {
			return nil
		}
	}
}
