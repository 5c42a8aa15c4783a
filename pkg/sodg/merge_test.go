package sodg_test

import (
	"errors"
	"testing"

	"github.com/haivivi/sodg/pkg/script"
	"github.com/haivivi/sodg/pkg/sodg"
)

func TestMergeTwoGraphs(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 0, 1)
	mustBind(t, g, 0, 1, "foo")
	extra := sodg.Empty()
	mustAdd(t, extra, 0, 1)
	mustBind(t, extra, 0, 1, "bar")

	if err := g.Merge(extra, 0, 0); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
}

func TestMergeAvoidsSimpleDuplicates(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 0, 1)
	mustBind(t, g, 0, 1, "foo")
	extra := sodg.Empty()
	mustAdd(t, extra, 0, 1, 2)
	mustBind(t, extra, 0, 1, "foo")
	mustBind(t, extra, 1, 2, "bar")

	if err := g.Merge(extra, 0, 0); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
	if to, _ := g.Kid(0, "foo"); to != 1 {
		t.Fatalf("Kid(0, foo) = %d, want 1", to)
	}
	bar, ok := g.Kid(1, "bar")
	if !ok {
		t.Fatal("expected ν1.bar after merge")
	}
	if bar == 1 || bar == 0 {
		t.Fatalf("ν1.bar = %d, want a fresh vertex", bar)
	}
}

func TestMergeSingletons(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 13)
	extra := sodg.Empty()
	mustAdd(t, extra, 13)

	if err := g.Merge(extra, 13, 13); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != 1 {
		t.Fatalf("Len = %d, want 1", g.Len())
	}
}

func TestMergeTreeIntoItsClone(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 0, 1, 2, 3)
	mustBind(t, g, 0, 1, "a")
	mustBind(t, g, 0, 2, "b")
	mustBind(t, g, 2, 3, "c")
	if err := g.Put(3, []byte{0xCA, 0xFE}); err != nil {
		t.Fatal(err)
	}
	extra := g.Clone()

	if err := g.Merge(extra, 0, 0); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != extra.Len() {
		t.Fatalf("Len = %d, want %d", g.Len(), extra.Len())
	}
	for _, v := range g.Vertices() {
		a, _ := g.Kids(v)
		b, _ := extra.Kids(v)
		if len(a) != len(b) {
			t.Fatalf("ν%d has %d edges after self-merge, want %d", v, len(a), len(b))
		}
	}
}

func TestMergeSimpleLoop(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 1, 2)
	mustBind(t, g, 1, 2, "foo")
	mustBind(t, g, 2, 1, "bar")
	extra := g.Clone()

	if err := g.Merge(extra, 1, 1); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != extra.Len() {
		t.Fatalf("Len = %d, want %d", g.Len(), extra.Len())
	}
}

func TestMergeLargeLoop(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 1, 2, 3, 4)
	mustBind(t, g, 1, 2, "a")
	mustBind(t, g, 2, 3, "b")
	mustBind(t, g, 3, 4, "c")
	mustBind(t, g, 4, 1, "d")
	extra := g.Clone()

	if err := g.Merge(extra, 1, 1); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != extra.Len() {
		t.Fatalf("Len = %d, want %d", g.Len(), extra.Len())
	}
}

func TestMergeData(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 1)
	extra := sodg.Empty()
	mustAdd(t, extra, 1)
	if err := extra.Put(1, []byte{0, 0, 0, 0, 0, 0, 0, 42}); err != nil {
		t.Fatal(err)
	}

	if err := g.Merge(extra, 1, 1); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	got, err := g.Data(1)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if len(got) != 8 || got[7] != 42 {
		t.Fatalf("Data(1) = %x, want 000000000000002a", got)
	}
}

func TestMergeSourcePayloadWins(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 1)
	if err := g.Put(1, []byte("old")); err != nil {
		t.Fatal(err)
	}
	extra := sodg.Empty()
	mustAdd(t, extra, 1)
	if err := extra.Put(1, []byte("new")); err != nil {
		t.Fatal(err)
	}

	if err := g.Merge(extra, 1, 1); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	got, _ := g.Data(1)
	if string(got) != "new" {
		t.Fatalf("Data(1) = %q, want new", got)
	}
}

func TestMergeSameNameKids(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 0, 1, 2)
	mustBind(t, g, 0, 1, "a")
	mustBind(t, g, 1, 2, "x")
	extra := sodg.Empty()
	mustAdd(t, extra, 0, 1, 2)
	mustBind(t, extra, 0, 1, "b")
	mustBind(t, extra, 1, 2, "x")

	if err := g.Merge(extra, 0, 0); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != 5 {
		t.Fatalf("Len = %d, want 5", g.Len())
	}
	if to, _ := g.Kid(0, "a"); to != 1 {
		t.Fatalf("Kid(0, a) = %d, want 1", to)
	}
	if to, _ := g.Kid(1, "x"); to != 2 {
		t.Fatalf("Kid(1, x) = %d, want 2", to)
	}
}

func TestMergeIntoEmptyGraph(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 1)
	extra := sodg.Empty()
	mustAdd(t, extra, 1, 2, 3)
	mustBind(t, extra, 1, 2, "a")
	mustBind(t, extra, 2, 3, "b")
	mustBind(t, extra, 3, 1, "c")

	if err := g.Merge(extra, 1, 1); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
	if to, _ := g.Kid(1, "a"); to != 2 {
		t.Fatalf("Kid(1, a) = %d, want 2", to)
	}
	// The back-edge lands on the root under a synthesized label.
	b, _ := g.Kid(1, "a")
	c, _ := g.Kid(b, "b")
	if to, ok := g.Kid(c, "c/1"); !ok || to != 1 {
		t.Fatalf("Kid(%d, c/1) = %d, %v; want 1, true", c, to, ok)
	}
}

func TestMergeMixedInjection(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 4)
	extra := sodg.Empty()
	mustAdd(t, extra, 4, 5)
	if err := extra.Put(4, []byte{4}); err != nil {
		t.Fatal(err)
	}
	if err := extra.Put(5, []byte{5}); err != nil {
		t.Fatal(err)
	}
	mustBind(t, extra, 4, 5, "b")

	if err := g.Merge(extra, 4, 4); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}
	kid, _ := g.Kid(4, "b")
	got, err := g.Data(kid)
	if err != nil || len(got) != 1 || got[0] != 5 {
		t.Fatalf("Data(%d) = %v, %v; want [5]", kid, got, err)
	}
}

func TestMergeZeroToZero(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 0, 1, 2)
	mustBind(t, g, 0, 1, "a")
	mustBind(t, g, 1, 0, "back")
	mustBind(t, g, 0, 2, "b")
	extra := sodg.Empty()
	mustAdd(t, extra, 0, 1)
	mustBind(t, extra, 0, 1, "c")
	mustBind(t, extra, 1, 0, "back")

	if err := g.Merge(extra, 0, 0); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != 4 {
		t.Fatalf("Len = %d, want 4", g.Len())
	}
}

func TestMergeFindsSiblings(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 0, 1, 2)
	mustBind(t, g, 0, 1, "a")
	mustBind(t, g, 0, 2, "b")
	extra := sodg.Empty()
	mustAdd(t, extra, 0, 1)
	mustBind(t, extra, 0, 1, "b")

	if err := g.Merge(extra, 0, 0); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
}

func TestMergeDiamond(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 0)
	extra := sodg.Empty()
	mustAdd(t, extra, 0, 1, 2, 3)
	mustBind(t, extra, 0, 1, "a")
	mustBind(t, extra, 0, 2, "b")
	mustBind(t, extra, 1, 3, "c")
	mustBind(t, extra, 2, 3, "d")

	if err := g.Merge(extra, 0, 0); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != 4 {
		t.Fatalf("Len = %d, want 4", g.Len())
	}
	a, _ := g.Kid(0, "a")
	b, _ := g.Kid(0, "b")
	c, _ := g.Kid(a, "c")
	if _, ok := g.Kid(b, "d"); ok {
		t.Fatal("converging edge must not reuse the plain label")
	}
	if to, ok := g.Kid(b, "d/1"); !ok || to != c {
		t.Fatalf("Kid(%d, d/1) = %d, %v; want %d, true", b, to, ok, c)
	}
}

func TestMergeConvergentLabelSkipsTaken(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 0, 1, 2, 3)
	mustBind(t, g, 0, 1, "a")
	mustBind(t, g, 0, 2, "b")
	mustBind(t, g, 2, 3, "d/1")
	extra := sodg.Empty()
	mustAdd(t, extra, 0, 1, 2, 3)
	mustBind(t, extra, 0, 1, "a")
	mustBind(t, extra, 0, 2, "b")
	mustBind(t, extra, 1, 3, "c")
	mustBind(t, extra, 2, 3, "d")

	if err := g.Merge(extra, 0, 0); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	c, _ := g.Kid(1, "c")
	if to, _ := g.Kid(2, "d/1"); to != 3 {
		t.Fatalf("pre-existing ν2.d/1 changed to %d", to)
	}
	if to, ok := g.Kid(2, "d/2"); !ok || to != c {
		t.Fatalf("Kid(2, d/2) = %d, %v; want %d, true", to, ok, c)
	}
}

func TestMergeCoverage(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 0)
	extra := sodg.Empty()
	mustAdd(t, extra, 0, 1, 2)
	mustBind(t, extra, 0, 1, "a")

	err := g.Merge(extra, 0, 0)
	if !errors.Is(err, sodg.ErrCoverage) {
		t.Fatalf("expected ErrCoverage, got %v", err)
	}
	var ce *sodg.CoverageError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CoverageError, got %T", err)
	}
	if ce.Merged != 2 || ce.Total != 3 {
		t.Fatalf("CoverageError = %d/%d, want 2/3", ce.Merged, ce.Total)
	}
}

func TestMergeMissingLeft(t *testing.T) {
	g := sodg.Empty()
	extra := sodg.Empty()
	mustAdd(t, extra, 0, 1)
	mustBind(t, extra, 0, 1, "a")

	err := g.Merge(extra, 0, 0)
	if !errors.Is(err, sodg.ErrVertexNotFound) {
		t.Fatalf("expected ErrVertexNotFound, got %v", err)
	}

	// A lone source vertex has nothing to write, so the check must not
	// depend on a Put or Bind failing.
	single := sodg.Empty()
	mustAdd(t, single, 0)
	err = g.Merge(single, 7, 0)
	if !errors.Is(err, sodg.ErrVertexNotFound) {
		t.Fatalf("Merge into missing ν7 = %v, want ErrVertexNotFound", err)
	}
	if g.Len() != 0 {
		t.Fatalf("Len = %d after failed merge, want 0", g.Len())
	}
}

func TestMergeMissingRight(t *testing.T) {
	g := sodg.Empty()
	mustAdd(t, g, 0)
	extra := sodg.Empty()
	mustAdd(t, extra, 1)

	err := g.Merge(extra, 0, 7)
	if !errors.Is(err, sodg.ErrVertexNotFound) {
		t.Fatalf("expected ErrVertexNotFound, got %v", err)
	}
}

func TestMergeTwoBigGraphs(t *testing.T) {
	g := sodg.Empty()
	if _, err := script.New(`
		ADD(0); ADD(1); BIND(0, 1, foo);
		ADD(2); BIND(0, 1, alpha);
		BIND(1, 0, back);
	`).Deploy(g); err != nil {
		t.Fatalf("deploy g: %v", err)
	}
	extra := sodg.Empty()
	if _, err := script.New("ADD(0); ADD(1); BIND(0, 1, bar); BIND(1, 0, back);").Deploy(extra); err != nil {
		t.Fatalf("deploy extra: %v", err)
	}

	if err := g.Merge(extra, 0, 0); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.Len() != 4 {
		t.Fatalf("Len = %d, want 4", g.Len())
	}
}
