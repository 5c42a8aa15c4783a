package snapshot_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/haivivi/sodg/pkg/dump"
	"github.com/haivivi/sodg/pkg/kv"
	"github.com/haivivi/sodg/pkg/script"
	"github.com/haivivi/sodg/pkg/snapshot"
	"github.com/haivivi/sodg/pkg/sodg"
)

func newStore(t *testing.T) (*snapshot.Store, kv.Store) {
	t.Helper()
	st := kv.NewMemory(nil)
	t.Cleanup(func() { st.Close() })
	return snapshot.New(st, kv.Key{"sodg"}), st
}

func sample(t *testing.T) *sodg.Graph {
	t.Helper()
	g := sodg.Empty()
	s := script.New(`
		ADD(0); ADD($a); ADD($b);
		BIND(0, $a, foo); BIND($a, $b, bar); BIND($b, 0, ρ);
		PUT($a, 68-65-6c-6c-6f);
	`)
	if _, err := s.Deploy(g); err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	g.Put(2, nil)
	return g
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	g := sample(t)
	g.NextID() // allocator ahead of Max must survive

	meta, err := s.Save(ctx, "main", g)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if meta.Name != "main" || meta.Vertices != 3 || meta.Next != g.Peek() {
		t.Fatalf("Save meta = %+v", meta)
	}

	back, err := s.Load(ctx, "main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dump.Fingerprint(back) != dump.Fingerprint(g) {
		t.Fatal("loaded graph differs")
	}
	if back.Peek() != g.Peek() {
		t.Fatalf("Peek = %d, want %d", back.Peek(), g.Peek())
	}
	if full, _ := back.IsFull(2); !full {
		t.Fatal("empty payload lost")
	}
	if full, _ := back.IsFull(0); full {
		t.Fatal("root gained a payload")
	}
}

func TestSaveLargePayload(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	g := sodg.Empty()
	g.Add(0)
	big := bytes.Repeat([]byte("sodg "), 1000)
	g.Put(0, big)

	if _, err := s.Save(ctx, "big", g); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := s.Load(ctx, "big")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, _ := back.Data(0)
	if !bytes.Equal(got, big) {
		t.Fatalf("Data = %d bytes, want %d", len(got), len(big))
	}
}

func TestSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	first, err := s.Save(ctx, "main", sample(t))
	if err != nil {
		t.Fatal(err)
	}

	small := sodg.Empty()
	small.Add(0)
	meta, err := s.Save(ctx, "main", small)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !meta.Created.Equal(first.Created) {
		t.Fatalf("Created = %v, want %v", meta.Created, first.Created)
	}
	back, err := s.Load(ctx, "main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (stale vertices left behind)", back.Len())
	}
}

func TestSaveDefaultName(t *testing.T) {
	s, _ := newStore(t)
	meta, err := s.Save(context.Background(), "", sample(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(meta.Name) != 36 {
		t.Fatalf("Name = %q, want a UUID", meta.Name)
	}
}

func TestInvalidName(t *testing.T) {
	s, _ := newStore(t)
	if _, err := s.Save(context.Background(), "a:b", sample(t)); !errors.Is(err, snapshot.ErrInvalidName) {
		t.Fatalf("Save = %v, want ErrInvalidName", err)
	}
}

func TestListDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := s.Save(ctx, name, sample(t)); err != nil {
			t.Fatal(err)
		}
	}
	metas, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, m := range metas {
		names = append(names, m.Name)
	}
	if len(names) != 3 || names[0] != "alpha" || names[2] != "zeta" {
		t.Fatalf("List = %v", names)
	}

	if err := s.Delete(ctx, "mid"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "mid"); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("Load deleted = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "mid"); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("Delete twice = %v, want ErrNotFound", err)
	}
	if _, err := s.Load(ctx, "alpha"); err != nil {
		t.Fatalf("Load alpha: %v", err)
	}
}

func TestLoadDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	s, st := newStore(t)
	if _, err := s.Save(ctx, "main", sample(t)); err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(ctx, kv.Key{"sodg", "v", "main", "2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "main"); !errors.Is(err, snapshot.ErrCorrupt) {
		t.Fatalf("Load = %v, want ErrCorrupt", err)
	}
}

func TestPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	st, err := kv.NewSQLite(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	a := snapshot.New(st, kv.Key{"a"})
	b := snapshot.New(st, kv.Key{"b"})
	if _, err := a.Save(ctx, "main", sample(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Load(ctx, "main"); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("Load from other prefix = %v, want ErrNotFound", err)
	}
	if _, err := a.Load(ctx, "main"); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
