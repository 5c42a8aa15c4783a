package kv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/haivivi/sodg/pkg/kv"
)

func TestBadgerDirRequired(t *testing.T) {
	if _, err := kv.NewBadger(kv.BadgerOptions{}); err == nil {
		t.Fatal("expected error without Dir or InMemory")
	}
}

func TestBadgerReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	if err := s.Set(ctx, kv.Key{"snap", "x"}, []byte("kept")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, kv.Key{"snap", "x"})
	if err != nil || string(got) != "kept" {
		t.Fatalf("Get after reopen = %q, %v", got, err)
	}
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sodg.db")
	ctx := context.Background()

	s, err := kv.NewSQLite(path, nil)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	if err := s.Set(ctx, kv.Key{"snap", "x"}, []byte("kept")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = kv.NewSQLite(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, kv.Key{"snap", "x"})
	if err != nil || string(got) != "kept" {
		t.Fatalf("Get after reopen = %q, %v", got, err)
	}
}
