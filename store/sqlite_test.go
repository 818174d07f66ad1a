package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	defer s.Close()

	testBackend(t, s)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "kv.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, "carts", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	b, err := s.Read(ctx, "carts")
	if err != nil {
		t.Fatalf("reading after reopen: %v", err)
	}
	if string(b) != `[]` {
		t.Fatalf("unexpected value %q", b)
	}
}
