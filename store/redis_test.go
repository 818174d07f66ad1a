package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	r := NewRedis(mr.Addr(), "", 0, "test:")
	defer r.Close()

	log, _ := test.NewNullLogger()
	if err := r.Initialize(context.Background(), log, 1); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	testBackend(t, r)
}

func TestRedisPrefix(t *testing.T) {
	mr := miniredis.RunT(t)

	r := NewRedis(mr.Addr(), "", 0, "petmarket:")
	defer r.Close()

	if err := r.Write(context.Background(), "carts", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}

	got, err := mr.Get("petmarket:carts")
	if err != nil {
		t.Fatalf("expected the prefixed key in redis: %v", err)
	}
	if got != `[]` {
		t.Fatalf("unexpected value %q", got)
	}
}
