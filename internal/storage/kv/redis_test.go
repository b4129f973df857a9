package kv

import (
	"bytes"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)

	store, err := NewRedisStore(srv.Addr(), "", 0)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	defer store.Close()

	if _, err := store.Get("missing"); err != ErrNotFound {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	if err := store.Set("db", []byte(`{"users":[]}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get("db")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte(`{"users":[]}`)) {
		t.Fatalf("Get = %q", got)
	}

	if err := store.Delete("db"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get("db"); err != ErrNotFound {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestRedisStoreConnectFailure(t *testing.T) {
	if _, err := NewRedisStore("127.0.0.1:1", "", 0); err == nil {
		t.Fatal("expected connection error for unreachable redis")
	}
}
