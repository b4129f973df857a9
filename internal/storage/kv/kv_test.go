package kv

import (
	"bytes"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	file, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   file,
		"sqlite": sqlite,
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get("missing"); err != ErrNotFound {
				t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
			}

			if err := store.Set("k", []byte("v1")); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := store.Get("k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !bytes.Equal(got, []byte("v1")) {
				t.Fatalf("Get = %q, want v1", got)
			}

			// Set replaces the full value.
			if err := store.Set("k", []byte("v2")); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, _ = store.Get("k")
			if !bytes.Equal(got, []byte("v2")) {
				t.Fatalf("Get after overwrite = %q, want v2", got)
			}

			if err := store.Delete("k"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := store.Get("k"); err != ErrNotFound {
				t.Fatalf("Get after delete = %v, want ErrNotFound", err)
			}

			// Deleting a missing key is not an error.
			if err := store.Delete("k"); err != nil {
				t.Fatalf("Delete twice: %v", err)
			}
		})
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	store := NewMemoryStore()
	value := []byte("original")
	if err := store.Set("k", value); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value[0] = 'X'

	got, err := store.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value mutated through caller slice: %q", got)
	}
}
