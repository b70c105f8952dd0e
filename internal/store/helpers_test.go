package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/shadestore/internal/ir"
)

// createTestStore creates a store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func pending(name string, class ir.ClassID) Pending {
	return Pending{Name: name, Class: class, Payload: []byte(`{"name":"` + name + `"}`)}
}
