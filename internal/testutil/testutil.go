// Package testutil provides shared test helpers for setting up graph
// stores and blob stores.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/othala/internal/graph"
	"github.com/starford/othala/internal/tree"
	"github.com/starford/othala/internal/uploads"
)

// TestStore creates a temporary graph store that is automatically closed.
func TestStore(t *testing.T) *graph.Store {
	t.Helper()
	store, err := graph.Open(filepath.Join(t.TempDir(), "graph.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestService creates a tree service over a temporary graph store.
func TestService(t *testing.T) *tree.Service {
	t.Helper()
	return tree.NewService(TestStore(t))
}

// TestBlobs creates a temporary attachment blob store.
func TestBlobs(t *testing.T) *uploads.Store {
	t.Helper()
	blobs, err := uploads.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return blobs
}
