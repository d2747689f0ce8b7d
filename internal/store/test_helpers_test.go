package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/cartpilot/internal/ir"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testProducts returns a small catalog with a duplicate id and a product
// without specs or tags.
func testProducts() []ir.Product {
	return []ir.Product{
		{
			ID:                "digital-multimeters-fluke-117",
			Name:              "Fluke 117",
			Price:             24999,
			Category:          "test_instruments",
			Specs:             map[string]any{"usage": "diagnostics"},
			CompatibilityTags: []string{"testing"},
		},
		{ID: "safety-goggles-3m", Name: "3M Goggles", Price: 4999, Category: "safety"},
		{ID: "digital-multimeters-fluke-117", Name: "Fluke 117 (dup)", Price: 23999, Category: "test_instruments"},
	}
}
