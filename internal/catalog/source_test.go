package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartpilot/internal/ir"
)

const sampleCatalog = `{
  "products": {
    "grainger": [
      {"id": "digital-multimeters-fluke-117", "name": "Fluke 117", "price": 249.99,
       "category": "test_instruments", "specs": {"usage": "diagnostics"}, "compatibility_tags": ["testing"]},
      {"id": "safety-goggles-3m", "name": "3M Goggles", "price": "12.5", "category": "safety"},
      {"id": "kh-what-is-a-clamp-meter", "name": "Guide", "category": "guide"}
    ],
    "fastenal": []
  }
}`

func TestDecode(t *testing.T) {
	products, err := Decode(strings.NewReader(sampleCatalog), "")
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "digital-multimeters-fluke-117", products[0].ID)
	assert.Equal(t, ir.Cents(24999), products[0].Price)
	assert.Equal(t, map[string]any{"usage": "diagnostics"}, products[0].Specs)
	assert.Equal(t, []string{"testing"}, products[0].CompatibilityTags)

	assert.Equal(t, ir.Cents(1250), products[1].Price, "numeric strings are accepted")
	assert.Equal(t, ir.Cents(0), products[2].Price, "missing price is zero")
}

func TestDecode_Vendor(t *testing.T) {
	products, err := Decode(strings.NewReader(sampleCatalog), "fastenal")
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)

	_, err = Decode(strings.NewReader(sampleCatalog), "uline")
	assert.ErrorContains(t, err, `vendor "uline" not in catalog (have: fastenal, grainger)`)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not json", `products: []`, "decode catalog"},
		{"no products", `{"items": []}`, "no products section"},
		{"missing id", `{"products": {"grainger": [{"name": "Nameless"}]}}`, `product 0 ("Nameless") has no id`},
		{"bad price", `{"products": {"grainger": [{"id": "x", "price": "cheap"}]}}`, "invalid price"},
		{"price overflow", `{"products": {"grainger": [{"id": "x", "price": 1e19}]}}`, "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), "")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestDecode_NoProductsSentinel(t *testing.T) {
	_, err := Decode(strings.NewReader(`{}`), "")
	assert.True(t, errors.Is(err, ErrNoProducts))
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	in := []ir.Product{
		{ID: "pliers-knipex", Name: "Knipex", Price: 5999, Category: "tools"},
		{ID: "wrenches-crescent", Name: "Crescent", Price: 1899, Category: "tools"},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "", in))
	assert.Contains(t, buf.String(), `"grainger"`)
	assert.Contains(t, buf.String(), `"price": 59.99`)

	out, err := Decode(&buf, "")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0644))

	products, err := JSONFile{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 3)

	_, err = JSONFile{Path: filepath.Join(t.TempDir(), "missing.json")}.Load(context.Background())
	assert.ErrorContains(t, err, "open catalog")
}

func TestJSONFile_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := JSONFile{Path: "unused"}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// countingSource fails the first failures loads, then succeeds.
type countingSource struct {
	calls    atomic.Int32
	failures int32
}

func (s *countingSource) Load(context.Context) ([]ir.Product, error) {
	n := s.calls.Add(1)
	if n <= s.failures {
		return nil, errors.New("catalog offline")
	}
	return []ir.Product{{ID: "pliers-1"}}, nil
}

func TestCache_MemoizesSuccess(t *testing.T) {
	src := &countingSource{}
	cache := NewCache(src)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := cache.Load(context.Background())
			assert.NoError(t, err)
			assert.Len(t, products, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCache_DoesNotMemoizeFailure(t *testing.T) {
	src := &countingSource{failures: 1}
	cache := NewCache(src)

	_, err := cache.Load(context.Background())
	require.ErrorContains(t, err, "catalog offline")

	products, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, int32(2), src.calls.Load())
}
