package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/cartpilot/internal/ir"
)

// DefaultVendor is the vendor key read from catalog files when none is given.
const DefaultVendor = "grainger"

// ErrNoProducts is returned for a catalog without a products section.
var ErrNoProducts = errors.New("catalog has no products section")

// Source loads the product catalog.
//
// Implementations return products in catalog order; selection ranks
// matches by that order. Callers must treat the returned products as
// read-only.
type Source interface {
	Load(ctx context.Context) ([]ir.Product, error)
}

// Static is an in-memory Source, mostly for tests.
type Static []ir.Product

// Load returns the products unchanged.
func (s Static) Load(context.Context) ([]ir.Product, error) {
	return s, nil
}

// JSONFile reads a catalog file from disk.
type JSONFile struct {
	Path   string
	Vendor string // empty means DefaultVendor
}

// Load reads and decodes the file.
func (f JSONFile) Load(ctx context.Context) ([]ir.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	products, err := Decode(file, f.Vendor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return products, nil
}

// document is the on-disk catalog shape.
type document struct {
	Products map[string][]ir.Product `json:"products"`
}

// Decode reads a catalog document and returns the vendor's products.
//
// Every product must have a non-empty id; a missing price decodes as zero.
// An unknown vendor is an error listing the vendors present.
func Decode(r io.Reader, vendor string) ([]ir.Product, error) {
	if vendor == "" {
		vendor = DefaultVendor
	}

	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if doc.Products == nil {
		return nil, ErrNoProducts
	}

	products, ok := doc.Products[vendor]
	if !ok {
		vendors := make([]string, 0, len(doc.Products))
		for v := range doc.Products {
			vendors = append(vendors, v)
		}
		sort.Strings(vendors)
		return nil, fmt.Errorf("vendor %q not in catalog (have: %s)", vendor, strings.Join(vendors, ", "))
	}

	for i, p := range products {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("product %d (%q) has no id", i, p.Name)
		}
	}
	if products == nil {
		products = []ir.Product{}
	}
	return products, nil
}

// Encode writes products as a single-vendor catalog document.
func Encode(w io.Writer, vendor string, products []ir.Product) error {
	if vendor == "" {
		vendor = DefaultVendor
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{Products: map[string][]ir.Product{vendor: products}})
}

// Cache memoizes the first successful load of a Source.
//
// Failures are not cached, so a transient error on one request does not
// poison later ones. Cache is safe for concurrent use; concurrent first
// loads are serialized.
type Cache struct {
	src Source

	mu       sync.Mutex
	loaded   bool
	products []ir.Product
}

// NewCache wraps src.
func NewCache(src Source) *Cache {
	return &Cache{src: src}
}

// Load returns the cached catalog, loading it on first use.
func (c *Cache) Load(ctx context.Context) ([]ir.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.products, nil
	}
	products, err := c.src.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.products = slices.Clip(products)
	c.loaded = true
	return c.products, nil
}
