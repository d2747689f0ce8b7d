package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/cartpilot/internal/catalog"
	"github.com/roach88/cartpilot/internal/ir"
)

// ImportRecord describes one catalog import.
type ImportRecord struct {
	ID           int64     `json:"id"`
	Vendor       string    `json:"vendor"`
	Source       string    `json:"source"`
	ProductCount int       `json:"product_count"`
	CatalogHash  string    `json:"catalog_hash"`
	ImportedAt   time.Time `json:"imported_at"`
}

// Import replaces the vendor's catalog with products, in one transaction.
//
// Products keep their slice order as seq. Duplicate ids are kept: the
// first occurrence wins selection, exactly as in the source file. source
// is informational (usually the file path).
func (s *Store) Import(ctx context.Context, vendor, source string, products []ir.Product) (ImportRecord, error) {
	if vendor == "" {
		vendor = catalog.DefaultVendor
	}
	for i, p := range products {
		if strings.TrimSpace(p.ID) == "" {
			return ImportRecord{}, fmt.Errorf("import: product %d (%q) has no id", i, p.Name)
		}
	}

	hash, err := ir.CatalogHash(products)
	if err != nil {
		return ImportRecord{}, fmt.Errorf("import: %w", err)
	}
	rec := ImportRecord{
		Vendor:       vendor,
		Source:       source,
		ProductCount: len(products),
		CatalogHash:  hash,
		ImportedAt:   time.Now().UTC().Truncate(time.Second),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportRecord{}, fmt.Errorf("import: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO imports (vendor, source, product_count, catalog_hash, imported_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.Vendor, rec.Source, rec.ProductCount, rec.CatalogHash, rec.ImportedAt.Format(time.RFC3339))
	if err != nil {
		return ImportRecord{}, fmt.Errorf("import: record: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return ImportRecord{}, fmt.Errorf("import: record id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE vendor = ?`, vendor); err != nil {
		return ImportRecord{}, fmt.Errorf("import: clear vendor: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products
		(vendor, seq, id, name, price_cents, category, specs, compatibility_tags, import_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ImportRecord{}, fmt.Errorf("import: prepare: %w", err)
	}
	defer stmt.Close()

	for i, p := range products {
		specs, err := marshalNullable(p.Specs, p.Specs == nil)
		if err != nil {
			return ImportRecord{}, fmt.Errorf("import: product %q specs: %w", p.ID, err)
		}
		tags, err := marshalNullable(p.CompatibilityTags, p.CompatibilityTags == nil)
		if err != nil {
			return ImportRecord{}, fmt.Errorf("import: product %q tags: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			vendor, i, p.ID, p.Name, int64(p.Price), p.Category, specs, tags, rec.ID,
		); err != nil {
			return ImportRecord{}, fmt.Errorf("import: product %q: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportRecord{}, fmt.Errorf("import: commit: %w", err)
	}
	return rec, nil
}

// Products returns the vendor's catalog in catalog order.
// Returns an empty slice (not nil) for a vendor with no products.
func (s *Store) Products(ctx context.Context, vendor string) ([]ir.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price_cents, category, specs, compatibility_tags
		FROM products
		WHERE vendor = ?
		ORDER BY seq ASC
	`, vendor)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []ir.Product{}
	for rows.Next() {
		var (
			p     ir.Product
			price int64
			specs sql.NullString
			tags  sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.Category, &specs, &tags); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Price = ir.Cents(price)
		if specs.Valid {
			if err := json.Unmarshal([]byte(specs.String), &p.Specs); err != nil {
				return nil, fmt.Errorf("product %q specs: %w", p.ID, err)
			}
		}
		if tags.Valid {
			if err := json.Unmarshal([]byte(tags.String), &p.CompatibilityTags); err != nil {
				return nil, fmt.Errorf("product %q tags: %w", p.ID, err)
			}
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// ErrNoImport is returned by LastImport for a vendor never imported.
var ErrNoImport = errors.New("no catalog imported for vendor")

// LastImport returns the most recent import for vendor.
func (s *Store) LastImport(ctx context.Context, vendor string) (ImportRecord, error) {
	var (
		rec ImportRecord
		at  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, vendor, source, product_count, catalog_hash, imported_at
		FROM imports
		WHERE vendor = ?
		ORDER BY id DESC
		LIMIT 1
	`, vendor).Scan(&rec.ID, &rec.Vendor, &rec.Source, &rec.ProductCount, &rec.CatalogHash, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return ImportRecord{}, fmt.Errorf("%w %q", ErrNoImport, vendor)
	}
	if err != nil {
		return ImportRecord{}, fmt.Errorf("query last import: %w", err)
	}
	if rec.ImportedAt, err = time.Parse(time.RFC3339, at); err != nil {
		return ImportRecord{}, fmt.Errorf("parse imported_at: %w", err)
	}
	return rec, nil
}

// Source returns a catalog.Source reading vendor's products from s.
// An empty vendor means catalog.DefaultVendor.
func (s *Store) Source(vendor string) catalog.Source {
	if vendor == "" {
		vendor = catalog.DefaultVendor
	}
	return vendorSource{store: s, vendor: vendor}
}

type vendorSource struct {
	store  *Store
	vendor string
}

// Load implements catalog.Source. A vendor that was never imported is an
// error, not an empty catalog: resolving against nothing is a setup fault.
func (v vendorSource) Load(ctx context.Context) ([]ir.Product, error) {
	_, err := v.store.LastImport(ctx, v.vendor)
	if errors.Is(err, ErrNoImport) {
		if have, verr := v.store.Vendors(ctx); verr == nil && len(have) > 0 {
			return nil, fmt.Errorf("%w (have: %s)", err, strings.Join(have, ", "))
		}
	}
	if err != nil {
		return nil, err
	}
	return v.store.Products(ctx, v.vendor)
}

func marshalNullable(v any, isNil bool) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
