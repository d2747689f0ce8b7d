// Package store provides a SQLite-backed product catalog.
//
// The store holds one catalog per vendor plus an import log:
//   - products: catalog entries, ordered by seq within a vendor
//   - imports: one row per Import, with the catalog content hash
//
// # Ordering
//
// Catalog order decides which product becomes primary for a component, so
// every read orders by seq ASC, never by id or rowid. Import assigns seq
// from the input slice position.
//
// # Database Configuration
//
//   - WAL mode: concurrent readers while an import runs
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Prices are stored as integer cents. Specs and compatibility tags are
// stored as JSON text; NULL means the product had none.
package store
