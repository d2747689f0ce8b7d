// Package catalog supplies the read-only product collection the selector
// matches against.
//
// A Source loads products in catalog order. JSONFile reads the scraped
// catalog format:
//
//	{"products": {"grainger": [{"id": "...", "name": "...", "price": 49.99, ...}]}}
//
// store.Store is the sqlite-backed Source. Cache wraps any Source so the
// catalog is read once per process and then shared, unmodified, by every
// resolution.
package catalog
