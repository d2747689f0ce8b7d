package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainCart prefixes cart content hashes.
// The version suffix leaves room for changing what is hashed.
const DomainCart = "cartpilot/cart/v1"

// DomainCatalog prefixes catalog content hashes.
const DomainCatalog = "cartpilot/catalog/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CartHash computes a content-addressed identity for a cart.
//
// Two resolutions that bind the same components to the same products at the
// same prices hash identically, regardless of request id. Specs and names
// are excluded: they are display data, not identity.
func CartHash(cart []CartItem) (string, error) {
	items := make([]any, len(cart))
	for i, item := range cart {
		items[i] = map[string]any{
			"component": item.Component,
			"id":        item.ID,
			"price":     item.Price,
		}
	}

	canonical, err := MarshalCanonical(map[string]any{"items": items})
	if err != nil {
		return "", fmt.Errorf("CartHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCart, canonical), nil
}

// CatalogHash identifies catalog content: product ids, prices and
// categories in catalog order. Two imports of the same file hash equally.
func CatalogHash(products []Product) (string, error) {
	items := make([]any, len(products))
	for i, p := range products {
		items[i] = map[string]any{
			"category": p.Category,
			"id":       p.ID,
			"price":    p.Price,
		}
	}

	canonical, err := MarshalCanonical(map[string]any{"products": items})
	if err != nil {
		return "", fmt.Errorf("CatalogHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCatalog, canonical), nil
}
