// Package testutil provides deterministic request ids and catalog fixtures
// shared by package tests and the conformance harness.
package testutil

import (
	"fmt"
	"sync"
)

// FixedRequestID returns the same request id every time.
//
// Golden snapshots embed the request id, so scenarios that compare output
// byte-for-byte resolve under one fixed id.
//
// Thread-safety: FixedRequestID is stateless and safe for concurrent use.
type FixedRequestID struct {
	id string
}

// NewFixedRequestID creates a fixed id generator.
// If id is empty, Generate() returns "test-request-default".
func NewFixedRequestID(id string) *FixedRequestID {
	if id == "" {
		id = "test-request-default"
	}
	return &FixedRequestID{id: id}
}

// Generate returns the fixed id.
//
// Implements engine.RequestIDGenerator.
func (g *FixedRequestID) Generate() string {
	return g.id
}

// SequentialIDs numbers requests "<prefix>-1", "<prefix>-2", ...
//
// Unlike FixedRequestID every request gets its own id, which batch tests
// use to check that results stay in input order.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator; the first id ends in -1.
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Issued returns how many ids have been generated.
func (g *SequentialIDs) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}
