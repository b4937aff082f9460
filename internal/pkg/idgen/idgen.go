// Package idgen provides ID generation utilities.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Generator generates unique identifiers.
type Generator interface {
	Generate() string
}

// PrefixedGenerator generates IDs with a specific prefix.
//
// Uniqueness is practical, not cryptographic: a timestamp-derived prefix
// plus a random suffix is enough within a single process run.
type PrefixedGenerator struct {
	prefix string
}

// NewPrefixed creates a new generator with the given prefix.
func NewPrefixed(prefix string) *PrefixedGenerator {
	return &PrefixedGenerator{prefix: prefix}
}

// Generate creates a new ID with the format: prefix_timestamp_random.
func (g *PrefixedGenerator) Generate() string {
	timestamp := time.Now().UnixNano()
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		// crypto/rand.Read failing indicates a broken system.
		panic(fmt.Sprintf("crypto/rand.Read failed: %v", err))
	}
	return fmt.Sprintf("%s_%d_%s", g.prefix, timestamp, hex.EncodeToString(randomBytes))
}

// UUIDGenerator generates RFC 4122 UUIDs, used for session identifiers.
type UUIDGenerator struct{}

// Generate creates a new UUID string.
func (g *UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// SequentialGenerator generates sequential IDs for deterministic tests.
type SequentialGenerator struct {
	prefix  string
	counter uint64
}

// NewSequential creates a new sequential generator.
func NewSequential(prefix string) *SequentialGenerator {
	return &SequentialGenerator{prefix: prefix}
}

// Generate creates a new sequential ID.
func (g *SequentialGenerator) Generate() string {
	n := atomic.AddUint64(&g.counter, 1)
	if g.prefix != "" {
		return fmt.Sprintf("%s_%d", g.prefix, n)
	}
	return fmt.Sprintf("%d", n)
}
