// Package cache stores formatting results keyed by a hash of their inputs.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for several server instances
//   - [NullCache]: never stores anything, for --no-cache and tests
//
// # Keys
//
// A [Keyer] turns the inputs of an operation into a cache key. Keys hash
// every input that can change the result, so a settings change or a
// different affected range never returns a stale layout:
//
//	k := cache.NewDefaultKeyer()
//	key := k.FormatKey(cache.FixtureHash(src), cache.FormatKeyOpts{Settings: s})
//
// [ScopedKeyer] adds a prefix for callers that share one backend.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/config"
)

// Default TTLs per result kind.
const (
	FormatTTL = 24 * time.Hour
	IndentTTL = time.Hour
	DumpTTL   = 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// =============================================================================
// Keys
// =============================================================================

// FormatKeyOpts are the inputs of a format run besides the fixture.
type FormatKeyOpts struct {
	Settings config.Settings  `json:"settings"`
	Affected *block.TextRange `json:"affected,omitempty"`
}

// IndentKeyOpts are the inputs of an indent query besides the fixture.
type IndentKeyOpts struct {
	Settings config.Settings `json:"settings"`
	Offset   int             `json:"offset"`
}

// DumpKeyOpts are the inputs of a tree dump besides the fixture.
type DumpKeyOpts struct {
	Format   string           `json:"format"`
	Solved   bool             `json:"solved"`
	Detailed bool             `json:"detailed"`
	Settings config.Settings  `json:"settings"`
	Affected *block.TextRange `json:"affected,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// FormatKey keys a format result by fixture hash and options.
	FormatKey(sourceHash string, opts FormatKeyOpts) string

	// IndentKey keys an indent query by fixture hash and options.
	IndentKey(sourceHash string, opts IndentKeyOpts) string

	// DumpKey keys a rendered dump by fixture hash and options.
	DumpKey(sourceHash string, opts DumpKeyOpts) string
}

// DefaultKeyer hashes every key component with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FormatKey implements Keyer.
func (DefaultKeyer) FormatKey(sourceHash string, opts FormatKeyOpts) string {
	return hashKey("format", sourceHash, opts)
}

// IndentKey implements Keyer.
func (DefaultKeyer) IndentKey(sourceHash string, opts IndentKeyOpts) string {
	return hashKey("indent", sourceHash, opts)
}

// DumpKey implements Keyer.
func (DefaultKeyer) DumpKey(sourceHash string, opts DumpKeyOpts) string {
	return hashKey("dump", sourceHash, opts)
}
