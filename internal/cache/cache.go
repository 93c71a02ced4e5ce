// Package cache implements the content-addressed transform cache a build
// consults, keyed by (source hash, transform-options fingerprint), grounded
// on the teacher's internal/cache.CacheSet shape (a struct of per-kind
// caches, each its own mutex-guarded map) but keyed for this pipeline's
// needs rather than the teacher's AST-caching needs. A Set lives as long as
// its owner keeps it; pkg/api creates a new Set for every build, so no
// entry carries over from one rebuild to the next.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/gobundle/gobundle/internal/transform"
)

// Set bundles every cache a build run consults, mirroring the teacher's
// CacheSet: one struct handed down through the pipeline instead of several
// loose globals.
type Set struct {
	Transform TransformCache
}

func NewSet() *Set {
	return &Set{
		Transform: TransformCache{entries: make(map[transformKey]transform.Result)},
	}
}

// ContentHash hashes a module's raw source bytes; this is the "source
// hash" half of the transform cache key.
func ContentHash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// OptionsFingerprint hashes the subset of transform.Options that affects
// its output, so two modules transformed under different build options
// (e.g. one dev build, one prod build sharing one Set) never
// collide on the same cache entry.
func OptionsFingerprint(opts transform.Options) string {
	h := sha256.New()
	h.Write([]byte{byte(opts.Loader)})
	if opts.JSXAutomatic {
		h.Write([]byte{1})
	}
	h.Write([]byte(opts.JSXFactory))
	h.Write([]byte(opts.JSXFragment))
	h.Write([]byte(opts.JSXImportFrom))
	keys := sortedKeys(opts.Define)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(opts.Define[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Insertion sort: define maps are small (a handful of entries per
	// build), so this avoids pulling in "sort" for what's effectively
	// always under a dozen comparisons.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

type transformKey struct {
	contentHash string
	fingerprint string
}

// TransformCache stores one Transform() result per (content hash, options
// fingerprint) pair, per spec.md's caching requirement for component C.
type TransformCache struct {
	mu      sync.Mutex
	entries map[transformKey]transform.Result
}

func (c *TransformCache) Get(contentHash, fingerprint string) (transform.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[transformKey{contentHash, fingerprint}]
	return r, ok
}

func (c *TransformCache) Put(contentHash, fingerprint string, result transform.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[transformKey{contentHash, fingerprint}] = result
}

// Invalidate drops every cached transform for a given content hash,
// regardless of fingerprint.
func (c *TransformCache) Invalidate(contentHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.contentHash == contentHash {
			delete(c.entries, k)
		}
	}
}
