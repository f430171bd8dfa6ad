package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
)

const defaultMaxEntries = 10000

// CachedEmbedder wraps an embedding provider with an in-memory cache keyed by
// model id and text content. Batch calls are split into hits and misses; only
// the misses reach the provider, and results are merged back in input order.
type CachedEmbedder struct {
	provider   port.Embedder
	log        *slog.Logger
	maxEntries int

	mu      sync.Mutex
	entries map[string][]float32
	order   []string
	hits    uint64
	misses  uint64
}

func NewCachedEmbedder(provider port.Embedder, maxEntries int, logger *slog.Logger) *CachedEmbedder {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedder{
		provider:   provider,
		log:        logger,
		maxEntries: maxEntries,
		entries:    make(map[string][]float32),
	}
}

func embedKey(modelID, text string) string {
	h := sha256.New()
	h.Write([]byte(modelID))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Embed serves cached vectors where possible and forwards the remaining texts
// to the provider in their original order.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := c.provider.ModelID()
	keys := make([]string, len(texts))
	vectors := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	c.mu.Lock()
	for i, text := range texts {
		keys[i] = embedKey(model, text)
		if vec, ok := c.entries[keys[i]]; ok {
			vectors[i] = vec
			c.hits++
			continue
		}
		c.misses++
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	c.mu.Unlock()

	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := c.provider.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	c.mu.Lock()
	for j, i := range missIdx {
		vectors[i] = fresh[j]
		c.seedLocked(keys[i], fresh[j])
	}
	c.mu.Unlock()

	c.log.Debug("embed cache: batch served",
		"texts", len(texts),
		"cached", len(texts)-len(missTexts),
		"embedded", len(missTexts))
	return vectors, nil
}

func (c *CachedEmbedder) Dimension() int { return c.provider.Dimension() }

func (c *CachedEmbedder) ModelID() string { return c.provider.ModelID() }

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *CachedEmbedder) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// seed inserts a precomputed vector, used when warming from a persistent layer.
func (c *CachedEmbedder) seed(key string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seedLocked(key, vector)
}

func (c *CachedEmbedder) seedLocked(key string, vector []float32) {
	if _, ok := c.entries[key]; ok {
		return
	}
	if len(c.entries) >= c.maxEntries {
		c.evictOldestHalfLocked()
	}
	c.entries[key] = vector
	c.order = append(c.order, key)
}

// evictOldestHalfLocked drops the older half of the cache in insertion order.
func (c *CachedEmbedder) evictOldestHalfLocked() {
	drop := len(c.order) / 2
	if drop == 0 {
		drop = len(c.order)
	}
	for _, key := range c.order[:drop] {
		delete(c.entries, key)
	}
	kept := make([]string, len(c.order)-drop)
	copy(kept, c.order[drop:])
	c.order = kept
	c.log.Debug("embed cache: evicted oldest entries", "dropped", drop, "kept", len(kept))
}

// snapshot copies the current entries, for flushing to a persistent layer.
func (c *CachedEmbedder) snapshot() map[string][]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]float32, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
