package experiment

import (
	"sync"
	"time"

	"github.com/quantfold/bayesab/bayes"
)

type cacheEntry struct {
	result   *bayes.AnalysisResult
	cachedAt time.Time
}

// InMemoryAnalysisCache is a simple in-memory implementation of
// AnalysisCache. Thread-safe for concurrent access.
type InMemoryAnalysisCache struct {
	entries map[string]cacheEntry
	config  CacheConfig
	mu      sync.RWMutex
}

// NewInMemoryAnalysisCache creates a new in-memory analysis cache.
func NewInMemoryAnalysisCache(config CacheConfig) *InMemoryAnalysisCache {
	return &InMemoryAnalysisCache{
		entries: make(map[string]cacheEntry),
		config:  config,
	}
}

// Get retrieves a cached analysis. Returns nil on a miss or when the
// entry has outlived the configured TTL.
func (c *InMemoryAnalysisCache) Get(experimentID string) *bayes.AnalysisResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[experimentID]
	if !ok {
		return nil
	}
	if c.config.TTL > 0 && time.Since(entry.cachedAt) > c.config.TTL {
		return nil
	}
	return entry.result
}

// Set stores a finished analysis for an experiment.
func (c *InMemoryAnalysisCache) Set(experimentID string, result *bayes.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[experimentID] = cacheEntry{result: result, cachedAt: time.Now()}
}

// Invalidate drops one experiment's cached analysis.
func (c *InMemoryAnalysisCache) Invalidate(experimentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, experimentID)
}

// InvalidateAll clears the cache.
func (c *InMemoryAnalysisCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}
