package experiment

import (
	"time"

	"github.com/quantfold/bayesab/bayes"
)

// AnalysisCache caches finished analyses keyed by experiment ID so
// repeated reads of the same unchanged design skip the sampler
// entirely. Implementations must be safe for concurrent use.
type AnalysisCache interface {
	// Get retrieves a cached result, nil on miss or expiry
	Get(experimentID string) *bayes.AnalysisResult

	// Set stores a finished result
	Set(experimentID string, result *bayes.AnalysisResult)

	// Invalidate drops one experiment's cached result
	Invalidate(experimentID string)

	// InvalidateAll clears the cache
	InvalidateAll()
}

// CacheConfig holds configuration for cache behavior.
type CacheConfig struct {
	// TTL is the time-to-live for cached analyses.
	// Set to 0 for no expiration (manual invalidation only).
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults: analyses of an
// unchanged design never go stale, so entries live until the design
// mutates.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}
