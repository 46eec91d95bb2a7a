package experiment

import (
	"sync"
	"testing"
	"time"

	"github.com/quantfold/bayesab/bayes"
)

func TestAnalysisCacheInterface(t *testing.T) {
	var _ AnalysisCache = (*InMemoryAnalysisCache)(nil)
}

func fakeResult() *bayes.AnalysisResult {
	return &bayes.AnalysisResult{
		Delta: []float64{0.01, 0.02},
		Summaries: []bayes.SummaryRecord{
			{Name: bayes.QuantityDelta, Mean: 0.015},
		},
	}
}

func TestCacheSetGet(t *testing.T) {
	cache := NewInMemoryAnalysisCache(DefaultCacheConfig())

	if got := cache.Get("exp-1"); got != nil {
		t.Fatal("Get() on empty cache should return nil")
	}

	cache.Set("exp-1", fakeResult())
	got := cache.Get("exp-1")
	if got == nil {
		t.Fatal("Get() after Set() should return the result")
	}
	if got.Summaries[0].Mean != 0.015 {
		t.Errorf("cached mean = %v, want 0.015", got.Summaries[0].Mean)
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewInMemoryAnalysisCache(DefaultCacheConfig())
	cache.Set("exp-1", fakeResult())
	cache.Set("exp-2", fakeResult())

	cache.Invalidate("exp-1")
	if cache.Get("exp-1") != nil {
		t.Error("Get() after Invalidate() should return nil")
	}
	if cache.Get("exp-2") == nil {
		t.Error("Invalidate() should not drop other entries")
	}

	cache.InvalidateAll()
	if cache.Get("exp-2") != nil {
		t.Error("Get() after InvalidateAll() should return nil")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewInMemoryAnalysisCache(CacheConfig{TTL: 10 * time.Millisecond})
	cache.Set("exp-1", fakeResult())

	if cache.Get("exp-1") == nil {
		t.Fatal("entry should be live immediately after Set()")
	}

	time.Sleep(20 * time.Millisecond)
	if cache.Get("exp-1") != nil {
		t.Error("entry should expire after the TTL")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := NewInMemoryAnalysisCache(DefaultCacheConfig())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Set("shared", fakeResult())
			cache.Get("shared")
			cache.Invalidate("shared")
		}()
	}
	wg.Wait()
}
