package bayes

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Tracked quantity names, in the stable order summaries are reported.
const (
	QuantityRateA = "rate_a"
	QuantityRateB = "rate_b"
	QuantityDelta = "delta"
)

// Engine runs the full inference pipeline: validate inputs, build the
// posterior density, find a MAP starting point, sample, and summarize.
// It holds no mutable state across runs; the logger is the only
// dependency and is threaded in explicitly rather than read from a
// process-wide setting.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates an engine. A nil logger falls back to
// slog.Default().
func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log}
}

// Analyze runs one chain end to end and returns the three sample
// sequences with their summaries.
//
// Input violations wrap ErrInvalidInput and abort before any sampling.
// A failed MAP search is recovered by falling back to the naive
// frequency seed and logged at warning level. A *DegenerateChain from
// the sampler is fatal and returned with its diagnostics.
func (e *Engine) Analyze(obsA, obsB Observation, priorA, priorB PriorSpec, cfg Config) (*AnalysisResult, error) {
	model, err := NewPosteriorModel(obsA, obsB, priorA, priorB)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chain, stats, err := e.runChain(model, cfg)
	if err != nil {
		return nil, err
	}

	rateA := chain.RateA()
	rateB := chain.RateB()
	delta := DerivedDelta(chain)
	mixing := stats.Mixing()

	return &AnalysisResult{
		RateA: rateA,
		RateB: rateB,
		Delta: delta,
		Summaries: []SummaryRecord{
			Summarize(QuantityRateA, rateA, mixing),
			Summarize(QuantityRateB, rateB, mixing),
			Summarize(QuantityDelta, delta, mixing),
		},
	}, nil
}

// AnalyzeChains runs n independent chains in parallel from distinct
// RNG seeds and reports pooled summaries plus the split-chain
// Gelman-Rubin statistic per quantity. Chains share only the immutable
// model inputs; each goroutine owns its private chain, so no locking
// is needed beyond collecting results.
func (e *Engine) AnalyzeChains(obsA, obsB Observation, priorA, priorB PriorSpec, cfg Config, n int) (*AnalysisResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: chain count must be positive, got %d", ErrInvalidInput, n)
	}
	if n == 1 {
		return e.Analyze(obsA, obsB, priorA, priorB, cfg)
	}

	model, err := NewPosteriorModel(obsA, obsB, priorA, priorB)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chains := make([]Chain, n)
	allStats := make([]SampleStats, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := cfg
			// Widely spaced seeds keep the per-chain RNG streams from
			// overlapping.
			c.Seed = cfg.Seed + uint64(i)*0x9E3779B97F4A7C15
			chains[i], allStats[i], errs[i] = e.runChain(model, c)
		}(i)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var pooledA, pooledB, pooledDelta []float64
	perChainA := make([][]float64, n)
	perChainB := make([][]float64, n)
	perChainDelta := make([][]float64, n)
	accepted, produced := 0, 0
	for i, c := range chains {
		perChainA[i] = c.RateA()
		perChainB[i] = c.RateB()
		perChainDelta[i] = DerivedDelta(c)
		pooledA = append(pooledA, perChainA[i]...)
		pooledB = append(pooledB, perChainB[i]...)
		pooledDelta = append(pooledDelta, perChainDelta[i]...)
		accepted += allStats[i].Accepted
		produced += allStats[i].Produced
	}
	mixing := float64(accepted) / float64(produced)

	summA := Summarize(QuantityRateA, pooledA, mixing)
	summA.RHat = GelmanRubin(perChainA)
	summB := Summarize(QuantityRateB, pooledB, mixing)
	summB.RHat = GelmanRubin(perChainB)
	summD := Summarize(QuantityDelta, pooledDelta, mixing)
	summD.RHat = GelmanRubin(perChainDelta)

	return &AnalysisResult{
		RateA:     pooledA,
		RateB:     pooledB,
		Delta:     pooledDelta,
		Summaries: []SummaryRecord{summA, summB, summD},
	}, nil
}

// runChain seeds and runs a single sampler against an already
// validated model and config.
func (e *Engine) runChain(model *PosteriorModel, cfg Config) (Chain, SampleStats, error) {
	start, err := MAPSeed(model)
	if err != nil {
		var fail *OptimizationFailure
		if errors.As(err, &fail) {
			e.log.Warn("map seed search failed, using naive frequency seed",
				"reason", fail.Reason, "rateA", start.RateA, "rateB", start.RateB)
		} else {
			return nil, SampleStats{}, err
		}
	}

	sampler, err := NewSampler(model, cfg)
	if err != nil {
		return nil, SampleStats{}, err
	}

	chain, stats, err := sampler.Run(start)
	if err != nil {
		return nil, SampleStats{}, err
	}

	e.log.Debug("chain finished",
		"samples", stats.Produced,
		"mixing", stats.Mixing(),
		"warmupAcceptance", stats.WarmupAcceptance)
	return chain, stats, nil
}
