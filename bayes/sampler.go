package bayes

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// adaptWindow is the warm-up window length between step-size
// adjustments.
const adaptWindow = 100

// Multipliers applied to the proposal steps when the windowed
// acceptance rate leaves the target band. Acceptance too low means the
// steps are too large; too high means they are too timid.
const (
	stepShrink = 0.7
	stepGrow   = 1.3
)

// SampleStats carries the sampler's run diagnostics alongside the
// chain.
type SampleStats struct {
	Accepted         int     // moves accepted during production
	Produced         int     // retained chain length
	WarmupAcceptance float64 // acceptance rate over the whole warm-up
	FinalStepA       float64
	FinalStepB       float64
}

// Mixing is the accepted-move fraction of the retained chain.
func (s SampleStats) Mixing() float64 {
	if s.Produced == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Produced)
}

// Sampler draws from a PosteriorModel with an adaptive random-walk
// Metropolis kernel. It runs warm-up (tune step sizes, discard draws)
// then production (retain every draw, duplicating the current state on
// rejection), and is single-threaded: a Markov chain is inherently
// sequential. Run several Samplers with distinct seeds for parallel
// chains.
type Sampler struct {
	model *PosteriorModel
	cfg   Config
	rng   *rand.Rand
	noise distuv.Normal
	stepA float64
	stepB float64
}

// NewSampler validates cfg and prepares a sampler with the initial
// step sizes derived from the prior interval widths.
func NewSampler(model *PosteriorModel, cfg Config) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src := rand.NewSource(cfg.Seed)
	return &Sampler{
		model: model,
		cfg:   cfg,
		rng:   rand.New(src),
		noise: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		stepA: cfg.StepFrac * model.priorA.Width(),
		stepB: cfg.StepFrac * model.priorB.Width(),
	}, nil
}

// Run executes the full warm-up and production schedule starting from
// start and returns the retained chain of exactly
// Iterations - floor(Iterations*BurnFrac) samples.
//
// A start outside the prior box is a caller bug and is reported as an
// error rather than sampled around. If no proposal is accepted across
// the entire warm-up despite adaptation, Run returns a
// *DegenerateChain instead of a misleading all-duplicate chain.
func (s *Sampler) Run(start ParameterVector) (Chain, SampleStats, error) {
	current := start
	currentLP := s.model.LogPosterior(current)
	if math.IsInf(currentLP, -1) || math.IsNaN(currentLP) {
		return nil, SampleStats{}, fmt.Errorf("sampler start (%g, %g) is infeasible", start.RateA, start.RateB)
	}

	warmup := int(float64(s.cfg.Iterations) * s.cfg.BurnFrac)
	production := s.cfg.Iterations - warmup

	// Warm-up: adapt step sizes toward the acceptance band, discard
	// every draw.
	warmupAccepted := 0
	windowAccepted := 0
	windowSize := 0
	for i := 0; i < warmup; i++ {
		var accepted bool
		current, currentLP, accepted = s.step(current, currentLP)
		if accepted {
			warmupAccepted++
			windowAccepted++
		}
		windowSize++

		if windowSize == adaptWindow || i == warmup-1 {
			rate := float64(windowAccepted) / float64(windowSize)
			if rate < s.cfg.AcceptLow {
				s.stepA *= stepShrink
				s.stepB *= stepShrink
			} else if rate > s.cfg.AcceptHigh {
				s.stepA *= stepGrow
				s.stepB *= stepGrow
			}
			windowAccepted = 0
			windowSize = 0
		}
	}

	if warmup > 0 && warmupAccepted == 0 {
		return nil, SampleStats{}, &DegenerateChain{
			StepA:      s.stepA,
			StepB:      s.stepB,
			AcceptRate: 0,
			Warmup:     warmup,
		}
	}

	// Production: retain the current state every iteration. Rejections
	// duplicate the previous state, which preserves both the chain
	// length and the stationary distribution.
	chain := make(Chain, 0, production)
	accepted := 0
	for i := 0; i < production; i++ {
		var moved bool
		current, currentLP, moved = s.step(current, currentLP)
		if moved {
			accepted++
		}
		chain = append(chain, current)
	}

	stats := SampleStats{
		Accepted:         accepted,
		Produced:         production,
		WarmupAcceptance: warmupRate(warmupAccepted, warmup),
		FinalStepA:       s.stepA,
		FinalStepB:       s.stepB,
	}
	return chain, stats, nil
}

func warmupRate(accepted, warmup int) float64 {
	if warmup == 0 {
		return 0
	}
	return float64(accepted) / float64(warmup)
}

// step proposes one Metropolis move and returns the (possibly
// unchanged) state, its log density, and whether the move was
// accepted.
func (s *Sampler) step(current ParameterVector, currentLP float64) (ParameterVector, float64, bool) {
	candidate := ParameterVector{
		RateA: reflect(current.RateA+s.stepA*s.noise.Rand(), s.model.priorA.Lower, s.model.priorA.Upper),
		RateB: reflect(current.RateB+s.stepB*s.noise.Rand(), s.model.priorB.Lower, s.model.priorB.Upper),
	}
	candidateLP := s.model.LogPosterior(candidate)
	// Individual infeasible or boundary proposals are normal control
	// flow: they are simply never accepted.
	if math.IsInf(candidateLP, -1) || math.IsNaN(candidateLP) {
		return current, currentLP, false
	}

	logAlpha := candidateLP - currentLP
	if logAlpha >= 0 || math.Log(s.rng.Float64()) < logAlpha {
		return candidate, candidateLP, true
	}
	return current, currentLP, false
}

// reflect folds x back into [lo, hi]. Reflection keeps the proposal
// kernel symmetric, which the Metropolis acceptance ratio relies on.
func reflect(x, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	for x < lo || x > hi {
		if x < lo {
			x = 2*lo - x
		} else {
			x = 2*hi - x
		}
	}
	return x
}
