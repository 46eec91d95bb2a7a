package bayes

import (
	"fmt"
	"math"
)

// PosteriorModel is the unnormalized joint posterior over (rateA,
// rateB): independent bounded-uniform priors times independent
// binomial likelihoods. All inputs are fixed at construction; the
// density is a pure function of the candidate point.
type PosteriorModel struct {
	obsA, obsB     Observation
	priorA, priorB PriorSpec
}

// NewPosteriorModel validates the observations and priors and builds
// the density. Every violation wraps ErrInvalidInput and is fatal to
// the run before any sampling happens.
func NewPosteriorModel(obsA, obsB Observation, priorA, priorB PriorSpec) (*PosteriorModel, error) {
	if err := ValidateInputs(obsA, obsB, priorA, priorB); err != nil {
		return nil, err
	}
	return &PosteriorModel{obsA: obsA, obsB: obsB, priorA: priorA, priorB: priorB}, nil
}

// ValidateInputs checks the observation pair and prior pair against
// the input contract: non-negative successes, positive trials,
// successes bounded by trials, and strictly widening prior intervals
// inside [0, 1]. A collapsed interval (lower == upper) is rejected
// rather than treated as a point mass.
func ValidateInputs(obsA, obsB Observation, priorA, priorB PriorSpec) error {
	for _, g := range []struct {
		name string
		obs  Observation
	}{{"a", obsA}, {"b", obsB}} {
		if g.obs.Trials <= 0 {
			return fmt.Errorf("%w: group %s trials must be positive, got %d", ErrInvalidInput, g.name, g.obs.Trials)
		}
		if g.obs.Successes < 0 {
			return fmt.Errorf("%w: group %s successes must be non-negative, got %d", ErrInvalidInput, g.name, g.obs.Successes)
		}
		if g.obs.Successes > g.obs.Trials {
			return fmt.Errorf("%w: group %s successes %d exceed trials %d", ErrInvalidInput, g.name, g.obs.Successes, g.obs.Trials)
		}
	}
	for _, g := range []struct {
		name  string
		prior PriorSpec
	}{{"a", priorA}, {"b", priorB}} {
		if g.prior.Lower >= g.prior.Upper {
			return fmt.Errorf("%w: group %s prior [%g, %g] must have lower < upper", ErrInvalidInput, g.name, g.prior.Lower, g.prior.Upper)
		}
		if g.prior.Lower < 0 || g.prior.Upper > 1 {
			return fmt.Errorf("%w: group %s prior [%g, %g] must lie within [0, 1]", ErrInvalidInput, g.name, g.prior.Lower, g.prior.Upper)
		}
	}
	return nil
}

// LogPosterior returns the unnormalized log posterior density at p:
// the sum of the two binomial log-likelihoods inside the prior box,
// -Inf outside it. The uniform priors contribute only an additive
// constant inside their bounds, which cancels in acceptance ratios
// and is dropped.
func (m *PosteriorModel) LogPosterior(p ParameterVector) float64 {
	if !m.priorA.Contains(p.RateA) || !m.priorB.Contains(p.RateB) {
		return math.Inf(-1)
	}
	return binomialLogLikelihood(m.obsA, p.RateA) + binomialLogLikelihood(m.obsB, p.RateB)
}

// Feasible reports whether p lies inside both prior intervals.
func (m *PosteriorModel) Feasible(p ParameterVector) bool {
	return m.priorA.Contains(p.RateA) && m.priorB.Contains(p.RateB)
}

// binomialLogLikelihood is s*log(r) + (n-s)*log(1-r) without the
// binomial coefficient, which cancels in acceptance ratios. Rates of
// exactly 0 or 1 are treated as log-density -Inf instead of letting
// math.Log produce a NaN product.
func binomialLogLikelihood(o Observation, rate float64) float64 {
	if rate <= 0 || rate >= 1 {
		return math.Inf(-1)
	}
	s := float64(o.Successes)
	n := float64(o.Trials)
	return s*math.Log(rate) + (n-s)*math.Log(1-rate)
}
