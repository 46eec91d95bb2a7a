package bayes

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the sentinel wrapped by every pre-sampling
// validation failure. Callers can branch on it with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Observation holds the outcome counts for one experiment group.
type Observation struct {
	Successes int `json:"successes"`
	Trials    int `json:"trials"`
}

// Rate returns the naive frequency estimate successes/trials.
func (o Observation) Rate() float64 {
	return float64(o.Successes) / float64(o.Trials)
}

// PriorSpec is a bounded-uniform prior belief over a success rate,
// expressed as the interval [Lower, Upper] within [0, 1].
type PriorSpec struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// DefaultPrior returns the non-informative prior over the full unit
// interval, matching the default applied when no prior is supplied.
func DefaultPrior() PriorSpec {
	return PriorSpec{Lower: 0, Upper: 1}
}

// Width returns Upper - Lower.
func (p PriorSpec) Width() float64 {
	return p.Upper - p.Lower
}

// Contains reports whether x lies inside the prior interval.
func (p PriorSpec) Contains(x float64) bool {
	return x >= p.Lower && x <= p.Upper
}

// ParameterVector is a position in the two-dimensional parameter space
// (rateA, rateB). It serves both as the sampler's current state and as
// a proposal candidate.
type ParameterVector struct {
	RateA float64
	RateB float64
}

// Chain is an ordered sequence of retained posterior samples.
// Append-only while the sampler owns it, read-only afterward.
type Chain []ParameterVector

// RateA extracts the rateA column of the chain.
func (c Chain) RateA() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.RateA
	}
	return out
}

// RateB extracts the rateB column of the chain.
func (c Chain) RateB() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.RateB
	}
	return out
}

// Config holds the sampler tuning knobs. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// Iterations is the combined warm-up + production budget. It is a
	// hard cap: the sampler never evaluates the density more than
	// Iterations times plus the warm-up adaptation overhead.
	Iterations int `json:"iterations"`

	// BurnFrac is the fraction of Iterations spent in warm-up and
	// discarded from the retained chain.
	BurnFrac float64 `json:"burnFrac"`

	// AcceptLow and AcceptHigh bound the acceptance-rate band the
	// warm-up step-size adaptation targets.
	AcceptLow  float64 `json:"acceptLow"`
	AcceptHigh float64 `json:"acceptHigh"`

	// StepFrac sets the initial proposal step as a fraction of each
	// prior interval's width.
	StepFrac float64 `json:"stepFrac"`

	// Seed feeds the sampler's RNG. Runs with equal inputs and equal
	// seeds are reproducible.
	Seed uint64 `json:"seed"`
}

// DefaultConfig is 20000 total iterations with half discarded as
// warm-up, a 5% initial step, and a [0.2, 0.5] acceptance target band.
func DefaultConfig() Config {
	return Config{
		Iterations: 20000,
		BurnFrac:   0.5,
		AcceptLow:  0.2,
		AcceptHigh: 0.5,
		StepFrac:   0.05,
		Seed:       1,
	}
}

// Validate checks the tuning knobs before any sampling starts.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidInput, c.Iterations)
	}
	if c.BurnFrac < 0 || c.BurnFrac >= 1 {
		return fmt.Errorf("%w: burn fraction must be in [0, 1), got %g", ErrInvalidInput, c.BurnFrac)
	}
	if c.Iterations-int(float64(c.Iterations)*c.BurnFrac) < 1 {
		return fmt.Errorf("%w: burn fraction %g leaves no production iterations", ErrInvalidInput, c.BurnFrac)
	}
	if c.AcceptLow <= 0 || c.AcceptHigh <= c.AcceptLow || c.AcceptHigh >= 1 {
		return fmt.Errorf("%w: acceptance band [%g, %g] is malformed", ErrInvalidInput, c.AcceptLow, c.AcceptHigh)
	}
	if c.StepFrac <= 0 {
		return fmt.Errorf("%w: step fraction must be positive, got %g", ErrInvalidInput, c.StepFrac)
	}
	return nil
}

// SummaryRecord aggregates one tracked quantity (rateA, rateB or
// delta) over a finished chain.
type SummaryRecord struct {
	Name         string  `json:"name"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"stdDev"`
	CredibleLow  float64 `json:"credibleLow"`  // 3% quantile
	CredibleHigh float64 `json:"credibleHigh"` // 97% quantile
	// Mixing is the accepted-move fraction over the retained chain, an
	// advisory proxy for effective sample size.
	Mixing     float64 `json:"mixing"`
	UnderMixed bool    `json:"underMixed"`
	// RHat is the split-chain Gelman-Rubin statistic. Zero when only a
	// single chain was run.
	RHat float64 `json:"rHat,omitempty"`
}

// AnalysisResult carries everything downstream consumers need: the
// three named sample sequences and one summary per sequence. The
// summary order is stable: rate_a, rate_b, delta.
type AnalysisResult struct {
	RateA     []float64       `json:"rateA"`
	RateB     []float64       `json:"rateB"`
	Delta     []float64       `json:"delta"`
	Summaries []SummaryRecord `json:"summaries"`
}

// OptimizationFailure reports that the MAP search could not improve on
// the naive frequency seed. It is recoverable: the caller proceeds
// with the naive seed and logs the failure.
type OptimizationFailure struct {
	Reason string
	Err    error
}

func (e *OptimizationFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("map seed optimization failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("map seed optimization failed: %s", e.Reason)
}

func (e *OptimizationFailure) Unwrap() error { return e.Err }

// DegenerateChain reports that the sampler accepted no moves across
// the entire warm-up despite step-size adaptation. The retained chain
// would be all duplicates, so none is returned.
type DegenerateChain struct {
	StepA      float64
	StepB      float64
	AcceptRate float64
	Warmup     int
}

func (e *DegenerateChain) Error() string {
	return fmt.Sprintf("degenerate chain: acceptance rate %.4f over %d warm-up iterations (final steps %.3g, %.3g)",
		e.AcceptRate, e.Warmup, e.StepA, e.StepB)
}
