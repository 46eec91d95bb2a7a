package bayes

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// seedIterationBudget bounds the MAP search so a pathological density
// cannot stall startup.
const seedIterationBudget = 200

// edgeMargin keeps seeds strictly inside the prior interval, where the
// density is finite.
const edgeMargin = 1e-6

// NaiveSeed is the frequency estimate successes/trials for each group,
// clipped strictly inside its prior interval. It is always feasible
// and is the fallback whenever the MAP search fails.
func (m *PosteriorModel) NaiveSeed() ParameterVector {
	return ParameterVector{
		RateA: clipInterior(m.obsA.Rate(), m.priorA),
		RateB: clipInterior(m.obsB.Rate(), m.priorB),
	}
}

func clipInterior(x float64, prior PriorSpec) float64 {
	lo := prior.Lower + edgeMargin*prior.Width()
	hi := prior.Upper - edgeMargin*prior.Width()
	// The density is -Inf at rates of exactly 0 or 1 even when the
	// prior interval includes them.
	if lo <= 0 {
		lo = edgeMargin
	}
	if hi >= 1 {
		hi = 1 - edgeMargin
	}
	return math.Min(hi, math.Max(lo, x))
}

// MAPSeed searches for a local maximum of the log posterior to start
// the sampler from, using derivative-free Nelder-Mead on the negated
// density with infeasible points mapped to +Inf. The search starts at
// the naive frequency seed.
//
// The returned point is always feasible and never worse than the
// naive seed. When the optimizer errors, diverges, or fails to improve
// on the naive point, MAPSeed returns the naive seed together with an
// *OptimizationFailure for the caller to log; the run continues.
func MAPSeed(m *PosteriorModel) (ParameterVector, error) {
	naive := m.NaiveSeed()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			lp := m.LogPosterior(ParameterVector{RateA: x[0], RateB: x[1]})
			if math.IsInf(lp, -1) {
				return math.Inf(1)
			}
			return -lp
		},
	}
	settings := &optimize.Settings{MajorIterations: seedIterationBudget}

	result, err := optimize.Minimize(problem, []float64{naive.RateA, naive.RateB}, settings, &optimize.NelderMead{})
	if err != nil {
		return naive, &OptimizationFailure{Reason: "optimizer error", Err: err}
	}
	if result == nil || len(result.X) != 2 {
		return naive, &OptimizationFailure{Reason: "optimizer returned no point"}
	}

	candidate := ParameterVector{RateA: result.X[0], RateB: result.X[1]}
	lp := m.LogPosterior(candidate)
	if math.IsInf(lp, -1) || math.IsNaN(lp) {
		return naive, &OptimizationFailure{Reason: "optimum is not finite"}
	}
	if lp < m.LogPosterior(naive) {
		return naive, &OptimizationFailure{Reason: "optimum worse than naive frequency seed"}
	}
	return candidate, nil
}
