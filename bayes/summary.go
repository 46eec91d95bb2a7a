package bayes

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Credible interval bounds reported for every tracked quantity. The
// 3% and 97% quantiles give the conventional 94% interval of posterior
// summary tables.
const (
	CredibleLowQuantile  = 0.03
	CredibleHighQuantile = 0.97
)

// UnderMixedThreshold is the mixing fraction below which a chain is
// flagged as likely under-mixed. Advisory only: the summary is still
// produced.
const UnderMixedThreshold = 0.1

// DerivedDelta computes the pointwise difference rateB - rateA for
// every retained sample. The result has exactly the chain's length and
// index i is chain[i].RateB - chain[i].RateA.
func DerivedDelta(chain Chain) []float64 {
	delta := make([]float64, len(chain))
	for i, p := range chain {
		delta[i] = p.RateB - p.RateA
	}
	return delta
}

// welford accumulates mean and variance in a single numerically stable
// pass, avoiding the catastrophic cancellation of the naive
// sum-of-squares formula on long chains.
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) add(x float64) {
	w.n++
	d := x - w.mean
	w.mean += d / float64(w.n)
	w.m2 += d * (x - w.mean)
}

func (w *welford) stdDev() float64 {
	if w.n < 2 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.n-1))
}

// Summarize reduces one sample sequence to its SummaryRecord. mixing
// is the sampler's accepted-move fraction for the chain the sequence
// came from. Credible bounds are order-statistic quantiles of the
// samples themselves, not a parametric approximation.
func Summarize(name string, series []float64, mixing float64) SummaryRecord {
	var w welford
	for _, x := range series {
		w.add(x)
	}

	sorted := append([]float64(nil), series...)
	sort.Float64s(sorted)

	rec := SummaryRecord{
		Name:       name,
		Mean:       w.mean,
		StdDev:     w.stdDev(),
		Mixing:     mixing,
		UnderMixed: mixing < UnderMixedThreshold,
	}
	if len(sorted) > 0 {
		rec.CredibleLow = stat.Quantile(CredibleLowQuantile, stat.Empirical, sorted, nil)
		rec.CredibleHigh = stat.Quantile(CredibleHighQuantile, stat.Empirical, sorted, nil)
	}
	return rec
}

// GelmanRubin computes the split-chain potential scale reduction
// factor for one tracked quantity across parallel chains. Each chain
// is split in half so the statistic also detects non-stationarity
// within a single chain. Values near 1 indicate the chains agree;
// above ~1.05 they have not converged to the same distribution.
func GelmanRubin(chains [][]float64) float64 {
	var halves [][]float64
	for _, c := range chains {
		if len(c) < 4 {
			continue
		}
		mid := len(c) / 2
		halves = append(halves, c[:mid], c[mid:mid*2])
	}
	if len(halves) < 2 {
		return math.NaN()
	}

	n := len(halves[0])
	means := make([]float64, len(halves))
	withins := make([]float64, len(halves))
	for i, h := range halves {
		means[i] = stat.Mean(h, nil)
		withins[i] = stat.Variance(h, nil)
	}

	w := stat.Mean(withins, nil)
	b := float64(n) * stat.Variance(means, nil)
	if w == 0 {
		return math.NaN()
	}
	varPlus := float64(n-1)/float64(n)*w + b/float64(n)
	return math.Sqrt(varPlus / w)
}
