package bayes

import (
	"math"
	"testing"
)

func TestMAPSeedDeterministic(t *testing.T) {
	m := mustModel(t,
		Observation{Successes: 50, Trials: 1000},
		Observation{Successes: 70, Trials: 1000},
		DefaultPrior(), DefaultPrior())

	first, err1 := MAPSeed(m)
	second, err2 := MAPSeed(m)
	if err1 != nil || err2 != nil {
		t.Fatalf("MAPSeed() failed: %v, %v", err1, err2)
	}
	if first != second {
		t.Errorf("MAPSeed() not deterministic: %v vs %v", first, second)
	}
}

func TestMAPSeedNearFrequencyEstimate(t *testing.T) {
	m := mustModel(t,
		Observation{Successes: 50, Trials: 1000},
		Observation{Successes: 70, Trials: 1000},
		DefaultPrior(), DefaultPrior())

	seed, err := MAPSeed(m)
	if err != nil {
		t.Fatalf("MAPSeed() failed: %v", err)
	}
	// Under flat priors the posterior mode is the frequency estimate.
	if math.Abs(seed.RateA-0.05) > 0.01 {
		t.Errorf("seed rateA = %v, want near 0.05", seed.RateA)
	}
	if math.Abs(seed.RateB-0.07) > 0.01 {
		t.Errorf("seed rateB = %v, want near 0.07", seed.RateB)
	}
}

func TestMAPSeedAlwaysFeasible(t *testing.T) {
	cases := []struct {
		name           string
		obsA, obsB     Observation
		priorA, priorB PriorSpec
	}{
		{"flat priors", Observation{50, 1000}, Observation{70, 1000}, DefaultPrior(), DefaultPrior()},
		{"narrow priors", Observation{5, 10}, Observation{9, 10}, PriorSpec{0.2, 0.4}, PriorSpec{0.6, 0.9}},
		{"zero successes", Observation{0, 100}, Observation{1, 100}, DefaultPrior(), DefaultPrior()},
		{"all successes", Observation{10, 10}, Observation{10, 10}, DefaultPrior(), DefaultPrior()},
	}
	for _, tc := range cases {
		m := mustModel(t, tc.obsA, tc.obsB, tc.priorA, tc.priorB)
		seed, _ := MAPSeed(m)
		if !m.Feasible(seed) {
			t.Errorf("%s: seed %v outside the prior box", tc.name, seed)
		}
		if lp := m.LogPosterior(seed); math.IsInf(lp, 0) || math.IsNaN(lp) {
			t.Errorf("%s: seed %v has non-finite log posterior %v", tc.name, seed, lp)
		}
	}
}

func TestMAPSeedNeverWorseThanNaive(t *testing.T) {
	m := mustModel(t,
		Observation{Successes: 3, Trials: 40},
		Observation{Successes: 35, Trials: 40},
		PriorSpec{Lower: 0.0, Upper: 0.5},
		PriorSpec{Lower: 0.5, Upper: 1.0})

	seed, _ := MAPSeed(m)
	if m.LogPosterior(seed) < m.LogPosterior(m.NaiveSeed()) {
		t.Errorf("MAPSeed() returned a point below the naive seed: %v", seed)
	}
}

func TestNaiveSeedClippedIntoPrior(t *testing.T) {
	// The frequency estimate 0.05 lies below the prior interval and
	// must be pulled inside it.
	m := mustModel(t,
		Observation{Successes: 5, Trials: 100},
		Observation{Successes: 95, Trials: 100},
		PriorSpec{Lower: 0.2, Upper: 0.4},
		PriorSpec{Lower: 0.2, Upper: 0.4})

	seed := m.NaiveSeed()
	if seed.RateA < 0.2 || seed.RateA > 0.4 {
		t.Errorf("naive rateA = %v, want within [0.2, 0.4]", seed.RateA)
	}
	if seed.RateB < 0.2 || seed.RateB > 0.4 {
		t.Errorf("naive rateB = %v, want within [0.2, 0.4]", seed.RateB)
	}
}

func TestNaiveSeedAvoidsBoundaryRates(t *testing.T) {
	// 0/n and n/n frequency estimates sit exactly on 0 and 1, where
	// the density is -Inf; the seed must be nudged inside.
	m := mustModel(t,
		Observation{Successes: 0, Trials: 50},
		Observation{Successes: 50, Trials: 50},
		DefaultPrior(), DefaultPrior())

	seed := m.NaiveSeed()
	if lp := m.LogPosterior(seed); math.IsInf(lp, -1) {
		t.Errorf("naive seed %v has -Inf log posterior", seed)
	}
}
