package bayes

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
)

func mustModel(t *testing.T, obsA, obsB Observation, priorA, priorB PriorSpec) *PosteriorModel {
	t.Helper()
	m, err := NewPosteriorModel(obsA, obsB, priorA, priorB)
	if err != nil {
		t.Fatalf("NewPosteriorModel() failed: %v", err)
	}
	return m
}

func TestLogPosteriorFiniteInsideBox(t *testing.T) {
	m := mustModel(t,
		Observation{Successes: 50, Trials: 1000},
		Observation{Successes: 70, Trials: 1000},
		DefaultPrior(), DefaultPrior())

	points := []ParameterVector{
		{RateA: 0.05, RateB: 0.07},
		{RateA: 0.5, RateB: 0.5},
		{RateA: 0.001, RateB: 0.999},
		{RateA: 0.999, RateB: 0.001},
	}
	for _, p := range points {
		lp := m.LogPosterior(p)
		if math.IsInf(lp, 0) || math.IsNaN(lp) {
			t.Errorf("LogPosterior(%v) = %v, want finite", p, lp)
		}
	}
}

func TestLogPosteriorInfeasibleOutsideBox(t *testing.T) {
	m := mustModel(t,
		Observation{Successes: 5, Trials: 10},
		Observation{Successes: 5, Trials: 10},
		PriorSpec{Lower: 0.2, Upper: 0.4},
		PriorSpec{Lower: 0.2, Upper: 0.4})

	points := []ParameterVector{
		{RateA: 0.1, RateB: 0.3},  // A below its prior
		{RateA: 0.3, RateB: 0.5},  // B above its prior
		{RateA: 0.5, RateB: 0.5},  // both outside
		{RateA: -0.1, RateB: 0.3}, // outside the unit interval entirely
	}
	for _, p := range points {
		if lp := m.LogPosterior(p); !math.IsInf(lp, -1) {
			t.Errorf("LogPosterior(%v) = %v, want -Inf", p, lp)
		}
	}
}

func TestLogPosteriorBoundaryRates(t *testing.T) {
	m := mustModel(t,
		Observation{Successes: 0, Trials: 10},
		Observation{Successes: 10, Trials: 10},
		DefaultPrior(), DefaultPrior())

	// Rates of exactly 0 or 1 are inside the default prior but must be
	// reported as -Inf, never as a NaN or a panic from log(0).
	for _, p := range []ParameterVector{
		{RateA: 0, RateB: 0.5},
		{RateA: 0.5, RateB: 1},
		{RateA: 0, RateB: 1},
	} {
		if lp := m.LogPosterior(p); !math.IsInf(lp, -1) {
			t.Errorf("LogPosterior(%v) = %v, want -Inf", p, lp)
		}
	}
}

// The single-group posterior under a flat prior is proportional to a
// Beta(s+1, n-s+1) density, so log-density differences must match.
func TestLogPosteriorMatchesBetaKernel(t *testing.T) {
	obs := Observation{Successes: 30, Trials: 200}
	m := mustModel(t, obs, Observation{Successes: 1, Trials: 2}, DefaultPrior(), DefaultPrior())

	beta := distuv.Beta{Alpha: float64(obs.Successes) + 1, Beta: float64(obs.Trials-obs.Successes) + 1}

	fixed := 0.5
	x1, x2 := 0.12, 0.21
	got := m.LogPosterior(ParameterVector{RateA: x1, RateB: fixed}) -
		m.LogPosterior(ParameterVector{RateA: x2, RateB: fixed})
	want := beta.LogProb(x1) - beta.LogProb(x2)

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("log-density difference = %v, want %v (Beta kernel)", got, want)
	}
}

func TestValidateInputsRejectsBadObservations(t *testing.T) {
	cases := []struct {
		name string
		obsA Observation
	}{
		{"zero trials", Observation{Successes: 0, Trials: 0}},
		{"negative trials", Observation{Successes: 0, Trials: -5}},
		{"negative successes", Observation{Successes: -1, Trials: 10}},
		{"successes exceed trials", Observation{Successes: 11, Trials: 10}},
	}
	good := Observation{Successes: 5, Trials: 10}
	for _, tc := range cases {
		err := ValidateInputs(tc.obsA, good, DefaultPrior(), DefaultPrior())
		if err == nil {
			t.Errorf("%s: ValidateInputs() should fail", tc.name)
			continue
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: error %v should wrap ErrInvalidInput", tc.name, err)
		}
	}
}

func TestValidateInputsRejectsBadPriors(t *testing.T) {
	cases := []struct {
		name  string
		prior PriorSpec
	}{
		{"collapsed interval", PriorSpec{Lower: 0.3, Upper: 0.3}},
		{"inverted bounds", PriorSpec{Lower: 0.8, Upper: 0.2}},
		{"below zero", PriorSpec{Lower: -0.1, Upper: 0.5}},
		{"above one", PriorSpec{Lower: 0.5, Upper: 1.1}},
	}
	obs := Observation{Successes: 5, Trials: 10}
	for _, tc := range cases {
		err := ValidateInputs(obs, obs, tc.prior, DefaultPrior())
		if err == nil {
			t.Errorf("%s: ValidateInputs() should fail", tc.name)
			continue
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: error %v should wrap ErrInvalidInput", tc.name, err)
		}
	}
}

func TestNewPosteriorModelValidates(t *testing.T) {
	_, err := NewPosteriorModel(
		Observation{Successes: 3, Trials: 2},
		Observation{Successes: 1, Trials: 2},
		DefaultPrior(), DefaultPrior())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("NewPosteriorModel() error = %v, want ErrInvalidInput", err)
	}
}
