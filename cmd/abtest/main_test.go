package main

import (
	"strings"
	"testing"

	"github.com/quantfold/bayesab/bayes"
)

func TestParsePriorDefaultsWhenEmpty(t *testing.T) {
	for _, input := range []string{"", "   "} {
		p, err := parsePrior(input)
		if err != nil {
			t.Fatalf("parsePrior(%q) failed: %v", input, err)
		}
		if p != bayes.DefaultPrior() {
			t.Errorf("parsePrior(%q) = %+v, want default prior", input, p)
		}
	}
}

func TestParsePriorReadsBounds(t *testing.T) {
	p, err := parsePrior("0.1, 0.4")
	if err != nil {
		t.Fatalf("parsePrior failed: %v", err)
	}
	if p.Lower != 0.1 || p.Upper != 0.4 {
		t.Errorf("parsePrior = %+v, want {0.1 0.4}", p)
	}
}

func TestParsePriorRejectsMalformedInput(t *testing.T) {
	cases := []string{"0.1", "0.1,0.2,0.3", "a,b", "0.1,", ",0.5"}
	for _, input := range cases {
		if _, err := parsePrior(input); err == nil {
			t.Errorf("parsePrior(%q) succeeded, want error", input)
		}
	}
}

func TestWriteSummaryTable(t *testing.T) {
	summaries := []bayes.SummaryRecord{
		{Name: "rate_a", Mean: 0.0512, StdDev: 0.0069, CredibleLow: 0.0391, CredibleHigh: 0.0645, Mixing: 0.31},
		{Name: "rate_b", Mean: 0.0703, StdDev: 0.0081, CredibleLow: 0.0558, CredibleHigh: 0.0861, Mixing: 0.29},
		{Name: "delta", Mean: 0.0191, StdDev: 0.0106, CredibleLow: -0.0005, CredibleHigh: 0.0392, Mixing: 0.30},
	}

	var sb strings.Builder
	writeSummaryTable(&sb, summaries, false)
	out := sb.String()

	for _, want := range []string{"rate_a", "rate_b", "delta", "hdi_3%", "hdi_97%", "0.0191"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "r_hat") {
		t.Errorf("single-chain table should not have an r_hat column:\n%s", out)
	}
	if strings.Contains(out, "under-mixed") {
		t.Errorf("healthy chains should not be flagged:\n%s", out)
	}
}

func TestWriteSummaryTableMultiChain(t *testing.T) {
	summaries := []bayes.SummaryRecord{
		{Name: "delta", Mean: 0.02, StdDev: 0.01, CredibleLow: 0.0, CredibleHigh: 0.04, Mixing: 0.05, UnderMixed: true, RHat: 1.01},
	}

	var sb strings.Builder
	writeSummaryTable(&sb, summaries, true)
	out := sb.String()

	if !strings.Contains(out, "r_hat") {
		t.Errorf("multi-chain table missing r_hat column:\n%s", out)
	}
	if !strings.Contains(out, "1.010") {
		t.Errorf("multi-chain table missing r_hat value:\n%s", out)
	}
	if !strings.Contains(out, "under-mixed") {
		t.Errorf("table should flag under-mixed chains:\n%s", out)
	}
}

func TestRenderHistogramShape(t *testing.T) {
	samples := make([]float64, 0, 300)
	for i := 0; i < 300; i++ {
		samples = append(samples, float64(i%100)/100)
	}

	out := renderHistogram(samples, 10, 40)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("histogram has %d lines, want 10", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "#") {
			t.Errorf("uniform samples should fill every bin, got line %q", line)
		}
	}
}

func TestRenderHistogramEdgeCases(t *testing.T) {
	if out := renderHistogram(nil, 10, 40); out != "" {
		t.Errorf("empty samples produced output %q", out)
	}
	out := renderHistogram([]float64{0.5, 0.5, 0.5}, 10, 40)
	if !strings.Contains(out, "all 3 samples") {
		t.Errorf("constant samples output = %q", out)
	}
}
