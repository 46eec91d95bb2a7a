// Command abtest evaluates a Bayesian A/B test from the command line
// and prints a posterior summary table plus a histogram of the uplift.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/quantfold/bayesab/bayes"
	"github.com/quantfold/bayesab/internal/logger"
)

const histogramBins = 25
const histogramWidth = 50

func main() {
	var (
		successA = flag.Int("success-a", -1, "Number of success cases from A group")
		totalA   = flag.Int("total-a", -1, "Total cases from A group")
		successB = flag.Int("success-b", -1, "Number of success cases from B group")
		totalB   = flag.Int("total-b", -1, "Total cases from B group")
		priorsA  = flag.String("priors-a", "", "Prior belief for A group as \"lo,hi\", e.g. \"0,1\"")
		priorsB  = flag.String("priors-b", "", "Prior belief for B group as \"lo,hi\", e.g. \"0,1\"")

		iterations = flag.Int("iterations", 0, "Production iterations per chain (default engine setting)")
		burnFrac   = flag.Float64("burn-frac", 0, "Warm-up fraction of the iteration budget")
		seed       = flag.Uint64("seed", 0, "Random seed (0 uses the engine default)")
		chains     = flag.Int("chains", 1, "Number of independent chains")
		logLevel   = flag.String("loglevel", "INFO", "Log level: DEBUG, INFO, WARNING or ERROR")
	)
	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "abtest: %v\n", err)
		os.Exit(2)
	}
	logger.SetLevel(level)

	if *successA < 0 || *totalA < 0 || *successB < 0 || *totalB < 0 {
		fmt.Fprintln(os.Stderr, "abtest: -success-a, -total-a, -success-b and -total-b are required")
		flag.Usage()
		os.Exit(2)
	}

	priorA, err := parsePrior(*priorsA)
	if err != nil {
		fmt.Fprintf(os.Stderr, "abtest: invalid -priors-a: %v\n", err)
		os.Exit(2)
	}
	priorB, err := parsePrior(*priorsB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "abtest: invalid -priors-b: %v\n", err)
		os.Exit(2)
	}

	cfg := bayes.DefaultConfig()
	if *iterations > 0 {
		cfg.Iterations = *iterations
	}
	if *burnFrac > 0 {
		cfg.BurnFrac = *burnFrac
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	engine := bayes.NewEngine(logger.Logger)

	logger.Info("starting posterior sampling",
		"group_a", fmt.Sprintf("%d/%d", *successA, *totalA),
		"group_b", fmt.Sprintf("%d/%d", *successB, *totalB),
		"chains", *chains)

	result, err := engine.AnalyzeChains(
		bayes.Observation{Successes: *successA, Trials: *totalA},
		bayes.Observation{Successes: *successB, Trials: *totalB},
		priorA, priorB, cfg, *chains)
	if err != nil {
		var degenerate *bayes.DegenerateChain
		switch {
		case errors.Is(err, bayes.ErrInvalidInput):
			fmt.Fprintf(os.Stderr, "abtest: %v\n", err)
			os.Exit(2)
		case errors.As(err, &degenerate):
			fmt.Fprintf(os.Stderr, "abtest: %v\n", err)
			os.Exit(1)
		default:
			fmt.Fprintf(os.Stderr, "abtest: %v\n", err)
			os.Exit(1)
		}
	}

	logger.Info("finished posterior sampling", "draws", len(result.Delta))

	writeSummaryTable(os.Stdout, result.Summaries, *chains > 1)

	fmt.Println()
	fmt.Println("delta = rate_b - rate_a")
	fmt.Print(renderHistogram(result.Delta, histogramBins, histogramWidth))

	if err := logger.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "abtest: logger shutdown: %v\n", err)
	}
}

// parsePrior reads a "lo,hi" pair. An empty string yields the
// uninformative default over [0, 1].
func parsePrior(s string) (bayes.PriorSpec, error) {
	if strings.TrimSpace(s) == "" {
		return bayes.DefaultPrior(), nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return bayes.PriorSpec{}, fmt.Errorf("expected two comma-separated values, got %q", s)
	}

	lower, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return bayes.PriorSpec{}, fmt.Errorf("lower bound %q is not a number", parts[0])
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return bayes.PriorSpec{}, fmt.Errorf("upper bound %q is not a number", parts[1])
	}

	return bayes.PriorSpec{Lower: lower, Upper: upper}, nil
}

// writeSummaryTable prints one row per posterior quantity. The r_hat
// column only appears for multi-chain runs, where it is defined.
func writeSummaryTable(w io.Writer, summaries []bayes.SummaryRecord, multiChain bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := "\tmean\tsd\thdi_3%\thdi_97%\tmixing"
	if multiChain {
		header += "\tr_hat"
	}
	fmt.Fprintln(tw, header)

	for _, s := range summaries {
		row := fmt.Sprintf("%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.3f",
			s.Name, s.Mean, s.StdDev, s.CredibleLow, s.CredibleHigh, s.Mixing)
		if multiChain {
			row += fmt.Sprintf("\t%.3f", s.RHat)
		}
		if s.UnderMixed {
			row += "\t(under-mixed)"
		}
		fmt.Fprintln(tw, row)
	}

	tw.Flush()
}

// renderHistogram draws a fixed-width ASCII histogram of the samples.
func renderHistogram(samples []float64, bins, width int) string {
	if len(samples) == 0 || bins <= 0 {
		return ""
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return fmt.Sprintf("all %d samples at %.4f\n", len(samples), lo)
	}

	counts := make([]int, bins)
	binWidth := (hi - lo) / float64(bins)
	for _, v := range sorted {
		idx := int((v - lo) / binWidth)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	var b strings.Builder
	for i, c := range counts {
		left := lo + float64(i)*binWidth
		bar := int(math.Round(float64(c) / float64(maxCount) * float64(width)))
		fmt.Fprintf(&b, "%+.4f  %s (%d)\n", left, strings.Repeat("#", bar), c)
	}
	return b.String()
}
