package main

import (
	"github.com/quantfold/bayesab/bayes"
	"github.com/quantfold/bayesab/experiment"
)

// API request and response models

// SamplerOptions are the optional tuning knobs accepted by analyze and
// run requests. Omitted fields fall back to the engine defaults.
type SamplerOptions struct {
	Iterations int     `json:"iterations,omitempty" example:"20000"`
	BurnFrac   float64 `json:"burnFrac,omitempty" example:"0.5"`
	Seed       uint64  `json:"seed,omitempty" example:"42"`
	Chains     int     `json:"chains,omitempty" example:"4"`
}

// samplerConfig materializes a Config from the options, leaving
// untouched knobs at their defaults.
func (o SamplerOptions) samplerConfig() (bayes.Config, int) {
	cfg := bayes.DefaultConfig()
	if o.Iterations > 0 {
		cfg.Iterations = o.Iterations
	}
	if o.BurnFrac > 0 {
		cfg.BurnFrac = o.BurnFrac
	}
	if o.Seed != 0 {
		cfg.Seed = o.Seed
	}
	chains := o.Chains
	if chains <= 0 {
		chains = 1
	}
	return cfg, chains
}

// AnalyzeRequest is the body of an ad-hoc analysis: the observed
// counts per group plus optional priors and sampler options.
type AnalyzeRequest struct {
	GroupA bayes.Observation `json:"groupA"`
	GroupB bayes.Observation `json:"groupB"`
	PriorA *bayes.PriorSpec  `json:"priorA,omitempty"`
	PriorB *bayes.PriorSpec  `json:"priorB,omitempty"`
	SamplerOptions
}

// RunRequest carries the optional sampler options for analyzing a
// stored experiment.
type RunRequest struct {
	SamplerOptions
}

// AnalyzeResponse wraps the analysis result with its wall-clock time.
type AnalyzeResponse struct {
	Result       *bayes.AnalysisResult `json:"result"`
	AnalysisTime string                `json:"analysisTime" example:"1.8s"`
}

// CreateExperimentRequest is the body for creating or updating a
// stored experiment.
type CreateExperimentRequest struct {
	Name   string            `json:"name" example:"homepage button color"`
	GroupA bayes.Observation `json:"groupA"`
	GroupB bayes.Observation `json:"groupB"`
	PriorA *bayes.PriorSpec  `json:"priorA,omitempty"`
	PriorB *bayes.PriorSpec  `json:"priorB,omitempty"`
}

func (r CreateExperimentRequest) toExperiment() *experiment.Experiment {
	return &experiment.Experiment{
		Name:   r.Name,
		GroupA: r.GroupA,
		GroupB: r.GroupB,
		PriorA: priorOrDefault(r.PriorA),
		PriorB: priorOrDefault(r.PriorB),
	}
}

// priorOrDefault applies the non-informative [0, 1] prior when the
// request omits one.
func priorOrDefault(p *bayes.PriorSpec) bayes.PriorSpec {
	if p == nil {
		return bayes.DefaultPrior()
	}
	return *p
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error" example:"invalid experiment design"`
	Details string `json:"details,omitempty"`
}
