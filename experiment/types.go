package experiment

import (
	"time"

	"github.com/quantfold/bayesab/bayes"
)

// Experiment is a stored A/B test design: the observed counts for both
// groups and the prior belief over each group's success rate. The
// design is immutable once analyzed; mutating it invalidates any
// cached analysis.
type Experiment struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	GroupA    bayes.Observation `json:"groupA"`
	GroupB    bayes.Observation `json:"groupB"`
	PriorA    bayes.PriorSpec `json:"priorA"`
	PriorB    bayes.PriorSpec `json:"priorB"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
