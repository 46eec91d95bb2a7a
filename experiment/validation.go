package experiment

import (
	"fmt"
	"strings"

	"github.com/quantfold/bayesab/bayes"
)

const maxNameLength = 100

// ValidateDesign checks an experiment before it is stored or analyzed.
// The numeric contract (counts and prior intervals) is shared with the
// inference core; naming rules are the store's own. Every violation
// wraps bayes.ErrInvalidInput so callers have a single sentinel to
// branch on.
func ValidateDesign(e *Experiment) error {
	if e == nil {
		return fmt.Errorf("%w: experiment is nil", bayes.ErrInvalidInput)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: experiment name cannot be empty", bayes.ErrInvalidInput)
	}
	if len(e.Name) > maxNameLength {
		return fmt.Errorf("%w: experiment name length %d exceeds maximum of %d characters",
			bayes.ErrInvalidInput, len(e.Name), maxNameLength)
	}
	return bayes.ValidateInputs(e.GroupA, e.GroupB, e.PriorA, e.PriorB)
}
