// File: internal/policy/policy.go
// Description: Blocking-decision logic. Reduces the final detection/prediction
// pairs plus the fail-on-high flag to the subset that should fail a CI run.

package policy

import (
	"github.com/intellisa/iacsec/api/schemas"
)

// Blocking returns the pairs that should fail the run. Default policy: every
// true positive blocks, regardless of severity. With failOnHigh, only
// high-severity true positives block.
func Blocking(pairs []schemas.Pair, failOnHigh bool) []schemas.Pair {
	var blocking []schemas.Pair
	for _, pair := range pairs {
		if pair.Prediction.Label != schemas.LabelTP {
			continue
		}
		if failOnHigh && pair.Detection.Severity != schemas.SeverityHigh {
			continue
		}
		blocking = append(blocking, pair)
	}
	return blocking
}
