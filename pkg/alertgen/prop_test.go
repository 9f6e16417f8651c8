//go:build property
// +build property

package alertgen_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fieldsignal/convergence/pkg/alertgen"
)

// TestTierForScore_Monotonic exercises spec §8's tiering monotonicity
// property: a higher chain score never yields a lower tier.
func TestTierForScore_Monotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("tier rank is monotonic in score", prop.ForAll(
		func(a, b float64) bool {
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			return alertgen.TierForScore(lo).Rank() <= alertgen.TierForScore(hi).Rank()
		},
		gen.Float64Range(-1, 2),
		gen.Float64Range(-1, 2),
	))

	properties.TestingRun(t)
}
