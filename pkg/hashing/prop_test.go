//go:build property
// +build property

package hashing_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fieldsignal/convergence/pkg/hashing"
)

// TestContentHash_StableUnderKeyReordering exercises spec §8's
// content-hash stability property: encoding the same key/value pairs in a
// different insertion order must not change the digest.
func TestContentHash_StableUnderKeyReordering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("content hash is stable under key reordering", prop.ForAll(
		func(keys []string, values []string) bool {
			forward := make(map[string]any)
			backward := make(map[string]any)
			n := len(keys)
			if len(values) < n {
				n = len(values)
			}
			for i := 0; i < n; i++ {
				if keys[i] == "" {
					continue
				}
				forward[keys[i]] = values[i]
				backward[keys[n-1-i]] = values[n-1-i]
			}

			h1, err1 := hashing.ContentHash(forward)
			h2, err2 := hashing.ContentHash(backward)
			if err1 != nil || err2 != nil {
				return err1 == err2
			}
			return h1 == h2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
