// Package features builds the ML-ready table: it merges the analyzers'
// dataset-wide summaries onto the flow table, derives ratio and entropy
// columns, and min-max normalizes the numeric feature set.
package features

import "math"

// Entropy computes the Shannon entropy (base 2) of the value distribution
// of values. A single observation has probability 1, so a one-element input
// yields exactly 0.
func Entropy(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	freq := make(map[float64]int, len(values))
	for _, v := range values {
		freq[v]++
	}

	var entropy float64
	total := float64(len(values))
	for _, count := range freq {
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
