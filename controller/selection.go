package controller

import (
	"math"

	"golang.org/x/exp/rand"
)

// Boltzmann converts action values into a probability distribution with
// the given temperature. Lower temperatures approach the greedy policy.
func Boltzmann(values []float64, temperature float64) []float64 {
	if temperature <= 0 {
		panic("temperature must be positive")
	}
	probs := make([]float64, len(values))
	if len(values) == 0 {
		return probs
	}
	// Shift by the max value for numerical stability
	maxValue := values[Argmax(values)]
	sum := 0.0
	for i, v := range values {
		probs[i] = math.Exp((v - maxValue) / temperature)
		sum += probs[i]
	}
	// Normalize
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// Sample draws an index from a probability distribution.
func Sample(rng *rand.Rand, probs []float64) int {
	sampled := rng.Float64()
	cumulative := 0.0
	last := len(probs) - 1
	for i, p := range probs {
		cumulative += p
		if sampled < cumulative {
			return i
		}
	}
	return last // Fallback in case of rounding errors
}

// Argmax returns the index of the largest value, preferring the lowest index on ties.
func Argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
