package cfr

import "math/rand"

// SampleDiscrete draws an index from probs (which must sum to ~1) using
// rng. Used for both chance outcomes enumerated by the game and for
// picking a single action under a sampling variant.
func SampleDiscrete(probs []float64, rng *rand.Rand) int {
	u := rng.Float64()
	cumulative := 0.0
	for i, p := range probs {
		cumulative += p
		if u < cumulative {
			return i
		}
	}
	return len(probs) - 1
}

// sampleChanceOrEnumerate draws one chance outcome via the game's sampler.
// The kernel does not call it: traversal calls game.SampleChance and
// SampleDiscrete with the per-worker RNG directly.
func sampleChanceOrEnumerate(game Game, state any, rng *rand.Rand) (any, float64) {
	return game.SampleChance(state, rng)
}
