package randutil

import "math/rand"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided
// int64, with the seed run through an avalanche mix first so that
// closely-spaced worker seeds (e.g. base+0, base+1, base+2, ...) don't
// produce correlated early draws.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(int64(mix(uint64(seed) + goldenRatio64))))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
