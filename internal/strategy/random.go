package strategy

import "math/rand"

// Random enters with a fixed small probability per evaluation. It is the
// reference placeholder, not a trading signal: it exists so the rest of the
// pipeline (orders, ledger, risk gate) can be exercised end to end.
type Random struct {
	prob float64
	rng  *rand.Rand
}

// NewRandom creates the strategy with the given per-evaluation probability.
func NewRandom(prob float64) *Random {
	return NewRandomSource(prob, rand.Int63())
}

// NewRandomSource creates the strategy with a fixed seed, for tests.
func NewRandomSource(prob float64, seed int64) *Random {
	return &Random{prob: prob, rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string { return "random" }

// ShouldEnter ignores market and price entirely.
func (r *Random) ShouldEnter(string, float64) bool {
	return r.rng.Float64() < r.prob
}
