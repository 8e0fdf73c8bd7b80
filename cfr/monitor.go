package cfr

import (
	"fmt"
	"math"
	"sync"
)

// Monitor computes exploitability and a cheaper convergence indicator
// without ever mutating the store. It is invoked sparingly by the driver
// since both measures require traversing the tree.
type Monitor struct {
	game Game

	mu       sync.Mutex
	previous map[InfoKey][]float64
	window   []float64 // trailing per-report average strategy deltas
}

// NewMonitor builds a monitor for game.
func NewMonitor(game Game) *Monitor {
	return &Monitor{game: game, previous: make(map[InfoKey][]float64)}
}

const convergenceWindow = 10

// ConvergenceIndicator is a cheap proxy for exploitability: the average
// magnitude of change in each information set's average strategy since
// the last call, smoothed over a trailing window of the last
// convergenceWindow (10) calls. Large multi-player trees use this instead of Exploitability.
func (m *Monitor) ConvergenceIndicator(store *Store) float64 {
	snapshot := store.Freeze()

	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0.0
	count := 0
	for key, rec := range snapshot {
		prev, ok := m.previous[key]
		if ok {
			delta := l1Distance(prev, rec.AverageStrategy)
			total += delta
			count++
		}
		m.previous[key] = rec.AverageStrategy
	}

	sample := 0.0
	if count > 0 {
		sample = total / float64(count)
	}

	m.window = append(m.window, sample)
	if len(m.window) > convergenceWindow {
		m.window = m.window[len(m.window)-convergenceWindow:]
	}

	sum := 0.0
	for _, v := range m.window {
		sum += v
	}
	return sum / float64(len(m.window))
}

func l1Distance(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	total := 0.0
	for i := range a {
		total += math.Abs(a[i] - b[i])
	}
	return total
}

// Exploitability computes, for a two-player zero-sum game, the sum of
// each player's best-response gain against the other's current average
// strategy, halved to the standard per-player figure. Returns an error if
// the game is not two-player or does not support chance enumeration at
// some reached node.
func (m *Monitor) Exploitability(store *Store) (float64, error) {
	if m.game.NumPlayers() != 2 {
		return 0, fmt.Errorf("cfr: exploitability requires a 2-player game, got %d players", m.game.NumPlayers())
	}

	total := 0.0
	for p := 0; p < 2; p++ {
		v, err := m.bestResponseValue(store, m.game.InitialState(), p)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total / 2, nil
}

// bestResponseValue computes the value player p achieves by playing
// optimally against every other player's current average strategy, via a
// full (non-sampled) tree pass.
func (m *Monitor) bestResponseValue(store *Store, state any, player int) (float64, error) {
	cls := m.game.Classify(state)

	switch cls.Kind {
	case Terminal:
		return cls.Payoff[player], nil

	case Chance:
		outcomes := m.game.EnumerateChance(state)
		if outcomes == nil {
			return 0, fmt.Errorf("cfr: best response requires EnumerateChance support")
		}
		total := 0.0
		for _, o := range outcomes {
			v, err := m.bestResponseValue(store, o.State, player)
			if err != nil {
				return 0, err
			}
			total += o.Probability * v
		}
		return total, nil

	case Decision:
		k := m.game.LegalActions(state)
		if cls.Player == player {
			best := math.Inf(-1)
			for a := 0; a < k; a++ {
				v, err := m.bestResponseValue(store, m.game.Apply(state, a), player)
				if err != nil {
					return 0, err
				}
				if v > best {
					best = v
				}
			}
			return best, nil
		}

		sigma := uniformStrategy(k)
		if rec, ok := store.Lookup(m.game.InfoKey(state, cls.Player)); ok {
			sigma = store.AverageStrategy(rec)
		}
		total := 0.0
		for a := 0; a < k; a++ {
			v, err := m.bestResponseValue(store, m.game.Apply(state, a), player)
			if err != nil {
				return 0, err
			}
			total += sigma[a] * v
		}
		return total, nil
	}

	return 0, fmt.Errorf("cfr: unknown node kind during best response")
}

func uniformStrategy(k int) []float64 {
	sigma := make([]float64, k)
	u := 1.0 / float64(k)
	for i := range sigma {
		sigma[i] = u
	}
	return sigma
}
