// Package symmetric implements an 8-player simultaneous-choice toy game
// used to check that players facing information-equivalent situations
// converge to the same strategy.
package symmetric

import (
	"math/rand"

	"github.com/lox/pokerforbots/cfr"
)

// NumPlayers is fixed at 8: enough players for a meaningful majority/
// minority split while staying cheap to traverse exhaustively.
const NumPlayers = 8

const (
	ActionA = 0
	ActionB = 1
)

var actionLabels = []string{"a", "b"}

// state tracks which players have moved and what they chose. Players act
// in seat order but none observes a prior choice, so every seat faces the
// same situation — the defining property of a simultaneous-move game and
// exactly what makes the symmetry property testable. Info keys still
// differ per seat (see InfoKey).
type state struct {
	choices [NumPlayers]int // -1 until that seat has acted
	next    int
}

// Game implements cfr.Game for the 8-player symmetric toy: each player
// independently picks A or B; each minority-side player pays 1 and the
// majority side splits those chips equally (minority/majority each), an
// exact tie pays everyone 0.
type Game struct{}

func New() *Game { return &Game{} }

func (g *Game) InitialState() any {
	s := state{next: 0}
	for i := range s.choices {
		s.choices[i] = -1
	}
	return s
}

func (g *Game) NumPlayers() int          { return NumPlayers }
func (g *Game) LegalActions(any) int     { return 2 }
func (g *Game) EnumerateChance(any) []cfr.ChanceOutcome { return nil }
func (g *Game) SampleChance(raw any, rng *rand.Rand) (any, float64) {
	return raw, 1.0
}

func (g *Game) Classify(raw any) cfr.Classification {
	s := raw.(state)
	if s.next < NumPlayers {
		return cfr.Classification{Kind: cfr.Decision, Player: s.next}
	}

	countA := 0
	for _, c := range s.choices {
		if c == ActionA {
			countA++
		}
	}
	countB := NumPlayers - countA

	payoff := make([]float64, NumPlayers)
	switch {
	case countA == countB:
		// tie, payoff already zero
	case countA > countB:
		assignPayoff(payoff, s.choices, ActionA, countA, countB)
	default:
		assignPayoff(payoff, s.choices, ActionB, countB, countA)
	}
	return cfr.Classification{Kind: cfr.Terminal, Payoff: payoff}
}

func assignPayoff(payoff []float64, choices [NumPlayers]int, majority, majorityCount, minorityCount int) {
	for i, c := range choices {
		if c == majority {
			payoff[i] = float64(minorityCount) / float64(majorityCount)
		} else {
			payoff[i] = -1
		}
	}
}

func (g *Game) Apply(raw any, actionIndex int) any {
	s := raw.(state)
	s.choices[s.next] = actionIndex
	s.next++
	return s
}

// InfoKey is distinct per seat (each seat accumulates its own regret and
// strategy sum) but every seat faces an identical situation before
// acting, so the resulting average strategies are expected to converge
// to the same distribution across seats even though their keys differ.
func (g *Game) InfoKey(_ any, player int) cfr.InfoKey {
	return cfr.InfoKey(player + 1)
}

func (g *Game) ActionLabels(cfr.InfoKey) []string { return actionLabels }
