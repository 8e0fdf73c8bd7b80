// Package pennies implements Matching Pennies, a 2x2 zero-sum simultaneous
// game used to validate that the cfr engine converges to the known mixed
// equilibrium of [0.5, 0.5] for both players.
package pennies

import (
	"math/rand"

	"github.com/lox/pokerforbots/cfr"
)

const (
	Heads = 0
	Tails = 1
)

var actionLabels = []string{"heads", "tails"}

// state.p0 is -1 until player 0 has moved; p1 likewise. Player 1's
// decision does not encode player 0's action in its info key, which is
// how a sequential tree expresses a simultaneous-move game.
type state struct {
	p0, p1 int
}

// Game implements cfr.Game for matching pennies: the matcher (player 0)
// wins a chip if both players pick the same face, the mismatcher (player
// 1) wins otherwise.
type Game struct{}

func New() *Game { return &Game{} }

func (g *Game) InitialState() any       { return state{p0: -1, p1: -1} }
func (g *Game) NumPlayers() int          { return 2 }
func (g *Game) LegalActions(any) int     { return 2 }
func (g *Game) EnumerateChance(any) []cfr.ChanceOutcome { return nil }
func (g *Game) SampleChance(raw any, rng *rand.Rand) (any, float64) {
	return raw, 1.0
}

func (g *Game) Classify(raw any) cfr.Classification {
	s := raw.(state)
	if s.p0 == -1 {
		return cfr.Classification{Kind: cfr.Decision, Player: 0}
	}
	if s.p1 == -1 {
		return cfr.Classification{Kind: cfr.Decision, Player: 1}
	}
	if s.p0 == s.p1 {
		return cfr.Classification{Kind: cfr.Terminal, Payoff: []float64{1, -1}}
	}
	return cfr.Classification{Kind: cfr.Terminal, Payoff: []float64{-1, 1}}
}

func (g *Game) Apply(raw any, actionIndex int) any {
	s := raw.(state)
	if s.p0 == -1 {
		s.p0 = actionIndex
		return s
	}
	s.p1 = actionIndex
	return s
}

// InfoKey is constant per player: neither player observes anything before
// acting, which is exactly what makes this a simultaneous-move game.
func (g *Game) InfoKey(raw any, player int) cfr.InfoKey {
	return cfr.InfoKey(player)
}

func (g *Game) ActionLabels(cfr.InfoKey) []string { return actionLabels }
