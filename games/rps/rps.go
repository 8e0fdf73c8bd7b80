// Package rps implements Rock-Paper-Scissors, a 3x3 zero-sum simultaneous
// game used to validate convergence to the uniform [1/3, 1/3, 1/3]
// equilibrium.
package rps

import (
	"math/rand"

	"github.com/lox/pokerforbots/cfr"
)

const (
	Rock = iota
	Paper
	Scissors
)

var actionLabels = []string{"rock", "paper", "scissors"}

// beats[a][b] is true when a beats b.
var beats = [3][3]bool{
	Rock:     {Scissors: true},
	Paper:    {Rock: true},
	Scissors: {Paper: true},
}

type state struct {
	p0, p1 int
}

// Game implements cfr.Game for Rock-Paper-Scissors.
type Game struct{}

func New() *Game { return &Game{} }

func (g *Game) InitialState() any       { return state{p0: -1, p1: -1} }
func (g *Game) NumPlayers() int          { return 2 }
func (g *Game) LegalActions(any) int     { return 3 }
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
	switch {
	case s.p0 == s.p1:
		return cfr.Classification{Kind: cfr.Terminal, Payoff: []float64{0, 0}}
	case beats[s.p0][s.p1]:
		return cfr.Classification{Kind: cfr.Terminal, Payoff: []float64{1, -1}}
	default:
		return cfr.Classification{Kind: cfr.Terminal, Payoff: []float64{-1, 1}}
	}
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

func (g *Game) InfoKey(raw any, player int) cfr.InfoKey {
	return cfr.InfoKey(player)
}

func (g *Game) ActionLabels(cfr.InfoKey) []string { return actionLabels }
