// Package dominance implements a trivial single-player, three-action game
// where one action strictly dominates, used to check that regret matching
// converges to a near-pure strategy quickly.
package dominance

import (
	"math/rand"

	"github.com/lox/pokerforbots/cfr"
)

var actionLabels = []string{"dominant", "mediocre", "worst"}
var payoffs = []float64{1, 0, 0}

type state struct {
	chosen int // -1 until the single decision has been made
}

// Game implements cfr.Game for a single-player decision with a strictly
// dominant action.
type Game struct{}

func New() *Game { return &Game{} }

func (g *Game) InitialState() any       { return state{chosen: -1} }
func (g *Game) NumPlayers() int          { return 1 }
func (g *Game) LegalActions(any) int     { return 3 }
func (g *Game) EnumerateChance(any) []cfr.ChanceOutcome { return nil }
func (g *Game) SampleChance(raw any, rng *rand.Rand) (any, float64) {
	return raw, 1.0
}

func (g *Game) Classify(raw any) cfr.Classification {
	s := raw.(state)
	if s.chosen == -1 {
		return cfr.Classification{Kind: cfr.Decision, Player: 0}
	}
	return cfr.Classification{Kind: cfr.Terminal, Payoff: []float64{payoffs[s.chosen]}}
}

func (g *Game) Apply(raw any, actionIndex int) any {
	return state{chosen: actionIndex}
}

func (g *Game) InfoKey(any, int) cfr.InfoKey { return 0 }

func (g *Game) ActionLabels(cfr.InfoKey) []string { return actionLabels }
