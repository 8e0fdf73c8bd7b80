// Package kuhn implements 3-card Kuhn poker, the smallest imperfect
// information game with a known closed-form equilibrium, used as a
// ground-truth validation client of the cfr engine.
package kuhn

import (
	"fmt"
	"math/rand"

	"github.com/lox/pokerforbots/cfr"
)

const (
	Jack int = iota
	Queen
	King
)

var cardNames = [3]string{"J", "Q", "K"}

const (
	ActionPass = 0
	ActionBet  = 1
)

var actionLabels = []string{"pass", "bet"}

// state is the opaque game state: each player's private card (-1 before
// dealing) and the betting history as a string of 'p'/'b'.
type state struct {
	cards   [2]int
	history string
}

// Game implements cfr.Game for 2-player Kuhn poker with a 1-chip ante and
// a fixed 1-chip bet size.
type Game struct{}

// New returns a ready-to-use Kuhn poker game.
func New() *Game { return &Game{} }

func (g *Game) InitialState() any {
	return state{cards: [2]int{-1, -1}, history: ""}
}

func (g *Game) NumPlayers() int { return 2 }

func (g *Game) dealt(s state) bool { return s.cards[0] >= 0 }

func (g *Game) Classify(raw any) cfr.Classification {
	s := raw.(state)
	if !g.dealt(s) {
		return cfr.Classification{Kind: cfr.Chance}
	}
	if terminal, payoff := g.terminalPayoff(s); terminal {
		return cfr.Classification{Kind: cfr.Terminal, Payoff: payoff}
	}
	return cfr.Classification{Kind: cfr.Decision, Player: len(s.history) % 2}
}

func (g *Game) terminalPayoff(s state) (bool, []float64) {
	h := s.history
	switch h {
	case "pp":
		return true, g.showdownPayoff(s, 1)
	case "bp":
		// player 0 bet, player 1 folded: player 0 wins the ante.
		return true, []float64{1, -1}
	case "bb":
		return true, g.showdownPayoff(s, 2)
	case "pbp":
		// player 0 checked, player 1 bet, player 0 folded.
		return true, []float64{-1, 1}
	case "pbb":
		return true, g.showdownPayoff(s, 2)
	default:
		return false, nil
	}
}

// showdownPayoff awards stake to whichever player holds the higher card.
func (g *Game) showdownPayoff(s state, stake float64) []float64 {
	if s.cards[0] > s.cards[1] {
		return []float64{stake, -stake}
	}
	return []float64{-stake, stake}
}

func (g *Game) LegalActions(raw any) int {
	return 2
}

func (g *Game) Apply(raw any, actionIndex int) any {
	s := raw.(state)
	next := s
	if actionIndex == ActionPass {
		next.history = s.history + "p"
	} else {
		next.history = s.history + "b"
	}
	return next
}

// dealPermutations enumerates the 6 equally likely ways to deal distinct
// cards to the two players from {Jack, Queen, King}.
func dealPermutations() [][2]int {
	perms := make([][2]int, 0, 6)
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			if a != b {
				perms = append(perms, [2]int{a, b})
			}
		}
	}
	return perms
}

func (g *Game) EnumerateChance(raw any) []cfr.ChanceOutcome {
	s := raw.(state)
	if g.dealt(s) {
		return nil
	}
	perms := dealPermutations()
	outcomes := make([]cfr.ChanceOutcome, len(perms))
	for i, p := range perms {
		outcomes[i] = cfr.ChanceOutcome{
			State:       state{cards: p, history: ""},
			Probability: 1.0 / float64(len(perms)),
		}
	}
	return outcomes
}

func (g *Game) SampleChance(raw any, rng *rand.Rand) (any, float64) {
	perms := dealPermutations()
	p := perms[rng.Intn(len(perms))]
	return state{cards: p, history: ""}, 1.0 / float64(len(perms))
}

func (g *Game) InfoKey(raw any, player int) cfr.InfoKey {
	s := raw.(state)
	return cfr.Fingerprint([]byte(fmt.Sprintf("%d|%s", s.cards[player], s.history)))
}

// ActionLabels implements cfr.ActionLabeler.
func (g *Game) ActionLabels(cfr.InfoKey) []string {
	return actionLabels
}

// DealtState returns the state reached immediately after dealing card0 to
// player 0 and card1 to player 1, exported so callers (including tests)
// can reach a specific information set without replaying chance.
func DealtState(card0, card1 int) any {
	return state{cards: [2]int{card0, card1}, history: ""}
}

// CardName renders a card index as its conventional Kuhn poker letter.
func CardName(card int) string {
	if card < 0 || card > 2 {
		return "?"
	}
	return cardNames[card]
}
