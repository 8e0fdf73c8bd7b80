package preflop

import (
	"math/rand"
	"testing"

	"github.com/lox/pokerforbots/cfr"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Players = 3
	cfg.EquityTrials = 40
	cfg.EquityWorkers = 2
	g, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g
}

func TestSampleChancePostsBlindsAndDealsHoleCards(t *testing.T) {
	g := newTestGame(t)
	raw, prob := g.SampleChance(g.InitialState(), rand.New(rand.NewSource(1)))
	if prob != 1.0 {
		t.Fatalf("expected chance probability 1.0 for a single combined deal, got %v", prob)
	}
	s := raw.(state)
	for seat := 0; seat < g.cfg.Players; seat++ {
		if s.hole[seat].CountCards() != 2 {
			t.Fatalf("expected seat %d to hold 2 cards, got %d", seat, s.hole[seat].CountCards())
		}
	}
	if s.contributed[1] != g.cfg.SmallBlind || s.contributed[2] != g.cfg.BigBlind {
		t.Fatalf("expected blinds posted by seats 1 and 2, got %v", s.contributed)
	}
}

func TestClassifyDecisionForFirstToAct(t *testing.T) {
	g := newTestGame(t)
	raw, _ := g.SampleChance(g.InitialState(), rand.New(rand.NewSource(2)))
	class := g.Classify(raw)
	if class.Kind != cfr.Decision {
		t.Fatalf("expected a decision node after dealing, got %v", class.Kind)
	}
	s := raw.(state)
	if class.Player != s.toAct {
		t.Fatalf("expected decision player to match toAct, got %d vs %d", class.Player, s.toAct)
	}
}

func TestFoldingToOneSurvivorIsTerminalWithFullPot(t *testing.T) {
	g := newTestGame(t)
	raw, _ := g.SampleChance(g.InitialState(), rand.New(rand.NewSource(3)))

	for i := 0; i < g.cfg.Players-1; i++ {
		raw = g.Apply(raw, int(actionFold))
	}

	class := g.Classify(raw)
	if class.Kind != cfr.Terminal {
		t.Fatalf("expected terminal once only one player remains, got %v", class.Kind)
	}
	sum := 0.0
	for _, v := range class.Payoff {
		sum += v
	}
	if sum < -1e-9 || sum > 1e-9 {
		t.Fatalf("expected zero-sum payoff, got %v (sum=%v)", class.Payoff, sum)
	}
}

func TestEveryoneCallingReachesEquityTerminal(t *testing.T) {
	g := newTestGame(t)
	raw, _ := g.SampleChance(g.InitialState(), rand.New(rand.NewSource(4)))

	for i := 0; i < g.cfg.Players; i++ {
		raw = g.Apply(raw, int(actionCall))
	}

	class := g.Classify(raw)
	if class.Kind != cfr.Terminal {
		t.Fatalf("expected terminal once all players have called, got %v", class.Kind)
	}
	if len(class.Payoff) != g.cfg.Players {
		t.Fatalf("expected one payoff entry per player, got %d", len(class.Payoff))
	}
}

func TestInfoKeyStableAcrossIdenticalDeals(t *testing.T) {
	g := newTestGame(t)
	raw, _ := g.SampleChance(g.InitialState(), rand.New(rand.NewSource(5)))
	s := raw.(state)

	k1 := g.InfoKey(s, s.toAct)
	k2 := g.InfoKey(s, s.toAct)
	if k1 != k2 {
		t.Fatalf("expected InfoKey to be deterministic for the same state, got %v vs %v", k1, k2)
	}
}

func TestActionLabelsCoverFullLegalActionSpace(t *testing.T) {
	g := newTestGame(t)
	labels := g.ActionLabels(cfr.InfoKey(0))
	if len(labels) != g.LegalActions(nil) {
		t.Fatalf("expected %d labels, got %d", g.LegalActions(nil), len(labels))
	}
	for i, l := range labels {
		if l == "" {
			t.Fatalf("expected a non-empty label for action %d", i)
		}
	}
}
