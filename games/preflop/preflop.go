// Package preflop implements a multi-player preflop no-limit hold'em game
// client of the cfr engine. Postflop play is approximated rather than
// traversed: once betting closes with two or more players still in the
// hand, the engine estimates each remaining player's equity against a
// Monte Carlo sample of board run-outs instead of expanding flop, turn,
// and river subtrees. This keeps the tree small enough for the generic
// kernel to solve while still reflecting relative hand strength.
package preflop

import (
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerforbots/cfr"
	"github.com/lox/pokerforbots/internal/game"
	"github.com/lox/pokerforbots/poker"
	"github.com/lox/pokerforbots/sdk/solver"
)

// maxPlayers bounds the fixed-size arrays backing state so the type stays
// a plain value and copies for free across CFR tree branches.
const maxPlayers = 6

// Config parameterizes the preflop game: stakes, table size, the action
// abstraction (borrowed from the blueprint bucketing config), and how
// hard to work for the terminal equity estimate.
type Config struct {
	Abstraction   solver.AbstractionConfig
	Players       int
	SmallBlind    int
	BigBlind      int
	StartStack    int
	EquityTrials  int
	EquityWorkers int
}

// DefaultConfig returns a 3-handed preflop table with a modest equity
// sample size, cheap enough to call from inside a hot traversal loop.
func DefaultConfig() Config {
	return Config{
		Abstraction:   solver.DefaultAbstraction(),
		Players:       3,
		SmallBlind:    5,
		BigBlind:      10,
		StartStack:    1000,
		EquityTrials:  200,
		EquityWorkers: 4,
	}
}

func (c Config) validate() error {
	if c.Players < 2 || c.Players > maxPlayers {
		return fmt.Errorf("preflop: players must be between 2 and %d, got %d", maxPlayers, c.Players)
	}
	if err := c.Abstraction.Validate(); err != nil {
		return fmt.Errorf("preflop: %w", err)
	}
	return nil
}

// actionKind enumerates the fixed action slots every decision node
// exposes: fold, call/check, one raise per configured bet-sizing
// fraction, and an explicit all-in. A raise that would exceed a
// player's stack collapses onto all-in, so two slots can yield the
// same resulting state; that's an accepted abstraction artifact, not
// a bug.
type actionKind int

const (
	actionFold actionKind = iota
	actionCall
	actionAllIn
	actionRaiseBase // raise slots start here, one per BetSizing fraction
)

// state is the opaque, value-typed game state threaded through Classify
// and Apply. It never contains a pointer into shared mutable storage, so
// the same parent state can be branched from many times concurrently.
type state struct {
	hole        [maxPlayers]poker.Hand
	folded      [maxPlayers]bool
	allIn       [maxPlayers]bool
	contributed [maxPlayers]int // chips committed so far this hand
	stack       [maxPlayers]int // chips remaining behind
	currentBet  int
	toAct       int
	raises      int
	button      int
	history     string // one byte per action taken, for InfoKey construction
	dealt       bool
}

// Game implements cfr.Game for the preflop abstraction described above.
type Game struct {
	cfg    Config
	bucket *solver.BucketMapper
}

// New returns a preflop game using the default configuration.
func New() *Game {
	g, err := NewWithConfig(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return g
}

// NewWithConfig validates cfg and builds the bucket mapper it implies.
func NewWithConfig(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	bucket, err := solver.NewBucketMapper(cfg.Abstraction)
	if err != nil {
		return nil, err
	}
	return &Game{cfg: cfg, bucket: bucket}, nil
}

func (g *Game) NumPlayers() int { return g.cfg.Players }

func (g *Game) InitialState() any {
	return state{button: 0}
}

// raiseSlots is the number of configured bet-sizing fractions, i.e. the
// number of distinct raise actions exposed at every decision node.
func (g *Game) raiseSlots() int { return len(g.cfg.Abstraction.BetSizing) }

func (g *Game) LegalActions(any) int {
	return int(actionRaiseBase) + g.raiseSlots()
}

func (g *Game) dealt(s state) bool { return s.dealt }

// EnumerateChance is intentionally nil: the number of distinct hole card
// deals for more than a couple of players is too large to enumerate
// exhaustively, so the kernel samples the deal via SampleChance under
// every variant.
func (g *Game) EnumerateChance(raw any) []cfr.ChanceOutcome {
	return nil
}

func (g *Game) SampleChance(raw any, rng *rand.Rand) (any, float64) {
	s := raw.(state)

	deck := shuffledDeck(rng)
	idx := 0
	for seat := 0; seat < g.cfg.Players; seat++ {
		s.hole[seat] = poker.NewHand(deck[idx], deck[idx+1])
		s.stack[seat] = g.cfg.StartStack
		idx += 2
	}
	g.postBlinds(&s)
	s.dealt = true
	return s, 1.0
}

func (g *Game) postBlinds(s *state) {
	sbPos, bbPos := 0, 1
	if g.cfg.Players > 2 {
		sbPos = (s.button + 1) % g.cfg.Players
		bbPos = (s.button + 2) % g.cfg.Players
	} else {
		sbPos = s.button
		bbPos = (s.button + 1) % g.cfg.Players
	}

	postBlind(s, sbPos, g.cfg.SmallBlind)
	postBlind(s, bbPos, g.cfg.BigBlind)
	s.currentBet = g.cfg.BigBlind

	if g.cfg.Players == 2 {
		s.toAct = sbPos
	} else {
		s.toAct = (bbPos + 1) % g.cfg.Players
	}
}

func postBlind(s *state, seat, amount int) {
	if amount > s.stack[seat] {
		amount = s.stack[seat]
		s.allIn[seat] = true
	}
	s.stack[seat] -= amount
	s.contributed[seat] = amount
}

func (g *Game) Classify(raw any) cfr.Classification {
	s := raw.(state)
	if !g.dealt(s) {
		return cfr.Classification{Kind: cfr.Chance}
	}

	active := g.activePlayers(s)
	if len(active) <= 1 {
		return cfr.Classification{Kind: cfr.Terminal, Payoff: g.foldedPayoff(s, active)}
	}
	if g.bettingComplete(s) {
		return cfr.Classification{Kind: cfr.Terminal, Payoff: g.equityPayoff(s, active)}
	}
	return cfr.Classification{Kind: cfr.Decision, Player: s.toAct}
}

func (g *Game) activePlayers(s state) []int {
	active := make([]int, 0, g.cfg.Players)
	for seat := 0; seat < g.cfg.Players; seat++ {
		if !s.folded[seat] {
			active = append(active, seat)
		}
	}
	return active
}

// bettingComplete reports whether every non-folded player has either
// matched the current bet or is all-in. A true single round of betting
// (fold/call/raise with no re-open after all-in tracking) is all this
// abstraction models, matching its preflop-only scope.
func (g *Game) bettingComplete(s state) bool {
	for seat := 0; seat < g.cfg.Players; seat++ {
		if s.folded[seat] || s.allIn[seat] {
			continue
		}
		if s.contributed[seat] != s.currentBet {
			return false
		}
	}
	return true
}

func (g *Game) foldedPayoff(s state, active []int) []float64 {
	payoff := make([]float64, g.cfg.Players)
	pot := 0
	for seat := 0; seat < g.cfg.Players; seat++ {
		pot += s.contributed[seat]
	}
	for seat := 0; seat < g.cfg.Players; seat++ {
		payoff[seat] = -float64(s.contributed[seat])
	}
	if len(active) == 1 {
		payoff[active[0]] += float64(pot)
	}
	return normalizeToBigBlind(payoff, g.cfg.BigBlind)
}

// equityPayoff approximates the showdown value of each still-live hand by
// Monte Carlo sampling board run-outs, splitting each sampled pot by hand
// rank (with ties shared evenly), and averaging across trials. Work is
// fanned out across a small worker pool since every trial is independent.
func (g *Game) equityPayoff(s state, active []int) []float64 {
	pot := 0
	for seat := 0; seat < g.cfg.Players; seat++ {
		pot += s.contributed[seat]
	}

	dead := poker.Hand(0)
	for seat := 0; seat < g.cfg.Players; seat++ {
		dead |= s.hole[seat]
	}

	trials := g.cfg.EquityTrials
	if trials <= 0 {
		trials = 1
	}
	workers := g.cfg.EquityWorkers
	if workers <= 0 || workers > trials {
		workers = 1
	}

	shares := make([][]float64, workers)
	counts := make([]int, workers)
	seeds := make([]int64, workers)
	for i := range seeds {
		seeds[i] = int64(i*2654435761 + 1)
	}

	var g2 errgroup.Group
	perWorker := trials / workers
	remainder := trials % workers
	for w := 0; w < workers; w++ {
		w := w
		n := perWorker
		if w < remainder {
			n++
		}
		g2.Go(func() error {
			rng := rand.New(rand.NewSource(seeds[w]))
			local := make([]float64, g.cfg.Players)
			for t := 0; t < n; t++ {
				board := sampleBoard(dead, rng)
				winners := bestHands(s, active, board)
				share := 1.0 / float64(len(winners))
				for _, seat := range winners {
					local[seat] += share
				}
			}
			shares[w] = local
			counts[w] = n
			return nil
		})
	}
	_ = g2.Wait()

	totalShare := make([]float64, g.cfg.Players)
	totalTrials := 0
	for w := 0; w < workers; w++ {
		totalTrials += counts[w]
		for seat, v := range shares[w] {
			totalShare[seat] += v
		}
	}

	payoff := make([]float64, g.cfg.Players)
	for seat := 0; seat < g.cfg.Players; seat++ {
		payoff[seat] = -float64(s.contributed[seat])
	}
	for _, seat := range active {
		winFrac := totalShare[seat] / float64(totalTrials)
		payoff[seat] += winFrac * float64(pot)
	}
	return normalizeToBigBlind(payoff, g.cfg.BigBlind)
}

func bestHands(s state, active []int, board poker.Hand) []int {
	best := poker.HandRank(0)
	winners := []int{}
	for _, seat := range active {
		rank := poker.Evaluate7Cards(s.hole[seat] | board)
		switch poker.CompareHands(rank, best) {
		case 1:
			best = rank
			winners = []int{seat}
		case 0:
			winners = append(winners, seat)
		}
	}
	return winners
}

func sampleBoard(dead poker.Hand, rng *rand.Rand) poker.Hand {
	deck := shuffledDeck(rng)
	board := poker.Hand(0)
	dealt := 0
	for _, c := range deck {
		if dealt == 5 {
			break
		}
		h := poker.NewHand(c)
		if h&dead != 0 {
			continue
		}
		board |= h
		dealt++
	}
	return board
}

// shuffledDeck returns all 52 cards in a uniformly random order.
func shuffledDeck(rng *rand.Rand) [52]poker.Card {
	var deck [52]poker.Card
	i := 0
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			deck[i] = poker.NewCard(rank, suit)
			i++
		}
	}
	rng.Shuffle(len(deck), func(a, b int) { deck[a], deck[b] = deck[b], deck[a] })
	return deck
}

func normalizeToBigBlind(payoff []float64, bigBlind int) []float64 {
	if bigBlind <= 0 {
		return payoff
	}
	out := make([]float64, len(payoff))
	for i, v := range payoff {
		out[i] = v / float64(bigBlind)
	}
	return out
}

func (g *Game) Apply(raw any, actionIndex int) any {
	s := raw.(state)

	switch actionKind(actionIndex) {
	case actionFold:
		s.folded[s.toAct] = true
		s.history += "f"
	case actionAllIn:
		g.applyRaiseTo(&s, s.stack[s.toAct]+s.contributed[s.toAct])
		s.history += "a"
	default:
		slot := actionIndex - int(actionRaiseBase)
		capReached := g.cfg.Abstraction.MaxRaisesPerBucket > 0 && s.raises >= g.cfg.Abstraction.MaxRaisesPerBucket
		if slot >= 0 && slot < g.raiseSlots() && !capReached {
			pot := 0
			for seat := 0; seat < g.cfg.Players; seat++ {
				pot += s.contributed[seat]
			}
			target := s.currentBet + int(g.cfg.Abstraction.BetSizing[slot]*float64(pot+s.currentBet))
			if target >= s.stack[s.toAct]+s.contributed[s.toAct] {
				g.applyRaiseTo(&s, s.stack[s.toAct]+s.contributed[s.toAct])
				s.history += "a"
			} else if target <= s.currentBet {
				g.applyCall(&s)
				s.history += "c"
			} else {
				g.applyRaiseTo(&s, target)
				s.history += fmt.Sprintf("r%d", slot)
				s.raises++
			}
		} else {
			g.applyCall(&s)
			s.history += "c"
		}
	}

	s.toAct = g.nextToAct(s, s.toAct+1)
	return s
}

func (g *Game) applyCall(s *state) {
	seat := s.toAct
	toCall := s.currentBet - s.contributed[seat]
	if toCall > s.stack[seat] {
		toCall = s.stack[seat]
		s.allIn[seat] = true
	}
	s.stack[seat] -= toCall
	s.contributed[seat] += toCall
}

func (g *Game) applyRaiseTo(s *state, target int) {
	seat := s.toAct
	delta := target - s.contributed[seat]
	if delta >= s.stack[seat] {
		delta = s.stack[seat]
		s.allIn[seat] = true
	}
	s.stack[seat] -= delta
	s.contributed[seat] += delta
	if s.contributed[seat] > s.currentBet {
		s.currentBet = s.contributed[seat]
	}
}

func (g *Game) nextToAct(s state, from int) int {
	for i := 0; i < g.cfg.Players; i++ {
		seat := (from + i) % g.cfg.Players
		if !s.folded[seat] && !s.allIn[seat] {
			return seat
		}
	}
	return -1
}

// InfoKey combines the acting player's hole-card bucket with the public
// betting history, since that pair is exactly what the player observes.
func (g *Game) InfoKey(raw any, player int) cfr.InfoKey {
	s := raw.(state)
	bucket := g.bucket.HoleBucket(s.hole[player])
	return cfr.Fingerprint([]byte(fmt.Sprintf("%d|%s", bucket, s.history)))
}

// ActionLabels implements cfr.ActionLabeler for readable exports.
func (g *Game) ActionLabels(cfr.InfoKey) []string {
	labels := make([]string, int(actionRaiseBase)+g.raiseSlots())
	labels[actionFold] = game.Fold.String()
	labels[actionCall] = game.Call.String()
	labels[actionAllIn] = game.AllIn.String()
	for i, frac := range g.cfg.Abstraction.BetSizing {
		labels[int(actionRaiseBase)+i] = fmt.Sprintf("raise_%.0fpct_pot", frac*100)
	}
	return labels
}
