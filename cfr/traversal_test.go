package cfr_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/lox/pokerforbots/cfr"
	"github.com/lox/pokerforbots/games/dominance"
	"github.com/lox/pokerforbots/games/kuhn"
	"github.com/lox/pokerforbots/games/pennies"
	"github.com/lox/pokerforbots/games/rps"
)

func runVanilla(game cfr.Game, store *cfr.Store, iterations int, seed int64) {
	kernel := cfr.NewKernel(game)
	rng := rand.New(rand.NewSource(seed))
	numPlayers := game.NumPlayers()
	for i := 1; i <= iterations; i++ {
		for p := 0; p < numPlayers; p++ {
			kernel.RunIteration(store, p, cfr.Vanilla, 1.0, rng)
		}
	}
}

func TestKuhnLowCardBetsAboutOneThird(t *testing.T) {
	game := kuhn.New()
	store := cfr.NewStore(false)
	runVanilla(game, store, 20_000, 0)

	handle, ok := store.Lookup(game.InfoKey(kuhn.DealtState(kuhn.Jack, kuhn.Queen), 0))
	if !ok {
		t.Fatalf("expected an info set for player 0 holding the low card")
	}
	avg := store.AverageStrategy(handle)
	betFreq := avg[1]
	if betFreq < 0.28 || betFreq > 0.38 {
		t.Fatalf("expected low-card bet frequency near 1/3, got %v", betFreq)
	}
}

func TestKuhnMidCardAlwaysPassesFirstToAct(t *testing.T) {
	game := kuhn.New()
	store := cfr.NewStore(false)
	runVanilla(game, store, 20_000, 1)

	handle, ok := store.Lookup(game.InfoKey(kuhn.DealtState(kuhn.Queen, kuhn.Jack), 0))
	if !ok {
		t.Fatalf("expected an info set for player 0 holding the mid card")
	}
	avg := store.AverageStrategy(handle)
	if avg[0] < 0.95 {
		t.Fatalf("expected mid card to check nearly always when first to act, got pass=%v", avg[0])
	}
}

func TestKuhnHighCardAlwaysBetsOrRaises(t *testing.T) {
	game := kuhn.New()
	store := cfr.NewStore(false)
	runVanilla(game, store, 20_000, 2)

	dealt := kuhn.DealtState(kuhn.King, kuhn.Jack)
	facingBet := game.Apply(game.Apply(dealt, kuhn.ActionPass), kuhn.ActionBet)

	handle, ok := store.Lookup(game.InfoKey(facingBet, 0))
	if !ok {
		t.Fatalf("expected an info set for player 0 holding the high card after checking")
	}
	avg := store.AverageStrategy(handle)
	if avg[1] < 0.95 {
		t.Fatalf("expected high card to bet nearly always when facing a bet with the nuts, got bet=%v", avg[1])
	}
}

func TestKuhnGameValueConverges(t *testing.T) {
	game := kuhn.New()
	store := cfr.NewStore(false)
	kernel := cfr.NewKernel(game)
	rng := rand.New(rand.NewSource(0))

	var total float64
	const iterations = 20_000
	for i := 1; i <= iterations; i++ {
		v0, _ := kernel.RunIteration(store, 0, cfr.Vanilla, 1.0, rng)
		kernel.RunIteration(store, 1, cfr.Vanilla, 1.0, rng)
		total += v0
	}
	avgValue := total / float64(iterations)
	// This running average is dominated by early, unconverged iterations;
	// it is a sanity bound, not a tight equality to -1/18.
	if avgValue < -0.6 || avgValue > 0.6 {
		t.Fatalf("player 1 running value wildly off expected range, got %v", avgValue)
	}
}

func TestPenniesConvergesToHalfHalf(t *testing.T) {
	game := pennies.New()
	store := cfr.NewStore(false)
	runVanilla(game, store, 5_000, 0)

	h0, _ := store.Lookup(game.InfoKey(nil, 0))
	h1, _ := store.Lookup(game.InfoKey(nil, 1))
	avg0 := store.AverageStrategy(h0)
	avg1 := store.AverageStrategy(h1)

	for _, avg := range [][]float64{avg0, avg1} {
		if math.Abs(avg[0]-0.5) > 0.01 {
			t.Fatalf("expected matching pennies strategy near [0.5,0.5], got %v", avg)
		}
	}
}

func TestRPSConvergesToUniform(t *testing.T) {
	game := rps.New()
	store := cfr.NewStore(false)
	runVanilla(game, store, 10_000, 0)

	h0, _ := store.Lookup(game.InfoKey(nil, 0))
	avg := store.AverageStrategy(h0)
	for _, p := range avg {
		if math.Abs(p-1.0/3.0) > 0.01 {
			t.Fatalf("expected RPS strategy near uniform, got %v", avg)
		}
	}

	monitor := cfr.NewMonitor(game)
	expl, err := monitor.Exploitability(store)
	if err != nil {
		t.Fatalf("unexpected error computing exploitability: %v", err)
	}
	if expl >= 0.01 {
		t.Fatalf("expected exploitability < 0.01, got %v", expl)
	}
}

func TestDominanceConvergesToDominantAction(t *testing.T) {
	game := dominance.New()
	store := cfr.NewStore(false)
	runVanilla(game, store, 1_000, 0)

	h0, _ := store.Lookup(game.InfoKey(nil, 0))
	avg := store.AverageStrategy(h0)
	if avg[0] < 0.99 {
		t.Fatalf("expected dominant action frequency >= 0.99, got %v", avg)
	}
}
