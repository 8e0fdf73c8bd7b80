package cfr

import (
	"math"
	"math/rand"
)

// variantPlan captures, per Variant, which node kinds are sampled rather
// than enumerated. The recursive traversal below is the same function for
// every variant; only these flags change.
type variantPlan struct {
	sampleChance    bool
	sampleOpponents bool
	sampleTraverser bool
	outcomeWeighted bool
}

func planFor(v Variant) variantPlan {
	switch v {
	case ChanceSampledVariant:
		return variantPlan{sampleChance: true}
	case ExternalSampling:
		return variantPlan{sampleChance: true, sampleOpponents: true}
	case OutcomeSampling:
		return variantPlan{sampleChance: true, sampleOpponents: true, sampleTraverser: true, outcomeWeighted: true}
	default: // Vanilla
		return variantPlan{}
	}
}

// Kernel runs single CFR iterations against a Game and a Store. It holds
// no per-iteration state of its own, so one Kernel is safely shared by
// every worker goroutine in the driver's pool.
type Kernel struct {
	game Game
}

// NewKernel builds a traversal kernel for the given game.
func NewKernel(game Game) *Kernel {
	return &Kernel{game: game}
}

// RunIteration performs one CFR iteration for traverser under variant,
// returning the traverser's game value for this iteration (an unbiased
// estimate under sampling variants, exact under Vanilla).
func (k *Kernel) RunIteration(store *Store, traverser int, variant Variant, iterWeight float64, rng *rand.Rand) (float64, error) {
	plan := planFor(variant)
	return k.traverse(store, k.game.InitialState(), traverser, plan, iterWeight, rng, 1.0, 1.0, 1.0)
}

// traverse is the single recursive kernel described in the traversal
// contract: terminal nodes return payoff, chance nodes enumerate or
// sample, the traverser's own decisions update regret, opponents'
// decisions only propagate value.
//
// reachT is the traverser's own reach probability to this node; reachOthers
// is the product of every other player's (and chance's) reach probability;
// sampleProb is the product of every sampling probability taken so far
// along this path, used only to importance-weight OutcomeSampling.
func (k *Kernel) traverse(store *Store, state any, traverser int, plan variantPlan, iterWeight float64, rng *rand.Rand, reachT, reachOthers, sampleProb float64) (float64, error) {
	cls := k.game.Classify(state)

	switch cls.Kind {
	case Terminal:
		payoff := cls.Payoff[traverser]
		if math.IsNaN(payoff) || math.IsInf(payoff, 0) {
			return 0, &NumericalInstability{Detail: "terminal state reported non-finite payoff"}
		}
		if plan.outcomeWeighted {
			return payoff / sampleProb, nil
		}
		return payoff, nil

	case Chance:
		if !plan.sampleChance {
			if outcomes := k.game.EnumerateChance(state); outcomes != nil {
				total := 0.0
				for _, o := range outcomes {
					v, err := k.traverse(store, o.State, traverser, plan, iterWeight, rng, reachT, reachOthers*o.Probability, sampleProb)
					if err != nil {
						return 0, err
					}
					total += o.Probability * v
				}
				return total, nil
			}
		}
		next, prob := k.game.SampleChance(state, rng)
		nextSampleProb := sampleProb
		if plan.outcomeWeighted {
			nextSampleProb *= prob
		}
		return k.traverse(store, next, traverser, plan, iterWeight, rng, reachT, reachOthers, nextSampleProb)

	case Decision:
		actorK := k.game.LegalActions(state)
		if actorK < 1 {
			return 0, &GameContractViolation{Key: k.game.InfoKey(state, cls.Player), Reason: "legal_actions returned zero at a decision node"}
		}

		key := k.game.InfoKey(state, cls.Player)
		rec, err := store.TouchOrCreate(key, actorK)
		if err != nil {
			return 0, err
		}
		sigma := store.CurrentStrategy(rec)

		if cls.Player == traverser {
			return k.traverseOwnDecision(store, state, rec, sigma, traverser, plan, iterWeight, rng, reachT, reachOthers, sampleProb)
		}
		return k.traverseOpponentDecision(store, state, sigma, traverser, plan, iterWeight, rng, reachT, reachOthers, sampleProb)
	}

	return 0, &GameContractViolation{Reason: "state classified to an unknown node kind"}
}

func (k *Kernel) traverseOwnDecision(store *Store, state any, rec *Record, sigma []float64, traverser int, plan variantPlan, iterWeight float64, rng *rand.Rand, reachT, reachOthers, sampleProb float64) (float64, error) {
	actorK := rec.K()

	if !plan.sampleTraverser {
		values := make([]float64, actorK)
		strategyValue := 0.0
		for a := 0; a < actorK; a++ {
			v, err := k.traverse(store, k.game.Apply(state, a), traverser, plan, iterWeight, rng, reachT*sigma[a], reachOthers, sampleProb)
			if err != nil {
				return 0, err
			}
			values[a] = v
			strategyValue += sigma[a] * v
		}

		regretDelta := make([]float64, actorK)
		for a := 0; a < actorK; a++ {
			regretDelta[a] = reachOthers * (values[a] - strategyValue)
		}
		store.Accumulate(rec, regretDelta, iterWeight, reachT)
		return strategyValue, nil
	}

	// Outcome sampling: sample this player's own action too, then apply
	// the standard single-sample importance-weighted regret estimator
	// (Lanctot et al., 2009): v~(a*) = u / sigma[a*], v~(a) = 0 otherwise,
	// regret(a) = reachOthers * (v~(a) - sigma . v~).
	idx := SampleDiscrete(sigma, rng)
	u, err := k.traverse(store, k.game.Apply(state, idx), traverser, plan, iterWeight, rng, reachT*sigma[idx], reachOthers, sampleProb*sigma[idx])
	if err != nil {
		return 0, err
	}

	regretDelta := make([]float64, actorK)
	for a := 0; a < actorK; a++ {
		var vTilde float64
		if a == idx {
			vTilde = u / sigma[idx]
		}
		regretDelta[a] = reachOthers * (vTilde - u)
	}
	store.Accumulate(rec, regretDelta, iterWeight, reachT)
	return u, nil
}

func (k *Kernel) traverseOpponentDecision(store *Store, state any, sigma []float64, traverser int, plan variantPlan, iterWeight float64, rng *rand.Rand, reachT, reachOthers, sampleProb float64) (float64, error) {
	actorK := len(sigma)

	if plan.sampleOpponents {
		idx := SampleDiscrete(sigma, rng)
		nextSampleProb := sampleProb
		if plan.outcomeWeighted {
			nextSampleProb *= sigma[idx]
		}
		return k.traverse(store, k.game.Apply(state, idx), traverser, plan, iterWeight, rng, reachT, reachOthers*sigma[idx], nextSampleProb)
	}

	total := 0.0
	for a := 0; a < actorK; a++ {
		v, err := k.traverse(store, k.game.Apply(state, a), traverser, plan, iterWeight, rng, reachT, reachOthers*sigma[a], sampleProb)
		if err != nil {
			return 0, err
		}
		total += sigma[a] * v
	}
	return total, nil
}
