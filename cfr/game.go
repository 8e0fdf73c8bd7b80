// Package cfr implements a generic Counterfactual Regret Minimization engine:
// tree traversal, regret accounting, strategy averaging, chance sampling, and
// parallel iteration orchestration over any game satisfying the Game contract.
//
// The package never references poker, Kuhn, or any other concrete game. A
// client supplies a Game value (a capability record, not a base class) and
// gets back a Store of converging per-information-set strategies.
package cfr

import "math/rand"

// NodeKind classifies a State as seen by the traversal kernel.
type NodeKind int

const (
	// Decision means a player chooses among LegalActions(state).
	Decision NodeKind = iota
	// Chance means the next state is drawn from a chance distribution.
	Chance
	// Terminal means the game has ended; Payoff holds one value per player.
	Terminal
)

// Classification is the result of classifying a State.
type Classification struct {
	Kind    NodeKind
	Player  int       // valid when Kind == Decision
	Payoff  []float64 // valid when Kind == Terminal, one entry per player
}

// ChanceOutcome is one branch of a fully enumerated chance node.
type ChanceOutcome struct {
	State       any
	Probability float64
}

// InfoKey identifies an information set: everything a player knows at a
// decision point. It must be small, comparable, and fast to hash — the
// kernel treats it as opaque and never inspects it. Games with larger
// natural keys should fingerprint them into a uint64 before returning.
type InfoKey uint64

// Game is the capability surface any game must satisfy for the kernel to
// traverse it. State is an opaque value (any concrete type the game likes);
// the kernel only ever clones it implicitly by calling Apply, which must be
// pure and side-effect-free.
type Game interface {
	// InitialState returns the root of the game tree.
	InitialState() any

	// Classify reports whether state is terminal, chance, or a decision by
	// a specific player.
	Classify(state any) Classification

	// LegalActions returns the action arity k at state's decision node.
	// It must be deterministic given state and at least 1 at any decision
	// node; k is immutable once observed for an information key.
	LegalActions(state any) int

	// Apply returns the state reached by taking the action at the given
	// index. Pure: the input state must not be mutated.
	Apply(state any, actionIndex int) any

	// SampleChance draws one outcome from a chance node, returning the
	// resulting state and the probability with which it was drawn (1.0 is
	// valid when sampling exactly from the true distribution).
	SampleChance(state any, rng *rand.Rand) (any, float64)

	// EnumerateChance optionally returns every outcome of a chance node
	// with its probability, enabling full expansion instead of sampling.
	// Returns nil when the game does not support enumeration at state.
	EnumerateChance(state any) []ChanceOutcome

	// InfoKey returns the information-set key for player at state.
	InfoKey(state any, player int) InfoKey

	// NumPlayers returns the number of players in the game.
	NumPlayers() int
}

// ActionLabeler is implemented by games that can supply human-readable
// action names for export. Optional: the exporter falls back to positional
// labels ("a0", "a1", ...) when a game does not implement it.
type ActionLabeler interface {
	ActionLabels(key InfoKey) []string
}

// KeyLabeler is implemented by games that can render an InfoKey back into a
// stable human-readable string (e.g. the canonical history that produced
// it) for the solution snapshot. Optional.
type KeyLabeler interface {
	KeyLabel(key InfoKey) string
}
