package cfr

import (
	"errors"
	"fmt"
)

// GameContractViolation is fatal: the client game broke one of the
// invariants the kernel relies on (e.g. zero legal actions at a decision
// node, or action arity changing across visits to the same information
// key). The offending key is attached for diagnosis.
type GameContractViolation struct {
	Key    InfoKey
	Reason string
}

func (e *GameContractViolation) Error() string {
	return fmt.Sprintf("cfr: game contract violated at key %d: %s", e.Key, e.Reason)
}

// NumericalInstability is fatal: the kernel raises it when the client game
// returns a NaN or infinite terminal payoff. Regret and strategy-sum
// values are not checked for NaN or infinity.
type NumericalInstability struct {
	Key    InfoKey
	Detail string
}

func (e *NumericalInstability) Error() string {
	return fmt.Sprintf("cfr: numerical instability at key %d: %s", e.Key, e.Detail)
}

// ErrCancellationRequested names a stop caused by context cancellation.
// Driver.Run does not return it: a cancelled run returns a nil error with
// Result.StopReason set to StopCancelled, and the store stays exportable.
var ErrCancellationRequested = errors.New("cfr: cancellation requested")

// ErrBudgetExhausted names a stop caused by the iteration count,
// wall-clock budget or convergence threshold. Driver.Run does not return
// it: such a run returns a nil error and reports the cause in
// Result.StopReason.
var ErrBudgetExhausted = errors.New("cfr: budget exhausted")
