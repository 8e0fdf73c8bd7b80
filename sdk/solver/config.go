package solver

import (
	"errors"
	"fmt"
)

// AbstractionConfig captures the coarse representation used by the solver when
// clustering hands and actions. Values here should align with the abstraction
// used during blueprint generation and runtime consumption.
type AbstractionConfig struct {
	// PreflopBucketCount controls how many distinct holes-card classes the solver
	// will maintain before shared cards are exposed.
	PreflopBucketCount int

	// PostflopBucketCount controls how many buckets community-card textures map into.
	PostflopBucketCount int

	// BetSizing lists bet size fractions relative to the current pot that will be
	// exposed in the action abstraction. Values should be monotonic increasing.
	BetSizing []float64

	// MaxActionsPerNode is the declared action budget for a decision node
	// (fold/call counted separately from raises). Validate checks only its lower
	// bound; games/preflop does not read it and always exposes 3+len(BetSizing)
	// actions.
	MaxActionsPerNode int

	// EnableRaises toggles whether the abstraction exposes raise actions.
	EnableRaises bool

	// MaxRaisesPerBucket caps the number of sized raises in a betting round:
	// games/preflop turns any further raise action into a call. Zero means no
	// cap.
	MaxRaisesPerBucket int
}

// Validate ensures the abstraction is well-formed before training begins.
func (c AbstractionConfig) Validate() error {
	if c.PreflopBucketCount <= 0 {
		return errors.New("preflop bucket count must be > 0")
	}
	if c.PostflopBucketCount <= 0 {
		return errors.New("postflop bucket count must be > 0")
	}
	if c.EnableRaises {
		if len(c.BetSizing) == 0 {
			return errors.New("at least one bet sizing fraction is required")
		}
		last := 0.0
		for i, v := range c.BetSizing {
			if v <= 0 {
				return fmt.Errorf("bet sizing[%d] must be > 0", i)
			}
			if v <= last {
				return fmt.Errorf("bet sizing[%d] must be strictly increasing", i)
			}
			last = v
		}
		if c.MaxActionsPerNode < 3 {
			return errors.New("max actions per node must allow at least fold/call/raise")
		}
		if c.MaxRaisesPerBucket < 0 {
			return errors.New("max raises per bucket cannot be negative")
		}
	} else {
		if len(c.BetSizing) > 0 {
			return errors.New("bet sizing must be empty when raises are disabled")
		}
		if c.MaxActionsPerNode < 2 {
			return errors.New("max actions per node must allow at least fold/call when raises disabled")
		}
	}
	return nil
}

// DefaultAbstraction returns a conservative abstraction suitable for smoke tests.
func DefaultAbstraction() AbstractionConfig {
	return AbstractionConfig{
		PreflopBucketCount:  10,
		PostflopBucketCount: 20,
		BetSizing:           []float64{0.33, 0.5, 0.75, 1.0, 1.5},
		MaxActionsPerNode:   8,
		EnableRaises:        true,
		MaxRaisesPerBucket:  3,
	}
}
