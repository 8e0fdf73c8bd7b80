package cfr

import (
	"fmt"
	"math"
	"time"
)

// Variant selects the chance/opponent sampling discipline used by the
// traversal kernel. The recursive code path is identical across variants;
// only whether each non-traverser node enumerates or samples differs.
type Variant int

const (
	Vanilla Variant = iota
	ChanceSampledVariant
	ExternalSampling
	OutcomeSampling
)

func (v Variant) String() string {
	switch v {
	case Vanilla:
		return "vanilla"
	case ChanceSampledVariant:
		return "chance_sampled"
	case ExternalSampling:
		return "external_sampling"
	case OutcomeSampling:
		return "outcome_sampling"
	default:
		return "unknown"
	}
}

// Weighting selects how an iteration's contribution to regret and
// strategy-sum accumulation is scaled.
type Weighting int

const (
	UniformWeighting Weighting = iota
	LinearWeighting
	DiscountedWeighting
)

// TraverserPolicy selects which player(s) traverse in a given iteration.
type TraverserPolicy int

const (
	RoundRobin TraverserPolicy = iota
	AllPlayersPerIteration
)

// DiscountParams holds the α, β, γ exponents for Discounted-CFR.
type DiscountParams struct {
	Alpha float64
	Beta  float64
	Gamma float64
}

// DefaultDiscountParams returns the commonly used DCFR exponents
// (α=1.5, β=0, γ=2) from Brown & Sandholm 2019.
func DefaultDiscountParams() DiscountParams {
	return DiscountParams{Alpha: 1.5, Beta: 0, Gamma: 2}
}

// SolverConfig is the structured record of recognized solver options.
type SolverConfig struct {
	Iterations          int
	WallClockBudget     time.Duration
	TargetCI            float64
	TargetExploitability float64
	Variant             Variant
	UseCFRPlus          bool
	Weighting           Weighting
	Discount            DiscountParams
	Workers             int
	Seed                int64
	ReportInterval      int
	TraverserPolicy     TraverserPolicy
}

// DefaultSolverConfig returns reasonable defaults: vanilla CFR, uniform
// weighting, a single deterministic worker, round-robin traversers.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Iterations:     10_000,
		Variant:        Vanilla,
		Weighting:      UniformWeighting,
		Discount:       DefaultDiscountParams(),
		Workers:        1,
		Seed:           0,
		ReportInterval: 100,
		TraverserPolicy: RoundRobin,
	}
}

// Validate checks the configuration for internally inconsistent values.
func (c SolverConfig) Validate() error {
	if c.Iterations <= 0 && c.WallClockBudget <= 0 {
		return fmt.Errorf("cfr: config must set a positive Iterations or WallClockBudget")
	}
	if c.Workers < 0 {
		return fmt.Errorf("cfr: Workers must be >= 0 (0 means 1)")
	}
	if c.ReportInterval < 0 {
		return fmt.Errorf("cfr: ReportInterval must be >= 0")
	}
	switch c.Variant {
	case Vanilla, ChanceSampledVariant, ExternalSampling, OutcomeSampling:
	default:
		return fmt.Errorf("cfr: unknown variant %d", c.Variant)
	}
	switch c.Weighting {
	case UniformWeighting, LinearWeighting, DiscountedWeighting:
	default:
		return fmt.Errorf("cfr: unknown weighting %d", c.Weighting)
	}
	switch c.TraverserPolicy {
	case RoundRobin, AllPlayersPerIteration:
	default:
		return fmt.Errorf("cfr: unknown traverser policy %d", c.TraverserPolicy)
	}
	return nil
}

// Deterministic reports whether this configuration guarantees
// byte-identical snapshots across repeated runs with the same seed.
func (c SolverConfig) Deterministic() bool {
	return c.Workers <= 1
}

// IterationWeight computes w_t for a 1-based iteration index under the
// configured weighting scheme.
func (c SolverConfig) IterationWeight(iteration int64) float64 {
	switch c.Weighting {
	case LinearWeighting:
		return float64(iteration)
	case DiscountedWeighting:
		t := float64(iteration)
		return math.Pow(t, c.Discount.Alpha)
	default:
		return 1.0
	}
}
