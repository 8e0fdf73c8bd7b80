package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/pokerforbots/cfr"
)

// FileConfig is the HCL-decoded shape of a solver run definition, covering
// both the generic CFR solver knobs and the chosen game's parameters. It
// mirrors the split between cfr.SolverConfig (game-agnostic) and
// GameSettings (game-specific) so a single file can fully describe a run.
type FileConfig struct {
	Solver SolverSettings `hcl:"solver,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// SolverSettings maps onto cfr.SolverConfig.
type SolverSettings struct {
	Iterations      int     `hcl:"iterations,optional"`
	Variant         string  `hcl:"variant,optional"`
	CFRPlus         bool    `hcl:"cfr_plus,optional"`
	Weighting       string  `hcl:"weighting,optional"`
	Workers         int     `hcl:"workers,optional"`
	Seed            int     `hcl:"seed,optional"`
	ReportInterval  int     `hcl:"report_interval,optional"`
	TargetCI        float64 `hcl:"target_ci,optional"`
	TargetExploit   float64 `hcl:"target_exploitability,optional"`
	TraverserPolicy string  `hcl:"traverser_policy,optional"`
}

// GameSettings names the registered game and its optional parameters.
// Fields irrelevant to a given game (e.g. blinds for Kuhn poker) are
// simply ignored by that game's factory.
type GameSettings struct {
	Name         string `hcl:"name,optional"`
	Players      int    `hcl:"players,optional"`
	SmallBlind   int    `hcl:"small_blind,optional"`
	BigBlind     int    `hcl:"big_blind,optional"`
	StartStack   int    `hcl:"start_stack,optional"`
	EquityTrials int    `hcl:"equity_trials,optional"`
}

// DefaultFileConfig is the run definition used whenever no config file is
// given: Kuhn poker, vanilla CFR, one worker, 50,000 iterations, seed 1.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Solver: SolverSettings{
			Iterations: 50_000,
			Variant:    "vanilla",
			Workers:    1,
			Seed:       1,
		},
		Game: GameSettings{Name: "kuhn"},
	}
}

// LoadFileConfig reads an HCL run definition, falling back to defaults
// when the path is empty or the file does not exist.
func LoadFileConfig(path string) (FileConfig, error) {
	if path == "" {
		return DefaultFileConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultFileConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return FileConfig{}, fmt.Errorf("parse %s: %s", path, diags.Error())
	}

	cfg := DefaultFileConfig()
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return FileConfig{}, fmt.Errorf("decode %s: %s", path, diags.Error())
	}
	return cfg, nil
}

// SolverConfig translates the decoded HCL settings into a cfr.SolverConfig,
// starting from the package defaults so unset fields stay sensible.
func (s SolverSettings) SolverConfig() (cfr.SolverConfig, error) {
	cfg := cfr.DefaultSolverConfig()
	if s.Iterations > 0 {
		cfg.Iterations = s.Iterations
	}
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
	if s.Seed != 0 {
		cfg.Seed = int64(s.Seed)
	}
	if s.ReportInterval > 0 {
		cfg.ReportInterval = s.ReportInterval
	}
	if s.TargetCI > 0 {
		cfg.TargetCI = s.TargetCI
	}
	if s.TargetExploit > 0 {
		cfg.TargetExploitability = s.TargetExploit
	}
	cfg.UseCFRPlus = s.CFRPlus

	if variant, err := parseVariant(s.Variant); err == nil {
		cfg.Variant = variant
	} else if s.Variant != "" {
		return cfg, err
	}

	if weighting, err := parseWeighting(s.Weighting); err == nil {
		cfg.Weighting = weighting
	} else if s.Weighting != "" {
		return cfg, err
	}

	if policy, err := parseTraverserPolicy(s.TraverserPolicy); err == nil {
		cfg.TraverserPolicy = policy
	} else if s.TraverserPolicy != "" {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func parseVariant(name string) (cfr.Variant, error) {
	switch name {
	case "", "vanilla":
		return cfr.Vanilla, nil
	case "chance_sampled":
		return cfr.ChanceSampledVariant, nil
	case "external_sampling":
		return cfr.ExternalSampling, nil
	case "outcome_sampling":
		return cfr.OutcomeSampling, nil
	default:
		return cfr.Vanilla, fmt.Errorf("unknown variant %q", name)
	}
}

func parseWeighting(name string) (cfr.Weighting, error) {
	switch name {
	case "", "uniform":
		return cfr.UniformWeighting, nil
	case "linear":
		return cfr.LinearWeighting, nil
	case "discounted":
		return cfr.DiscountedWeighting, nil
	default:
		return cfr.UniformWeighting, fmt.Errorf("unknown weighting %q", name)
	}
}

func parseTraverserPolicy(name string) (cfr.TraverserPolicy, error) {
	switch name {
	case "", "round_robin":
		return cfr.RoundRobin, nil
	case "all_players":
		return cfr.AllPlayersPerIteration, nil
	default:
		return cfr.RoundRobin, fmt.Errorf("unknown traverser policy %q", name)
	}
}
