package main

import (
	"fmt"

	"github.com/lox/pokerforbots/cfr"
	"github.com/lox/pokerforbots/games/dominance"
	"github.com/lox/pokerforbots/games/kuhn"
	"github.com/lox/pokerforbots/games/pennies"
	"github.com/lox/pokerforbots/games/preflop"
	"github.com/lox/pokerforbots/games/rps"
	"github.com/lox/pokerforbots/games/symmetric"
)

// gameFactory builds a fresh cfr.Game instance from the resolved CLI/HCL
// settings. Every registered game is cheap to construct, so the factory
// is re-invoked rather than cached.
type gameFactory func(settings GameSettings) (cfr.Game, error)

var gameRegistry = map[string]gameFactory{
	"kuhn": func(GameSettings) (cfr.Game, error) {
		return kuhn.New(), nil
	},
	"pennies": func(GameSettings) (cfr.Game, error) {
		return pennies.New(), nil
	},
	"rps": func(GameSettings) (cfr.Game, error) {
		return rps.New(), nil
	},
	"dominance": func(GameSettings) (cfr.Game, error) {
		return dominance.New(), nil
	},
	"symmetric": func(GameSettings) (cfr.Game, error) {
		return symmetric.New(), nil
	},
	"preflop": func(s GameSettings) (cfr.Game, error) {
		cfg := preflop.DefaultConfig()
		if s.Players > 0 {
			cfg.Players = s.Players
		}
		if s.SmallBlind > 0 {
			cfg.SmallBlind = s.SmallBlind
		}
		if s.BigBlind > 0 {
			cfg.BigBlind = s.BigBlind
		}
		if s.StartStack > 0 {
			cfg.StartStack = s.StartStack
		}
		if s.EquityTrials > 0 {
			cfg.EquityTrials = s.EquityTrials
		}
		return preflop.NewWithConfig(cfg)
	},
}

func buildGame(name string, settings GameSettings) (cfr.Game, error) {
	factory, ok := gameRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown game %q (known games: %s)", name, knownGameNames())
	}
	return factory(settings)
}

func knownGameNames() string {
	names := make([]string, 0, len(gameRegistry))
	for name := range gameRegistry {
		names = append(names, name)
	}
	return fmt.Sprint(names)
}
