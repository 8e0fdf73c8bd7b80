package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lox/pokerforbots/cfr"
)

var cli struct {
	Debug bool `help:"enable debug logging"`

	Train TrainCmd `cmd:"" help:"run CFR training and emit a solution snapshot"`
	Eval  EvalCmd  `cmd:"" help:"evaluate an exported snapshot's convergence"`
	Watch WatchCmd `cmd:"" help:"run training with a live terminal dashboard"`
}

type TrainCmd struct {
	Config         string `help:"path to an HCL run definition" type:"existingfile"`
	Out            string `help:"path to write the solution snapshot" required:""`
	Game           string `help:"registered game to solve, overrides the config file"`
	Iterations     int    `help:"iteration budget, overrides the config file"`
	Seed           int64  `help:"random seed, overrides the config file"`
	Workers        int    `help:"worker goroutines, overrides the config file"`
	CheckpointPath string `help:"path to write/read a resumable checkpoint"`
	CheckpointMins int    `help:"checkpoint interval in minutes (0 disables periodic checkpoints)" default:"10"`
	ResumeFrom     string `help:"resume training from a checkpoint file"`
	CPUProfile     string `help:"write a CPU profile to file"`
}

type EvalCmd struct {
	Snapshot string `help:"path to a solution snapshot" required:""`
}

type WatchCmd struct {
	TrainCmd
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("solver"),
		kong.Description("CFR solver tooling"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	var err error
	switch ctx.Command() {
	case "train":
		err = cli.Train.Run(context.Background(), nil)
	case "eval":
		err = cli.Eval.Run(context.Background())
	case "watch":
		err = cli.Watch.runWithDashboard(context.Background())
	default:
		log.Fatal().Msgf("unknown command: %s", ctx.Command())
	}
	if err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

// Run executes a training command. onReport, if non-nil, receives every
// progress report in addition to the usual log line (used by the
// dashboard to drive its live view).
func (cmd *TrainCmd) Run(ctx context.Context, onReport func(cfr.Report)) error {
	if cmd.CPUProfile != "" {
		f, err := os.Create(cmd.CPUProfile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", cmd.CPUProfile).Msg("CPU profiling enabled")
	}

	fileCfg, err := LoadFileConfig(cmd.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Game != "" {
		fileCfg.Game.Name = cmd.Game
	}
	if cmd.Iterations > 0 {
		fileCfg.Solver.Iterations = cmd.Iterations
	}
	if cmd.Seed != 0 {
		fileCfg.Solver.Seed = int(cmd.Seed)
	}
	if cmd.Workers > 0 {
		fileCfg.Solver.Workers = cmd.Workers
	}

	solverCfg, err := fileCfg.Solver.SolverConfig()
	if err != nil {
		return fmt.Errorf("resolve solver config: %w", err)
	}

	game, err := buildGame(fileCfg.Game.Name, fileCfg.Game)
	if err != nil {
		return fmt.Errorf("build game: %w", err)
	}

	var driver *cfr.Driver
	if cmd.ResumeFrom != "" {
		store, checkpointCfg, err := cfr.LoadCheckpoint(cmd.ResumeFrom)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		driver, err = cfr.NewDriverWithStore(game, checkpointCfg, store)
		if err != nil {
			return fmt.Errorf("resume driver: %w", err)
		}
		log.Info().Str("checkpoint", cmd.ResumeFrom).Int("infosets", store.Size()).Msg("resuming training run")
	} else {
		driver, err = cfr.NewDriver(game, solverCfg)
		if err != nil {
			return fmt.Errorf("build driver: %w", err)
		}
		log.Info().
			Str("game", fileCfg.Game.Name).
			Int("iterations", solverCfg.Iterations).
			Int("workers", solverCfg.Workers).
			Bool("cfr_plus", solverCfg.UseCFRPlus).
			Msg("starting training run")
	}

	var lastCheckpoint time.Time
	progress := func(rep cfr.Report) {
		event := log.Info().
			Int64("iteration", rep.Iteration).
			Float64("ci", rep.CI).
			Int("infosets", rep.StoreSize).
			Dur("elapsed", rep.Elapsed)
		if rep.HasExploitability {
			event = event.Float64("exploitability", rep.Exploitability)
		}
		event.Msg("progress")

		if onReport != nil {
			onReport(rep)
		}

		if cmd.CheckpointPath != "" && cmd.CheckpointMins > 0 {
			if lastCheckpoint.IsZero() || time.Since(lastCheckpoint) >= time.Duration(cmd.CheckpointMins)*time.Minute {
				if err := cfr.SaveCheckpoint(driver.Store(), solverCfg, cmd.CheckpointPath); err != nil {
					log.Error().Err(err).Msg("checkpoint save failed")
				} else {
					lastCheckpoint = time.Now()
					log.Debug().Str("path", cmd.CheckpointPath).Msg("checkpoint saved")
				}
			}
		}
	}

	start := time.Now()
	result, err := driver.Run(ctx, progress)
	if err != nil {
		return fmt.Errorf("training run: %w", err)
	}
	duration := time.Since(start)

	exporter := cfr.NewExporter(game)
	snap := exporter.Export(result.Store, cfr.SnapshotMetadata{
		ConfigID:            fileCfg.Game.Name,
		IterationsCompleted: result.IterationsCompleted,
		FinalCI:             result.LastCI,
		FinalExploitability: result.LastExploitability,
		WallClockElapsed:    result.Elapsed,
		StopReason:          result.StopReason.String(),
	})
	if err := snap.Save(cmd.Out); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if cmd.CheckpointPath != "" {
		if err := cfr.SaveCheckpoint(result.Store, solverCfg, cmd.CheckpointPath); err != nil {
			log.Error().Err(err).Msg("final checkpoint save failed")
		}
	}

	log.Info().
		Dur("duration", duration).
		Int64("iterations", result.IterationsCompleted).
		Str("stop_reason", result.StopReason.String()).
		Int("infosets", len(snap.Strategies)).
		Str("path", cmd.Out).
		Msg("training completed, snapshot saved")
	return nil
}

func (cmd *EvalCmd) Run(ctx context.Context) error {
	snap, err := cfr.LoadSnapshot(cmd.Snapshot)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	log.Info().
		Str("config", snap.Metadata.ConfigID).
		Int64("iterations", snap.Metadata.IterationsCompleted).
		Float64("final_ci", snap.Metadata.FinalCI).
		Bool("has_exploitability", snap.Metadata.HasExploitability).
		Int("infosets", len(snap.Strategies)).
		Str("stop_reason", snap.Metadata.StopReason).
		Msg("snapshot loaded")

	index, err := cfr.BuildFrozenIndex(snap)
	if err != nil {
		return fmt.Errorf("build frozen index: %w", err)
	}

	sampled := 0
	for key := range snap.Strategies {
		if sampled >= 5 {
			break
		}
		entry, ok := index.Lookup(key)
		if !ok {
			return fmt.Errorf("frozen index missing key %q present in snapshot", key)
		}
		log.Debug().Str("key", key).Strs("actions", entry.Actions).Floats64("strategy", entry.Strategy).Msg("sample infoset")
		sampled++
	}
	return nil
}
