package cfr

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerforbots/internal/randutil"
)

// Report is emitted to the driver's progress callback every
// ReportInterval iterations. Emission is advisory; nothing downstream of
// it is required for correctness.
type Report struct {
	Iteration      int64
	CI             float64
	Exploitability float64
	HasExploitability bool
	StoreSize      int
	Elapsed        time.Duration
}

// StopReason records why a Run call returned.
type StopReason int

const (
	StopIterationsExhausted StopReason = iota
	StopWallClockExhausted
	StopConvergenceThreshold
	StopCancelled
	StopError
)

func (r StopReason) String() string {
	switch r {
	case StopIterationsExhausted:
		return "iterations_exhausted"
	case StopWallClockExhausted:
		return "wall_clock_exhausted"
	case StopConvergenceThreshold:
		return "convergence_threshold"
	case StopCancelled:
		return "cancelled"
	default:
		return "error"
	}
}

// Result is what Run returns: the final store plus metadata about how the
// solve ended.
type Result struct {
	Store              *Store
	IterationsCompleted int64
	Elapsed            time.Duration
	StopReason         StopReason
	LastCI             float64
	LastExploitability float64
}

// Driver runs N iterations of the kernel across a worker pool, applying
// the configured weighting scheme and honoring cancellation and budgets.
type Driver struct {
	game    Game
	cfg     SolverConfig
	store   *Store
	kernel  *Kernel
	monitor *Monitor
	clock   quartz.Clock
}

// NewDriver builds a driver for game under cfg. A fresh Store is created;
// use NewDriverWithStore to resume onto an existing one (checkpoint
// restore).
func NewDriver(game Game, cfg SolverConfig) (*Driver, error) {
	return NewDriverWithStore(game, cfg, NewStore(cfg.UseCFRPlus))
}

// NewDriverWithStore builds a driver that accumulates into an
// already-populated store, used to resume from a checkpoint.
func NewDriverWithStore(game Game, cfg SolverConfig, store *Store) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Driver{
		game:    game,
		cfg:     cfg,
		store:   store,
		kernel:  NewKernel(game),
		monitor: NewMonitor(game),
		clock:   quartz.NewReal(),
	}, nil
}

// WithClock overrides the driver's clock, for deterministic tests of
// wall-clock budgets.
func (d *Driver) WithClock(clock quartz.Clock) *Driver {
	d.clock = clock
	return d
}

// Store returns the driver's underlying information-state store.
func (d *Driver) Store() *Store { return d.store }

// Run executes iterations until the context is cancelled, the configured
// budget trips, or a fatal error occurs. onReport, if non-nil, is called
// synchronously every ReportInterval iterations from one arbitrary
// worker; it must not block for long or it will stall that worker.
func (d *Driver) Run(ctx context.Context, onReport func(Report)) (*Result, error) {
	start := d.clock.Now()
	workers := d.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var iterCounter atomic.Int64
	var stopReason atomic.Int32
	stopReason.Store(int32(StopIterationsExhausted))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	numPlayers := d.game.NumPlayers()

	for w := 0; w < workers; w++ {
		workerSeed := d.cfg.Seed + int64(w)
		g.Go(func() error {
			rng := randutil.New(workerSeed)
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}

				if d.cfg.WallClockBudget > 0 && d.clock.Since(start) >= d.cfg.WallClockBudget {
					stopReason.Store(int32(StopWallClockExhausted))
					cancel()
					return nil
				}

				n := iterCounter.Add(1)
				if d.cfg.Iterations > 0 && n > int64(d.cfg.Iterations) {
					iterCounter.Add(-1)
					stopReason.Store(int32(StopIterationsExhausted))
					cancel()
					return nil
				}

				weight := d.cfg.IterationWeight(n)
				traversers := d.traversersFor(n, numPlayers)
				for _, t := range traversers {
					if _, err := d.kernel.RunIteration(d.store, t, d.cfg.Variant, weight, rng); err != nil {
						cancel()
						return err
					}
				}

				if d.cfg.ReportInterval > 0 && n%int64(d.cfg.ReportInterval) == 0 {
					if d.reportAndCheckThreshold(n, start, onReport) {
						stopReason.Store(int32(StopConvergenceThreshold))
						cancel()
						return nil
					}
				}
			}
		})
	}

	err := g.Wait()
	elapsed := d.clock.Since(start)

	reason := StopReason(stopReason.Load())
	if err != nil {
		if _, ok := err.(*GameContractViolation); ok {
			return &Result{Store: d.store, IterationsCompleted: iterCounter.Load(), Elapsed: elapsed, StopReason: StopError}, err
		}
		if _, ok := err.(*NumericalInstability); ok {
			return &Result{Store: d.store, IterationsCompleted: iterCounter.Load(), Elapsed: elapsed, StopReason: StopError}, err
		}
		return &Result{Store: d.store, IterationsCompleted: iterCounter.Load(), Elapsed: elapsed, StopReason: StopError}, err
	}
	if ctx.Err() != nil {
		reason = StopCancelled
	}

	return &Result{
		Store:              d.store,
		IterationsCompleted: iterCounter.Load(),
		Elapsed:            elapsed,
		StopReason:         reason,
	}, nil
}

// traversersFor returns the player index (or indices) that traverse on
// iteration n under the configured policy.
func (d *Driver) traversersFor(n int64, numPlayers int) []int {
	if d.cfg.TraverserPolicy == AllPlayersPerIteration {
		players := make([]int, numPlayers)
		for i := range players {
			players[i] = i
		}
		return players
	}
	return []int{int((n - 1) % int64(numPlayers))}
}

// reportAndCheckThreshold invokes the monitor and progress callback, and
// reports whether a configured convergence threshold has been reached.
func (d *Driver) reportAndCheckThreshold(n int64, start time.Time, onReport func(Report)) bool {
	ci := d.monitor.ConvergenceIndicator(d.store)
	rep := Report{
		Iteration: n,
		CI:        ci,
		StoreSize: d.store.Size(),
		Elapsed:   d.clock.Since(start),
	}

	thresholdHit := d.cfg.TargetCI > 0 && ci < d.cfg.TargetCI

	if d.cfg.TargetExploitability > 0 && d.game.NumPlayers() == 2 {
		if expl, err := d.monitor.Exploitability(d.store); err == nil {
			rep.Exploitability = expl
			rep.HasExploitability = true
			if expl < d.cfg.TargetExploitability {
				thresholdHit = true
			}
		}
	}

	if onReport != nil {
		onReport(rep)
	}
	return thresholdHit
}
