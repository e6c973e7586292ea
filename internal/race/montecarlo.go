package race

import (
	"context"
	"sync"
	"time"

	"github.com/lawnchairsociety/racesim/internal/logger"
	"github.com/lawnchairsociety/racesim/internal/stats"
)

// AggregateResult holds the tallies of a completed run.
// WinsA + WinsB == Trials.
type AggregateResult struct {
	AgentA        AgentConfig             `json:"agent_a"`
	AgentB        AgentConfig             `json:"agent_b"`
	Config        SimulationConfig        `json:"config"`
	Probabilities NormalizedProbabilities `json:"probabilities"`
	Seed          int64                   `json:"seed"` // base seed actually used

	Trials    int           `json:"trials"`
	WinsA     int           `json:"wins_a"`
	WinsB     int           `json:"wins_b"`
	MinTicks  int           `json:"min_ticks"`
	MaxTicks  int           `json:"max_ticks"`
	MeanTicks float64       `json:"mean_ticks"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// WinRateA returns agent A's share of wins in percent.
func (r AggregateResult) WinRateA() float64 {
	return float64(r.WinsA) / float64(r.Trials) * 100
}

// WinRateB returns agent B's share of wins in percent.
func (r AggregateResult) WinRateB() float64 {
	return float64(r.WinsB) / float64(r.Trials) * 100
}

// ConfidenceA returns the Wilson interval for agent A's win rate, in percent.
func (r AggregateResult) ConfidenceA(z float64) (float64, float64) {
	lo, hi := stats.WilsonInterval(r.WinsA, r.Trials, z)
	return lo * 100, hi * 100
}

// Leader returns the agent with more wins, or AgentB on an even split.
func (r AggregateResult) Leader() Agent {
	if r.WinsA > r.WinsB {
		return AgentA
	}
	return AgentB
}

// tally accumulates outcomes. It is owned by a single goroutine.
type tally struct {
	trials     int
	winsA      int
	winsB      int
	minTicks   int
	maxTicks   int
	totalTicks int64
}

func (t *tally) add(o MatchOutcome) {
	if t.trials == 0 || o.Ticks < t.minTicks {
		t.minTicks = o.Ticks
	}
	if o.Ticks > t.maxTicks {
		t.maxTicks = o.Ticks
	}
	t.trials++
	t.totalTicks += int64(o.Ticks)

	switch o.Winner {
	case AgentA:
		t.winsA++
	default:
		t.winsB++
	}
}

// Option customizes a run.
type Option func(*runOptions)

type runOptions struct {
	progressEvery int
	progress      func(completed, total int)
}

// WithProgress reports the number of completed trials every `every` trials
// and once more when the run completes. fn is called from a single goroutine.
func WithProgress(every int, fn func(completed, total int)) Option {
	return func(o *runOptions) {
		o.progressEvery = every
		o.progress = fn
	}
}

func (o *runOptions) report(completed, total int) {
	if o.progress == nil {
		return
	}
	if completed == total || (o.progressEvery > 0 && completed%o.progressEvery == 0) {
		o.progress(completed, total)
	}
}

// Run simulates cfg.Trials independent races and tallies the outcomes.
//
// Trial i draws from its own stream seeded with stats.TrialSeed(seed, i), so the
// result for a given base seed does not depend on cfg.Workers. When cfg.Seed is
// nil a base seed is drawn from the clock and reported in the result.
//
// Any failed trial aborts the run; a partial result is never returned.
func Run(ctx context.Context, a, b AgentConfig, cfg SimulationConfig, opts ...Option) (AggregateResult, error) {
	if err := cfg.Validate(); err != nil {
		return AggregateResult{}, err
	}
	p, err := Normalize(a, b, cfg.Rigidity)
	if err != nil {
		return AggregateResult{}, err
	}

	var options runOptions
	for _, opt := range opts {
		opt(&options)
	}

	seed := stats.NewSeed()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	logger.Debug("Starting simulation run",
		"trials", cfg.Trials,
		"workers", cfg.Workers,
		"seed", seed,
		"p_a", p.A,
		"p_b", p.B)

	start := time.Now()
	var t tally
	if workerCount(cfg) <= 1 {
		t, err = runSequential(ctx, p, cfg, seed, &options)
	} else {
		t, err = runParallel(ctx, p, cfg, seed, &options)
	}
	if err != nil {
		return AggregateResult{}, err
	}

	result := AggregateResult{
		AgentA:        a,
		AgentB:        b,
		Config:        cfg.WithSeed(seed),
		Probabilities: p,
		Seed:          seed,
		Trials:        t.trials,
		WinsA:         t.winsA,
		WinsB:         t.winsB,
		MinTicks:      t.minTicks,
		MaxTicks:      t.maxTicks,
		MeanTicks:     float64(t.totalTicks) / float64(t.trials),
		Elapsed:       time.Since(start),
	}

	logger.Debug("Simulation run complete",
		"trials", result.Trials,
		"wins_a", result.WinsA,
		"wins_b", result.WinsB,
		"elapsed", result.Elapsed)

	return result, nil
}

func runSequential(ctx context.Context, p NormalizedProbabilities, cfg SimulationConfig, seed int64, opts *runOptions) (tally, error) {
	var t tally
	r := stats.NewRand(seed)
	for i := 0; i < cfg.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return tally{}, err
		}
		r.Seed(stats.TrialSeed(seed, i))
		outcome, err := Simulate(p, cfg, r)
		if err != nil {
			return tally{}, trialError(i, err)
		}
		t.add(outcome)
		opts.report(t.trials, cfg.Trials)
	}
	return t, nil
}

type trialResult struct {
	index   int
	outcome MatchOutcome
	err     error
}

// workerCount is the number of goroutines a parallel run starts. There is
// never more than one worker per trial.
func workerCount(cfg SimulationConfig) int {
	return min(cfg.Workers, cfg.Trials)
}

// runParallel fans trial indices out to workerCount goroutines and folds their
// outcomes into a tally owned by the calling goroutine.
func runParallel(ctx context.Context, p NormalizedProbabilities, cfg SimulationConfig, seed int64, opts *runOptions) (tally, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := workerCount(cfg)
	jobs := make(chan int)
	results := make(chan trialResult, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := stats.NewRand(seed)
			for i := range jobs {
				r.Seed(stats.TrialSeed(seed, i))
				outcome, err := Simulate(p, cfg, r)
				select {
				case results <- trialResult{index: i, outcome: outcome, err: err}:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Trials; i++ {
			select {
			case jobs <- i:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var t tally
	var firstErr error
	for res := range results {
		if firstErr != nil {
			continue
		}
		if res.err != nil {
			firstErr = trialError(res.index, res.err)
			cancel()
			continue
		}
		t.add(res.outcome)
		opts.report(t.trials, cfg.Trials)
	}

	if firstErr != nil {
		return tally{}, firstErr
	}
	if t.trials < cfg.Trials {
		if err := ctx.Err(); err != nil {
			return tally{}, err
		}
		return tally{}, context.Canceled
	}
	return t, nil
}
