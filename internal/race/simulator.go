package race

import (
	"math"

	"github.com/lawnchairsociety/racesim/internal/stats"
)

// DefaultMaxTicks bounds a single race when SimulationConfig.MaxTicks is zero.
const DefaultMaxTicks = 1_000_000

// SimulationConfig holds the shared parameters of a run. It is never mutated
// once a run starts.
type SimulationConfig struct {
	Rigidity   float64 `json:"rigidity"`    // β
	NoiseScale float64 `json:"noise_scale"` // ω, standard deviation of each step
	Target     float64 `json:"target"`
	Trials     int     `json:"trials"`
	Seed       *int64  `json:"seed,omitempty"`
	Workers    int     `json:"workers,omitempty"`
	MaxTicks   int     `json:"max_ticks,omitempty"`
}

// WithSeed returns a copy of the config using the given base seed.
func (c SimulationConfig) WithSeed(seed int64) SimulationConfig {
	c.Seed = &seed
	return c
}

// TickLimit returns the per-race tick bound in effect.
func (c SimulationConfig) TickLimit() int {
	if c.MaxTicks > 0 {
		return c.MaxTicks
	}
	return DefaultMaxTicks
}

// validateRace checks the parameters a single race depends on.
func (c SimulationConfig) validateRace() error {
	if math.IsNaN(c.Target) || math.IsInf(c.Target, 0) || c.Target <= 0 {
		return &ConfigError{Field: "target", Reason: "must be a positive finite number"}
	}
	if err := checkNonNegative("noise_scale", c.NoiseScale); err != nil {
		return err
	}
	if c.MaxTicks < 0 {
		return &ConfigError{Field: "max_ticks", Reason: "must not be negative"}
	}
	return nil
}

// Validate checks every parameter of a run, before any random source is touched.
func (c SimulationConfig) Validate() error {
	if c.Trials <= 0 {
		return &ConfigError{Field: "trials", Reason: "must be a positive integer"}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Reason: "must not be negative"}
	}
	if err := checkNonNegative("rigidity", c.Rigidity); err != nil {
		return err
	}
	return c.validateRace()
}

// RaceState is the position of both agents during one race.
type RaceState struct {
	PositionA float64
	PositionB float64
	Ticks     int
}

// step advances both agents by one tick. Agent A draws before agent B.
func (s *RaceState) step(p NormalizedProbabilities, noise float64, stream stats.Stream) {
	s.PositionA += stats.Gaussian(stream, p.A, noise)
	s.PositionB += stats.Gaussian(stream, p.B, noise)
	s.Ticks++
}

func (s *RaceState) finished(target float64) bool {
	return s.PositionA >= target || s.PositionB >= target
}

// MatchOutcome is the result of a single race.
type MatchOutcome struct {
	Winner         Agent
	FinalPositionA float64
	FinalPositionB float64
	Ticks          int
}

// Simulate runs one race to completion using the given random stream.
// The race ends on the first tick where either agent reaches the target.
// Agent A wins only when strictly ahead; ties go to agent B.
func Simulate(p NormalizedProbabilities, cfg SimulationConfig, stream stats.Stream) (MatchOutcome, error) {
	if err := cfg.validateRace(); err != nil {
		return MatchOutcome{}, err
	}
	if cfg.NoiseScale == 0 && p.A <= 0 && p.B <= 0 {
		return MatchOutcome{}, &ConfigError{
			Field:  "noise_scale",
			Reason: "zero noise with zero advancement probabilities never reaches the target",
		}
	}

	limit := cfg.TickLimit()
	var state RaceState
	for !state.finished(cfg.Target) {
		if state.Ticks >= limit {
			return MatchOutcome{}, &SimulationError{
				Trial:  -1,
				Ticks:  state.Ticks,
				Reason: "tick limit reached before either agent reached the target",
			}
		}
		state.step(p, cfg.NoiseScale, stream)
	}

	winner := AgentB
	if state.PositionA > state.PositionB {
		winner = AgentA
	}

	return MatchOutcome{
		Winner:         winner,
		FinalPositionA: state.PositionA,
		FinalPositionB: state.PositionB,
		Ticks:          state.Ticks,
	}, nil
}
