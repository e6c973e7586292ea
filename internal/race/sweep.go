package race

import (
	"context"
	"fmt"

	"github.com/lawnchairsociety/racesim/internal/stats"
)

// SweepPoint is the aggregate result for one value of a swept parameter.
type SweepPoint struct {
	Value  float64         `json:"value"`
	Result AggregateResult `json:"result"`
}

// SweepPower runs one aggregate per power value for agent A, holding
// everything else fixed. All points share the same base seed.
func SweepPower(ctx context.Context, a, b AgentConfig, cfg SimulationConfig, powers []float64, opts ...Option) ([]SweepPoint, error) {
	return sweep(ctx, cfg, powers, func(v float64, cfg SimulationConfig) (AggregateResult, error) {
		swept := a
		swept.Power = v
		return Run(ctx, swept, b, cfg, opts...)
	})
}

// SweepNoise runs one aggregate per noise scale. All points share the same
// base seed.
func SweepNoise(ctx context.Context, a, b AgentConfig, cfg SimulationConfig, noises []float64, opts ...Option) ([]SweepPoint, error) {
	return sweep(ctx, cfg, noises, func(v float64, cfg SimulationConfig) (AggregateResult, error) {
		cfg.NoiseScale = v
		return Run(ctx, a, b, cfg, opts...)
	})
}

func sweep(ctx context.Context, cfg SimulationConfig, values []float64, run func(float64, SimulationConfig) (AggregateResult, error)) ([]SweepPoint, error) {
	if len(values) == 0 {
		return nil, &ConfigError{Field: "sweep values", Reason: "at least one value is required"}
	}
	if cfg.Seed == nil {
		cfg = cfg.WithSeed(stats.NewSeed())
	}

	points := make([]SweepPoint, 0, len(values))
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := run(v, cfg)
		if err != nil {
			return nil, fmt.Errorf("sweep value %g: %w", v, err)
		}
		points = append(points, SweepPoint{Value: v, Result: result})
	}
	return points, nil
}
