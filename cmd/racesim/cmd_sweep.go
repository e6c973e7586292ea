package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/racesim/internal/race"
	"github.com/lawnchairsociety/racesim/internal/report"
)

type sweepFunc func(cmd *cobra.Command, values []float64) ([]race.SweepPoint, error)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one simulation per value of a parameter",
		Long: `Vary one parameter and report the win rates at each value.

Every point uses the same base seed, so differences between rows come from the
parameter alone.`,
	}

	cmd.AddCommand(
		newSweepSubCmd("power", "Vary agent A's power", func(cmd *cobra.Command, values []float64) ([]race.SweepPoint, error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return nil, err
			}
			applySimulationFlags(cmd, cfg)
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return race.SweepPower(ctx, cfg.AgentA(), cfg.AgentB(), cfg.Race(), values)
		}),
		newSweepSubCmd("noise", "Vary the noise scale", func(cmd *cobra.Command, values []float64) ([]race.SweepPoint, error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return nil, err
			}
			applySimulationFlags(cmd, cfg)
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return race.SweepNoise(ctx, cfg.AgentA(), cfg.AgentB(), cfg.Race(), values)
		}),
	)

	return cmd
}

func newSweepSubCmd(param, short string, sweep sweepFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   param,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			values, _ := cmd.Flags().GetFloat64Slice("values")
			if len(values) == 0 {
				return fmt.Errorf("--values is required")
			}

			points, err := sweep(cmd, values)
			if err != nil {
				return err
			}

			if jsonOut {
				type jsonPoint struct {
					Value  float64        `json:"value"`
					Result report.Summary `json:"result"`
				}
				out := make([]jsonPoint, len(points))
				for i, p := range points {
					out[i] = jsonPoint{Value: p.Value, Result: report.NewSummary(p.Result)}
				}
				return writeJSON(cmd, out)
			}
			return report.WriteSweep(cmd.OutOrStdout(), param, points)
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().Float64Slice("values", nil, "Comma-separated parameter values, e.g. 0.5,1,2")

	return cmd
}
