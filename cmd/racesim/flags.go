package main

import (
	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/racesim/internal/config"
)

// addSimulationFlags registers the flags that override the simulation section
// of the config file.
func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("theta-a", 0, "Power of agent A")
	cmd.Flags().Float64("theta-b", 0, "Power of agent B")
	cmd.Flags().Float64("beta", 0, "Rigidity shared by both agents")
	cmd.Flags().Float64("noise", 0, "Noise scale applied to every step")
	cmd.Flags().Float64("target", 0, "Position that ends a race")
	cmd.Flags().Int("trials", 0, "Number of races to simulate")
	cmd.Flags().Int64("seed", 0, "Base seed for reproducible runs")
	cmd.Flags().Bool("random-seed", false, "Draw the base seed from the clock")
	cmd.Flags().Int("workers", 0, "Parallel workers (1 = sequential)")
	cmd.Flags().Int("max-ticks", 0, "Tick limit per race (0 = default)")
}

// applySimulationFlags copies explicitly set flags onto cfg.
func applySimulationFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	sim := &cfg.Simulation

	if flags.Changed("theta-a") {
		cfg.Agents.A.Power, _ = flags.GetFloat64("theta-a")
	}
	if flags.Changed("theta-b") {
		cfg.Agents.B.Power, _ = flags.GetFloat64("theta-b")
	}
	if flags.Changed("beta") {
		sim.Rigidity, _ = flags.GetFloat64("beta")
	}
	if flags.Changed("noise") {
		sim.NoiseScale, _ = flags.GetFloat64("noise")
	}
	if flags.Changed("target") {
		sim.Target, _ = flags.GetFloat64("target")
	}
	if flags.Changed("trials") {
		sim.Trials, _ = flags.GetInt("trials")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		sim.Seed = &seed
	}
	if random, _ := flags.GetBool("random-seed"); random {
		sim.Seed = nil
	}
	if flags.Changed("workers") {
		sim.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("max-ticks") {
		sim.MaxTicks, _ = flags.GetInt("max-ticks")
	}
}
