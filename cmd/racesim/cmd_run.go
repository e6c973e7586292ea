package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/racesim/internal/config"
	"github.com/lawnchairsociety/racesim/internal/database"
	"github.com/lawnchairsociety/racesim/internal/logger"
	"github.com/lawnchairsociety/racesim/internal/race"
	"github.com/lawnchairsociety/racesim/internal/report"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Estimate both agents' win rates",
		Long: `Simulate the configured number of races and report each agent's win rate.

Flags override the values from the config file. With --save the result is
stored and compared against earlier runs with the same parameters and seed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			save, _ := cmd.Flags().GetBool("save")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applySimulationFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			result, err := runSimulation(ctx, cfg)
			if err != nil {
				return err
			}

			var runID int64
			if save {
				runID, err = saveRun(ctx, cfg, result)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				return writeJSON(cmd, report.NewSummary(result))
			}
			if err := report.WriteText(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if runID != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\nSaved as run #%d\n", runID)
			}
			return nil
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().Bool("save", false, "Store the result in the results database")

	return cmd
}

func runSimulation(ctx context.Context, cfg *config.Config) (race.AggregateResult, error) {
	sim := cfg.Race()
	every := sim.Trials / 10
	if every == 0 {
		every = 1
	}
	progress := race.WithProgress(every, func(completed, total int) {
		logger.Debug("Simulation progress", "completed", completed, "total", total)
	})

	result, err := race.Run(ctx, cfg.AgentA(), cfg.AgentB(), sim, progress)
	if err != nil {
		return race.AggregateResult{}, err
	}

	logger.Always("Run complete",
		"trials", result.Trials,
		"seed", result.Seed,
		"wins_a", result.WinsA,
		"wins_b", result.WinsB,
		"elapsed", result.Elapsed)

	return result, nil
}

// saveRun stores result and warns when an earlier run with the same
// fingerprint produced different tallies.
func saveRun(ctx context.Context, cfg *config.Config, result race.AggregateResult) (int64, error) {
	db, err := openStore(cfg)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	rec := database.NewRunRecord(result)
	conflicts, err := db.ConflictingRuns(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("check previous runs: %w", err)
	}
	for _, c := range conflicts {
		logger.Warning("Run is not reproducible: an earlier run with the same parameters differs",
			"fingerprint", rec.Fingerprint,
			"previous_run", c.ID,
			"previous_wins_a", c.WinsA,
			"wins_a", rec.WinsA)
	}

	id, err := db.SaveRun(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	logger.Info("Run saved", "run_id", id, "fingerprint", rec.Fingerprint)
	return id, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
