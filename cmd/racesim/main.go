package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/racesim/internal/config"
	"github.com/lawnchairsociety/racesim/internal/database"
	"github.com/lawnchairsociety/racesim/internal/logger"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "racesim",
		Short: "Monte Carlo win-rate estimator for two-agent races",
		Long: `racesim estimates how often each of two agents wins a noisy race to a
fixed target, given their powers and a shared rigidity.

Parameters come from data/racesim.yaml and can be overridden per command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newHistoryCmd(),
		newServeCmd(),
		newMigrateCmd(),
	)

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("json", false, "Output as JSON")
	cmd.PersistentFlags().String("config", "data/racesim.yaml", "Path to simulation config YAML file")
	cmd.PersistentFlags().String("logging", "data/logging.yaml", "Path to logging config YAML file")
}

func initLogging(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("logging")
	logConfig, err := logger.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("load logging config: %w", err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	return nil
}

// loadConfig reads the --config file. A missing file yields the reference scenario.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*database.Database, error) {
	db, err := database.OpenWithConfig(cfg.Store())
	if err != nil {
		return nil, fmt.Errorf("open results store: %w", err)
	}
	return db, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				writeJSON(cmd, map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "racesim version %s\n", version)
			}
		},
	}
}
