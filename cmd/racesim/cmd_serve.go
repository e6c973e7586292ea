package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/racesim/internal/logger"
	"github.com/lawnchairsociety/racesim/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run simulations for WebSocket clients",
		Long: `Start an HTTP server that accepts run requests on /ws and reports
progress and results as JSON messages. /healthz answers "ok".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			save, _ := cmd.Flags().GetBool("save")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var store server.RunStore
			if save {
				db, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				store = db
				logger.Info("Saving remote runs", "driver", cfg.Database.Driver)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (Ctrl+C to stop)\n", addr)
			return server.New(cfg.WebSocket, store).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().String("addr", ":8080", "Address to listen on")
	cmd.Flags().Bool("save", false, "Store remote runs in the results database")

	return cmd
}
