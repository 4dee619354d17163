package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"credit-simulator/internal/app"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Long: `Connects to the configured database (DB_DRIVER, DB_HOST, ... or DB_PATH)
and creates the simulation tables if they are missing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			_, closeStore, err := app.OpenStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}
