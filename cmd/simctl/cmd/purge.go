package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"credit-simulator/internal/app"
)

func newPurgeCmd(root *rootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete old simulations",
		Long:  `Deletes simulations created before now minus --older-than, together with their schedules and cached pages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}

			cfg, logger, err := root.load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			store, closeStore, err := app.OpenStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			scheduleCache, closeCache := app.OpenCache(ctx, cfg, logger)
			defer closeCache()

			svc := app.NewSimulationService(store, scheduleCache, cfg, logger)
			deleted, err := svc.PurgeExpired(ctx, olderThan)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d simulation(s) older than %s\n", deleted, olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "minimum age of simulations to delete")
	return cmd
}
