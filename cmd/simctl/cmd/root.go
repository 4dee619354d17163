package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"credit-simulator/internal/app"
	"credit-simulator/internal/config"
)

type rootOptions struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "simctl",
		Short: "Credit simulator operator tool",
		Long: `simctl runs credit simulations locally and maintains the simulator
storage.

Commands:
  simulate - compute a payment schedule without storing it
  migrate  - create the database schema
  purge    - delete simulations older than a given age
  token    - mint a bearer token for the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (.toml or .yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newSimulateCmd(),
		newMigrateCmd(opts),
		newPurgeCmd(opts),
		newTokenCmd(opts),
	)
	return rootCmd
}

func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		printError(err)
	}
	return err
}

// load reads the configuration and builds a logger for commands that touch
// storage or secrets.
func (o *rootOptions) load() (*config.Config, *logrus.Logger, error) {
	if o.cfgFile != "" {
		os.Setenv("CONFIG_FILE", o.cfgFile)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger := app.NewLogger(level)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return cfg, logger, nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
