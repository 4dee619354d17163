package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"credit-simulator/internal/service"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API",
		Long:  `Signs an HS256 token with JWT_SECRET. Send it as "Authorization: Bearer <token>".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			token, err := service.NewTokenService(cfg.JWTSecret, ttl, logger).GenerateToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
