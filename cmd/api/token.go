package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pkordes/tourdesk/internal/config"
	"github.com/pkordes/tourdesk/internal/middleware"
)

// tokenOptions holds the flags of the token command.
type tokenOptions struct {
	User string
	Orgs []string
	TTL  time.Duration
}

func newTokenCommand() *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		Long: `Mint an HS256 bearer token signed with JWT_SECRET.

The token carries the user id as its subject and the organizations the user
may act on. Pass --org once per organization.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadToken()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			user, err := uuid.Parse(opts.User)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}
			orgs := make([]uuid.UUID, 0, len(opts.Orgs))
			for _, raw := range opts.Orgs {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("--org %q: %w", raw, err)
				}
				orgs = append(orgs, id)
			}

			tok, err := middleware.IssueToken([]byte(cfg.JWTSecret), user, orgs, opts.TTL, time.Now())
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.User, "user", "", "user id (uuid)")
	cmd.Flags().StringSliceVar(&opts.Orgs, "org", nil, "organization id (repeatable)")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
