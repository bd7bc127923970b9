package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/typesystem/internal/server"
)

// NewTokenCommand creates the token command
func NewTokenCommand(opts *globalOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for the query server",
		Long: `Sign a bearer token with server.token_secret for clients of 'typesys serve'.

The secret is read from typesys.yml or TYPESYS_SERVER_TOKEN_SECRET.

Examples:
  typesys token
  typesys token --subject ci --ttl 1h
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts, false)
			if err != nil {
				return err
			}
			defer e.close()

			if e.cfg.Server.TokenSecret == "" {
				return fmt.Errorf("server.token_secret is not set")
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = e.cfg.Server.TokenTTL
			}

			auth, err := server.NewTokenAuth(e.cfg.Server.TokenSecret, ttl)
			if err != nil {
				return err
			}
			token, err := auth.IssueToken(subject)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(e.out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "typesys", "Subject recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", server.DefaultTokenTTL, "Token lifetime")

	return cmd
}
