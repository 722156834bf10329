package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"itnews-radar/internal/handler/http/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the ingest endpoint",
		Long: `Sign an HS256 token with JWT_SECRET, the secret the API verifies with
when AUTH_ENABLED=true. The token is printed on stdout.

Examples:
  JWT_SECRET=... radarctl token --subject ci-bot
  export RADAR_TOKEN=$(radarctl token --subject ops --role admin --ttl 8h)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			tok, err := auth.IssueToken([]byte(secret), subject, role, ttl, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "radarctl", "token subject")
	cmd.Flags().StringVar(&role, "role", auth.RoleIngest, "token role (ingest or admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
