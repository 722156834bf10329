package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"itnews-radar/internal/observability/logging"
)

type rootOptions struct {
	server  string
	token   string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "radarctl",
		Short: "radarctl scores IT news and queries the radar API.",
		Long: `radarctl is the command line companion of the IT news radar.

It scores a title and body with the local scoring profile, pushes item
batches to a running API and lists the relevant items stored there.`,
		SilenceUsage: true,
	}

	defaultServer := os.Getenv("RADAR_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	cmd.PersistentFlags().StringVarP(&opts.server, "server", "s", defaultServer, "radar API base URL (env RADAR_SERVER)")
	cmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("RADAR_TOKEN"), "bearer token for POST /ingest (env RADAR_TOKEN)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(
		newScoreCmd(opts),
		newIngestCmd(opts),
		newRetrieveCmd(opts),
		newGetCmd(opts),
		newValidateCmd(),
		newTokenCmd(),
	)
	return cmd
}

// logger writes to stderr only in verbose mode so stdout stays parseable.
func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logging.NewTextLogger(cmd.ErrOrStderr(), slog.LevelDebug)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
