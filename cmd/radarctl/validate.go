package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"itnews-radar/internal/config"
)

func newValidateCmd() *cobra.Command {
	var profilePath, sourcesPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scoring profile and a sources file",
		Long: `Load the scoring profile and the sources file the way the API and the
worker do, and report the first problem found in each.

Examples:
  radarctl validate --profile profile.yaml --sources sources.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, afero.NewOsFs(), profilePath, sourcesPath)
		},
	}
	cmd.Flags().StringVar(&profilePath, "profile", os.Getenv("SCORING_PROFILE"), "scoring profile YAML (default: built-in)")
	cmd.Flags().StringVar(&sourcesPath, "sources", os.Getenv("SOURCES_FILE"), "sources YAML (default: mock source)")
	return cmd
}

func runValidate(cmd *cobra.Command, fs afero.Fs, profilePath, sourcesPath string) error {
	out := cmd.OutOrStdout()

	profile, err := config.LoadProfile(fs, profilePath)
	if err != nil {
		return err
	}
	keywords := 0
	for _, c := range profile.Categories {
		keywords += len(c.Terms) + len(c.Tokens) + len(c.Patterns)
	}
	fmt.Fprintf(out, "profile ok: %d categories, %d keywords, %d topics, topic threshold %.2f\n",
		len(profile.Categories), keywords, len(profile.Topics), profile.TopicThreshold)

	sources, err := config.LoadSources(fs, sourcesPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "sources ok: %d configured, %d enabled\n", len(sources.Sources), len(sources.Enabled()))
	for _, s := range sources.Sources {
		state := "enabled"
		if s.Disabled {
			state = "disabled"
		}
		fmt.Fprintf(out, "  - %s (%s, %s)\n", s.Name, s.Kind, state)
	}
	return nil
}
