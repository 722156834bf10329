package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"itnews-radar/internal/bootstrap"
	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/handler/http/news"
	"itnews-radar/internal/pkg/config"
)

type scoreOptions struct {
	title     string
	body      string
	profile   string
	threshold float64
}

func newScoreCmd(root *rootOptions) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score [title]",
		Short: "Score a title and body with the local profile",
		Long: `Score a title and body with the local scoring profile and embedder,
without contacting the API or storing anything.

The embedder is selected with EMBEDDER and friends, exactly as in the API.

Examples:
  radarctl score "Critical OpenSSL CVE patched"
  radarctl score --title "AWS outage" --body "us-east-1 degraded" --threshold 0.3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.title = args[0]
			}
			return runScore(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.title, "title", "", "item title")
	cmd.Flags().StringVar(&opts.body, "body", "", "item body")
	cmd.Flags().StringVar(&opts.profile, "profile", os.Getenv("SCORING_PROFILE"), "scoring profile YAML (default: built-in)")
	cmd.Flags().Float64Var(&opts.threshold, "threshold",
		config.LoadEnvFloat("RELEVANCE_THRESHOLD", 0.1, config.ValidateThreshold).Value,
		"admission threshold in [0,1]")
	return cmd
}

func runScore(cmd *cobra.Command, root *rootOptions, opts *scoreOptions) error {
	if strings.TrimSpace(opts.title) == "" {
		return errors.New("a title is required")
	}
	if err := entity.ValidateThreshold(opts.threshold); err != nil {
		return err
	}

	logger := root.logger(cmd)
	scoring, err := bootstrap.NewScoring(afero.NewOsFs(), opts.profile, nil, logger)
	if err != nil {
		return fmt.Errorf("build scoring pipeline: %w", err)
	}

	res := scoring.Pipeline.Score(cmd.Context(), entity.NewsItem{
		ID:          "cli",
		Source:      "cli",
		Title:       opts.title,
		Body:        opts.body,
		PublishedAt: time.Now().UTC(),
		Version:     entity.DefaultVersion,
	})
	return printJSON(cmd.OutOrStdout(), news.NewScoreResponse(res, opts.threshold))
}
