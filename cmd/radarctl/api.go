package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"itnews-radar/internal/handler/http/news"
)

func newIngestCmd(root *rootOptions) *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "ingest <file|->",
		Short: "Push a JSON batch of items to the API",
		Long: `Push a batch of items to POST /ingest and print the ingest summary.

The file holds either a JSON array of items or an object
{"items": [...], "threshold": 0.2}. Use "-" to read from stdin.

Examples:
  radarctl ingest items.json
  cat items.json | radarctl ingest - --threshold 0.3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var override *float64
			if cmd.Flags().Changed("threshold") {
				override = &threshold
			}
			return runIngest(cmd, root, args[0], override)
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "admission threshold override in [0,1]")
	return cmd
}

func runIngest(cmd *cobra.Command, root *rootOptions, path string, threshold *float64) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	req, err := decodeBatch(data)
	if err != nil {
		return err
	}
	if threshold != nil {
		req.Threshold = threshold
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	client, err := newAPIClient(root.server, root.token)
	if err != nil {
		return err
	}
	var resp news.IngestResponse
	if err := client.do(cmd.Context(), http.MethodPost, "/ingest", nil, bytes.NewReader(body), &resp); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// decodeBatch accepts a bare array of items or a full ingest request.
func decodeBatch(data []byte) (news.IngestRequest, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return news.IngestRequest{}, errors.New("input is empty")
	}
	var req news.IngestRequest
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &req.Items); err != nil {
			return req, fmt.Errorf("decode items: %w", err)
		}
	case '{':
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("decode request: %w", err)
		}
	default:
		return req, errors.New("input must be a JSON array or object")
	}
	if len(req.Items) == 0 {
		return req, errors.New("input contains no items")
	}
	return req, nil
}

type retrieveOptions struct {
	threshold float64
	source    string
	limit     int
	page      int
}

func newRetrieveCmd(root *rootOptions) *cobra.Command {
	opts := &retrieveOptions{}
	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "List stored items at or above a threshold",
		Long: `List stored items from GET /retrieve, ranked by final score, then
recency, then id.

Examples:
  radarctl retrieve
  radarctl retrieve --threshold 0.5 --source hackernews --limit 10
  radarctl retrieve --limit 10 --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if cmd.Flags().Changed("threshold") {
				q.Set("threshold", strconv.FormatFloat(opts.threshold, 'f', -1, 64))
			}
			if opts.source != "" {
				q.Set("source", opts.source)
			}
			if opts.limit > 0 {
				q.Set("limit", strconv.Itoa(opts.limit))
			}
			if opts.page > 1 {
				q.Set("page", strconv.Itoa(opts.page))
			}

			client, err := newAPIClient(root.server, root.token)
			if err != nil {
				return err
			}
			var resp news.RetrieveResponse
			if err := client.do(cmd.Context(), http.MethodGet, "/retrieve", q, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "minimum final score (default: server threshold)")
	cmd.Flags().StringVar(&opts.source, "source", "", "only items from this source")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "maximum number of items (0 = all)")
	cmd.Flags().IntVar(&opts.page, "page", 1, "1-based page, requires --limit")
	return cmd
}

func newGetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one stored item with its score breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(root.server, root.token)
			if err != nil {
				return err
			}
			var item news.ItemDTO
			err = client.do(cmd.Context(), http.MethodGet, "/items/"+url.PathEscape(args[0]), nil, nil, &item)
			if isNotFound(err) {
				return fmt.Errorf("item %q not found", args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
}
