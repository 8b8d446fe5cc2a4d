package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/hyperjump/jobscout/internal/app"
	"github.com/hyperjump/jobscout/internal/cli"
	"github.com/hyperjump/jobscout/internal/keyword"
	"github.com/hyperjump/jobscout/internal/models"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Keyword search over the corpus",
	Long: `Keyword search over title, company, location and description. Multi-word queries work with or without quotes.
With no results, the search is retried once with typo tolerance.

Examples:
  jobscout search data engineer
  jobscout search --fuzzy kubernetis
  jobscout search --server http://localhost:8080 --output json golang`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus and index status",
	RunE:  runStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "jobscout version %s\n", version)
	},
}

var (
	searchServer string
	searchLimit  int
	searchFuzzy  bool
	searchOutput string
	statusServer string
	statusOutput string
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

func init() {
	searchCmd.Flags().StringVar(&searchServer, "server", "", "server URL; empty opens the local indexes")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "number of results")
	searchCmd.Flags().BoolVar(&searchFuzzy, "fuzzy", false, "enable fuzzy matching for typo tolerance")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "text", "output format: text, compact, or json")
	statusCmd.Flags().StringVar(&statusServer, "server", "", "server URL; empty reads local state")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "output format: text or json")
	rootCmd.AddCommand(searchCmd, statusCmd, versionCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(searchOutput)
	if err != nil {
		return err
	}
	q := buildQuery(args)
	if q == "" {
		return errors.New("query is required")
	}

	if searchServer != "" {
		search := func(ctx context.Context, fuzzy bool) ([]*models.Source, error) {
			return searchViaHTTP(ctx, searchServer, q, searchLimit, fuzzy)
		}
		return runSearchWith(context.Background(), cmd, q, format, search)
	}
	return withComponents(func(ctx context.Context, c *app.Components) error {
		search := func(ctx context.Context, fuzzy bool) ([]*models.Source, error) {
			opts := &keyword.SearchOptions{Highlight: "ansi"}
			if fuzzy {
				opts.Fuzziness = 1
			}
			if format == cli.OutputJSON {
				opts.Highlight = ""
			}
			return c.SearchPostings(ctx, q, searchLimit, opts)
		}
		return runSearchWith(ctx, cmd, q, format, search)
	})
}

func runSearchWith(ctx context.Context, cmd *cobra.Command, q string, format cli.OutputFormat,
	search func(context.Context, bool) ([]*models.Source, error)) error {
	results, err := search(ctx, searchFuzzy)
	if err != nil {
		return errors.Wrap(err, "search failed")
	}
	if len(results) == 0 && !searchFuzzy {
		if fuzzy, err := search(ctx, true); err == nil && len(fuzzy) > 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "no exact matches; showing typo-tolerant results")
			results = fuzzy
		}
	}
	return cli.WriteSources(cmd.OutOrStdout(), q, results, format)
}

func searchViaHTTP(ctx context.Context, serverURL, q string, limit int, fuzzy bool) ([]*models.Source, error) {
	v := url.Values{}
	v.Set("q", q)
	v.Set("limit", strconv.Itoa(limit))
	v.Set("fuzzy", strconv.FormatBool(fuzzy))
	var out struct {
		Results []*models.Source `json:"results"`
	}
	if err := getJSON(ctx, serverURL+"/api/v1/postings/search?"+v.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseFormat(statusOutput)
	if err != nil {
		return err
	}
	if statusServer != "" {
		st, err := statusViaHTTP(context.Background(), statusServer)
		if err != nil {
			return errors.Wrap(err, "status failed")
		}
		return cli.WriteStatus(cmd.OutOrStdout(), st, format)
	}
	return withComponents(func(ctx context.Context, c *app.Components) error {
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		return cli.WriteStatus(cmd.OutOrStdout(), st, format)
	})
}

func statusViaHTTP(ctx context.Context, serverURL string) (*app.Status, error) {
	var st app.Status
	if err := getJSON(ctx, serverURL+"/api/v1/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func getJSON(ctx context.Context, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Newf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
